package service

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

const topicPayment = "payment"

// Notification is an inbound provider webhook as received: the decoded JSON
// body (may be nil) and the query string.
type Notification struct {
	Body  map[string]interface{}
	Query url.Values
}

// PaymentID extracts the payment id from the accepted notification shapes,
// in order: structured event, legacy query form, legacy resource form.
func (n Notification) PaymentID() (int64, bool) {
	if asString(n.Body["type"]) == topicPayment {
		if data, ok := n.Body["data"].(map[string]interface{}); ok {
			if id, ok := parseID(data["id"]); ok {
				return id, true
			}
		}
	}
	if n.Query.Get("type") == topicPayment {
		if id, ok := parseID(n.Query.Get("data.id")); ok {
			return id, true
		}
	}

	if n.Query.Get("topic") == topicPayment {
		if id, ok := parseID(n.Query.Get("id")); ok {
			return id, true
		}
	}

	if asString(n.Body["topic"]) == topicPayment {
		if id, ok := parseID(lastSegment(asString(n.Body["resource"]))); ok {
			return id, true
		}
	}
	return 0, false
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func parseID(v interface{}) (int64, bool) {
	var (
		id  int64
		err error
	)
	switch x := v.(type) {
	case string:
		id, err = strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	case json.Number:
		id, err = x.Int64()
	case float64:
		id = int64(x)
		if float64(id) != x {
			return 0, false
		}
	case int64:
		id = x
	case int:
		id = int64(x)
	default:
		return 0, false
	}
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// lastSegment returns the final path segment of a resource URL, or the
// value itself when it is not a URL.
func lastSegment(resource string) string {
	resource = strings.TrimSpace(resource)
	if u, err := url.Parse(resource); err == nil && u.Path != "" {
		resource = u.Path
	}
	resource = strings.TrimRight(resource, "/")
	if i := strings.LastIndex(resource, "/"); i >= 0 {
		return resource[i+1:]
	}
	return resource
}
