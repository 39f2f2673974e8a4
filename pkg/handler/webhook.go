package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"payment_reconciler/pkg/service"
)

const maxWebhookBody = 1 << 20

// Webhook acknowledges every notification with 200, whatever it contains.
// Processing happens after the response in the ingestion pipeline.
func (h *Handler) Webhook(c *gin.Context) {
	deliveryID := c.GetHeader("X-Request-Id")
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}
	log := logrus.WithField("delivery_id", deliveryID)

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		log.Warnf("webhook: read body: %v", err)
	}

	var body map[string]interface{}
	if len(bytes.TrimSpace(raw)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			log.Warnf("webhook: body is not a JSON object: %v", err)
			body = nil
		}
	}

	n := service.Notification{Body: body, Query: c.Request.URL.Query()}
	if scheduled := h.service.Ingest(n); scheduled {
		log.Info("webhook: notification scheduled")
	}
	c.Status(http.StatusOK)
}
