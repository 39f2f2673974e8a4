package events

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	TransferIngested      = "transfer.ingested"
	TransferClaimed       = "transfer.claimed"
	TransferUnclaimed     = "transfer.unclaimed"
	TransferConfirmed     = "transfer.confirmed"
	ManualTransferCreated = "manual_transfer.created"
)

// Event is a state change of a transfer. Subject is the payment id or the
// manual transfer id.
type Event struct {
	Type    string    `json:"event_type"`
	Subject string    `json:"subject"`
	UserID  string    `json:"user_id,omitempty"`
	Status  string    `json:"status,omitempty"`
	At      time.Time `json:"at"`
}

// Publisher delivers events best-effort. Implementations log failures
// instead of returning them.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// LogPublisher is used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, e Event) {
	logrus.WithFields(logrus.Fields{
		"event":   e.Type,
		"subject": e.Subject,
		"user_id": e.UserID,
	}).Info("event")
}
