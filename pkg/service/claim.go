package service

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"payment_reconciler/models"
	"payment_reconciler/pkg/events"
	"payment_reconciler/pkg/repository"
)

const (
	msgClaimed      = "Transfer claimed"
	msgAlreadyYours = "You already claimed this transfer"

	// claimAttempts bounds the retries when the row is freed between the
	// conditional update and the re-read.
	claimAttempts = 3
)

// ClaimCoordinator owns the owner field of transfers. Every decision is
// taken by the store's conditional update; nothing about ownership is kept
// in memory between requests.
type ClaimCoordinator struct {
	transfers repository.Transfer
	manual    repository.ManualTransfer
	publisher events.Publisher
	now       func() time.Time
}

func NewClaimCoordinator(transfers repository.Transfer, manual repository.ManualTransfer, publisher events.Publisher) *ClaimCoordinator {
	return &ClaimCoordinator{
		transfers: transfers,
		manual:    manual,
		publisher: publisher,
		now:       time.Now,
	}
}

func (c *ClaimCoordinator) Claim(ctx context.Context, paymentID int64, userID string) (models.ClaimResult, error) {
	res := models.ClaimResult{PaymentID: paymentID, OwnerID: userID}

	for attempt := 0; attempt < claimAttempts; attempt++ {
		ok, err := c.transfers.ClaimTransfer(ctx, paymentID, userID, c.now())
		if err != nil {
			return res, err
		}
		if ok {
			c.publish(ctx, events.TransferClaimed, paymentID, userID)
			res.Message = msgClaimed
			return res, nil
		}

		t, err := c.transfers.GetTransfer(ctx, paymentID)
		if errors.Cause(err) == sql.ErrNoRows {
			return res, ErrNotFound
		}
		if err != nil {
			return res, err
		}
		switch {
		case t.OwnerID == nil:
			// освободили между UPDATE и SELECT, пробуем ещё раз
			continue
		case *t.OwnerID == userID:
			res.AlreadyYours = true
			res.Message = msgAlreadyYours
			return res, nil
		default:
			return res, ErrAlreadyClaimed
		}
	}
	return res, ErrAlreadyClaimed
}

func (c *ClaimCoordinator) Unclaim(ctx context.Context, p models.Principal, paymentID int64) error {
	if !p.IsAdmin {
		return ErrForbidden
	}
	ok, err := c.transfers.UnclaimTransfer(ctx, paymentID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	c.publish(ctx, events.TransferUnclaimed, paymentID, p.ID)
	return nil
}

// ConfirmBatch archives every listed transfer it can and reports the rest.
// A partially applied batch is never reported as a success.
func (c *ClaimCoordinator) ConfirmBatch(ctx context.Context, p models.Principal, req models.ConfirmBatchRequest) (models.ConfirmBatchResult, error) {
	res := models.ConfirmBatchResult{Confirmed: []string{}, Failed: []models.BatchFailure{}}
	if !p.IsAdmin {
		return res, ErrForbidden
	}
	if len(req.IDs) == 0 && len(req.ManualIDs) == 0 {
		return res, validationf("ids must not be empty")
	}

	at := c.now()
	seen := make(map[string]bool)
	for _, id := range req.IDs {
		key := strconv.FormatInt(id, 10)
		if seen[key] {
			continue
		}
		seen[key] = true

		if reason := c.confirmTransfer(ctx, id, at); reason != "" {
			res.Failed = append(res.Failed, models.BatchFailure{ID: key, Reason: reason})
			continue
		}
		res.Confirmed = append(res.Confirmed, key)
		c.publish(ctx, events.TransferConfirmed, id, p.ID)
	}

	for _, id := range req.ManualIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		if reason := c.confirmManual(ctx, id, at); reason != "" {
			res.Failed = append(res.Failed, models.BatchFailure{ID: id, Reason: reason})
			continue
		}
		res.Confirmed = append(res.Confirmed, id)
		c.publisher.Publish(ctx, events.Event{Type: events.TransferConfirmed, Subject: id, UserID: p.ID, At: at.UTC()})
	}

	if len(res.Failed) > 0 {
		logrus.WithFields(logrus.Fields{
			"confirmed": len(res.Confirmed),
			"failed":    len(res.Failed),
		}).Warn("confirm batch partially applied")
	}
	return res, nil
}

// confirmTransfer returns an empty reason on success.
func (c *ClaimCoordinator) confirmTransfer(ctx context.Context, id int64, at time.Time) string {
	ok, err := c.transfers.ConfirmTransfer(ctx, id, at)
	if err != nil {
		logrus.WithField("payment_id", id).Errorf("confirm: %v", err)
		return "store error"
	}
	if ok {
		return ""
	}

	t, err := c.transfers.GetTransfer(ctx, id)
	switch {
	case errors.Cause(err) == sql.ErrNoRows:
		return "not found"
	case err != nil:
		logrus.WithField("payment_id", id).Errorf("confirm re-read: %v", err)
		return "store error"
	case t.ConfirmedAt != nil:
		return "already confirmed"
	case t.OwnerID == nil:
		return "not claimed"
	default:
		return "not confirmed"
	}
}

func (c *ClaimCoordinator) confirmManual(ctx context.Context, id string, at time.Time) string {
	ok, err := c.manual.ConfirmManualTransfer(ctx, id, at)
	if err != nil {
		logrus.WithField("manual_id", id).Errorf("confirm: %v", err)
		return "store error"
	}
	if ok {
		return ""
	}

	_, err = c.manual.GetManualTransfer(ctx, id)
	switch {
	case errors.Cause(err) == sql.ErrNoRows:
		return "not found"
	case err != nil:
		logrus.WithField("manual_id", id).Errorf("confirm re-read: %v", err)
		return "store error"
	default:
		return "already confirmed"
	}
}

func (c *ClaimCoordinator) publish(ctx context.Context, eventType string, paymentID int64, userID string) {
	c.publisher.Publish(ctx, events.Event{
		Type:    eventType,
		Subject: strconv.FormatInt(paymentID, 10),
		UserID:  userID,
		At:      c.now().UTC(),
	})
}
