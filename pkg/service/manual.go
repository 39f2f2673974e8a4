package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"payment_reconciler/models"
	"payment_reconciler/pkg/events"
	"payment_reconciler/pkg/repository"
)

// ManualTransferRegistry keeps operator-entered bank transfers. Ownership is
// assigned by an admin at creation or by a later edit, so there is no
// conditional claim here.
type ManualTransferRegistry struct {
	repos     repository.ManualTransfer
	users     repository.Authorization
	publisher events.Publisher
	now       func() time.Time
}

func NewManualTransferRegistry(repos repository.ManualTransfer, users repository.Authorization, publisher events.Publisher) *ManualTransferRegistry {
	return &ManualTransferRegistry{
		repos:     repos,
		users:     users,
		publisher: publisher,
		now:       time.Now,
	}
}

func (r *ManualTransferRegistry) Create(ctx context.Context, operator models.Principal, in models.ManualTransferInput) (models.ManualTransfer, error) {
	if !operator.IsAdmin {
		return models.ManualTransfer{}, ErrForbidden
	}

	m := models.ManualTransfer{
		ID:            uuid.NewString(),
		TransactionID: strings.TrimSpace(in.TransactionID),
		BankName:      strings.TrimSpace(in.BankName),
		LoadedAt:      r.now().UTC(),
		RealAt:        in.RealAt,
		Amount:        in.Amount,
		CreatedBy:     operator.ID,
	}
	if m.TransactionID == "" || m.BankName == "" {
		return models.ManualTransfer{}, validationf("transaction_id and bank_name are required")
	}
	if !m.Amount.IsPositive() {
		return models.ManualTransfer{}, validationf("amount must be positive")
	}

	owner, err := r.owner(ctx, in.OwnerID)
	if err != nil {
		return models.ManualTransfer{}, err
	}
	m.OwnerID = owner

	if err := r.repos.CreateManualTransfer(ctx, m); err != nil {
		return models.ManualTransfer{}, err
	}

	e := events.Event{Type: events.ManualTransferCreated, Subject: m.ID, At: m.LoadedAt}
	if owner != nil {
		e.UserID = *owner
	}
	r.publisher.Publish(ctx, e)
	return m, nil
}

func (r *ManualTransferRegistry) ListAll(ctx context.Context, operator models.Principal) ([]models.ManualTransfer, error) {
	if !operator.IsAdmin {
		return nil, ErrForbidden
	}
	return r.repos.ListManualTransfers(ctx)
}

// ListForUser returns the user's own manual transfers, or the unowned ones
// when unclaimedOnly is set.
func (r *ManualTransferRegistry) ListForUser(ctx context.Context, userID string, unclaimedOnly bool) ([]models.ManualTransfer, error) {
	return r.repos.ListManualTransfersForUser(ctx, userID, unclaimedOnly)
}

// Reassign sets a new owner; an empty ownerID frees the transfer.
func (r *ManualTransferRegistry) Reassign(ctx context.Context, operator models.Principal, id string, ownerID string) (models.ManualTransfer, error) {
	if !operator.IsAdmin {
		return models.ManualTransfer{}, ErrForbidden
	}
	owner, err := r.owner(ctx, ownerID)
	if err != nil {
		return models.ManualTransfer{}, err
	}

	ok, err := r.repos.ReassignManualTransfer(ctx, id, owner)
	if err != nil {
		return models.ManualTransfer{}, err
	}
	if !ok {
		return models.ManualTransfer{}, ErrNotFound
	}
	return r.repos.GetManualTransfer(ctx, id)
}

func (r *ManualTransferRegistry) owner(ctx context.Context, ownerID string) (*string, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, nil
	}
	if _, err := r.users.GetUserByID(ctx, ownerID); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return nil, validationf("unknown owner %q", ownerID)
		}
		return nil, err
	}
	return &ownerID, nil
}
