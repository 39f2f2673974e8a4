package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"payment_reconciler/models"
)

type Authorization interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
	EnsureUser(ctx context.Context, id, email string) (models.User, error)
}

type Transfer interface {
	UpsertTransfer(ctx context.Context, t models.Transfer) (created bool, err error)
	GetTransfer(ctx context.Context, paymentID int64) (models.Transfer, error)
	ClaimTransfer(ctx context.Context, paymentID int64, userID string, at time.Time) (bool, error)
	UnclaimTransfer(ctx context.Context, paymentID int64) (bool, error)
	ConfirmTransfer(ctx context.Context, paymentID int64, at time.Time) (bool, error)
	SearchTransfers(ctx context.Context, c models.TransferCriteria) ([]models.Transfer, error)
}

type ManualTransfer interface {
	CreateManualTransfer(ctx context.Context, m models.ManualTransfer) error
	GetManualTransfer(ctx context.Context, id string) (models.ManualTransfer, error)
	ListManualTransfers(ctx context.Context) ([]models.ManualTransfer, error)
	ListManualTransfersForUser(ctx context.Context, userID string, unclaimedOnly bool) ([]models.ManualTransfer, error)
	ReassignManualTransfer(ctx context.Context, id string, ownerID *string) (bool, error)
	ConfirmManualTransfer(ctx context.Context, id string, at time.Time) (bool, error)
}

type Repository struct {
	Authorization
	Transfer
	ManualTransfer
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		Authorization:  NewAuthPostgres(db),
		Transfer:       NewTransferPostgres(db),
		ManualTransfer: NewManualTransferPostgres(db),
	}
}
