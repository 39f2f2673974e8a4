package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"payment_reconciler/models"
	"payment_reconciler/pkg/cache"
	"payment_reconciler/pkg/events"
	"payment_reconciler/pkg/repository"
)

// ProviderGateway looks a payment up at the provider.
type ProviderGateway interface {
	GetPayment(ctx context.Context, paymentID int64) (models.ProviderPayment, error)
}

// Alerter is told about newly stored payments that arrive already approved.
type Alerter interface {
	TransferApproved(ctx context.Context, t models.Transfer)
}

type Authorization interface {
	Resolve(ctx context.Context, userID, email string) (models.Principal, error)
}

type Ingestion interface {
	Ingest(n Notification) bool
	Sync(ctx context.Context, paymentID int64) (models.Transfer, error)
	Wait()
}

type Matching interface {
	ParseFilters(q models.TransferQuery) (models.SearchFilters, error)
	Search(ctx context.Context, p models.Principal, f models.SearchFilters) ([]models.Transfer, error)
}

type Claims interface {
	Claim(ctx context.Context, paymentID int64, userID string) (models.ClaimResult, error)
	Unclaim(ctx context.Context, p models.Principal, paymentID int64) error
	ConfirmBatch(ctx context.Context, p models.Principal, req models.ConfirmBatchRequest) (models.ConfirmBatchResult, error)
}

type ManualTransfers interface {
	Create(ctx context.Context, operator models.Principal, in models.ManualTransferInput) (models.ManualTransfer, error)
	ListAll(ctx context.Context, operator models.Principal) ([]models.ManualTransfer, error)
	ListForUser(ctx context.Context, userID string, unclaimedOnly bool) ([]models.ManualTransfer, error)
	Reassign(ctx context.Context, operator models.Principal, id string, ownerID string) (models.ManualTransfer, error)
}

type Service struct {
	Authorization
	Ingestion
	Matching
	Claims
	ManualTransfers
}

// Deps are the collaborators built once at process start.
type Deps struct {
	Gateway     ProviderGateway
	Inflight    cache.InflightSet
	Publisher   events.Publisher
	Alerter     Alerter
	SettleDelay time.Duration
	Location    *time.Location
}

func NewService(repos *repository.Repository, deps Deps) *Service {
	if deps.Publisher == nil {
		deps.Publisher = events.LogPublisher{}
	}
	if deps.Inflight == nil {
		deps.Inflight = cache.NewMemoryInflight(deps.SettleDelay + time.Minute)
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Alerter == nil {
		logrus.Info("operator alerts disabled")
	}

	return &Service{
		Authorization:   NewAuthService(repos.Authorization),
		Ingestion:       NewIngestionPipeline(repos.Transfer, deps),
		Matching:        NewMatchEngine(repos.Transfer, deps.Location),
		Claims:          NewClaimCoordinator(repos.Transfer, repos.ManualTransfer, deps.Publisher),
		ManualTransfers: NewManualTransferRegistry(repos.ManualTransfer, repos.Authorization, deps.Publisher),
	}
}
