package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"payment_reconciler/models"
	"payment_reconciler/pkg/events"
	"payment_reconciler/pkg/repository"
)

var errMockProvider = errors.New("provider unavailable")

// newTestRepos backs the services with an in-memory sqlite store.
func newTestRepos(t *testing.T) (*repository.Repository, *sqlx.DB) {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := repository.Migrate(context.Background(), db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return repository.NewRepository(db), db
}

// MockGateway implements ProviderGateway for testing
type MockGateway struct {
	mu          sync.Mutex
	calls       int
	PaymentFunc func(ctx context.Context, id int64) (models.ProviderPayment, error)
}

func (m *MockGateway) GetPayment(ctx context.Context, id int64) (models.ProviderPayment, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.PaymentFunc != nil {
		return m.PaymentFunc(ctx, id)
	}
	return models.ProviderPayment{}, errMockProvider
}

func (m *MockGateway) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingAlerter struct {
	mu  sync.Mutex
	ids []int64
}

func (a *recordingAlerter) TransferApproved(_ context.Context, t models.Transfer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ids = append(a.ids, t.PaymentID)
}

func providerPayment(id int64, status string, amount string, approved *time.Time, dni string) models.ProviderPayment {
	p := models.ProviderPayment{
		ID:                id,
		Status:            status,
		TransactionAmount: decimal.RequireFromString(amount),
		DateApproved:      approved,
		Description:       fmt.Sprintf("payment %d", id),
	}
	email := fmt.Sprintf("payer%d@example.com", id)
	p.Payer.Email = &email
	p.Payer.Identification.Type = "DNI"
	p.Payer.Identification.Number = dni
	p.Raw = []byte(fmt.Sprintf(`{"id":%d,"status":%q,"transaction_amount":%s}`, id, status, amount))
	return p
}

// seedPayment stores a transfer the way ingestion would.
func seedPayment(t *testing.T, repos *repository.Repository, p models.ProviderPayment) {
	t.Helper()
	if _, err := repos.Transfer.UpsertTransfer(context.Background(), transferFromPayment(p.ID, p)); err != nil {
		t.Fatalf("Failed to seed payment %d: %v", p.ID, err)
	}
}

func seedUser(t *testing.T, db *sqlx.DB, id, email string, admin bool) models.Principal {
	t.Helper()
	if _, err := repository.NewAuthPostgres(db).EnsureUser(context.Background(), id, email); err != nil {
		t.Fatalf("Failed to seed user %s: %v", id, err)
	}
	if admin {
		if _, err := db.Exec(`UPDATE users SET is_admin = TRUE WHERE id = ?`, id); err != nil {
			t.Fatalf("Failed to promote %s: %v", id, err)
		}
	}
	return models.Principal{ID: id, Email: email, IsAdmin: admin}
}

func timePtr(t time.Time) *time.Time { return &t }

func paymentIDs(transfers []models.Transfer) []int64 {
	out := make([]int64, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, t.PaymentID)
	}
	return out
}
