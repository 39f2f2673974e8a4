package service

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"payment_reconciler/models"
	"payment_reconciler/pkg/cache"
)

func newTestPipeline(t *testing.T, gw *MockGateway, settle time.Duration) (*IngestionPipeline, *recordingPublisher, *recordingAlerter) {
	t.Helper()
	repos, _ := newTestRepos(t)
	pub := &recordingPublisher{}
	alerts := &recordingAlerter{}
	p := NewIngestionPipeline(repos.Transfer, Deps{
		Gateway:     gw,
		Inflight:    cache.NewMemoryInflight(time.Minute),
		Publisher:   pub,
		Alerter:     alerts,
		SettleDelay: settle,
	})
	return p, pub, alerts
}

func structuredEvent(id int64) Notification {
	return Notification{Body: map[string]interface{}{
		"type": "payment",
		"data": map[string]interface{}{"id": float64(id)},
	}}
}

func TestIngestStoresApprovedPayment(t *testing.T) {
	approved := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	gw := &MockGateway{PaymentFunc: func(_ context.Context, id int64) (models.ProviderPayment, error) {
		return providerPayment(id, "approved", "500", &approved, "20123456"), nil
	}}
	p, pub, alerts := newTestPipeline(t, gw, 0)

	if !p.Ingest(structuredEvent(123)) {
		t.Fatal("Ingest() should recognize the notification")
	}
	p.Wait()

	got, err := p.repos.GetTransfer(context.Background(), 123)
	if err != nil {
		t.Fatalf("GetTransfer() error = %v", err)
	}
	if got.Status != "approved" || got.OwnerID != nil {
		t.Errorf("stored = status %q owner %v", got.Status, got.OwnerID)
	}
	if got.Amount.String() != "500" {
		t.Errorf("amount = %s", got.Amount)
	}
	if got.ApprovedAt == nil || !got.ApprovedAt.Equal(approved) {
		t.Errorf("approved_at = %v", got.ApprovedAt)
	}
	if got.PayerDNI == nil || *got.PayerDNI != "20123456" {
		t.Errorf("payer_dni = %v", got.PayerDNI)
	}
	if len(alerts.ids) != 1 || alerts.ids[0] != 123 {
		t.Errorf("alerts = %v", alerts.ids)
	}
	if types := pub.Types(); len(types) != 1 || types[0] != "transfer.ingested" {
		t.Errorf("events = %v", types)
	}
}

func TestIngestIsIdempotent(t *testing.T) {
	approved := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	status := "pending"
	gw := &MockGateway{PaymentFunc: func(_ context.Context, id int64) (models.ProviderPayment, error) {
		if status == "pending" {
			return providerPayment(id, status, "500", nil, "20123456"), nil
		}
		return providerPayment(id, status, "500", &approved, "20123456"), nil
	}}
	p, _, alerts := newTestPipeline(t, gw, 0)
	ctx := context.Background()

	p.Ingest(structuredEvent(42))
	p.Wait()
	status = "approved"
	for i := 0; i < 3; i++ {
		p.Ingest(structuredEvent(42))
		p.Wait()
	}

	all, err := p.repos.SearchTransfers(ctx, models.TransferCriteria{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("rows = %d, want 1", len(all))
	}
	if all[0].Status != "approved" || all[0].ApprovedAt == nil {
		t.Errorf("row = status %q approved_at %v", all[0].Status, all[0].ApprovedAt)
	}
	if string(all[0].RawPayload) != `{"id":42,"status":"approved","transaction_amount":500}` {
		t.Errorf("raw payload = %s", all[0].RawPayload)
	}
	if len(alerts.ids) != 0 {
		t.Errorf("a row first stored as pending must not alert, got %v", alerts.ids)
	}
}

func TestIngestIgnoresUnknownNotification(t *testing.T) {
	gw := &MockGateway{}
	p, _, _ := newTestPipeline(t, gw, 0)

	if p.Ingest(Notification{Body: map[string]interface{}{"topic": "merchant_order"}}) {
		t.Error("Ingest() should reject notifications without a payment id")
	}
	p.Wait()
	if gw.Calls() != 0 {
		t.Errorf("gateway calls = %d, want 0", gw.Calls())
	}
}

func TestIngestSwallowsProviderFailure(t *testing.T) {
	gw := &MockGateway{}
	p, pub, _ := newTestPipeline(t, gw, 0)

	p.Ingest(structuredEvent(7))
	p.Wait()

	if gw.Calls() != 1 {
		t.Errorf("gateway calls = %d, want 1", gw.Calls())
	}
	if _, err := p.repos.GetTransfer(context.Background(), 7); err == nil {
		t.Error("no row should be stored when the provider fails")
	}
	if len(pub.Types()) != 0 {
		t.Errorf("events = %v", pub.Types())
	}
}

func TestIngestCoalescesNotificationsDuringSettleDelay(t *testing.T) {
	gw := &MockGateway{PaymentFunc: func(_ context.Context, id int64) (models.ProviderPayment, error) {
		return providerPayment(id, "approved", "10", timePtr(time.Now().UTC()), "30111222"), nil
	}}
	p, _, _ := newTestPipeline(t, gw, 100*time.Millisecond)

	for i := 0; i < 3; i++ {
		if !p.Ingest(structuredEvent(9)) {
			t.Fatal("Ingest() should acknowledge a redelivery")
		}
	}
	p.Wait()
	if gw.Calls() != 1 {
		t.Errorf("gateway calls = %d, want 1", gw.Calls())
	}

	p.Ingest(structuredEvent(9))
	p.Wait()
	if gw.Calls() != 2 {
		t.Errorf("gateway calls after settle = %d, want 2", gw.Calls())
	}
}

func TestSyncReportsUpstreamFailure(t *testing.T) {
	p, _, _ := newTestPipeline(t, &MockGateway{}, 0)

	_, err := p.Sync(context.Background(), 5)
	if errors.Cause(err) != ErrUpstream {
		t.Fatalf("Sync() error = %v, want ErrUpstream", err)
	}
}

func TestSyncReturnsStoredTransfer(t *testing.T) {
	gw := &MockGateway{PaymentFunc: func(_ context.Context, id int64) (models.ProviderPayment, error) {
		return providerPayment(id, "rejected", "99.90", nil, ""), nil
	}}
	p, _, _ := newTestPipeline(t, gw, time.Hour)

	start := time.Now()
	got, err := p.Sync(context.Background(), 77)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Sync() must not wait out the settle delay")
	}
	if got.PaymentID != 77 || got.Status != "rejected" || got.PayerDNI != nil {
		t.Errorf("transfer = %+v", got)
	}
}
