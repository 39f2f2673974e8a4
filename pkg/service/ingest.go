package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"payment_reconciler/models"
	"payment_reconciler/pkg/cache"
	"payment_reconciler/pkg/events"
	"payment_reconciler/pkg/repository"
)

// DefaultSettleDelay is how long a notification waits before the provider is
// queried, so the read does not see a half-written payment.
const DefaultSettleDelay = 3 * time.Second

const processTimeout = 30 * time.Second

// IngestionPipeline turns provider notifications into stored transfers.
// Processing after the acknowledgment is at-least-once and fire-and-forget:
// failures are logged and the provider's redelivery or a manual sync
// repairs them.
type IngestionPipeline struct {
	repos       repository.Transfer
	gateway     ProviderGateway
	inflight    cache.InflightSet
	publisher   events.Publisher
	alerter     Alerter
	settleDelay time.Duration

	wg sync.WaitGroup
}

func NewIngestionPipeline(repos repository.Transfer, deps Deps) *IngestionPipeline {
	return &IngestionPipeline{
		repos:       repos,
		gateway:     deps.Gateway,
		inflight:    deps.Inflight,
		publisher:   deps.Publisher,
		alerter:     deps.Alerter,
		settleDelay: deps.SettleDelay,
	}
}

// Ingest schedules background processing and returns at once. It reports
// whether the notification carried a payment id; unrecognized notifications
// are dropped.
func (p *IngestionPipeline) Ingest(n Notification) bool {
	paymentID, ok := n.PaymentID()
	if !ok {
		logrus.Debug("notification ignored: no payment id")
		return false
	}

	key := strconv.FormatInt(paymentID, 10)
	acquired, err := p.inflight.Acquire(context.Background(), key)
	if err != nil {
		logrus.WithField("payment_id", paymentID).Warnf("inflight check failed, processing anyway: %v", err)
		acquired = true
	}
	if !acquired {
		logrus.WithField("payment_id", paymentID).Info("notification coalesced with pending one")
		return true
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.process(paymentID, key)
	}()
	return true
}

// Wait blocks until every scheduled notification has been processed.
func (p *IngestionPipeline) Wait() {
	p.wg.Wait()
}

func (p *IngestionPipeline) process(paymentID int64, key string) {
	log := logrus.WithField("payment_id", paymentID)
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("ingestion panic: %v", r)
		}
	}()

	time.Sleep(p.settleDelay)

	// метку снимаем до запроса: уведомление, пришедшее во время запроса,
	// должно вызвать ещё одно чтение
	if err := p.inflight.Release(context.Background(), key); err != nil {
		log.Warnf("inflight release: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	t, err := p.Sync(ctx, paymentID)
	if err != nil {
		log.Errorf("ingestion failed: %v", err)
		return
	}
	log.WithField("status", t.Status).Info("transfer ingested")
}

// Sync re-reads a payment from the provider and upserts it. It is the
// synchronous path used by the admin re-sync; provider failures come back
// as ErrUpstream.
func (p *IngestionPipeline) Sync(ctx context.Context, paymentID int64) (models.Transfer, error) {
	payment, err := p.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return models.Transfer{}, errors.Wrapf(ErrUpstream, "payment %d: %v", paymentID, err)
	}

	t := transferFromPayment(paymentID, payment)
	created, err := p.repos.UpsertTransfer(ctx, t)
	if err != nil {
		return models.Transfer{}, err
	}

	p.publisher.Publish(ctx, events.Event{
		Type:    events.TransferIngested,
		Subject: strconv.FormatInt(t.PaymentID, 10),
		Status:  t.Status,
		At:      time.Now().UTC(),
	})
	if created && t.Status == models.StatusApproved && p.alerter != nil {
		p.alerter.TransferApproved(ctx, t)
	}
	return t, nil
}

func transferFromPayment(paymentID int64, payment models.ProviderPayment) models.Transfer {
	if payment.ID != 0 {
		paymentID = payment.ID
	}
	t := models.Transfer{
		PaymentID:   paymentID,
		ApprovedAt:  payment.DateApproved,
		Status:      payment.Status,
		Amount:      payment.TransactionAmount,
		Description: payment.Description,
		PayerEmail:  payment.Payer.Email,
		RawPayload:  types.JSONText(payment.Raw),
	}
	if n := payment.Payer.Identification.Number; n != "" {
		t.PayerDNI = &n
	}
	if len(t.RawPayload) == 0 {
		t.RawPayload = types.JSONText("{}")
	}
	return t
}
