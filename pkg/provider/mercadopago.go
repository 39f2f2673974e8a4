package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"payment_reconciler/models"
)

const DefaultBaseURL = "https://api.mercadopago.com"

// ErrPaymentNotFound is returned when the provider has no payment with the
// requested id.
var ErrPaymentNotFound = errors.New("payment not found at provider")

type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
	RetryCount  int
}

// MercadoPagoClient reads payments from the provider's REST API.
type MercadoPagoClient struct {
	client *resty.Client
}

func NewMercadoPagoClient(cfg Config) *MercadoPagoClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &MercadoPagoClient{client: client}
}

// GetPayment fetches the full payment resource. The raw body is kept on the
// result so it can be stored verbatim.
func (c *MercadoPagoClient) GetPayment(ctx context.Context, paymentID int64) (models.ProviderPayment, error) {
	var payment models.ProviderPayment

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(paymentID, 10)).
		Get("/v1/payments/{id}")
	if err != nil {
		return payment, errors.Wrapf(err, "get payment %d", paymentID)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return payment, errors.Wrapf(ErrPaymentNotFound, "payment %d", paymentID)
	}
	if resp.IsError() {
		logrus.WithFields(logrus.Fields{
			"payment_id": paymentID,
			"status":     resp.StatusCode(),
		}).Warn("provider returned an error")
		return payment, errors.Errorf("get payment %d: provider status %d", paymentID, resp.StatusCode())
	}

	body := resp.Body()
	if err := json.Unmarshal(body, &payment); err != nil {
		return payment, errors.Wrapf(err, "decode payment %d", paymentID)
	}
	payment.Raw = body
	return payment, nil
}
