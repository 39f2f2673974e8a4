package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProviderPayment is the subset of the provider's payment resource the
// service reads. Raw holds the full response body.
type ProviderPayment struct {
	ID                int64           `json:"id"`
	Status            string          `json:"status"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	DateApproved      *time.Time      `json:"date_approved"`
	Description       string          `json:"description"`
	Payer             struct {
		Email          *string `json:"email"`
		Identification struct {
			Type   string `json:"type"`
			Number string `json:"number"`
		} `json:"identification"`
	} `json:"payer"`

	Raw []byte `json:"-"`
}
