package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ManualTransfer is a bank transfer entered by an operator, never synced
// with the provider.
type ManualTransfer struct {
	ID            string          `db:"id" json:"id"`
	TransactionID string          `db:"transaction_id" json:"transaction_id"`
	BankName      string          `db:"bank_name" json:"bank_name"`
	LoadedAt      time.Time       `db:"loaded_at" json:"loaded_at"`
	RealAt        *time.Time      `db:"real_at" json:"real_at"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	OwnerID       *string         `db:"owner_id" json:"owner_id"`
	OwnerEmail    *string         `db:"owner_email" json:"owner_email,omitempty"`
	CreatedBy     string          `db:"created_by" json:"created_by"`
	ConfirmedAt   *time.Time      `db:"confirmed_at" json:"confirmed_at"`
}

type ManualTransferInput struct {
	TransactionID string          `json:"transaction_id" binding:"required"`
	BankName      string          `json:"bank_name" binding:"required"`
	RealAt        *time.Time      `json:"real_at"`
	Amount        decimal.Decimal `json:"amount"`
	OwnerID       string          `json:"owner_id"` // пустой: свободная
}

type ReassignInput struct {
	OwnerID string `json:"owner_id"`
}
