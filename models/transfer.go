package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// Transfer is a provider-originated payment tracked for reconciliation.
type Transfer struct {
	PaymentID   int64           `db:"payment_id" json:"payment_id"`
	ApprovedAt  *time.Time      `db:"approved_at" json:"approved_at"`
	Status      string          `db:"status" json:"status"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Description string          `db:"description" json:"description"`
	PayerEmail  *string         `db:"payer_email" json:"payer_email"`
	PayerDNI    *string         `db:"payer_dni" json:"payer_dni"`
	RawPayload  types.JSONText  `db:"raw_payload" json:"raw_payload"`
	OwnerID     *string         `db:"owner_id" json:"owner_id"`
	OwnerEmail  *string         `db:"owner_email" json:"owner_email,omitempty"` // из JOIN с users
	ClaimedAt   *time.Time      `db:"claimed_at" json:"claimed_at"`
	ConfirmedAt *time.Time      `db:"confirmed_at" json:"confirmed_at"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

const StatusApproved = "approved"

// ClaimStatus narrows admin searches by ownership.
type ClaimStatus string

const (
	ClaimStatusAll       ClaimStatus = "all"
	ClaimStatusClaimed   ClaimStatus = "claimed"
	ClaimStatusUnclaimed ClaimStatus = "unclaimed"
)

// TransferCriteria is the store-level form of a search: every field that is
// set narrows the result.
type TransferCriteria struct {
	OwnerID      *string
	Claim        ClaimStatus
	Confirmed    *bool
	Amount       *decimal.Decimal
	NationalID   string
	ApprovedFrom *time.Time
	ApprovedTo   *time.Time
	ClaimerEmail string
}

// ClaimResult reports the outcome of a successful claim.
type ClaimResult struct {
	PaymentID    int64  `json:"payment_id"`
	OwnerID      string `json:"owner_id"`
	AlreadyYours bool   `json:"already_yours"`
	Message      string `json:"message"`
}

type ConfirmBatchRequest struct {
	IDs       []int64  `json:"ids"`
	ManualIDs []string `json:"manual_ids"`
}

type BatchFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type ConfirmBatchResult struct {
	Confirmed []string       `json:"confirmed"`
	Failed    []BatchFailure `json:"failed"`
}
