package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferQuery is the raw query string of GET /api/transferencias.
type TransferQuery struct {
	Monto           string `form:"monto"`
	DNI             string `form:"dni"`
	Fecha           string `form:"fecha"`
	FechaDesde      string `form:"fechaDesde"`
	FechaHasta      string `form:"fechaHasta"`
	EmailReclamador string `form:"emailReclamador"`
	SoloReclamados  string `form:"soloReclamados"`
	History         bool   `form:"history"`
}

// SearchFilters is a TransferQuery after boundary validation. Nil or empty
// fields were not supplied.
type SearchFilters struct {
	Amount       *decimal.Decimal
	NationalID   string
	ExactDate    *time.Time
	DateFrom     *time.Time
	DateTo       *time.Time
	ClaimerEmail string
	ClaimStatus  ClaimStatus
	History      bool
}
