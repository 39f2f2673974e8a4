package service

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"payment_reconciler/models"
)

// dateLayouts are tried in order; values without an offset are read in the
// engine's location.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseFilters validates the raw query. Unparseable dates are dropped
// rather than rejected.
func (m *MatchEngine) ParseFilters(q models.TransferQuery) (models.SearchFilters, error) {
	f := models.SearchFilters{
		NationalID:   strings.TrimSpace(q.DNI),
		ClaimerEmail: strings.TrimSpace(q.EmailReclamador),
		History:      q.History,
	}

	if monto := strings.TrimSpace(q.Monto); monto != "" {
		if !strings.Contains(monto, ".") {
			monto = strings.Replace(monto, ",", ".", 1)
		}
		amount, err := decimal.NewFromString(monto)
		if err != nil {
			return f, validationf("monto must be a number, got %q", q.Monto)
		}
		f.Amount = &amount
	}

	f.ExactDate = parseDate(q.Fecha, m.loc)
	f.DateFrom = parseDate(q.FechaDesde, m.loc)
	f.DateTo = parseDate(q.FechaHasta, m.loc)

	switch strings.ToLower(strings.TrimSpace(q.SoloReclamados)) {
	case "", "false":
	case "all", "todos":
		f.ClaimStatus = models.ClaimStatusAll
	case "claimed", "true":
		f.ClaimStatus = models.ClaimStatusClaimed
	case "unclaimed":
		f.ClaimStatus = models.ClaimStatusUnclaimed
	default:
		return f, validationf("soloReclamados must be all, claimed or unclaimed")
	}
	return f, nil
}

func parseDate(s string, loc *time.Location) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t
		}
	}
	return nil
}
