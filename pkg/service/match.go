package service

import (
	"context"
	"time"
	"unicode/utf8"

	"payment_reconciler/models"
	"payment_reconciler/pkg/repository"
)

const (
	// MinEvidence is how many independent criteria a non-admin must supply
	// before the open pool is searched at all.
	MinEvidence = 2
	// MinNationalIDLength applies to non-admin searches of the open pool.
	MinNationalIDLength = 8
	// ExactDateWindow is the tolerance around a single-instant date filter.
	ExactDateWindow = 10 * time.Minute
)

type MatchEngine struct {
	repos repository.Transfer
	loc   *time.Location
}

func NewMatchEngine(repos repository.Transfer, loc *time.Location) *MatchEngine {
	return &MatchEngine{repos: repos, loc: loc}
}

// Search returns the transfers the principal may see that satisfy f, newest
// approval first.
func (m *MatchEngine) Search(ctx context.Context, p models.Principal, f models.SearchFilters) ([]models.Transfer, error) {
	criteria, ok, err := m.criteria(p, f)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []models.Transfer{}, nil
	}
	return m.repos.SearchTransfers(ctx, criteria)
}

// Evidence counts the supplied criteria that count towards MinEvidence.
func Evidence(f models.SearchFilters) int {
	n := 0
	if f.Amount != nil {
		n++
	}
	if f.NationalID != "" {
		n++
	}
	for _, t := range []*time.Time{f.ExactDate, f.DateFrom, f.DateTo} {
		if t != nil {
			n++
		}
	}
	return n
}

// criteria scopes the search for the principal. ok is false when the
// non-admin evidence gate is not met and the answer is an empty list.
func (m *MatchEngine) criteria(p models.Principal, f models.SearchFilters) (models.TransferCriteria, bool, error) {
	var c models.TransferCriteria
	pending, confirmed := false, true

	switch {
	case p.IsAdmin:
		c.ClaimerEmail = f.ClaimerEmail
		if f.History {
			c.Confirmed = &confirmed
			c.Claim = models.ClaimStatusAll
		} else {
			c.Confirmed = &pending
			c.Claim = models.ClaimStatusUnclaimed
		}
		if f.ClaimStatus != "" {
			c.Claim = f.ClaimStatus
		}

	case f.History:
		owner := p.ID
		c.OwnerID = &owner

	default:
		if f.NationalID != "" && utf8.RuneCountInString(f.NationalID) < MinNationalIDLength {
			return c, false, validationf("dni must have at least %d characters", MinNationalIDLength)
		}
		if Evidence(f) < MinEvidence {
			return c, false, nil
		}
		c.Confirmed = &pending
		c.Claim = models.ClaimStatusUnclaimed
	}

	c.Amount = f.Amount
	c.NationalID = f.NationalID
	c.ApprovedFrom, c.ApprovedTo = m.approvalWindow(f)
	return c, true, nil
}

// approvalWindow resolves the date filters into inclusive bounds. A full
// from/to range wins over the exact date; a lone bound still narrows.
func (m *MatchEngine) approvalWindow(f models.SearchFilters) (from, to *time.Time) {
	if f.DateFrom != nil {
		d := m.startOfDay(*f.DateFrom)
		from = &d
	}
	if f.DateTo != nil {
		d := m.endOfDay(*f.DateTo)
		to = &d
	}
	if (from != nil && to != nil) || f.ExactDate == nil {
		return from, to
	}

	lo, hi := f.ExactDate.Add(-ExactDateWindow), f.ExactDate.Add(ExactDateWindow)
	if from == nil || lo.After(*from) {
		from = &lo
	}
	if to == nil || hi.Before(*to) {
		to = &hi
	}
	return from, to
}

func (m *MatchEngine) startOfDay(t time.Time) time.Time {
	t = t.In(m.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, m.loc)
}

func (m *MatchEngine) endOfDay(t time.Time) time.Time {
	t = t.In(m.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), m.loc)
}
