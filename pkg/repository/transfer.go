package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"payment_reconciler/models"
)

const transferColumns = `
	t.payment_id, t.approved_at, t.status, t.amount, t.description,
	t.payer_email, t.payer_dni, t.raw_payload, t.owner_id, u.email AS owner_email,
	t.claimed_at, t.confirmed_at, t.created_at`

type TransferPostgres struct {
	db *sqlx.DB
}

func NewTransferPostgres(db *sqlx.DB) *TransferPostgres {
	return &TransferPostgres{db: db}
}

// UpsertTransfer writes the provider-derived fields of t. An existing row
// keeps its owner and confirmation; a new row starts unclaimed.
func (r *TransferPostgres) UpsertTransfer(ctx context.Context, t models.Transfer) (bool, error) {
	update := r.db.Rebind(`
		UPDATE transfers
		SET status = ?, raw_payload = ?, payer_email = ?, payer_dni = ?, amount = ?,
		    approved_at = COALESCE(?, approved_at)
		WHERE payment_id = ?`)
	insert := r.db.Rebind(`
		INSERT INTO transfers
		(payment_id, approved_at, status, amount, description, payer_email, payer_dni, raw_payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (payment_id) DO NOTHING`)

	approvedAt := utcPtr(t.ApprovedAt)
	for attempt := 0; attempt < 2; attempt++ {
		res, err := r.db.ExecContext(ctx, update,
			t.Status, t.RawPayload, t.PayerEmail, t.PayerDNI, t.Amount, approvedAt, t.PaymentID)
		if err != nil {
			return false, errors.Wrapf(err, "update transfer %d", t.PaymentID)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return false, nil
		}

		res, err = r.db.ExecContext(ctx, insert,
			t.PaymentID, approvedAt, t.Status, t.Amount, t.Description,
			t.PayerEmail, t.PayerDNI, t.RawPayload, time.Now().UTC())
		if err != nil {
			return false, errors.Wrapf(err, "insert transfer %d", t.PaymentID)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return true, nil
		}
		// другой запрос вставил строку между UPDATE и INSERT
	}
	return false, errors.Errorf("upsert transfer %d: row vanished", t.PaymentID)
}

func (r *TransferPostgres) GetTransfer(ctx context.Context, paymentID int64) (models.Transfer, error) {
	var t models.Transfer
	query := r.db.Rebind(`SELECT` + transferColumns + `
		FROM transfers t LEFT JOIN users u ON u.id = t.owner_id
		WHERE t.payment_id = ?`)
	err := r.db.GetContext(ctx, &t, query, paymentID)
	return t, errors.Wrapf(err, "get transfer %d", paymentID)
}

// ClaimTransfer sets the owner only if the row is currently unowned. It
// reports whether the row changed.
func (r *TransferPostgres) ClaimTransfer(ctx context.Context, paymentID int64, userID string, at time.Time) (bool, error) {
	query := r.db.Rebind(`
		UPDATE transfers SET owner_id = ?, claimed_at = ?
		WHERE payment_id = ? AND owner_id IS NULL`)
	return r.execAffected(ctx, query, userID, at.UTC(), paymentID)
}

func (r *TransferPostgres) UnclaimTransfer(ctx context.Context, paymentID int64) (bool, error) {
	query := r.db.Rebind(`UPDATE transfers SET owner_id = NULL, claimed_at = NULL WHERE payment_id = ?`)
	return r.execAffected(ctx, query, paymentID)
}

// ConfirmTransfer archives a claimed, still pending transfer.
func (r *TransferPostgres) ConfirmTransfer(ctx context.Context, paymentID int64, at time.Time) (bool, error) {
	query := r.db.Rebind(`
		UPDATE transfers SET confirmed_at = ?
		WHERE payment_id = ? AND owner_id IS NOT NULL AND confirmed_at IS NULL`)
	return r.execAffected(ctx, query, at.UTC(), paymentID)
}

func (r *TransferPostgres) SearchTransfers(ctx context.Context, c models.TransferCriteria) ([]models.Transfer, error) {
	var (
		conds []string
		args  []interface{}
	)
	if c.OwnerID != nil {
		conds = append(conds, "t.owner_id = ?")
		args = append(args, *c.OwnerID)
	}
	switch c.Claim {
	case models.ClaimStatusClaimed:
		conds = append(conds, "t.owner_id IS NOT NULL")
	case models.ClaimStatusUnclaimed:
		conds = append(conds, "t.owner_id IS NULL")
	}
	if c.Confirmed != nil {
		if *c.Confirmed {
			conds = append(conds, "t.confirmed_at IS NOT NULL")
		} else {
			conds = append(conds, "t.confirmed_at IS NULL")
		}
	}
	if c.Amount != nil {
		conds = append(conds, "t.amount = ?")
		args = append(args, *c.Amount)
	}
	if c.NationalID != "" {
		conds = append(conds, `LOWER(t.payer_dni) LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(c.NationalID))
	}
	if c.ApprovedFrom != nil {
		conds = append(conds, "t.approved_at >= ?")
		args = append(args, c.ApprovedFrom.UTC())
	}
	if c.ApprovedTo != nil {
		conds = append(conds, "t.approved_at <= ?")
		args = append(args, c.ApprovedTo.UTC())
	}
	if c.ClaimerEmail != "" {
		conds = append(conds, `LOWER(u.email) LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(c.ClaimerEmail))
	}

	query := `SELECT` + transferColumns + `
		FROM transfers t LEFT JOIN users u ON u.id = t.owner_id`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY t.approved_at DESC NULLS LAST, t.payment_id DESC"

	transfers := []models.Transfer{}
	if err := r.db.SelectContext(ctx, &transfers, r.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "search transfers")
	}
	return transfers, nil
}

func (r *TransferPostgres) execAffected(ctx context.Context, query string, args ...interface{}) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, errors.Wrap(err, "exec")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	return n > 0, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
