package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"payment_reconciler/models"
)

const manualColumns = `
	m.id, m.transaction_id, m.bank_name, m.loaded_at, m.real_at, m.amount,
	m.owner_id, u.email AS owner_email, m.created_by, m.confirmed_at`

type ManualTransferPostgres struct {
	db *sqlx.DB
}

func NewManualTransferPostgres(db *sqlx.DB) *ManualTransferPostgres {
	return &ManualTransferPostgres{db: db}
}

func (r *ManualTransferPostgres) CreateManualTransfer(ctx context.Context, m models.ManualTransfer) error {
	query := r.db.Rebind(`
		INSERT INTO manual_transfers
		(id, transaction_id, bank_name, loaded_at, real_at, amount, owner_id, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.TransactionID, m.BankName, m.LoadedAt.UTC(), utcPtr(m.RealAt), m.Amount, m.OwnerID, m.CreatedBy)
	return errors.Wrapf(err, "insert manual transfer %s", m.ID)
}

func (r *ManualTransferPostgres) GetManualTransfer(ctx context.Context, id string) (models.ManualTransfer, error) {
	var m models.ManualTransfer
	query := r.db.Rebind(`SELECT` + manualColumns + `
		FROM manual_transfers m LEFT JOIN users u ON u.id = m.owner_id
		WHERE m.id = ?`)
	err := r.db.GetContext(ctx, &m, query, id)
	return m, errors.Wrapf(err, "get manual transfer %s", id)
}

func (r *ManualTransferPostgres) ListManualTransfers(ctx context.Context) ([]models.ManualTransfer, error) {
	list := []models.ManualTransfer{}
	query := `SELECT` + manualColumns + `
		FROM manual_transfers m LEFT JOIN users u ON u.id = m.owner_id
		ORDER BY m.loaded_at DESC`
	if err := r.db.SelectContext(ctx, &list, query); err != nil {
		return nil, errors.Wrap(err, "list manual transfers")
	}
	return list, nil
}

// ListManualTransfersForUser returns the caller's manual transfers, or the
// unowned ones when unclaimedOnly is set.
func (r *ManualTransferPostgres) ListManualTransfersForUser(ctx context.Context, userID string, unclaimedOnly bool) ([]models.ManualTransfer, error) {
	list := []models.ManualTransfer{}
	query := `SELECT` + manualColumns + `
		FROM manual_transfers m LEFT JOIN users u ON u.id = m.owner_id`
	var args []interface{}
	if unclaimedOnly {
		query += ` WHERE m.owner_id IS NULL AND m.confirmed_at IS NULL`
	} else {
		query += ` WHERE m.owner_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY m.loaded_at DESC`

	if err := r.db.SelectContext(ctx, &list, r.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrapf(err, "list manual transfers for %s", userID)
	}
	return list, nil
}

func (r *ManualTransferPostgres) ReassignManualTransfer(ctx context.Context, id string, ownerID *string) (bool, error) {
	query := r.db.Rebind(`UPDATE manual_transfers SET owner_id = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, ownerID, id)
	if err != nil {
		return false, errors.Wrapf(err, "reassign manual transfer %s", id)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ManualTransferPostgres) ConfirmManualTransfer(ctx context.Context, id string, at time.Time) (bool, error) {
	query := r.db.Rebind(`UPDATE manual_transfers SET confirmed_at = ? WHERE id = ? AND confirmed_at IS NULL`)
	res, err := r.db.ExecContext(ctx, query, at.UTC(), id)
	if err != nil {
		return false, errors.Wrapf(err, "confirm manual transfer %s", id)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
