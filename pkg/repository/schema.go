package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// The DDL sticks to types both postgres and sqlite accept. Timestamps are
// always written in UTC.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		email      TEXT NOT NULL DEFAULT '',
		is_admin   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transfers (
		payment_id   BIGINT PRIMARY KEY,
		approved_at  TIMESTAMP NULL,
		status       TEXT NOT NULL,
		amount       NUMERIC(14,2) NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		payer_email  TEXT NULL,
		payer_dni    TEXT NULL,
		raw_payload  JSONB NOT NULL,
		owner_id     TEXT NULL REFERENCES users(id),
		claimed_at   TIMESTAMP NULL,
		confirmed_at TIMESTAMP NULL,
		created_at   TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS transfers_approved_at_idx ON transfers (approved_at)`,
	`CREATE INDEX IF NOT EXISTS transfers_owner_id_idx ON transfers (owner_id)`,
	`CREATE TABLE IF NOT EXISTS manual_transfers (
		id             TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL,
		bank_name      TEXT NOT NULL,
		loaded_at      TIMESTAMP NOT NULL,
		real_at        TIMESTAMP NULL,
		amount         NUMERIC(14,2) NOT NULL,
		owner_id       TEXT NULL REFERENCES users(id),
		created_by     TEXT NOT NULL,
		confirmed_at   TIMESTAMP NULL
	)`,
	`CREATE INDEX IF NOT EXISTS manual_transfers_owner_id_idx ON manual_transfers (owner_id)`,
}

// Migrate creates the tables if they are missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrate")
		}
	}
	return nil
}
