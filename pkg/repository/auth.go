package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"payment_reconciler/models"
)

type AuthPostgres struct {
	db *sqlx.DB
}

func NewAuthPostgres(db *sqlx.DB) *AuthPostgres {
	return &AuthPostgres{db: db}
}

func (r *AuthPostgres) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	query := r.db.Rebind(`SELECT id, email, is_admin, created_at FROM users WHERE id = ?`)
	err := r.db.GetContext(ctx, &user, query, id)
	return user, errors.Wrapf(err, "get user %s", id)
}

// EnsureUser records the identity the first time it is seen and keeps the
// e-mail current. The admin flag is never touched here.
func (r *AuthPostgres) EnsureUser(ctx context.Context, id, email string) (models.User, error) {
	query := r.db.Rebind(`
        INSERT INTO users (id, email, is_admin, created_at)
        VALUES (?, ?, FALSE, ?)
        ON CONFLICT (id) DO UPDATE SET email = excluded.email
    `)
	if _, err := r.db.ExecContext(ctx, query, id, email, time.Now().UTC()); err != nil {
		return models.User{}, errors.Wrapf(err, "ensure user %s", id)
	}
	return r.GetUserByID(ctx, id)
}
