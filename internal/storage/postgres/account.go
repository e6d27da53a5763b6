package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/gatepass/internal/domain/account"
)

var _ account.Repository = (*AccountRepository)(nil)

// AccountRepository implements account.Repository backed by PostgreSQL.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns an AccountRepository that uses the given pool.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// FindOrCreateGuest returns the account for the given email, inserting a
// guest record when none exists. The upsert keeps concurrent checkouts for
// the same new email from racing into duplicate accounts.
func (r *AccountRepository) FindOrCreateGuest(ctx context.Context, email, firstName, lastName string) (*account.Account, error) {
	var a account.Account
	err := r.pool.QueryRow(ctx, `
		INSERT INTO account (id, email, first_name, last_name, guest)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, email, first_name, last_name, guest`,
		uuid.New().String(), email, firstName, lastName).
		Scan(&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.Guest)
	if err != nil {
		return nil, fmt.Errorf("find or create guest %q: %w", email, err)
	}
	return &a, nil
}
