package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/gatepass/internal/domain/discount"
)

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// FindByCode looks up a discount by its unique code. Returns
// discount.ErrNotFound when the code is unknown.
func (r *DiscountRepository) FindByCode(ctx context.Context, code string) (*discount.Discount, error) {
	var d discount.Discount
	err := r.pool.QueryRow(ctx,
		`SELECT id, code, percentage, expiry_date FROM discount WHERE code = $1`, code).
		Scan(&d.ID, &d.Code, &d.Percentage, &d.ExpiryDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrNotFound
		}
		return nil, fmt.Errorf("finding discount %q: %w", code, err)
	}
	return &d, nil
}

// TypeNamesFor returns the ticket type names associated with a discount.
func (r *DiscountRepository) TypeNamesFor(ctx context.Context, discountID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT tt.type_name
		FROM discount_ticket_type dtt
		JOIN ticket_type tt ON tt.id = dtt.ticket_type_id
		WHERE dtt.discount_id = $1
		ORDER BY tt.type_name`, discountID)
	if err != nil {
		return nil, fmt.Errorf("listing ticket types for discount %q: %w", discountID, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning type name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CreateWithTypes upserts a discount and its ticket-type associations in one
// transaction. A discount with no associated ticket types is an invalid
// configuration and is rejected with discount.ErrNoTicketTypes.
func (r *DiscountRepository) CreateWithTypes(ctx context.Context, d *discount.Discount, ticketTypeIDs []string) error {
	if len(ticketTypeIDs) == 0 {
		return discount.ErrNoTicketTypes
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	// The code may already exist under a different id; reuse the stored id
	// so the association rows keep a valid foreign key.
	var discountID string
	err = tx.QueryRow(ctx, `
		INSERT INTO discount (id, code, percentage, expiry_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE
		SET percentage = EXCLUDED.percentage, expiry_date = EXCLUDED.expiry_date
		RETURNING id`,
		d.ID, d.Code, d.Percentage, d.ExpiryDate).Scan(&discountID)
	if err != nil {
		return fmt.Errorf("upserting discount %q: %w", d.Code, err)
	}

	for _, ttID := range ticketTypeIDs {
		_, err = tx.Exec(ctx, `
			INSERT INTO discount_ticket_type (discount_id, ticket_type_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, discountID, ttID)
		if err != nil {
			return fmt.Errorf("associating discount %q with ticket type %s: %w", d.Code, ttID, err)
		}
	}

	return tx.Commit(ctx)
}
