package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/gatepass/internal/domain/ticket"
)

var _ ticket.Repository = (*TicketRepository)(nil)

// TicketRepository implements ticket.Repository backed by PostgreSQL.
type TicketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository returns a TicketRepository that uses the given pool.
func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

const ticketColumns = `id, type_name, description, cost, currency, max_per_day, photo_url`

// FindByName looks up a ticket type by its unique name. Returns
// ticket.ErrNotFound when no such type exists.
func (r *TicketRepository) FindByName(ctx context.Context, typeName string) (*ticket.Type, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM ticket_type WHERE type_name = $1`, typeName)

	tt, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ticket.ErrNotFound
		}
		return nil, fmt.Errorf("finding ticket type %q: %w", typeName, err)
	}
	return tt, nil
}

// List returns the whole catalog ordered by type name.
func (r *TicketRepository) List(ctx context.Context) ([]ticket.Type, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+ticketColumns+` FROM ticket_type ORDER BY type_name`)
	if err != nil {
		return nil, fmt.Errorf("listing ticket types: %w", err)
	}
	defer rows.Close()

	var types []ticket.Type
	for rows.Next() {
		tt, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ticket type: %w", err)
		}
		types = append(types, *tt)
	}
	return types, rows.Err()
}

// Upsert inserts a ticket type or refreshes an existing one by name.
// Used by the seeding CLI; the API never mutates the catalog.
func (r *TicketRepository) Upsert(ctx context.Context, tt *ticket.Type) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ticket_type (id, type_name, description, cost, currency, max_per_day, photo_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (type_name) DO UPDATE
		SET description = EXCLUDED.description,
		    cost = EXCLUDED.cost,
		    currency = EXCLUDED.currency,
		    max_per_day = EXCLUDED.max_per_day,
		    photo_url = EXCLUDED.photo_url`,
		tt.ID, tt.TypeName, tt.Description, tt.Cost, tt.Currency, tt.MaxPerDay, tt.PhotoURL)
	if err != nil {
		return fmt.Errorf("upserting ticket type %q: %w", tt.TypeName, err)
	}
	return nil
}

func scanTicket(row pgx.Row) (*ticket.Type, error) {
	var tt ticket.Type
	err := row.Scan(&tt.ID, &tt.TypeName, &tt.Description, &tt.Cost,
		&tt.Currency, &tt.MaxPerDay, &tt.PhotoURL)
	if err != nil {
		return nil, err
	}
	return &tt, nil
}
