package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/gatepass/internal/domain/booking"
	"github.com/xenking/gatepass/internal/domain/ticket"
)

var (
	_ booking.Ledger     = (*BookingRepository)(nil)
	_ booking.Repository = (*BookingRepository)(nil)
)

// BookingRepository is the capacity ledger and booking store. All capacity
// mutation goes through CreateWithReservation; availability reads recompute
// from committed lines on every call.
type BookingRepository struct {
	pool *pgxpool.Pool
}

// NewBookingRepository returns a BookingRepository that uses the given pool.
func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// Available returns the remaining sellable units for a ticket type on a
// date, clamped at zero. Returns ticket.ErrNotFound for unknown types.
func (r *BookingRepository) Available(ctx context.Context, typeName string, date time.Time) (int, error) {
	var available int
	err := r.pool.QueryRow(ctx, `
		SELECT tt.max_per_day - COALESCE(SUM(bl.quantity), 0)
		FROM ticket_type tt
		LEFT JOIN booking_line bl
		    ON bl.ticket_type_name = tt.type_name AND bl.valid_date = $2
		WHERE tt.type_name = $1
		GROUP BY tt.max_per_day`,
		typeName, date).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ticket.ErrNotFound
		}
		return 0, fmt.Errorf("availability for %q: %w", typeName, err)
	}
	if available < 0 {
		available = 0
	}
	return available, nil
}

// SoldByDate returns committed quantities per ticket type name for a date.
func (r *BookingRepository) SoldByDate(ctx context.Context, date time.Time) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ticket_type_name, SUM(quantity)
		FROM booking_line
		WHERE valid_date = $1
		GROUP BY ticket_type_name`, date)
	if err != nil {
		return nil, fmt.Errorf("sold quantities for %s: %w", date.Format("2006-01-02"), err)
	}
	defer rows.Close()

	sold := make(map[string]int)
	for rows.Next() {
		var name string
		var qty int
		if err := rows.Scan(&name, &qty); err != nil {
			return nil, fmt.Errorf("scanning sold quantity: %w", err)
		}
		sold[name] = qty
	}
	return sold, rows.Err()
}

// CreateWithReservation reserves capacity for every line and persists the
// booking in one transaction. The referenced ticket_type rows are locked
// with SELECT ... FOR UPDATE (in deterministic order, avoiding deadlocks
// between overlapping carts), which serializes the committed-sum check and
// the line inserts per key: two checkouts that both saw "5 remaining"
// cannot both commit 5 when only 5 remain.
func (r *BookingRepository) CreateWithReservation(ctx context.Context, b *booking.Booking) error {
	typeNames := distinctTypeNames(b.Lines)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	rows, err := tx.Query(ctx, `
		SELECT type_name, max_per_day
		FROM ticket_type
		WHERE type_name = ANY($1)
		ORDER BY type_name
		FOR UPDATE`, typeNames)
	if err != nil {
		return fmt.Errorf("locking ticket types: %w", err)
	}

	maxPerDay := make(map[string]int, len(typeNames))
	for rows.Next() {
		var name string
		var maxUnits int
		if err := rows.Scan(&name, &maxUnits); err != nil {
			rows.Close()
			return fmt.Errorf("scanning locked ticket type: %w", err)
		}
		maxPerDay[name] = maxUnits
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("locking ticket types: %w", err)
	}

	for _, name := range typeNames {
		if _, ok := maxPerDay[name]; !ok {
			return errors.Wrapf(ticket.ErrNotFound, "ticket type %q", name)
		}
	}

	// Committed sums are stable for the locked keys. Lines are summed per
	// (ticket type, date) before the check so a booking repeating a type
	// reserves its combined quantity, then all conflicts are reported at
	// once.
	requested := make(map[reservationKey]int, len(b.Lines))
	keys := make([]reservationKey, 0, len(b.Lines))
	for _, line := range b.Lines {
		k := reservationKey{typeName: line.TicketTypeName, validDate: line.ValidDate}
		if _, ok := requested[k]; !ok {
			keys = append(keys, k)
		}
		requested[k] += line.Quantity
	}

	var conflicts []booking.ConflictLine
	for _, k := range keys {
		var sold int
		err := tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(quantity), 0)
			FROM booking_line
			WHERE ticket_type_name = $1 AND valid_date = $2`,
			k.typeName, k.validDate).Scan(&sold)
		if err != nil {
			return fmt.Errorf("committed sum for %q: %w", k.typeName, err)
		}

		remaining := maxPerDay[k.typeName] - sold
		if remaining < 0 {
			remaining = 0
		}
		if requested[k] > remaining {
			conflicts = append(conflicts, booking.ConflictLine{
				TicketTypeName: k.typeName,
				ValidDate:      k.validDate,
				Requested:      requested[k],
				Remaining:      remaining,
			})
		}
	}
	if len(conflicts) > 0 {
		return &booking.CapacityConflictError{Lines: conflicts}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO booking
		    (id, buyer_id, purchase_date, subtotal, discount_amount, total,
		     currency, gateway_ref, applied_codes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.BuyerID, b.PurchaseDate, b.Subtotal, b.DiscountAmount,
		b.Total, b.Currency, b.GatewayRef, b.AppliedCodes)
	if err != nil {
		return fmt.Errorf("inserting booking %q: %w", b.ID, err)
	}

	for _, line := range b.Lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO booking_line
			    (id, booking_id, ticket_type_name, valid_date, quantity,
			     unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			line.ID, b.ID, line.TicketTypeName, line.ValidDate,
			line.Quantity, line.UnitPrice, line.LineTotal)
		if err != nil {
			return fmt.Errorf("inserting booking line for %q: %w", line.TicketTypeName, err)
		}
	}

	return tx.Commit(ctx)
}

// reservationKey identifies one capacity bucket. Valid dates are normalized
// to midnight UTC by the orchestrator, so time.Time equality is exact here.
type reservationKey struct {
	typeName  string
	validDate time.Time
}

func distinctTypeNames(lines []booking.Line) []string {
	seen := make(map[string]bool, len(lines))
	names := make([]string, 0, len(lines))
	for _, line := range lines {
		if !seen[line.TicketTypeName] {
			seen[line.TicketTypeName] = true
			names = append(names, line.TicketTypeName)
		}
	}
	sort.Strings(names)
	return names
}
