package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Line is a committed unit of capacity: quantity tickets of one type for one
// visit date, priced at time of sale. Immutable once persisted.
type Line struct {
	ID             string
	TicketTypeName string
	ValidDate      time.Time
	Quantity       int
	UnitPrice      decimal.Decimal
	LineTotal      decimal.Decimal
}

// Booking is the header record owning one or more lines. It is created
// atomically with its lines and the capacity reservation backing them.
type Booking struct {
	ID             string
	BuyerID        string
	PurchaseDate   time.Time
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	Currency       string
	GatewayRef     string
	AppliedCodes   []string
	Lines          []Line
	CreatedAt      time.Time
}

// Ledger answers availability questions from committed booking lines.
// available = max(0, maxPerDay - committed); recomputed on every call.
type Ledger interface {
	Available(ctx context.Context, typeName string, date time.Time) (int, error)
	// SoldByDate returns committed quantities for every ticket type with
	// sales on the given date, keyed by type name.
	SoldByDate(ctx context.Context, date time.Time) (map[string]int, error)
}

// Repository persists bookings. CreateWithReservation must reserve capacity
// for every line and write the booking in a single transaction: if any line
// would push the committed sum for its (type, date) key past maxPerDay, the
// whole batch fails with *CapacityConflictError and nothing is written.
type Repository interface {
	CreateWithReservation(ctx context.Context, b *Booking) error
}

// ConflictLine identifies a (ticket type, date) key that lost a capacity
// race, with the quantities involved.
type ConflictLine struct {
	TicketTypeName string
	ValidDate      time.Time
	Requested      int
	Remaining      int
}

// CapacityConflictError is returned when a reservation batch cannot be
// committed without overselling. After a successful charge this triggers the
// refund compensation path; it must never be swallowed.
type CapacityConflictError struct {
	Lines []ConflictLine
}

func (e *CapacityConflictError) Error() string {
	parts := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		parts[i] = fmt.Sprintf("%s on %s: requested %d, %d remaining",
			l.TicketTypeName, l.ValidDate.Format("2006-01-02"), l.Requested, l.Remaining)
	}
	return "insufficient capacity: " + strings.Join(parts, "; ")
}
