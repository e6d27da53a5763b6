package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when no discount exists for a code.
	ErrNotFound = errors.New("discount not found")
	// ErrNoTicketTypes rejects a discount configured without any
	// associated ticket types.
	ErrNoTicketTypes = errors.New("discount must apply to at least one ticket type")
)

// Discount is a percentage reduction tied to a set of ticket types via a
// unique code. The expiry date is exclusive: the code stops working the day
// it expires.
type Discount struct {
	ID         string
	Code       string
	Percentage int
	ExpiryDate time.Time
}

// Expired reports whether the discount is unusable on the given day.
func (d Discount) Expired(today time.Time) bool {
	return !today.Before(atMidnight(d.ExpiryDate))
}

func atMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Repository provides lookup of discounts and their ticket-type associations.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Discount, error)
	// TypeNamesFor returns the ticket type names the discount applies to.
	TypeNamesFor(ctx context.Context, discountID string) ([]string, error)
}
