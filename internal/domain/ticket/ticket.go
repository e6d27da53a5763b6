package ticket

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested ticket type does not exist.
var ErrNotFound = errors.New("ticket type not found")

// Type represents a sellable day-ticket category. Cost and MaxPerDay are
// edited by catalog management; the sales core only reads them.
type Type struct {
	ID          string
	TypeName    string
	Description string
	Cost        decimal.Decimal
	Currency    string
	MaxPerDay   int
	PhotoURL    string
}

// Repository defines read operations for the ticket catalog.
type Repository interface {
	FindByName(ctx context.Context, typeName string) (*Type, error)
	List(ctx context.Context) ([]Type, error)
}
