package checkout

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

// ErrInvalidTotal rejects carts whose authoritative total is not positive;
// they must never reach the payment gateway.
var ErrInvalidTotal = errors.New("checkout total must be positive")

// ValidationError rejects a malformed or stale request before any external
// call. Code is machine-readable for clients.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Validation reason codes.
const (
	CodeEmptyCart         = "cart.empty"
	CodeInvalidQuantity   = "cart.quantity.invalid"
	CodeUnknownTicketType = "cart.ticket_type.unknown"
	CodeMixedCurrency     = "cart.currency.mixed"
	CodePastVisitDate     = "visit_date.past"
	CodeMissingBuyer      = "buyer.missing"
)

// InsufficientAvailabilityError is returned when a cart line asks for more
// units than remain sellable. Raised before charging.
type InsufficientAvailabilityError struct {
	TicketTypeName string
	Requested      int
	Available      int
}

func (e *InsufficientAvailabilityError) Error() string {
	return fmt.Sprintf("insufficient availability for %s: requested %d, %d available",
		e.TicketTypeName, e.Requested, e.Available)
}

// DiscountChangedError means a code the client believed usable is now
// invalid or inapplicable. The client must refresh its cart and retry; the
// orchestrator never silently charges a different total.
type DiscountChangedError struct {
	Codes []string
}

func (e *DiscountChangedError) Error() string {
	return "discount codes changed: " + strings.Join(e.Codes, ", ")
}

// GatewayDeclinedError carries the gateway reference of a declined charge
// for support traceability. No booking exists and no capacity is held.
type GatewayDeclinedError struct {
	Reference string
}

func (e *GatewayDeclinedError) Error() string {
	return fmt.Sprintf("payment declined (gateway ref %s)", e.Reference)
}

// GatewayUnknownError means the charge outcome could not be determined even
// after re-driving the idempotency key. Nothing was committed; the key
// identifies the attempt for out-of-band reconciliation.
type GatewayUnknownError struct {
	IdempotencyKey string
}

func (e *GatewayUnknownError) Error() string {
	return fmt.Sprintf("payment outcome unknown (idempotency key %s)", e.IdempotencyKey)
}

// CapacityConflictError means the capacity race was lost after a successful
// charge. Refunded reports whether the compensating refund went through; if
// false, RefundErr holds the failure and the charge needs manual
// reconciliation.
type CapacityConflictError struct {
	BookingErr error
	GatewayRef string
	Refunded   bool
	RefundErr  error
}

func (e *CapacityConflictError) Error() string {
	if e.Refunded {
		return fmt.Sprintf("capacity conflict after charge, refunded (gateway ref %s): %v", e.GatewayRef, e.BookingErr)
	}
	return fmt.Sprintf("capacity conflict after charge, REFUND FAILED (gateway ref %s): %v", e.GatewayRef, e.BookingErr)
}

func (e *CapacityConflictError) Unwrap() error { return e.BookingErr }
