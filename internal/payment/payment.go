// Package payment defines the gateway port used by checkout and its Stripe
// implementation.
package payment

import "context"

// ChargeStatus is the outcome of a charge attempt.
type ChargeStatus string

const (
	// StatusSucceeded means the charge settled; checkout may commit.
	StatusSucceeded ChargeStatus = "succeeded"
	// StatusDeclined means the gateway refused the charge.
	StatusDeclined ChargeStatus = "declined"
	// StatusUnknown means the outcome could not be determined (timeout,
	// ambiguous response). The caller must not treat it as success or
	// failure; the idempotency key allows safe re-driving.
	StatusUnknown ChargeStatus = "unknown"
)

// ChargeRequest describes a single synchronous charge. Amount is expressed
// in minor units (cents) to keep the wire format integer-only.
type ChargeRequest struct {
	AmountMinor    int64
	Currency       string
	PaymentMethod  string
	IdempotencyKey string
}

// ChargeResult carries the gateway's decision and its transaction reference
// for support traceability.
type ChargeResult struct {
	Status    ChargeStatus
	Reference string
}

// Gateway is the external payment collaborator. Charge must be idempotent
// with respect to the request's idempotency key: retrying the same key never
// double-charges. Refund compensates a settled charge.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, reference, idempotencyKey string) error
}
