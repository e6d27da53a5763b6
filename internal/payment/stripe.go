package payment

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"
)

const (
	defaultChargeTimeout = 15 * time.Second
	maxChargeAttempts    = 3
	retryBackoff         = 500 * time.Millisecond
)

var _ Gateway = (*StripeGateway)(nil)

// StripeGateway charges via Stripe PaymentIntents with confirm-on-create.
// Ambiguous outcomes (network errors, timeouts) are re-driven with the same
// idempotency key: Stripe deduplicates, so the retry reads the authoritative
// state of the original attempt instead of creating a second charge.
type StripeGateway struct {
	api     *client.API
	lg      *zap.Logger
	timeout time.Duration
}

// NewStripeGateway creates a gateway using the given secret API key.
func NewStripeGateway(apiKey string, lg *zap.Logger) *StripeGateway {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeGateway{api: api, lg: lg, timeout: defaultChargeTimeout}
}

// Charge creates and confirms a PaymentIntent. The returned status is
// StatusUnknown only after bounded retries fail to produce a definitive
// answer; callers must then reconcile via the idempotency key rather than
// assume either outcome.
func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountMinor),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		PaymentMethod: stripe.String(req.PaymentMethod),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.SetIdempotencyKey(req.IdempotencyKey)

	var lastErr error
	for attempt := 1; attempt <= maxChargeAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		params.Context = attemptCtx

		pi, err := g.api.PaymentIntents.New(params)
		cancel()

		if err == nil {
			return resultFromIntent(pi), nil
		}

		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			// A definitive gateway answer: card declines and invalid
			// requests are not retriable.
			ref := ""
			if stripeErr.PaymentIntent != nil {
				ref = stripeErr.PaymentIntent.ID
			}
			if stripeErr.Type == stripe.ErrorTypeCard {
				return &ChargeResult{Status: StatusDeclined, Reference: ref}, nil
			}
			return nil, errors.Wrap(err, "create payment intent")
		}

		// Transport-level failure: outcome unknown, re-drive the same key.
		lastErr = err
		g.lg.Warn("charge outcome unknown, re-driving idempotency key",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return &ChargeResult{Status: StatusUnknown}, ctx.Err()
		case <-time.After(retryBackoff * time.Duration(attempt)):
		}
	}

	return &ChargeResult{Status: StatusUnknown}, errors.Wrap(lastErr, "charge outcome unresolved")
}

// Refund reverses a settled charge. Used as checkout compensation when the
// capacity reservation loses a race after the charge succeeded.
func (g *StripeGateway) Refund(ctx context.Context, reference, idempotencyKey string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(reference),
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)

	if _, err := g.api.Refunds.New(params); err != nil {
		return errors.Wrapf(err, "refund payment intent %s", reference)
	}
	return nil
}

func resultFromIntent(pi *stripe.PaymentIntent) *ChargeResult {
	if pi.Status == stripe.PaymentIntentStatusSucceeded {
		return &ChargeResult{Status: StatusSucceeded, Reference: pi.ID}
	}
	return &ChargeResult{Status: StatusDeclined, Reference: pi.ID}
}
