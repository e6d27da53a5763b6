// Package checkout orchestrates the sales flow: availability validation,
// authoritative pricing, the gateway charge, and the atomic capacity +
// booking commit, followed by best-effort notifications.
package checkout

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/gatepass/internal/availability"
	"github.com/xenking/gatepass/internal/domain/account"
	"github.com/xenking/gatepass/internal/domain/booking"
	"github.com/xenking/gatepass/internal/domain/discount"
	"github.com/xenking/gatepass/internal/domain/pricing"
	"github.com/xenking/gatepass/internal/domain/ticket"
	"github.com/xenking/gatepass/internal/notification"
	"github.com/xenking/gatepass/internal/payment"
)

// CartItem is one requested line: a ticket type and how many units.
type CartItem struct {
	TicketTypeName string
	Quantity       int
}

// Request holds everything needed to complete a checkout.
type Request struct {
	VisitDate     time.Time
	Items         []CartItem
	DiscountCodes []string
	Email         string
	FirstName     string
	LastName      string
	PaymentMethod string
}

// Result is the success payload of a completed checkout.
type Result struct {
	BookingID      string
	GatewayRef     string
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	AppliedCodes   []string
}

// PriceBreakdown is the authoritative quote for a cart plus the discount
// code classification, as exposed to price previews.
type PriceBreakdown struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	ValidCodes     []string
	InvalidCodes   []string
	Inapplicable   []string
	Percentages    map[string]int
	AppliesTo      map[string][]string

	currency   string
	lines      []pricing.Line
	resolution *discount.Resolution
}

// Service is the checkout orchestrator.
type Service struct {
	tickets  ticket.Repository
	resolver *discount.Resolver
	ledger   booking.Ledger
	bookings booking.Repository
	accounts account.Repository
	gateway  payment.Gateway
	notifier notification.Notifier
	avail    *availability.Service
	lg       *zap.Logger
	now      func() time.Time
}

// NewService wires the orchestrator's collaborators.
func NewService(
	tickets ticket.Repository,
	resolver *discount.Resolver,
	ledger booking.Ledger,
	bookings booking.Repository,
	accounts account.Repository,
	gateway payment.Gateway,
	notifier notification.Notifier,
	avail *availability.Service,
	lg *zap.Logger,
) *Service {
	return &Service{
		tickets:  tickets,
		resolver: resolver,
		ledger:   ledger,
		bookings: bookings,
		accounts: accounts,
		gateway:  gateway,
		notifier: notifier,
		avail:    avail,
		lg:       lg,
		now:      time.Now,
	}
}

// Price computes the authoritative quote for a cart. Never trusts any
// client-supplied amount; identical inputs against unchanged catalog state
// yield identical output.
func (s *Service) Price(ctx context.Context, items []CartItem, codes []string) (*PriceBreakdown, error) {
	if len(items) == 0 {
		return nil, &ValidationError{Code: CodeEmptyCart, Message: "at least one cart item is required"}
	}

	types := make([]*ticket.Type, len(items))
	typeNames := make([]string, len(items))
	currency := ""
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, &ValidationError{
				Code:    CodeInvalidQuantity,
				Message: fmt.Sprintf("quantity must be positive for %s", item.TicketTypeName),
			}
		}
		tt, err := s.tickets.FindByName(ctx, item.TicketTypeName)
		if err != nil {
			if errors.Is(err, ticket.ErrNotFound) {
				return nil, &ValidationError{
					Code:    CodeUnknownTicketType,
					Message: fmt.Sprintf("unknown ticket type %q", item.TicketTypeName),
				}
			}
			return nil, errors.Wrapf(err, "load ticket type %q", item.TicketTypeName)
		}
		if currency == "" {
			currency = tt.Currency
		} else if currency != tt.Currency {
			return nil, &ValidationError{Code: CodeMixedCurrency, Message: "cart mixes currencies"}
		}
		types[i] = tt
		typeNames[i] = tt.TypeName
	}

	res, err := s.resolver.Resolve(ctx, typeNames, codes)
	if err != nil {
		return nil, errors.Wrap(err, "resolve discounts")
	}

	lines := make([]pricing.Line, len(items))
	for i, item := range items {
		lines[i] = pricing.Line{
			TypeName:    item.TicketTypeName,
			UnitCost:    types[i].Cost,
			Quantity:    item.Quantity,
			BestPercent: res.BestPercentFor(item.TicketTypeName),
		}
	}
	quote := pricing.Calculate(lines)

	applied := make([]string, 0, len(res.Applied))
	for code := range res.Applied {
		applied = append(applied, code)
	}
	sort.Strings(applied)

	return &PriceBreakdown{
		Subtotal:       quote.Subtotal,
		DiscountAmount: quote.DiscountAmount,
		Total:          quote.Total,
		ValidCodes:     applied,
		InvalidCodes:   res.Invalid,
		Inapplicable:   res.Inapplicable,
		Percentages:    res.Percentages,
		AppliesTo:      res.Applied,
		currency:       currency,
		lines:          lines,
		resolution:     res,
	}, nil
}

// Checkout runs the full state machine. All pre-charge failures return
// typed errors with no side effects; a post-charge capacity conflict
// triggers a compensating refund and is never swallowed.
func (s *Service) Checkout(ctx context.Context, req Request) (*Result, error) {
	today := midnight(s.now())
	visit := midnight(req.VisitDate)
	if visit.Before(today) {
		return nil, &ValidationError{Code: CodePastVisitDate, Message: "visit date is in the past"}
	}
	if req.Email == "" {
		return nil, &ValidationError{Code: CodeMissingBuyer, Message: "buyer email is required"}
	}

	// Authoritative pricing. Any code the client believed usable that now
	// classifies as invalid or inapplicable aborts the checkout.
	breakdown, err := s.Price(ctx, req.Items, req.DiscountCodes)
	if err != nil {
		return nil, err
	}
	if changed := breakdown.resolution.Changed(); len(changed) > 0 {
		return nil, &DiscountChangedError{Codes: changed}
	}

	// Pre-charge availability check. Quantities are summed per ticket type
	// first so a cart repeating a type is checked against its combined
	// demand. The ledger re-checks under lock at commit time; this pass
	// fails fast before money moves.
	requested := make(map[string]int, len(req.Items))
	typeOrder := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if _, ok := requested[item.TicketTypeName]; !ok {
			typeOrder = append(typeOrder, item.TicketTypeName)
		}
		requested[item.TicketTypeName] += item.Quantity
	}
	for _, name := range typeOrder {
		avail, err := s.ledger.Available(ctx, name, visit)
		if err != nil {
			return nil, errors.Wrapf(err, "availability for %s", name)
		}
		if requested[name] > avail {
			return nil, &InsufficientAvailabilityError{
				TicketTypeName: name,
				Requested:      requested[name],
				Available:      avail,
			}
		}
	}

	if !breakdown.Total.IsPositive() {
		return nil, ErrInvalidTotal
	}

	idempotencyKey := uuid.New().String()
	charge, err := s.gateway.Charge(ctx, payment.ChargeRequest{
		AmountMinor:    breakdown.Total.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency:       breakdown.currency,
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil || charge == nil || charge.Status == payment.StatusUnknown {
		s.lg.Error("charge outcome unknown, nothing committed",
			zap.String("idempotency_key", idempotencyKey),
			zap.Error(err),
		)
		return nil, &GatewayUnknownError{IdempotencyKey: idempotencyKey}
	}
	if charge.Status != payment.StatusSucceeded {
		return nil, &GatewayDeclinedError{Reference: charge.Reference}
	}

	buyer, err := s.accounts.FindOrCreateGuest(ctx, req.Email, req.FirstName, req.LastName)
	if err != nil {
		// Charged but no buyer record: compensate before surfacing.
		return nil, s.compensate(ctx, errors.Wrap(err, "resolve buyer"), charge.Reference, idempotencyKey)
	}

	b := s.buildBooking(req, buyer.ID, breakdown, charge.Reference, visit, today)
	if err := s.bookings.CreateWithReservation(ctx, b); err != nil {
		var conflict *booking.CapacityConflictError
		if errors.As(err, &conflict) {
			return nil, s.compensate(ctx, err, charge.Reference, idempotencyKey)
		}
		return nil, s.compensate(ctx, errors.Wrap(err, "persist booking"), charge.Reference, idempotencyKey)
	}

	s.dispatchSideEffects(ctx, req, buyer, b, visit)

	return &Result{
		BookingID:      b.ID,
		GatewayRef:     charge.Reference,
		Subtotal:       breakdown.Subtotal,
		DiscountAmount: breakdown.DiscountAmount,
		Total:          breakdown.Total,
		AppliedCodes:   breakdown.ValidCodes,
	}, nil
}

// compensate refunds a settled charge whose booking could not be committed.
// The refund outcome rides on the returned error so the failure is always
// visible to the caller and the logs.
func (s *Service) compensate(ctx context.Context, cause error, gatewayRef, idempotencyKey string) error {
	refundErr := s.gateway.Refund(ctx, gatewayRef, idempotencyKey+":refund")
	if refundErr != nil {
		s.lg.Error("refund after failed commit did not go through, manual reconciliation required",
			zap.String("gateway_ref", gatewayRef),
			zap.String("idempotency_key", idempotencyKey),
			zap.NamedError("refund_error", refundErr),
			zap.NamedError("commit_error", cause),
		)
	} else {
		s.lg.Warn("charge refunded after failed commit",
			zap.String("gateway_ref", gatewayRef),
			zap.Error(cause),
		)
	}
	return &CapacityConflictError{
		BookingErr: cause,
		GatewayRef: gatewayRef,
		Refunded:   refundErr == nil,
		RefundErr:  refundErr,
	}
}

func (s *Service) buildBooking(req Request, buyerID string, breakdown *PriceBreakdown, gatewayRef string, visit, today time.Time) *booking.Booking {
	lines := make([]booking.Line, len(breakdown.lines))
	for i, line := range breakdown.lines {
		lines[i] = booking.Line{
			ID:             uuid.New().String(),
			TicketTypeName: line.TypeName,
			ValidDate:      visit,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitCost,
			LineTotal:      line.UnitCost.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2),
		}
	}
	return &booking.Booking{
		ID:             uuid.New().String(),
		BuyerID:        buyerID,
		PurchaseDate:   today,
		Subtotal:       breakdown.Subtotal,
		DiscountAmount: breakdown.DiscountAmount,
		Total:          breakdown.Total,
		Currency:       breakdown.currency,
		GatewayRef:     gatewayRef,
		AppliedCodes:   breakdown.ValidCodes,
		Lines:          lines,
	}
}

// dispatchSideEffects sends the confirmation and republishes availability.
// Both are best-effort: failures are logged and never roll back the booking.
func (s *Service) dispatchSideEffects(ctx context.Context, req Request, buyer *account.Account, b *booking.Booking, visit time.Time) {
	lineSummaries := make([]notification.LineSummary, len(b.Lines))
	for i, line := range b.Lines {
		lineSummaries[i] = notification.LineSummary{
			TicketTypeName: line.TicketTypeName,
			Quantity:       line.Quantity,
			LineTotal:      line.LineTotal,
		}
	}
	if err := s.notifier.SendBookingConfirmation(ctx, buyer.ID, notification.BookingSummary{
		BookingID:      b.ID,
		Email:          req.Email,
		FirstName:      req.FirstName,
		VisitDate:      visit,
		Lines:          lineSummaries,
		Subtotal:       b.Subtotal,
		DiscountAmount: b.DiscountAmount,
		Total:          b.Total,
		Currency:       b.Currency,
	}); err != nil {
		s.lg.Error("booking confirmation dispatch failed",
			zap.String("booking_id", b.ID),
			zap.Error(err),
		)
	}

	s.avail.Publish(ctx, visit)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
