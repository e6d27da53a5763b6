// Package notification defines the booking-confirmation port. Rendering and
// delivery (email, QR codes) live in downstream consumers; the sales core
// only hands off a summary.
package notification

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/gatepass/internal/events"
)

// LineSummary is one booked line in a confirmation.
type LineSummary struct {
	TicketTypeName string          `json:"ticketTypeName"`
	Quantity       int             `json:"quantity"`
	LineTotal      decimal.Decimal `json:"lineTotal"`
}

// BookingSummary carries everything a confirmation needs.
type BookingSummary struct {
	BookingID      string          `json:"bookingId"`
	Email          string          `json:"email"`
	FirstName      string          `json:"firstName"`
	VisitDate      time.Time       `json:"visitDate"`
	Lines          []LineSummary   `json:"lines"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
}

// Notifier dispatches a booking confirmation. Fire-and-forget: failures are
// reported to the caller for logging but never undo the booking.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, accountID string, summary BookingSummary) error
}

var _ Notifier = (*EventNotifier)(nil)

// EventNotifier publishes confirmations on the booking event topic for the
// email worker to pick up.
type EventNotifier struct {
	events *events.Publisher
}

// NewEventNotifier wraps the shared event publisher.
func NewEventNotifier(ev *events.Publisher) *EventNotifier {
	return &EventNotifier{events: ev}
}

type bookingConfirmedEvent struct {
	AccountID string `json:"accountId"`
	BookingSummary
}

// SendBookingConfirmation emits the confirmation event.
func (n *EventNotifier) SendBookingConfirmation(ctx context.Context, accountID string, summary BookingSummary) error {
	return n.events.PublishJSON(ctx, events.TopicBookingConfirmed, bookingConfirmedEvent{
		AccountID:      accountID,
		BookingSummary: summary,
	})
}
