// Package availability derives sellable-unit counts per ticket type and
// date, and broadcasts refreshed snapshots after commitments change.
package availability

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/gatepass/internal/domain/booking"
	"github.com/xenking/gatepass/internal/domain/ticket"
)

// TicketAvailability is one ticket type's remaining capacity for a date.
type TicketAvailability struct {
	ID          string          `json:"id"`
	TypeName    string          `json:"typeName"`
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
	Currency    string          `json:"currency"`
	PhotoURL    string          `json:"photoUrl"`
	MaxPerDay   int             `json:"maxPerDay"`
	Available   int             `json:"available"`
}

// Publisher emits a snapshot for a date to interested subscribers.
// Fire-and-forget: no acknowledgment is expected.
type Publisher interface {
	Publish(ctx context.Context, date time.Time, snapshot []TicketAvailability) error
}

// Service computes availability snapshots. Counts are recomputed from
// committed booking lines on every call, never cached across a commit.
type Service struct {
	tickets ticket.Repository
	ledger  booking.Ledger
	pub     Publisher
	lg      *zap.Logger
}

// NewService creates a Service. pub may be nil when broadcasting is not
// wired (snapshot reads still work).
func NewService(tickets ticket.Repository, ledger booking.Ledger, pub Publisher, lg *zap.Logger) *Service {
	return &Service{tickets: tickets, ledger: ledger, pub: pub, lg: lg}
}

// Snapshot returns remaining capacity for every catalog ticket type on the
// given date, clamped at zero.
func (s *Service) Snapshot(ctx context.Context, date time.Time) ([]TicketAvailability, error) {
	types, err := s.tickets.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list ticket types")
	}

	sold, err := s.ledger.SoldByDate(ctx, date)
	if err != nil {
		return nil, errors.Wrap(err, "load committed quantities")
	}

	snapshot := make([]TicketAvailability, len(types))
	for i, tt := range types {
		available := tt.MaxPerDay - sold[tt.TypeName]
		if available < 0 {
			available = 0
		}
		snapshot[i] = TicketAvailability{
			ID:          tt.ID,
			TypeName:    tt.TypeName,
			Description: tt.Description,
			Cost:        tt.Cost,
			Currency:    tt.Currency,
			PhotoURL:    tt.PhotoURL,
			MaxPerDay:   tt.MaxPerDay,
			Available:   available,
		}
	}
	return snapshot, nil
}

// Publish recomputes the snapshot for date and emits it. Failures are
// logged, never propagated to the caller's success path.
func (s *Service) Publish(ctx context.Context, date time.Time) {
	if s.pub == nil {
		return
	}
	snapshot, err := s.Snapshot(ctx, date)
	if err != nil {
		s.lg.Error("availability snapshot failed", zap.Time("date", date), zap.Error(err))
		return
	}
	if err := s.pub.Publish(ctx, date, snapshot); err != nil {
		s.lg.Error("availability publish failed", zap.Time("date", date), zap.Error(err))
	}
}
