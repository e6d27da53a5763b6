package availability

import (
	"context"
	"time"

	"github.com/xenking/gatepass/internal/events"
)

var _ Publisher = (*EventPublisher)(nil)

// EventPublisher broadcasts snapshots on the availability event topic.
type EventPublisher struct {
	events *events.Publisher
}

// NewEventPublisher wraps the shared event publisher.
func NewEventPublisher(ev *events.Publisher) *EventPublisher {
	return &EventPublisher{events: ev}
}

type snapshotEvent struct {
	Date     string               `json:"date"`
	Snapshot []TicketAvailability `json:"snapshot"`
}

// Publish emits the snapshot keyed by date.
func (p *EventPublisher) Publish(ctx context.Context, date time.Time, snapshot []TicketAvailability) error {
	return p.events.PublishJSON(ctx, events.TopicAvailabilitySnapshot, snapshotEvent{
		Date:     date.Format("2006-01-02"),
		Snapshot: snapshot,
	})
}
