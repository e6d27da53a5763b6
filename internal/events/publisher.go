// Package events wraps the Watermill Redis Stream publisher used for the
// availability and booking event channels.
package events

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

// Topics published by the sales core. Consumers (email workers, live
// availability feeds) subscribe by topic; no acknowledgment flows back.
const (
	TopicAvailabilitySnapshot = "availability.snapshot"
	TopicBookingConfirmed     = "booking.confirmed"
)

// Publisher emits JSON events to Redis Streams.
type Publisher struct {
	pub message.Publisher
}

// NewRedisPublisher creates a Publisher on top of the given Redis client.
func NewRedisPublisher(client *redis.Client, logger watermill.LoggerAdapter) (*Publisher, error) {
	pub, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: client,
	}, logger)
	if err != nil {
		return nil, errors.Wrap(err, "create redis stream publisher")
	}
	return &Publisher{pub: pub}, nil
}

// PublishJSON marshals v and publishes it to topic with a fresh message ID.
func (p *Publisher) PublishJSON(_ context.Context, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal %s event", topic)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.pub.Publish(topic, msg); err != nil {
		return errors.Wrapf(err, "publish to %s", topic)
	}
	return nil
}

// Close releases the underlying publisher.
func (p *Publisher) Close() error {
	return p.pub.Close()
}
