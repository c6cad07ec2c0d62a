package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	json "github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// DeckInvalidator drops a user's cached deck so the next request rebuilds it.
type DeckInvalidator interface {
	Invalidate(ctx context.Context, userID int64) error
}

// NewNATSSubscriber connects a queue-group JetStream subscriber, so a single
// engine replica handles each incoming event.
func NewNATSSubscriber(url, queueGroup string, logger *zap.Logger) (message.Subscriber, error) {
	wmLogger := watermill.NewStdLogger(false, false)

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Warn("nats subscriber disconnected", zap.Error(err))
			}
		}),
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		QueueGroupPrefix: queueGroup,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			DurablePrefix: queueGroup,
		},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create nats subscriber: %w", err)
	}
	return sub, nil
}

// ProfileConsumer listens for user.updated and invalidates the edited user's
// deck. Malformed payloads are acked and dropped; invalidation failures are
// nacked for redelivery.
type ProfileConsumer struct {
	subscriber message.Subscriber
	decks      DeckInvalidator
	logger     *zap.Logger
}

func NewProfileConsumer(subscriber message.Subscriber, decks DeckInvalidator, logger *zap.Logger) *ProfileConsumer {
	return &ProfileConsumer{subscriber: subscriber, decks: decks, logger: logger}
}

// Run blocks until ctx is canceled or the subscription channel closes.
func (c *ProfileConsumer) Run(ctx context.Context) error {
	msgs, err := c.subscriber.Subscribe(ctx, TopicProfileUpdated)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicProfileUpdated, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *ProfileConsumer) handle(ctx context.Context, msg *message.Message) {
	var ev ProfileUpdated
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		c.logger.Warn("drop malformed user.updated payload",
			zap.String("message_id", msg.UUID), zap.Error(err))
		msg.Ack()
		return
	}
	if err := ev.Validate(); err != nil {
		c.logger.Warn("drop invalid user.updated payload",
			zap.String("message_id", msg.UUID), zap.Error(err))
		msg.Ack()
		return
	}

	if err := c.decks.Invalidate(ctx, ev.UserID); err != nil {
		c.logger.Error("invalidate deck after profile update",
			zap.Int64("user_id", ev.UserID), zap.Error(err))
		msg.Nack()
		return
	}

	c.logger.Debug("deck invalidated after profile update", zap.Int64("user_id", ev.UserID))
	msg.Ack()
}
