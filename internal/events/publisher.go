package events

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NewNATSPublisher connects a JetStream publisher for outgoing engine events.
func NewNATSPublisher(url string, logger *zap.Logger) (message.Publisher, error) {
	wmLogger := watermill.NewStdLogger(false, false)

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			TrackMsgId:    true,
		},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}
	return pub, nil
}

// Bridge publishes engine events. Publishing happens after the owning
// transaction commits and failures are reported to the caller, who logs and
// moves on; the store remains the source of truth.
type Bridge struct {
	publisher message.Publisher
	logger    *zap.Logger
}

func NewBridge(publisher message.Publisher, logger *zap.Logger) *Bridge {
	return &Bridge{publisher: publisher, logger: logger}
}

func (b *Bridge) PublishMatchCreated(ev MatchCreated) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("match created event: %w", err)
	}
	return b.publish(TopicMatchCreated, ev)
}

func (b *Bridge) PublishMatchRemoved(ev MatchRemoved) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("match removed event: %w", err)
	}
	return b.publish(TopicMatchRemoved, ev)
}

func (b *Bridge) publish(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	if err := b.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	b.logger.Debug("event published", zap.String("topic", topic), zap.String("message_id", msg.UUID))
	return nil
}

func (b *Bridge) Close() error {
	return b.publisher.Close()
}
