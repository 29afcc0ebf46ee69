package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// KafkaPublisher publishes envelopes to the LMS event topic on Kafka.
type KafkaPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

// NewKafkaPublisher connects a publisher to the given brokers.
func NewKafkaPublisher(brokers []string, logger *slog.Logger) (*KafkaPublisher, error) {
	pub, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka publisher: %w", err)
	}
	return &KafkaPublisher{publisher: pub, logger: logger}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", event.Type)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(Topic, msg); err != nil {
		return fmt.Errorf("publish event %s: %w", event.Type, err)
	}

	p.logger.Debug("event published", "event_id", event.ID, "event_type", event.Type)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.publisher.Close()
}

// KafkaSubscriber consumes envelopes from the LMS event topic.
type KafkaSubscriber struct {
	subscriber message.Subscriber
	logger     *slog.Logger
}

// NewKafkaSubscriber joins the given consumer group on the brokers.
func NewKafkaSubscriber(brokers []string, consumerGroup string, logger *slog.Logger) (*KafkaSubscriber, error) {
	sub, err := kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:       brokers,
			Unmarshaler:   kafka.DefaultMarshaler{},
			ConsumerGroup: consumerGroup,
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka subscriber: %w", err)
	}
	return &KafkaSubscriber{subscriber: sub, logger: logger}, nil
}

func (s *KafkaSubscriber) Subscribe(ctx context.Context, handler func(ctx context.Context, event *Event) error) error {
	messages, err := s.subscriber.Subscribe(ctx, Topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", Topic, err)
	}

	go func() {
		for msg := range messages {
			var event Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				s.logger.Error("drop malformed event", "message_id", msg.UUID, "error", err)
				msg.Ack()
				continue
			}
			if err := handler(msg.Context(), &event); err != nil {
				s.logger.Error("event handler failed", "event_id", event.ID, "event_type", event.Type, "error", err)
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}()

	return nil
}

func (s *KafkaSubscriber) Close() error {
	return s.subscriber.Close()
}
