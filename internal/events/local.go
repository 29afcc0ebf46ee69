package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// LocalBus is an in-process publisher/subscriber pair backed by watermill's
// GoChannel. It is used in development mode and in tests so the service runs
// without a Kafka cluster.
type LocalBus struct {
	channel *gochannel.GoChannel
	logger  *slog.Logger
}

func NewLocalBus(logger *slog.Logger) *LocalBus {
	return &LocalBus{
		channel: gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger)),
		logger:  logger,
	}
}

func (b *LocalBus) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}
	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	return b.channel.Publish(Topic, msg)
}

func (b *LocalBus) Subscribe(ctx context.Context, handler func(ctx context.Context, event *Event) error) error {
	messages, err := b.channel.Subscribe(ctx, Topic)
	if err != nil {
		return err
	}
	go func() {
		for msg := range messages {
			var event Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				b.logger.Error("drop malformed event", "message_id", msg.UUID, "error", err)
				msg.Ack()
				continue
			}
			if err := handler(msg.Context(), &event); err != nil {
				b.logger.Error("event handler failed", "event_id", event.ID, "error", err)
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}()
	return nil
}

func (b *LocalBus) Close() error {
	return b.channel.Close()
}

// MockPublisher records events in memory for assertions in tests.
type MockPublisher struct {
	mu     sync.Mutex
	events []*Event
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(_ context.Context, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// Published returns a copy of the recorded events.
func (m *MockPublisher) Published() []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Event, len(m.events))
	copy(out, m.events)
	return out
}

// Reset clears the recorded events.
func (m *MockPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
