package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
)

// Metadata keys set on every published message.
const (
	EventTypeKey   = "event_type"
	PublishedAtKey = "published_at"
)

// Publish sends one event. The event is encoded as JSON.
type Publish[T any] func(ctx context.Context, event *T) error

// NewPublishFunc returns a Publish that sends T events to topic.
func NewPublishFunc[T any](publisher message.Publisher, topic string) Publish[T] {
	return func(ctx context.Context, event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encoding %s event: %w", topic, err)
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set(EventTypeKey, topic)
		msg.Metadata.Set(PublishedAtKey, time.Now().UTC().Format(time.RFC3339Nano))
		msg.SetContext(ctx)

		if err = publisher.Publish(topic, msg); err != nil {
			return fmt.Errorf("publishing to %s: %w", topic, err)
		}

		return nil
	}
}

// PublisherGroup owns the broker publisher shared by all Publish functions and
// closes it on shutdown.
type PublisherGroup struct {
	publisher message.Publisher
}

func NewPublisherGroup(publisher message.Publisher) *PublisherGroup {
	return &PublisherGroup{publisher: publisher}
}

func (g *PublisherGroup) Publisher() message.Publisher {
	return g.publisher
}

func (g *PublisherGroup) Shutdown() error {
	return g.publisher.Close()
}
