package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable is a topic consumer with a start/stop lifecycle.
type Runnable interface {
	Topic() string
	Start(ctx context.Context) error
	Shutdown() error
}

// ConsumerGroup starts and stops a set of consumers sharing one subscriber.
// The subscriber is closed when the group shuts down.
type ConsumerGroup struct {
	subscriber message.Subscriber
	logger     *zap.Logger

	mu        sync.Mutex
	consumers []Runnable
	closed    bool
}

func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Add registers a consumer. It must be called before Start.
func (g *ConsumerGroup) Add(consumer Runnable) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.consumers = append(g.consumers, consumer)
}

// Topics lists the topics of the registered consumers in registration order.
func (g *ConsumerGroup) Topics() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	topics := make([]string, len(g.consumers))
	for i, consumer := range g.consumers {
		topics[i] = consumer.Topic()
	}

	return topics
}

// Start starts every consumer. If one fails, the ones already running are
// stopped again and the error names the failing topic.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, consumer := range g.consumers {
		if err := consumer.Start(ctx); err != nil {
			for _, started := range g.consumers[:i] {
				_ = started.Shutdown()
			}

			return fmt.Errorf("starting consumer for %s: %w", consumer.Topic(), err)
		}
	}

	topics := make([]string, len(g.consumers))
	for i, consumer := range g.consumers {
		topics[i] = consumer.Topic()
	}

	g.logger.Info("consumer group started", zap.Strings("topics", topics))

	return nil
}

// Shutdown stops every consumer, then closes the subscriber. All steps run even
// when some fail; the failures are joined. Calling it again is a no-op.
func (g *ConsumerGroup) Shutdown() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}

	g.closed = true

	var errs []error

	for _, consumer := range g.consumers {
		if err := consumer.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("stopping consumer for %s: %w", consumer.Topic(), err))
		}
	}

	if err := g.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing subscriber: %w", err))
	}

	g.logger.Info("consumer group stopped")

	return errors.Join(errs...)
}
