package events

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/url-shortener/internal/messaging"
	"go.uber.org/zap"
)

// NewConsumerGroup wires one typed consumer per topic into a group that records events in store.
func NewConsumerGroup(subscriber message.Subscriber, store Store, logger *zap.Logger) *messaging.ConsumerGroup {
	group := messaging.NewConsumerGroup(subscriber, logger)

	group.Add(messaging.NewConsumer[URLsChangedEvent](subscriber, TopicURLsChanged, store.SaveURLsChanged, logger))
	group.Add(messaging.NewConsumer[URLAccessedEvent](subscriber, TopicURLAccessed, store.SaveURLAccessed, logger))

	return group
}
