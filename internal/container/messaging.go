package container

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/samber/do"
	"github.com/serroba/url-shortener/internal/events"
	eventstore "github.com/serroba/url-shortener/internal/events/store"
	"github.com/serroba/url-shortener/internal/messaging"
	"go.uber.org/zap"
)

// ConsumerGroupName is the Redis stream consumer group shared by event consumers.
const ConsumerGroupName = "url-shortener-events"

// BrokerPackage provides the in-process broker used when Broker is "memory".
func BrokerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*gochannel.GoChannel, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		return gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 256},
			messaging.NewZapLogger(logger),
		), nil
	})
}

func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		var publisher message.Publisher

		switch opts.Broker {
		case BrokerMemory:
			publisher = do.MustInvoke[*gochannel.GoChannel](i)
		case BrokerRedis:
			pub, err := redisstream.NewPublisher(redisstream.PublisherConfig{
				Client:     do.MustInvoke[*Redis](i).Client,
				Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
			}, messaging.NewZapLogger(logger))
			if err != nil {
				return nil, fmt.Errorf("creating redis stream publisher: %w", err)
			}

			publisher = pub
		default:
			return nil, fmt.Errorf("unknown broker %q", opts.Broker)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		var subscriber message.Subscriber

		switch opts.Broker {
		case BrokerMemory:
			subscriber = do.MustInvoke[*gochannel.GoChannel](i)
		case BrokerRedis:
			sub, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        do.MustInvoke[*Redis](i).Client,
				Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
				ConsumerGroup: ConsumerGroupName,
			}, messaging.NewZapLogger(logger))
			if err != nil {
				return nil, fmt.Errorf("creating redis stream subscriber: %w", err)
			}

			subscriber = sub
		default:
			return nil, fmt.Errorf("unknown broker %q", opts.Broker)
		}

		return events.NewConsumerGroup(subscriber, eventstore.NewNoop(logger.Named("events")), logger), nil
	})
}
