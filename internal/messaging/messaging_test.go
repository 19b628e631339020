package messaging_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/serroba/url-shortener/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newPubSub() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 10},
		messaging.NewZapLogger(zap.NewNop()),
	)
}

func TestPublishAndConsume(t *testing.T) {
	t.Run("delivers typed events to the handler", func(t *testing.T) {
		pubSub := newPubSub()
		received := make(chan *testEvent, 1)

		consumer := messaging.NewConsumer(
			pubSub,
			"test.topic",
			func(_ context.Context, event *testEvent) error {
				received <- event

				return nil
			},
			zap.NewNop(),
		)

		require.NoError(t, consumer.Start(context.Background()))
		assert.Equal(t, "test.topic", consumer.Topic())

		publish := messaging.NewPublishFunc[testEvent](pubSub, "test.topic")
		require.NoError(t, publish(context.Background(), &testEvent{ID: "123", Name: "test"}))

		select {
		case event := <-received:
			assert.Equal(t, "123", event.ID)
			assert.Equal(t, "test", event.Name)
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for event")
		}

		require.NoError(t, consumer.Shutdown())
		require.NoError(t, pubSub.Close())
	})

	t.Run("sets event type metadata", func(t *testing.T) {
		pubSub := newPubSub()

		msgs, err := pubSub.Subscribe(context.Background(), "typed.topic")
		require.NoError(t, err)

		publish := messaging.NewPublishFunc[testEvent](pubSub, "typed.topic")
		require.NoError(t, publish(context.Background(), &testEvent{ID: "1"}))

		select {
		case msg := <-msgs:
			assert.Equal(t, "typed.topic", msg.Metadata.Get(messaging.EventTypeKey))

			publishedAt, err := time.Parse(time.RFC3339Nano, msg.Metadata.Get(messaging.PublishedAtKey))
			require.NoError(t, err)
			assert.WithinDuration(t, time.Now(), publishedAt, time.Minute)
			assert.Contains(t, string(msg.Payload), `"id":"1"`)
			msg.Ack()
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for message")
		}

		require.NoError(t, pubSub.Close())
	})
}

type stubSubscriber struct {
	msgs chan *message.Message
	err  error
}

func (s *stubSubscriber) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	if s.err != nil {
		return nil, s.err
	}

	return s.msgs, nil
}

func (s *stubSubscriber) Close() error {
	return nil
}

func TestConsumer_HandleMessage(t *testing.T) {
	t.Run("returns error when subscribe fails", func(t *testing.T) {
		consumer := messaging.NewConsumer(
			&stubSubscriber{err: errors.New("subscribe error")},
			"test.topic",
			func(_ context.Context, _ *testEvent) error { return nil },
			zap.NewNop(),
		)

		assert.Error(t, consumer.Start(context.Background()))
	})

	t.Run("drops malformed payloads", func(t *testing.T) {
		sub := &stubSubscriber{msgs: make(chan *message.Message, 1)}
		consumer := messaging.NewConsumer(
			sub,
			"test.topic",
			func(_ context.Context, _ *testEvent) error { return nil },
			zap.NewNop(),
		)
		require.NoError(t, consumer.Start(context.Background()))

		msg := message.NewMessage(uuid.NewString(), []byte("invalid json"))
		sub.msgs <- msg

		select {
		case <-msg.Acked():
		case <-msg.Nacked():
			t.Fatal("malformed message should have been acked")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for ack")
		}

		_ = consumer.Shutdown()
	})

	t.Run("refuses a second start", func(t *testing.T) {
		consumer := messaging.NewConsumer(
			&stubSubscriber{msgs: make(chan *message.Message)},
			"test.topic",
			func(_ context.Context, _ *testEvent) error { return nil },
			zap.NewNop(),
		)
		require.NoError(t, consumer.Start(context.Background()))

		assert.ErrorIs(t, consumer.Start(context.Background()), messaging.ErrAlreadyStarted)
		assert.Equal(t, "test.topic", consumer.Topic())

		require.NoError(t, consumer.Shutdown())
		require.NoError(t, consumer.Shutdown())
	})

	t.Run("nacks on handler error", func(t *testing.T) {
		sub := &stubSubscriber{msgs: make(chan *message.Message, 1)}
		consumer := messaging.NewConsumer(
			sub,
			"test.topic",
			func(_ context.Context, _ *testEvent) error { return errors.New("handler error") },
			zap.NewNop(),
		)
		require.NoError(t, consumer.Start(context.Background()))

		msg := message.NewMessage(uuid.NewString(), []byte(`{"id":"1"}`))
		sub.msgs <- msg

		select {
		case <-msg.Nacked():
		case <-msg.Acked():
			t.Fatal("message should have been nacked")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for nack")
		}

		_ = consumer.Shutdown()
	})
}

func TestPublishFunc_WrapsPublisherErrors(t *testing.T) {
	pubSub := newPubSub()
	require.NoError(t, pubSub.Close())

	publish := messaging.NewPublishFunc[testEvent](pubSub, "closed.topic")

	assert.ErrorContains(t, publish(context.Background(), &testEvent{ID: "1"}), "publishing to closed.topic")
}

func TestPublisherGroup(t *testing.T) {
	pubSub := newPubSub()
	group := messaging.NewPublisherGroup(pubSub)

	assert.Equal(t, pubSub, group.Publisher())
	require.NoError(t, group.Shutdown())
}

func TestZapLogger(t *testing.T) {
	logger := messaging.NewZapLogger(zap.NewNop())

	child := logger.With(watermill.LogFields{"topic": "t"})
	child.Info("info", nil)
	child.Debug("debug", watermill.LogFields{"k": 1})
	child.Trace("trace", nil)
	child.Error("error", errors.New("boom"), nil)

	assert.NotNil(t, child)
}
