package messaging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/url-shortener/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunnable struct {
	topic       string
	starts      int
	shutdowns   int
	startErr    error
	shutdownErr error
}

func (f *fakeRunnable) Topic() string {
	return f.topic
}

func (f *fakeRunnable) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}

	f.starts++

	return nil
}

func (f *fakeRunnable) Shutdown() error {
	f.shutdowns++

	return f.shutdownErr
}

type closeCountingSubscriber struct {
	stubSubscriber

	closes   int
	closeErr error
}

func (s *closeCountingSubscriber) Close() error {
	s.closes++

	return s.closeErr
}

func newGroup(consumers ...*fakeRunnable) (*messaging.ConsumerGroup, *closeCountingSubscriber) {
	sub := &closeCountingSubscriber{stubSubscriber: stubSubscriber{msgs: make(chan *message.Message)}}
	group := messaging.NewConsumerGroup(sub, zap.NewNop())

	for _, c := range consumers {
		group.Add(c)
	}

	return group, sub
}

func TestConsumerGroup_Start(t *testing.T) {
	t.Run("starts every consumer", func(t *testing.T) {
		created := &fakeRunnable{topic: "urls.changed"}
		accessed := &fakeRunnable{topic: "url.accessed"}
		group, _ := newGroup(created, accessed)

		require.NoError(t, group.Start(context.Background()))

		assert.Equal(t, 1, created.starts)
		assert.Equal(t, 1, accessed.starts)
		assert.Equal(t, []string{"urls.changed", "url.accessed"}, group.Topics())
	})

	t.Run("stops started consumers when one fails", func(t *testing.T) {
		first := &fakeRunnable{topic: "first"}
		failing := &fakeRunnable{topic: "second", startErr: errors.New("no stream")}
		never := &fakeRunnable{topic: "third"}
		group, _ := newGroup(first, failing, never)

		err := group.Start(context.Background())

		require.ErrorContains(t, err, "starting consumer for second")
		assert.Equal(t, 1, first.shutdowns)
		assert.Zero(t, failing.starts)
		assert.Zero(t, never.starts)
		assert.Zero(t, never.shutdowns)
	})
}

func TestConsumerGroup_Shutdown(t *testing.T) {
	t.Run("stops consumers and closes the subscriber once", func(t *testing.T) {
		first := &fakeRunnable{topic: "first"}
		second := &fakeRunnable{topic: "second"}
		group, sub := newGroup(first, second)
		require.NoError(t, group.Start(context.Background()))

		require.NoError(t, group.Shutdown())
		require.NoError(t, group.Shutdown())

		assert.Equal(t, 1, first.shutdowns)
		assert.Equal(t, 1, second.shutdowns)
		assert.Equal(t, 1, sub.closes)
	})

	t.Run("joins every failure", func(t *testing.T) {
		errFirst := errors.New("first failed")
		errClose := errors.New("close failed")

		first := &fakeRunnable{topic: "first", shutdownErr: errFirst}
		second := &fakeRunnable{topic: "second"}
		group, sub := newGroup(first, second)
		sub.closeErr = errClose

		err := group.Shutdown()

		require.ErrorIs(t, err, errFirst)
		require.ErrorIs(t, err, errClose)
		assert.Equal(t, 1, second.shutdowns)
	})
}
