package store

import (
	"context"

	"github.com/serroba/url-shortener/internal/events"
	"go.uber.org/zap"
)

// Noop is an events.Store that only logs what it receives.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new no-op events store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveURLsChanged(_ context.Context, event *events.URLsChangedEvent) error {
	n.logger.Info("urls changed event received",
		zap.String("kind", event.Kind),
		zap.Int64("id", event.ID),
		zap.String("code", event.Code),
		zap.Time("changedAt", event.ChangedAt),
	)

	return nil
}

func (n *Noop) SaveURLAccessed(_ context.Context, event *events.URLAccessedEvent) error {
	n.logger.Info("url accessed event received",
		zap.String("code", event.Code),
		zap.Time("accessedAt", event.AccessedAt),
		zap.String("referrer", event.Referrer),
	)

	return nil
}

var _ events.Store = (*Noop)(nil)
