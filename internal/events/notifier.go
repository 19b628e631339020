package events

import (
	"context"
	"time"

	"github.com/serroba/url-shortener/internal/messaging"
	"github.com/serroba/url-shortener/internal/shortener"
	"go.uber.org/zap"
)

// ChangeNotifier publishes listing changes to the urls.changed topic.
type ChangeNotifier struct {
	publish messaging.Publish[URLsChangedEvent]
	logger  *zap.Logger
	now     func() time.Time
}

// NewChangeNotifier creates a notifier backed by publish.
func NewChangeNotifier(publish messaging.Publish[URLsChangedEvent], logger *zap.Logger) *ChangeNotifier {
	return &ChangeNotifier{publish: publish, logger: logger, now: time.Now}
}

// NotifyChanged publishes the change. Failures are logged and otherwise ignored.
func (n *ChangeNotifier) NotifyChanged(ctx context.Context, change shortener.Change) {
	event := &URLsChangedEvent{
		Kind:      string(change.Kind),
		ID:        change.ID,
		Code:      string(change.Code),
		ChangedAt: n.now().UTC(),
	}

	if err := n.publish(ctx, event); err != nil {
		n.logger.Warn("failed to publish listing change",
			zap.String("kind", event.Kind),
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}
}

var _ shortener.Notifier = (*ChangeNotifier)(nil)
