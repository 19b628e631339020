package events

import "context"

// Store persists consumed events.
type Store interface {
	SaveURLsChanged(ctx context.Context, event *URLsChangedEvent) error
	SaveURLAccessed(ctx context.Context, event *URLAccessedEvent) error
}
