package events

import "time"

const (
	TopicURLsChanged = "urls.changed"
	TopicURLAccessed = "url.accessed"
)

// URLsChangedEvent is emitted whenever the listing of short URLs changes.
type URLsChangedEvent struct {
	Kind      string    `json:"kind"`
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	ChangedAt time.Time `json:"changedAt"`
}

// URLAccessedEvent is emitted when a short code is resolved for a redirect.
type URLAccessedEvent struct {
	Code       string    `json:"code"`
	AccessedAt time.Time `json:"accessedAt"`
	ClientIP   string    `json:"clientIp"`
	UserAgent  string    `json:"userAgent"`
	Referrer   string    `json:"referrer,omitempty"`
}
