package shortener

import "context"

// Repository defines the storage contract the shortener depends on.
//
// Insert must be atomic with respect to both unique attributes: the normalized
// URL (among live records) and the code (among all records ever inserted). A
// violation is reported as *UniquenessViolation so callers can branch on it.
type Repository interface {
	ExistsByNormalizedURL(ctx context.Context, normalizedURL string) (bool, error)
	// ExistsByCode also reports codes of deleted records, which are never reused.
	ExistsByCode(ctx context.Context, code Code) (bool, error)
	// Insert stores a new record and sets its ID.
	Insert(ctx context.Context, shortURL *ShortURL) error
	GetByCode(ctx context.Context, code Code) (*ShortURL, error)
	GetByID(ctx context.Context, id int64) (*ShortURL, error)
	// Delete removes a live record and retires its code.
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, req PageRequest) (*Page, error)
}

// ChangeKind describes how the listing changed.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeDeleted ChangeKind = "deleted"
)

// Change is the payload of a listing change notification.
type Change struct {
	Kind ChangeKind
	ID   int64
	Code Code
}

// Notifier broadcasts listing changes. Delivery is fire-and-forget: a failed
// notification never affects the operation that triggered it.
type Notifier interface {
	NotifyChanged(ctx context.Context, change Change)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) NotifyChanged(context.Context, Change) {}
