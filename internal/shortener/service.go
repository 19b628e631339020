package shortener

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMaxAttempts bounds the number of candidates tried for a single create.
	DefaultMaxAttempts = 1000
	// codeRetries is how many times an insert-time code collision restarts allocation.
	codeRetries = 1
)

// Service implements the shortener workflows on top of a Repository.
type Service struct {
	store        Repository
	codes        *CodeAllocator
	notifier     Notifier
	logger       *zap.Logger
	now          func() time.Time
	maxURLLength int
	maxAttempts  int
}

// Option configures a Service.
type Option func(*Service)

// WithMaxURLLength overrides DefaultMaxURLLength.
func WithMaxURLLength(n int) Option {
	return func(s *Service) { s.maxURLLength = n }
}

// WithMaxAttempts overrides DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(s *Service) { s.maxAttempts = n }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new shortener service.
func NewService(
	store Repository,
	codes *CodeAllocator,
	notifier Notifier,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		store:        store,
		codes:        codes,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
		maxURLLength: DefaultMaxURLLength,
		maxAttempts:  DefaultMaxAttempts,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.notifier == nil {
		s.notifier = NopNotifier{}
	}

	return s
}

// Create shortens rawURL on behalf of creator.
//
// The existence checks only fail fast; the store's atomic insert is the
// authority on uniqueness. A URL violation at insert time means another
// request won the race and is reported as ErrDuplicate. A code violation
// restarts allocation once before giving up with ErrDuplicate.
func (s *Service) Create(ctx context.Context, rawURL string, creator Identity) (*ShortURL, error) {
	if err := ValidateRawURL(rawURL, s.maxURLLength); err != nil {
		return nil, err
	}

	normalized, err := Canonicalize(rawURL)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.ExistsByNormalizedURL(ctx, normalized)
	if err != nil {
		return nil, storageErr("check normalized url", err)
	}

	if exists {
		return nil, &UniquenessViolation{Field: FieldURL}
	}

	createdBy := creator.UserID
	if createdBy == "" {
		createdBy = Anonymous.UserID
	}

	shortURL := &ShortURL{
		OriginalURL:   strings.TrimSpace(rawURL),
		NormalizedURL: normalized,
		CreatedBy:     createdBy,
	}

	for retry := 0; ; retry++ {
		code, err := s.allocateCode(ctx)
		if err != nil {
			return nil, err
		}

		shortURL.Code = code
		shortURL.CreatedAt = s.now().UTC()

		err = s.store.Insert(ctx, shortURL)
		if err == nil {
			break
		}

		violation, ok := AsUniquenessViolation(err)
		if !ok {
			return nil, storageErr("insert", err)
		}

		if violation.Field == FieldCode && retry < codeRetries {
			s.logger.Warn("short code taken at insert, allocating again",
				zap.String("code", string(code)),
			)

			continue
		}

		return nil, violation
	}

	s.logger.Info("short url created",
		zap.Int64("id", shortURL.ID),
		zap.String("code", string(shortURL.Code)),
		zap.String("createdBy", shortURL.CreatedBy),
	)

	s.notifier.NotifyChanged(context.WithoutCancel(ctx), Change{
		Kind: ChangeCreated,
		ID:   shortURL.ID,
		Code: shortURL.Code,
	})

	return shortURL, nil
}

// allocateCode draws candidates until one is not known to the store.
func (s *Service) allocateCode(ctx context.Context) (Code, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", storageErr("allocate code", err)
		}

		code := s.codes.Next()

		taken, err := s.store.ExistsByCode(ctx, code)
		if err != nil {
			return "", storageErr("check code", err)
		}

		if !taken {
			return code, nil
		}

		s.logger.Debug("short code collision",
			zap.String("code", string(code)),
			zap.Int("attempt", attempt),
		)
	}

	s.logger.Error("short code space exhausted", zap.Int("attempts", s.maxAttempts))

	return "", ErrCodeSpaceExhausted
}

// Resolve returns the live record for code.
func (s *Service) Resolve(ctx context.Context, code string) (*ShortURL, error) {
	if !IsValidCode(code) {
		return nil, ErrNotFound
	}

	shortURL, err := s.store.GetByCode(ctx, Code(code))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, storageErr("get by code", err)
	}

	return shortURL, nil
}

// Delete removes the record with the given id. Only admins and the creator may
// delete a record. The code stays retired.
func (s *Service) Delete(ctx context.Context, id int64, requester Identity) error {
	shortURL, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}

		return storageErr("get by id", err)
	}

	if !requester.CanDelete(shortURL) {
		return ErrForbidden
	}

	if err = s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}

		return storageErr("delete", err)
	}

	s.logger.Info("short url deleted",
		zap.Int64("id", id),
		zap.String("code", string(shortURL.Code)),
		zap.String("deletedBy", requester.UserID),
	)

	s.notifier.NotifyChanged(context.WithoutCancel(ctx), Change{
		Kind: ChangeDeleted,
		ID:   id,
		Code: shortURL.Code,
	})

	return nil
}

// List returns a page of live records, newest first.
func (s *Service) List(ctx context.Context, req PageRequest) (*Page, error) {
	page, err := s.store.List(ctx, req.Normalize())
	if err != nil {
		return nil, storageErr("list", err)
	}

	return page, nil
}
