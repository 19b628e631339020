package shortener

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for input that fails the shape checks before any store access.
	ErrValidation = errors.New("invalid url")
	// ErrMalformedURL is returned when a URL cannot be canonicalized.
	ErrMalformedURL = errors.New("malformed url")
	// ErrDuplicate is returned when the canonical URL or code already exists.
	ErrDuplicate = errors.New("url already exists")
	// ErrStorage wraps failures of the underlying store.
	ErrStorage = errors.New("storage failure")
	// ErrNotFound is returned when no live record matches.
	ErrNotFound = errors.New("short url not found")
	// ErrForbidden is returned when the requester may not act on a record.
	ErrForbidden = errors.New("operation not allowed")
	// ErrCodeSpaceExhausted is returned when no free code was found within the attempt bound.
	ErrCodeSpaceExhausted = fmt.Errorf("%w: no free short code found", ErrStorage)
)

// Field names the unique attribute involved in a uniqueness violation.
type Field string

const (
	FieldURL  Field = "url"
	FieldCode Field = "code"
)

// UniquenessViolation is reported by a Repository when an insert would duplicate
// a unique attribute. It matches ErrDuplicate with errors.Is.
type UniquenessViolation struct {
	Field Field
}

func (e *UniquenessViolation) Error() string {
	return fmt.Sprintf("uniqueness violation on %s", e.Field)
}

func (e *UniquenessViolation) Is(target error) bool {
	return target == ErrDuplicate
}

// AsUniquenessViolation extracts a UniquenessViolation from err.
func AsUniquenessViolation(err error) (*UniquenessViolation, bool) {
	var v *UniquenessViolation
	if errors.As(err, &v) {
		return v, true
	}

	return nil, false
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
