package shortener

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// DefaultMaxURLLength is the longest URL accepted for shortening.
const DefaultMaxURLLength = 2048

// ValidateRawURL performs the cheap shape checks done before canonicalization:
// the URL must be non-empty, at most maxLength characters and an absolute
// http or https URL with a host. A maxLength of zero disables the length check.
func ValidateRawURL(raw string, maxLength int) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fmt.Errorf("%w: url is required", ErrValidation)
	}

	if maxLength > 0 && utf8.RuneCountInString(trimmed) > maxLength {
		return fmt.Errorf("%w: url is longer than %d characters", ErrValidation, maxLength)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("%w: url cannot be parsed", ErrValidation)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: url must use http or https", ErrValidation)
	}

	if u.Hostname() == "" {
		return fmt.Errorf("%w: url must have a host", ErrValidation)
	}

	return nil
}
