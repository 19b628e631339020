package shortener

import (
	"fmt"

	"github.com/jaevor/go-nanoid"
)

// Alphabet is the URL-safe character set short codes are drawn from.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultCodeLength is the length of generated short codes.
const DefaultCodeLength = 7

// CodeGenerator returns one random candidate code. Implementations must be
// safe for concurrent use.
type CodeGenerator func() string

// CodeAllocator produces candidate short codes. It never checks uniqueness;
// that is the job of the creation workflow and the store.
type CodeAllocator struct {
	generate CodeGenerator
	length   int
}

// NewCodeAllocator creates an allocator backed by a cryptographically secure
// generator over Alphabet. The generator panics if the system random source
// fails, which is treated as unrecoverable.
func NewCodeAllocator(length int) (*CodeAllocator, error) {
	if length < 1 || length > MaxCodeLength {
		return nil, fmt.Errorf("%w: code length must be between 1 and %d", ErrValidation, MaxCodeLength)
	}

	generate, err := nanoid.CustomASCII(Alphabet, length)
	if err != nil {
		return nil, fmt.Errorf("code generator of length %d: %w", length, err)
	}

	return &CodeAllocator{
		generate: generate,
		length:   length,
	}, nil
}

// NewCodeAllocatorFrom wraps an existing generator, e.g. a deterministic one in tests.
func NewCodeAllocatorFrom(length int, generate CodeGenerator) *CodeAllocator {
	return &CodeAllocator{
		generate: generate,
		length:   length,
	}
}

// Next returns a new candidate code.
func (a *CodeAllocator) Next() Code {
	return Code(a.generate())
}

// Length returns the length of the codes produced by the allocator.
func (a *CodeAllocator) Length() int {
	return a.length
}

// MaxCodeLength bounds the length of codes accepted for lookups.
const MaxCodeLength = 12

// IsValidCode reports whether code could have been produced by a CodeAllocator:
// at most MaxCodeLength characters, all from Alphabet.
func IsValidCode(code string) bool {
	if code == "" || len(code) > MaxCodeLength {
		return false
	}

	for i := range len(code) {
		c := code[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return false
		}
	}

	return true
}
