package auth

import (
	"context"

	"github.com/serroba/url-shortener/internal/shortener"
)

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id shortener.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the authenticated identity, or shortener.Anonymous.
func IdentityFrom(ctx context.Context) (shortener.Identity, bool) {
	if id, ok := ctx.Value(identityKey{}).(shortener.Identity); ok {
		return id, true
	}

	return shortener.Anonymous, false
}
