package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/serroba/url-shortener/internal/shortener"
)

const DefaultIssuer = "url-shortener"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingKey   = errors.New("signing key is required")
)

// Claims are the JWT claims carried by bearer tokens.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// Tokens issues and verifies HS256 bearer tokens.
type Tokens struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures Tokens.
type Option func(*Tokens)

// WithIssuer overrides DefaultIssuer.
func WithIssuer(issuer string) Option {
	return func(t *Tokens) { t.issuer = issuer }
}

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(t *Tokens) { t.now = now }
}

// NewTokens creates a token service signing with key. Tokens expire after ttl.
func NewTokens(key string, ttl time.Duration, opts ...Option) (*Tokens, error) {
	if key == "" {
		return nil, ErrMissingKey
	}

	t := &Tokens{
		key:    []byte(key),
		issuer: DefaultIssuer,
		ttl:    ttl,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// Issue signs a token for userID with the given roles.
func (t *Tokens) Issue(userID string, roles ...string) (string, error) {
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Roles: roles,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signed, nil
}

// Verify parses a signed token and returns the identity it carries.
func (t *Tokens) Verify(tokenString string) (shortener.Identity, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)

	claims := new(Claims)

	_, err := parser.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return t.key, nil
	})
	if err != nil {
		return shortener.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return shortener.Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return shortener.Identity{UserID: claims.Subject, Roles: claims.Roles}, nil
}
