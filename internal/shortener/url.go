package shortener

import (
	"slices"
	"time"
)

// Code represents a short URL code.
type Code string

// ShortURL represents a shortened URL entity.
type ShortURL struct {
	ID            int64
	Code          Code
	OriginalURL   string // as submitted, trimmed
	NormalizedURL string // canonical form used for deduplication
	CreatedBy     string
	CreatedAt     time.Time
}

// RoleAdmin grants access to every record regardless of ownership.
const RoleAdmin = "Admin"

// Identity is the authenticated caller as supplied by the auth layer.
type Identity struct {
	UserID string
	Roles  []string
}

// Anonymous is used when no credentials were presented.
var Anonymous = Identity{UserID: "anonymous"}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return slices.Contains(i.Roles, RoleAdmin)
}

// CanDelete reports whether the identity may delete the record.
func (i Identity) CanDelete(u *ShortURL) bool {
	if i.IsAdmin() {
		return true
	}

	return i.UserID != "" && i.UserID != Anonymous.UserID && i.UserID == u.CreatedBy
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest selects a page of the listing. Pages are 1-based.
type PageRequest struct {
	Page     int
	PageSize int
}

// Normalize clamps the request into the supported range.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}

	switch {
	case p.PageSize < 1:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}

	return p
}

// Offset returns the number of records preceding the page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page is a slice of the listing, newest first.
type Page struct {
	Items    []*ShortURL
	Page     int
	PageSize int
	Total    int
}
