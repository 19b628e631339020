package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/url-shortener/internal/ratelimit"
)

// BearerScheme is the name of the OpenAPI security scheme for JWT bearer tokens.
const BearerScheme = "bearer"

var bearerAuth = []map[string][]string{{BearerScheme: {}}}

// RegisterRoutes registers all URL shortener routes with per-endpoint rate limit configuration.
func RegisterRoutes(api huma.API, urlHandler *URLHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-short-url",
		Method:        http.MethodPost,
		Path:          "/api/urls",
		Summary:       "Create short URL",
		Description:   "Canonicalizes the URL and assigns it a new short code. Each canonical URL can only be shortened once.",
		Tags:          []string{"URLs"},
		DefaultStatus: http.StatusCreated,
		Security:      bearerAuth,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusConflict},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 10},
					{Window: time.Hour, Max: 100},
					{Window: 24 * time.Hour, Max: 500},
				},
			},
		},
	}, urlHandler.CreateShortURL)

	huma.Register(api, huma.Operation{
		OperationID: "list-short-urls",
		Method:      http.MethodGet,
		Path:        "/api/urls",
		Summary:     "List short URLs",
		Description: "Lists live short URLs, newest first.",
		Tags:        []string{"URLs"},
	}, urlHandler.ListShortURLs)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-short-url",
		Method:        http.MethodDelete,
		Path:          "/api/urls/{id}",
		Summary:       "Delete short URL",
		Description:   "Deletes a short URL. Only its creator or an admin may delete it. The code is never reused.",
		Tags:          []string{"URLs"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearerAuth,
		Errors:        []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	}, urlHandler.DeleteShortURL)

	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/r/{code}",
		Summary:     "Redirect to original URL",
		Description: "Redirects to the original URL associated with the short code.",
		Tags:        []string{"URLs"},
		Errors:      []int{http.StatusNotFound},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeRedirect},
		},
	}, urlHandler.RedirectToURL)
}
