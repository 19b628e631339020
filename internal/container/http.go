package container

import (
	"errors"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/serroba/url-shortener/internal/auth"
	"github.com/serroba/url-shortener/internal/events"
	"github.com/serroba/url-shortener/internal/handlers"
	"github.com/serroba/url-shortener/internal/health"
	"github.com/serroba/url-shortener/internal/messaging"
	"github.com/serroba/url-shortener/internal/middleware"
	"github.com/serroba/url-shortener/internal/ratelimit"
	"github.com/serroba/url-shortener/internal/shortener"
	"github.com/serroba/url-shortener/internal/store"
	"go.uber.org/zap"
)

var ErrMissingJWTSecret = errors.New("jwt secret is required")

func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		opts := do.MustInvoke[*Options](i)

		var counters ratelimit.Store

		switch opts.RateLimit {
		case StorageMemory:
			counters = store.NewRateLimitMemoryStore()
		case StorageRedis:
			counters = store.NewRateLimitRedisStore(do.MustInvoke[*Redis](i).Client)
		default:
			return nil, fmt.Errorf("unknown rate limit store %q", opts.RateLimit)
		}

		return ratelimit.NewPolicyLimiter(counters, ratelimit.DefaultPolicy()), nil
	})

	do.Provide(i, func(_ *do.Injector) (ratelimit.ScopeResolver, error) {
		return ratelimit.NewOperationScopeResolver(), nil
	})
}

// NewTokens builds the bearer token service from options. Without a configured
// secret the server signs with a random key, so tokens do not survive restarts.
func NewTokens(opts *Options, logger *zap.Logger) (*auth.Tokens, error) {
	ttl := time.Duration(opts.TokenTTL) * time.Second

	if opts.JWTSecret == "" {
		if logger == nil {
			return nil, ErrMissingJWTSecret
		}

		logger.Warn("no jwt secret configured, using an ephemeral key")

		return auth.NewTokens(uuid.NewString(), ttl)
	}

	return auth.NewTokens(opts.JWTSecret, ttl)
}

func AuthPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*auth.Tokens, error) {
		return NewTokens(do.MustInvoke[*Options](i), do.MustInvoke[*zap.Logger](i))
	})
}

func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Use(chimw.RequestID, chimw.Recoverer)

		if do.MustInvoke[*Sentry](i).Enabled {
			router.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
		}

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		config := huma.DefaultConfig("URL Shortener", "1.0.0")
		config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
			handlers.BearerScheme: {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
		}

		api := humachi.New(router, config)
		api.UseMiddleware(
			middleware.RequestMeta(api),
			middleware.PolicyRateLimiter(
				api,
				do.MustInvoke[*ratelimit.PolicyLimiter](i),
				do.MustInvoke[ratelimit.ScopeResolver](i),
				logger,
			),
			middleware.Authenticate(api, do.MustInvoke[*auth.Tokens](i), logger),
		)

		publishers := do.MustInvoke[*messaging.PublisherGroup](i)
		urlHandler := handlers.NewURLHandler(
			do.MustInvoke[*shortener.Service](i),
			opts.PublicBaseURL(),
			messaging.NewPublishFunc[events.URLAccessedEvent](publishers.Publisher(), events.TopicURLAccessed),
			logger,
		)

		handlers.RegisterRoutes(api, urlHandler)
		health.RegisterRoutes(api, health.NewHandler(do.MustInvoke[map[string]health.Checker](i)))

		return api, nil
	})
}
