package middleware

import (
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/url-shortener/internal/auth"
	"github.com/serroba/url-shortener/internal/shortener"
	"go.uber.org/zap"
)

// TokenVerifier turns a bearer token into an identity.
type TokenVerifier interface {
	Verify(token string) (shortener.Identity, error)
}

// Authenticate resolves the caller's identity from the Authorization header.
//
// A present but invalid token is always rejected. Requests without a token pass
// through as anonymous unless the operation declares a security requirement.
func Authenticate(
	api huma.API,
	verifier TokenVerifier,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		header := ctx.Header("Authorization")
		if header == "" {
			if requiresAuth(ctx.Operation()) {
				unauthorized(api, ctx, "authentication required")

				return
			}

			next(ctx)

			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			unauthorized(api, ctx, "unsupported authorization scheme")

			return
		}

		id, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			logger.Debug("rejected bearer token",
				zap.String("client_ip", clientIP(ctx)),
				zap.Error(err),
			)
			unauthorized(api, ctx, "invalid bearer token")

			return
		}

		next(huma.WithContext(ctx, auth.WithIdentity(ctx.Context(), id)))
	}
}

func requiresAuth(op *huma.Operation) bool {
	return op != nil && len(op.Security) > 0
}

func unauthorized(api huma.API, ctx huma.Context, msg string) {
	ctx.SetHeader("WWW-Authenticate", "Bearer")
	_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, msg)
}
