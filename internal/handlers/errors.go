package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/serroba/url-shortener/internal/shortener"
	"go.uber.org/zap"
)

// toHTTPError maps service errors onto HTTP problems. Anything unexpected is
// logged, reported to Sentry and hidden behind a 500.
func toHTTPError(ctx context.Context, logger *zap.Logger, op string, err error) error {
	switch {
	case errors.Is(err, shortener.ErrValidation), errors.Is(err, shortener.ErrMalformedURL):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, shortener.ErrDuplicate):
		return huma.Error409Conflict("url has already been shortened")
	case errors.Is(err, shortener.ErrNotFound):
		return huma.Error404NotFound("short url not found")
	case errors.Is(err, shortener.ErrForbidden):
		return huma.Error403Forbidden("not allowed to delete this short url")
	}

	logger.Error("request failed", zap.String("op", op), zap.Error(err))

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
	} else {
		sentry.CaptureException(err)
	}

	return huma.Error500InternalServerError("internal server error")
}
