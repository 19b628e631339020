package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/serroba/url-shortener/internal/auth"
	"github.com/serroba/url-shortener/internal/events"
	"github.com/serroba/url-shortener/internal/messaging"
	"github.com/serroba/url-shortener/internal/shortener"
	"go.uber.org/zap"
)

// URLService is the part of shortener.Service the handlers depend on.
type URLService interface {
	Create(ctx context.Context, rawURL string, creator shortener.Identity) (*shortener.ShortURL, error)
	Resolve(ctx context.Context, code string) (*shortener.ShortURL, error)
	Delete(ctx context.Context, id int64, requester shortener.Identity) error
	List(ctx context.Context, req shortener.PageRequest) (*shortener.Page, error)
}

// URLHandler handles URL shortening operations.
type URLHandler struct {
	service            URLService
	baseURL            string
	publishURLAccessed messaging.Publish[events.URLAccessedEvent]
	logger             *zap.Logger
}

// NewURLHandler creates a new URL handler.
func NewURLHandler(
	service URLService,
	baseURL string,
	publishURLAccessed messaging.Publish[events.URLAccessedEvent],
	logger *zap.Logger,
) *URLHandler {
	return &URLHandler{
		service:            service,
		baseURL:            baseURL,
		publishURLAccessed: publishURLAccessed,
		logger:             logger,
	}
}

// RedirectPath is the path a short code is served under.
func RedirectPath(code shortener.Code) string {
	return "/r/" + string(code)
}

func (h *URLHandler) CreateShortURL(ctx context.Context, req *CreateShortURLRequest) (*CreateShortURLResponse, error) {
	creator, _ := auth.IdentityFrom(ctx)

	shortURL, err := h.service.Create(ctx, req.Body.URL, creator)
	if err != nil {
		return nil, toHTTPError(ctx, h.logger, "create", err)
	}

	resp := &CreateShortURLResponse{}
	resp.Location = RedirectPath(shortURL.Code)
	resp.Body = h.toBody(shortURL)

	return resp, nil
}

func (h *URLHandler) ListShortURLs(ctx context.Context, req *ListShortURLsRequest) (*ListShortURLsResponse, error) {
	page, err := h.service.List(ctx, shortener.PageRequest{Page: req.Page, PageSize: req.PageSize})
	if err != nil {
		return nil, toHTTPError(ctx, h.logger, "list", err)
	}

	resp := &ListShortURLsResponse{}
	resp.Body.Items = make([]ShortURLBody, 0, len(page.Items))

	for _, item := range page.Items {
		resp.Body.Items = append(resp.Body.Items, h.toBody(item))
	}

	resp.Body.Page = page.Page
	resp.Body.PageSize = page.PageSize
	resp.Body.Total = page.Total

	return resp, nil
}

func (h *URLHandler) DeleteShortURL(ctx context.Context, req *DeleteShortURLRequest) (*struct{}, error) {
	requester, _ := auth.IdentityFrom(ctx)

	if err := h.service.Delete(ctx, req.ID, requester); err != nil {
		return nil, toHTTPError(ctx, h.logger, "delete", err)
	}

	return nil, nil
}

func (h *URLHandler) RedirectToURL(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	shortURL, err := h.service.Resolve(ctx, req.Code)
	if err != nil {
		return nil, toHTTPError(ctx, h.logger, "resolve", err)
	}

	meta := RequestMetaFromContext(ctx)
	event := &events.URLAccessedEvent{
		Code:       string(shortURL.Code),
		AccessedAt: time.Now().UTC(),
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
	}

	if err = h.publishURLAccessed(context.WithoutCancel(ctx), event); err != nil {
		h.logger.Error("failed to publish access event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	resp := &RedirectResponse{Status: http.StatusFound}
	resp.Location = shortURL.OriginalURL

	return resp, nil
}

func (h *URLHandler) toBody(u *shortener.ShortURL) ShortURLBody {
	return ShortURLBody{
		ID:            u.ID,
		Code:          string(u.Code),
		ShortURL:      h.baseURL + RedirectPath(u.Code),
		OriginalURL:   u.OriginalURL,
		NormalizedURL: u.NormalizedURL,
		CreatedBy:     u.CreatedBy,
		CreatedAt:     u.CreatedAt,
	}
}
