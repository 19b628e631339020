package handlers

import "time"

// ShortURLBody is the JSON representation of a short URL.
type ShortURLBody struct {
	ID            int64     `doc:"Record id"                     example:"42"                                 json:"id"`
	Code          string    `doc:"The short code"                example:"aZ3k9Qx"                            json:"code"`
	ShortURL      string    `doc:"The full short URL"            example:"http://localhost:8888/r/aZ3k9Qx"    json:"shortUrl"`
	OriginalURL   string    `doc:"The URL as submitted"          example:"https://Example.com/a/../b?z=1&a=2" json:"originalUrl"`
	NormalizedURL string    `doc:"The canonical form of the URL" example:"https://example.com/b?a=2&z=1"      json:"normalizedUrl"`
	CreatedBy     string    `doc:"Creator user id"               example:"alice"                              json:"createdBy"`
	CreatedAt     time.Time `doc:"Creation time (UTC)"                                                        json:"createdAt"`
}

// CreateShortURLRequest is the request body for creating a short URL.
type CreateShortURLRequest struct {
	Body struct {
		URL string `doc:"The URL to shorten" example:"https://example.com/very/long/path" json:"url" minLength:"1"`
	}
}

// CreateShortURLResponse is the response for a successfully created short URL.
type CreateShortURLResponse struct {
	Location string `doc:"Redirect path of the new short URL" header:"Location"`
	Body     ShortURLBody
}

// ListShortURLsRequest selects a page of short URLs.
type ListShortURLsRequest struct {
	Page     int `default:"1"  doc:"1-based page number" minimum:"1"                query:"page"`
	PageSize int `default:"20" doc:"Items per page"      maximum:"100" minimum:"1" query:"pageSize"`
}

// ListShortURLsResponse is a page of short URLs, newest first.
type ListShortURLsResponse struct {
	Body struct {
		Items    []ShortURLBody `json:"items"`
		Page     int            `json:"page"`
		PageSize int            `json:"pageSize"`
		Total    int            `json:"total"`
	}
}

// DeleteShortURLRequest identifies the record to delete.
type DeleteShortURLRequest struct {
	ID int64 `doc:"Record id" example:"42" path:"id"`
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"aZ3k9Qx" path:"code"`
}

// RedirectResponse redirects to the original URL.
type RedirectResponse struct {
	Status   int
	Location string `header:"Location"`
}
