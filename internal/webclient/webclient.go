// Package webclient fetches pages and API resources through pluggable
// backends: plain net/http, or a headless Chrome driven by chromedp that
// also reports the sub-requests a page makes while loading.
package webclient

import (
	"context"
	"net/http"
	"time"
)

type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)
	Get(ctx context.Context, url string) (*Response, error)
	Close() error
}

type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
	// Options carries backend-specific hints.
	Options map[string]string
}

type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int
	FetchedAt  time.Time
	// Subrequests lists the URLs the page requested while loading. Only the
	// chromedp backend fills it.
	Subrequests []string
}
