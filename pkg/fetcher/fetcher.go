// Package fetcher retrieves upstream pages over HTTP.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single upstream request.
const DefaultTimeout = 15 * time.Second

// Fetcher performs GET requests and returns the response body as text. The
// upstream status code is not inspected: error pages are returned like any
// other body.
type Fetcher struct {
	client       *http.Client
	timeout      time.Duration
	userAgent    string
	forwardedFor string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout. Defaults to DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithClient uses c instead of a fresh http.Client. WithTimeout is ignored
// when a client is supplied.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithUserAgent sets the User-Agent header sent upstream.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithForwardedFor sets the X-Forwarded-For header sent upstream.
func WithForwardedFor(addr string) Option {
	return func(f *Fetcher) {
		f.forwardedFor = addr
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{
			Timeout: f.timeout,
		}
	}
	return f
}

// Fetch retrieves url and returns its body.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("error building request for %s: %w", url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if f.forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", f.forwardedFor)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error fetching site: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}
	return string(body), nil
}
