package proxylib

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/andesco/divproxy/pkg/filter"
)

// HTMLContentType is set on responses that still look like markup after
// filtering.
const HTMLContentType = "text/html; charset=UTF-8"

// ErrUpstreamFetch wraps transport failures reaching the upstream.
var ErrUpstreamFetch = errors.New("upstream fetch failed")

// #############################################################################
// # Collaborators
// #############################################################################

// Fetcher retrieves the body of an upstream URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Filter removes unwanted elements from a document.
type Filter interface {
	Apply(doc string) string
}

// #############################################################################
// # Core Proxy Library
// #############################################################################

// Result is the filtered response for one request. ContentType is empty when
// the body is not markup.
type Result struct {
	TargetURL   string
	Body        string
	ContentType string
}

// Proxy relays requests to a single upstream and filters the responses. It is
// read-only after construction and safe for concurrent use.
type Proxy struct {
	baseURL string
	fetcher Fetcher
	filter  Filter
	logger  *slog.Logger
	logURLs bool
}

// Option configures a Proxy.
type Option func(*Proxy)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Proxy) {
		p.logger = l
	}
}

// WithURLLogging logs every target URL at INFO. Defaults to LOG_URLS=true.
func WithURLLogging(on bool) Option {
	return func(p *Proxy) {
		p.logURLs = on
	}
}

// NewProxy creates a Proxy for baseURL. A single trailing slash on baseURL is
// dropped, since inbound paths always start with one.
func NewProxy(baseURL string, fetcher Fetcher, flt Filter, opts ...Option) (*Proxy, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL must be http or https: %q", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL has no host: %q", baseURL)
	}
	if fetcher == nil || flt == nil {
		return nil, errors.New("fetcher and filter are required")
	}

	p := &Proxy{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		fetcher: fetcher,
		filter:  flt,
		logURLs: os.Getenv("LOG_URLS") == "true",
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p, nil
}

// BaseURL returns the upstream base URL.
func (p *Proxy) BaseURL() string {
	return p.baseURL
}

// TargetURL joins the base URL and an inbound path-and-query.
func (p *Proxy) TargetURL(pathAndQuery string) string {
	return p.baseURL + pathAndQuery
}

// ProcessRequest fetches the upstream page for pathAndQuery, filters it, and
// returns the body with its content type. Only upstream failures are returned
// as errors; filtering never fails.
func (p *Proxy) ProcessRequest(ctx context.Context, pathAndQuery string) (*Result, error) {
	target := p.TargetURL(pathAndQuery)
	if p.logURLs {
		p.logger.Info("proxying", "url", target)
	}

	begin := time.Now()
	body, err := p.fetcher.Fetch(ctx, target)
	if err != nil {
		p.logger.Error("fetch", "url", target, "duration", time.Since(begin), "err", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstreamFetch, target, err)
	}
	p.logger.Debug("fetch", "url", target, "bytes", len(body), "duration", time.Since(begin))

	filtered := p.filter.Apply(body)

	res := &Result{
		TargetURL: target,
		Body:      filtered,
	}
	if filter.IsMarkup(filtered) {
		res.ContentType = HTMLContentType
	}
	return res, nil
}
