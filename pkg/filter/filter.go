// Package filter applies an ordered list of fingerprints to a document, removing
// each fingerprinted element in turn.
package filter

import (
	"io"
	"log/slog"
	"strings"

	"github.com/andesco/divproxy/pkg/excise"
)

// DocumentRootMarker marks a response as markup. Documents without it are
// passed through untouched.
const DocumentRootMarker = "<html"

// IsMarkup reports whether doc contains the document-root marker.
func IsMarkup(doc string) bool {
	return strings.Contains(doc, DocumentRootMarker)
}

// Outcome records what happened to a single fingerprint during Run.
type Outcome struct {
	Fingerprint string
	Range       excise.Range
	Err         error
}

// Removed reports whether the fingerprint's element was excised.
func (o Outcome) Removed() bool {
	return o.Err == nil
}

// Chain removes fingerprinted elements in order. It holds no per-request state
// and is safe for concurrent use.
type Chain struct {
	fingerprints []string
	exciser      *excise.Exciser
	logger       *slog.Logger
}

// Option configures a Chain.
type Option func(*Chain)

// WithLogger sets the logger used for per-fingerprint diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Chain) {
		c.logger = l
	}
}

// WithExciser replaces the default div exciser.
func WithExciser(e *excise.Exciser) Option {
	return func(c *Chain) {
		c.exciser = e
	}
}

// New creates a Chain for fingerprints. The slice is copied; order is kept and
// duplicates are allowed.
func New(fingerprints []string, opts ...Option) (*Chain, error) {
	c := &Chain{
		fingerprints: append([]string(nil), fingerprints...),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.exciser == nil {
		e, err := excise.New()
		if err != nil {
			return nil, err
		}
		c.exciser = e
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c, nil
}

// Fingerprints returns a copy of the configured fingerprints.
func (c *Chain) Fingerprints() []string {
	return append([]string(nil), c.fingerprints...)
}

// Apply returns doc with every matching fingerprinted element removed.
func (c *Chain) Apply(doc string) string {
	out, _ := c.Run(doc)
	return out
}

// Run is Apply that also reports one Outcome per fingerprint. Outcomes are nil
// when doc is not markup and nothing was scanned.
func (c *Chain) Run(doc string) (string, []Outcome) {
	if !IsMarkup(doc) {
		return doc, nil
	}

	outcomes := make([]Outcome, 0, len(c.fingerprints))
	for _, fp := range c.fingerprints {
		next, r, err := c.exciser.Remove(doc, fp)
		outcomes = append(outcomes, Outcome{Fingerprint: fp, Range: r, Err: err})
		if err != nil {
			c.logger.Warn("fingerprint skipped", "fingerprint", fp, "err", err)
			continue
		}
		c.logger.Debug("element removed",
			"fingerprint", fp,
			"start", r.Start,
			"bytes", r.Len(),
		)
		doc = next
	}
	return doc, outcomes
}
