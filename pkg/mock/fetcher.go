// Package mock provides function-field test doubles for proxy collaborators.
package mock

import (
	"context"

	"github.com/andesco/divproxy/pkg/proxylib"
)

var _ proxylib.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of proxylib.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

// Body returns a Fetcher that always answers with body and records the
// requested URL in *got when got is non-nil.
func Body(body string, got *string) *Fetcher {
	return &Fetcher{
		FetchFn: func(ctx context.Context, url string) (string, error) {
			if got != nil {
				*got = url
			}
			return body, nil
		},
	}
}
