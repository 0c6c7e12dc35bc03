package handlers_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andesco/divproxy/handlers"
	"github.com/andesco/divproxy/pkg/filter"
	"github.com/andesco/divproxy/pkg/mock"
	"github.com/andesco/divproxy/pkg/proxylib"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, fetcher proxylib.Fetcher, fps ...string) *fiber.App {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	chain, err := filter.New(fps, filter.WithLogger(logger))
	require.NoError(t, err)
	p, err := proxylib.NewProxy("http://upstream.test", fetcher, chain, proxylib.WithLogger(logger))
	require.NoError(t, err)
	return handlers.NewApp(p, logger, false)
}

func do(t *testing.T, app *fiber.App, method, target string) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestProxySite(t *testing.T) {
	t.Parallel()

	t.Run("returns filtered html with content type", func(t *testing.T) {
		t.Parallel()

		src := `<html><body><div class="ad"><div>x</div></div>story</body></html>`
		app := newApp(t, mock.Body(src, nil), `class="ad"`)

		resp, body := do(t, app, http.MethodGet, "/")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/html; charset=UTF-8", resp.Header.Get("Content-Type"))
		assert.Equal(t, `<html><body>story</body></html>`, body)
	})

	t.Run("leaves content type unset for non-html", func(t *testing.T) {
		t.Parallel()

		app := newApp(t, mock.Body("this is a non-html source", nil))

		resp, body := do(t, app, http.MethodGet, "/data.json")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("Content-Type"))
		assert.Equal(t, "this is a non-html source", body)
	})

	t.Run("forwards path and query", func(t *testing.T) {
		t.Parallel()

		var got string
		app := newApp(t, mock.Body("ok", &got))

		_, _ = do(t, app, http.MethodGet, "/dictionary/time?q=1&r=two")
		assert.Equal(t, "http://upstream.test/dictionary/time?q=1&r=two", got)
	})

	t.Run("relays any method as a fetch", func(t *testing.T) {
		t.Parallel()

		var got string
		app := newApp(t, mock.Body("ok", &got))

		resp, _ := do(t, app, http.MethodPost, "/form")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "http://upstream.test/form", got)
	})

	t.Run("answers 500 when upstream fails", func(t *testing.T) {
		t.Parallel()

		f := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (string, error) {
				return "", errors.New("dial tcp: connection refused")
			},
		}
		app := newApp(t, f)

		resp, body := do(t, app, http.MethodGet, "/")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Contains(t, body, "upstream fetch failed")
		assert.Contains(t, body, "connection refused")
	})
}

func TestAddr(t *testing.T) {
	t.Parallel()

	addr, err := handlers.Addr("127.0.0.1", 3000)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:3000", addr)

	addr, err = handlers.Addr("", 8080)
	require.NoError(t, err)
	assert.Equal(t, ":8080", addr)

	_, err = handlers.Addr("127.0.0.1", 70000)
	require.Error(t, err)
}
