package httpserver_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/idsrv/pkg/httpserver"
)

func TestServer_Serve(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := httpserver.New(httpserver.Config{ShutdownTimeout: time.Second}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, ln, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "login")
		}))
	}()

	resp, err := http.Get("http://" + ln.Addr().String())
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "login", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		require.Fail(t, "server did not stop")
	}
}

func TestServer_RunInvalidAddr(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(httpserver.Config{Addr: "256.0.0.1:bad"}, nil)
	err := srv.Run(context.Background(), http.NotFoundHandler())
	require.Error(t, err)
	assert.ErrorIs(t, err, httpserver.ErrStart)
}

func TestLiveness(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	httpserver.Liveness()(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ALIVE", rec.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Parallel()

	ok := httpserver.Check{Name: "postgres", Fn: func(context.Context) error { return nil }}
	failing := httpserver.Check{Name: "redis", Fn: func(context.Context) error { return errors.New("connection refused") }}
	deadline := httpserver.Check{Name: "deadline", Fn: func(ctx context.Context) error {
		_, has := ctx.Deadline()
		if !has {
			return errors.New("no deadline")
		}
		return nil
	}}

	t.Run("ready", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		httpserver.Readiness(nil, time.Second, ok, deadline)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "READY", rec.Body.String())
	})

	t.Run("not ready", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		httpserver.Readiness(nil, time.Second, ok, failing)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "NOT_READY", rec.Body.String())
		assert.NotContains(t, rec.Body.String(), "refused")
	})
}
