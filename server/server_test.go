package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/accounts/apperr"
	"github.com/tech-arch1tect/accounts/config"
	"github.com/tech-arch1tect/accounts/testutils"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := testutils.GetTestConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	logger, _ := testutils.NewObservedLogger()
	return New(cfg, logger)
}

func serve(s *Server, method, path string, body io.Reader) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(method, path, body))
	return rec
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
		msg    string
	}{
		{"domain error", apperr.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password"},
		{"wrapped domain error", fmt.Errorf("ctx: %w", apperr.ErrTwoFactorRequired), http.StatusForbidden, "two_factor_required", "Two-factor verification required"},
		{"custom message", apperr.ErrInvalidPasswordFormat.WithMessage("too short"), http.StatusBadRequest, "invalid_password_format", "too short"},
		{"echo 404", echo.ErrNotFound, http.StatusNotFound, "invalid_request", "Not Found"},
		{"echo 413", echo.NewHTTPError(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge, "invalid_request", "Request Entity Too Large"},
		{"echo 500", echo.NewHTTPError(http.StatusInternalServerError, "db exploded"), http.StatusInternalServerError, "internal_error", "Internal server error"},
		{"storage error", errors.New("sql: connection refused"), http.StatusInternalServerError, "internal_error", "Internal server error"},
		{"internal with cause", apperr.ErrInternal.Wrap(errors.New("secret detail")), http.StatusInternalServerError, "internal_error", "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := translate(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.kind, body.Error)
			assert.Equal(t, tt.msg, body.Message)
		})
	}
}

func TestErrorHandler(t *testing.T) {
	s := newTestServer(t)
	s.Get("/fail", func(c echo.Context) error {
		return fmt.Errorf("repository: %w", errors.New("disk full"))
	})
	s.Get("/panic", func(c echo.Context) error {
		panic("boom")
	})

	t.Run("internal details hidden", func(t *testing.T) {
		rec := serve(s, http.MethodGet, "/fail", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "disk full")
		assert.Contains(t, rec.Body.String(), `"error":"internal_error"`)
	})

	t.Run("panic recovered", func(t *testing.T) {
		rec := serve(s, http.MethodGet, "/panic", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "boom")
	})

	t.Run("head has no body", func(t *testing.T) {
		rec := serve(s, http.MethodHead, "/missing", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestBodyLimit(t *testing.T) {
	cfg := testutils.GetTestConfig()
	cfg.Server.BodyLimit = "1K"
	s := New(cfg, nil)
	s.Post("/echo", func(c echo.Context) error {
		_, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})

	rec := serve(s, http.MethodPost, "/echo", strings.NewReader(strings.Repeat("a", 2048)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = serve(s, http.MethodPost, "/echo", strings.NewReader("small"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t)
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	s.Get("/r", ok)
	s.Post("/r", ok)
	s.Put("/r", ok)
	s.Delete("/r", ok)
	s.Group("/api").GET("/r", ok)

	for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
		assert.Equal(t, http.StatusOK, serve(s, m, "/r", nil).Code, m)
	}
	assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/api/r", nil).Code)
}

func TestListenServeShutdown(t *testing.T) {
	s := newTestServer(t)
	s.Get("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	require.NoError(t, s.Listen())
	go s.Serve()

	addr := s.ListenAddr()
	assert.NotEqual(t, "127.0.0.1:0", addr)

	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := http.Get("http://" + addr + "/ping")
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 2*time.Second, 20*time.Millisecond)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}

func TestListen_BadAddress(t *testing.T) {
	s := New(&config.Config{Server: config.ServerConfig{Host: "127.0.0.1", Port: "-1"}}, nil)
	assert.Error(t, s.Listen())
}
