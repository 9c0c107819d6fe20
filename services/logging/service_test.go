package logging

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewService(t *testing.T) {
	t.Run("json to stdout", func(t *testing.T) {
		service, err := NewService(Config{Level: Info, Format: "json", OutputPath: "stdout"})

		require.NoError(t, err)
		assert.NotNil(t, service.Logger())
	})

	t.Run("console format", func(t *testing.T) {
		service, err := NewService(Config{Level: Debug, Format: "console"})

		require.NoError(t, err)
		assert.True(t, service.Logger().Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "test.log")

		service, err := NewService(Config{Level: Warn, Format: "json", OutputPath: logFile})
		require.NoError(t, err)

		service.Warn("written")
		require.NoError(t, service.Sync())

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "written")
	})
}

func TestService_LevelsAndFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	service := FromZap(zap.New(core)).Named("auth")
	id := uuid.New()

	service.Debug("debug message")
	service.Info("info message", AccountID(id))
	service.Warn("warn message", Email("jane@example.com"))
	service.Error("error message")
	service.Infof("formatted %d", 7)

	entries := recorded.All()
	require.Len(t, entries, 5)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "auth", entries[1].LoggerName)
	assert.Equal(t, id.String(), entries[1].ContextMap()["account_id"])
	assert.Equal(t, "example.com", entries[2].ContextMap()["email_domain"])
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "formatted 7", entries[4].Message)
}

func TestService_With(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	service := FromZap(zap.New(core)).With(zap.String("component", "ledger"))

	service.Info("issued")

	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "ledger", recorded.All()[0].ContextMap()["component"])
}

func TestService_NilSafety(t *testing.T) {
	var service *Service

	assert.NotPanics(t, func() {
		service.Debug("x")
		service.Info("x")
		service.Warn("x")
		service.Error("x")
		service.Infof("x %s", "y")
		assert.Nil(t, service.Logger())
		assert.Nil(t, service.Named("a"))
		assert.Nil(t, service.With(zap.String("a", "b")))
		assert.NoError(t, service.Sync())
	})
}

func TestEmail_WithoutAt(t *testing.T) {
	assert.Equal(t, "", Email("not-an-address").String)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLogLevel(Debug))
	assert.Equal(t, zapcore.InfoLevel, parseLogLevel(Info))
	assert.Equal(t, zapcore.WarnLevel, parseLogLevel(Warn))
	assert.Equal(t, zapcore.ErrorLevel, parseLogLevel(Error))
	assert.Equal(t, zapcore.InfoLevel, parseLogLevel("verbose"))
}

func TestRequestLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	logger := FromZap(zap.New(core))

	e := echo.New()
	e.Use(RequestLogger(logger, "/api/health"))
	e.GET("/api/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/api/missing", func(c echo.Context) error { return c.NoContent(http.StatusNotFound) })
	e.GET("/api/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, path := range []string{"/api/health", "/api/missing", "/api/ok"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := recorded.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "client error", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "request", entries[1].Message)
	assert.Equal(t, int64(http.StatusOK), entries[1].ContextMap()["status"])
}
