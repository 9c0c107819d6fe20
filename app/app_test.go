package app

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/accounts/clock"
	"github.com/tech-arch1tect/accounts/config"
	"github.com/tech-arch1tect/accounts/services/delivery"
	"github.com/tech-arch1tect/accounts/testutils"
	"go.uber.org/fx"
)

func testConfig() *config.Config {
	cfg := testutils.GetTestConfig()
	cfg.Log.Level = "error"
	return cfg
}

func startApp(t *testing.T, b *AppBuilder) *App {
	t.Helper()

	a, err := b.Build()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Start(ctx))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, a.Stop(ctx))
	})
	return a
}

func TestModels(t *testing.T) {
	db := testutils.SetupTestDB(t, Models()...)
	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m))
	}
}

func TestBuilder(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewApp().WithConfig(nil).Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config cannot be nil")
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.JWT.SecretKey = "short"
		_, err := New(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to build application")
	})

	t.Run("unsupported driver", func(t *testing.T) {
		cfg := testConfig()
		cfg.Database.Driver = "oracle"
		_, err := New(cfg)
		require.Error(t, err)
	})
}

func TestApp(t *testing.T) {
	cfg := testConfig()
	mockClock := clock.NewMock(time.Now().UTC())

	sender := &testutils.MockSender{}
	sent := make(chan map[string]any, 4)
	sender.On("SendTemplate", string(delivery.KindSignupVerification), []string{"jane@example.com"}, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent <- args.Get(3).(map[string]any) }).
		Return(nil)

	a := startApp(t, NewApp().
		WithConfig(cfg).
		WithClock(mockClock).
		WithFxOptions(fx.Decorate(func(delivery.Sender) delivery.Sender { return sender })))

	require.NotNil(t, a.DB())
	require.NotNil(t, a.Logger())
	assert.Same(t, cfg, a.Config())
	base := "http://" + a.Server().ListenAddr()

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(base + "/api/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("signup delivers a verification code", func(t *testing.T) {
		body := `{"email":"jane@example.com","password":"` + testutils.TestPasswords.Valid + `","full_name":"Jane Doe"}`
		resp, err := http.Post(base+"/api/users/signup", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var session struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
		assert.NotEmpty(t, session.AccessToken)
		assert.Equal(t, "bearer", session.TokenType)

		select {
		case data := <-sent:
			assert.Len(t, data["Code"], 6)
		case <-time.After(2 * time.Second):
			t.Fatal("verification email was not sent")
		}
	})
}
