package jwt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/accounts/apperr"
	"github.com/tech-arch1tect/accounts/services/account"
	"github.com/tech-arch1tect/accounts/services/auth"
)

type stubAuthorizer struct {
	gotToken string
	gotTier  auth.Tier
	err      error
}

func (s *stubAuthorizer) Authorize(_ context.Context, bearer string, tier auth.Tier) (*auth.Principal, error) {
	s.gotToken = bearer
	s.gotTier = tier
	if s.err != nil {
		return nil, s.err
	}
	return &auth.Principal{Account: &account.Account{ID: uuid.New()}}, nil
}

func TestRequireTier(t *testing.T) {
	e := echo.New()

	ok := func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}

	run := func(a Authorizer, header string) (echo.Context, *httptest.ResponseRecorder, error) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		return c, rec, RequireTier(a, auth.TierFull)(ok)(c)
	}

	t.Run("missing header", func(t *testing.T) {
		_, _, err := run(&stubAuthorizer{}, "")
		assert.ErrorIs(t, err, apperr.ErrAuthenticationRequired)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		_, _, err := run(&stubAuthorizer{}, "Basic abc")
		assert.ErrorIs(t, err, apperr.ErrAuthenticationRequired)
	})

	t.Run("empty token", func(t *testing.T) {
		_, _, err := run(&stubAuthorizer{}, "Bearer   ")
		assert.ErrorIs(t, err, apperr.ErrAuthenticationRequired)
	})

	t.Run("authorizer error passes through", func(t *testing.T) {
		_, _, err := run(&stubAuthorizer{err: apperr.ErrTwoFactorRequired}, "Bearer tok")
		assert.ErrorIs(t, err, apperr.ErrTwoFactorRequired)
	})

	t.Run("principal stored", func(t *testing.T) {
		stub := &stubAuthorizer{}
		c, rec, err := run(stub, "bearer tok")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "tok", stub.gotToken)
		assert.Equal(t, auth.TierFull, stub.gotTier)
		assert.NotNil(t, GetPrincipal(c))
	})
}

func TestGetPrincipal_Missing(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Nil(t, GetPrincipal(c))
}
