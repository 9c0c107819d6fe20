package jwt

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/accounts/apperr"
	"github.com/tech-arch1tect/accounts/clock"
	"github.com/tech-arch1tect/accounts/config"
	"github.com/tech-arch1tect/accounts/testutils"
)

func newTestService(t *testing.T) (*Service, *clock.Mock) {
	t.Helper()
	cfg := testutils.GetTestConfig()
	clk := clock.NewMock(testutils.Epoch)
	s, err := NewService(&cfg.JWT, clk, nil)
	require.NoError(t, err)
	return s, clk
}

func signRaw(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestNewService(t *testing.T) {
	cfg := testutils.GetTestConfig()

	t.Run("rejects asymmetric algorithms", func(t *testing.T) {
		jwtCfg := cfg.JWT
		jwtCfg.Algorithm = "RS256"
		_, err := NewService(&jwtCfg, clock.New(), nil)
		assert.Error(t, err)
	})

	t.Run("rejects none", func(t *testing.T) {
		jwtCfg := cfg.JWT
		jwtCfg.Algorithm = "none"
		_, err := NewService(&jwtCfg, clock.New(), nil)
		assert.Error(t, err)
	})

	t.Run("requires a secret", func(t *testing.T) {
		jwtCfg := cfg.JWT
		jwtCfg.SecretKey = ""
		_, err := NewService(&jwtCfg, clock.New(), nil)
		assert.ErrorIs(t, err, config.ErrMissingSecret)
	})
}

func TestService_AccessExpirySeconds(t *testing.T) {
	s, _ := newTestService(t)
	assert.Equal(t, 3600, s.AccessExpirySeconds())
}

func TestService_IssueAndValidate(t *testing.T) {
	s, clk := newTestService(t)
	accountID := uuid.New()

	for _, pending := range []bool{false, true} {
		token, err := s.Issue(accountID, pending)
		require.NoError(t, err)
		assert.Len(t, strings.Split(token, "."), 3)

		claims, err := s.Validate(token)
		require.NoError(t, err)

		id, err := claims.AccountID()
		require.NoError(t, err)
		assert.Equal(t, accountID, id)
		assert.Equal(t, pending, claims.Pending2FA)
		assert.Equal(t, "test-issuer", claims.Issuer)
		assert.NotEmpty(t, claims.ID)
		assert.True(t, claims.ExpiresAt.Time.Equal(clk.Now().Add(time.Hour)))
	}
}

func TestService_IssueIsUnique(t *testing.T) {
	s, _ := newTestService(t)
	accountID := uuid.New()

	first, err := s.Issue(accountID, false)
	require.NoError(t, err)
	second, err := s.Issue(accountID, false)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestService_Validate(t *testing.T) {
	s, clk := newTestService(t)
	accountID := uuid.New()
	secret := []byte("test-signing-key-with-enough-entropy")

	valid := func() Claims {
		now := clk.Now()
		return Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   accountID.String(),
				Issuer:    "test-issuer",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(now),
			},
		}
	}

	t.Run("expired", func(t *testing.T) {
		token, err := s.Issue(accountID, false)
		require.NoError(t, err)

		clk.Advance(time.Hour + time.Second)
		defer clk.Advance(-(time.Hour + time.Second))

		_, err = s.Validate(token)
		assert.ErrorIs(t, err, apperr.ErrTokenExpired)
	})

	t.Run("wrong key", func(t *testing.T) {
		token := signRaw(t, jwt.SigningMethodHS256, []byte("another-key-of-reasonable-length"), valid())
		_, err := s.Validate(token)
		assert.ErrorIs(t, err, apperr.ErrBadSignature)
	})

	t.Run("swapped signature", func(t *testing.T) {
		token, err := s.Issue(accountID, true)
		require.NoError(t, err)
		other, err := s.Issue(uuid.New(), false)
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		otherParts := strings.Split(other, ".")
		forged := parts[0] + "." + parts[1] + "." + otherParts[2]

		_, err = s.Validate(forged)
		assert.ErrorIs(t, err, apperr.ErrBadSignature)
	})

	t.Run("algorithm none", func(t *testing.T) {
		token := signRaw(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid())
		_, err := s.Validate(token)
		assert.ErrorIs(t, err, apperr.ErrBadSignature)
	})

	t.Run("different hmac algorithm", func(t *testing.T) {
		token := signRaw(t, jwt.SigningMethodHS512, secret, valid())
		_, err := s.Validate(token)
		assert.ErrorIs(t, err, apperr.ErrBadSignature)
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := valid()
		claims.ExpiresAt = nil
		token := signRaw(t, jwt.SigningMethodHS256, secret, claims)

		_, err := s.Validate(token)
		assert.ErrorIs(t, err, apperr.ErrTokenMalformed)
	})

	t.Run("subject is not an account id", func(t *testing.T) {
		claims := valid()
		claims.Subject = "42"
		token := signRaw(t, jwt.SigningMethodHS256, secret, claims)

		_, err := s.Validate(token)
		assert.ErrorIs(t, err, apperr.ErrTokenMalformed)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		claims := valid()
		claims.Issuer = "someone-else"
		token := signRaw(t, jwt.SigningMethodHS256, secret, claims)

		_, err := s.Validate(token)
		assert.ErrorIs(t, err, apperr.ErrTokenMalformed)
	})

	t.Run("garbage", func(t *testing.T) {
		for _, token := range []string{"", "abc", "a.b.c", "not.a.token.at.all"} {
			_, err := s.Validate(token)
			assert.ErrorIs(t, err, apperr.ErrTokenMalformed, token)
		}
	})

	t.Run("correctly signed raw claims", func(t *testing.T) {
		claims := valid()
		claims.Pending2FA = true
		token := signRaw(t, jwt.SigningMethodHS256, secret, claims)

		got, err := s.Validate(token)
		require.NoError(t, err)
		assert.True(t, got.Pending2FA)
	})
}
