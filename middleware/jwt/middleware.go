package jwt

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/accounts/apperr"
	"github.com/tech-arch1tect/accounts/services/auth"
)

const PrincipalKey = "_auth_principal"

type Authorizer interface {
	Authorize(ctx context.Context, bearer string, tier auth.Tier) (*auth.Principal, error)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", apperr.ErrAuthenticationRequired
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", apperr.ErrAuthenticationRequired.WithMessage("Invalid authorization header format")
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperr.ErrAuthenticationRequired.WithMessage("Bearer token required")
	}
	return token, nil
}

// RequireTier rejects requests whose bearer does not satisfy tier and stores
// the principal on the context otherwise.
func RequireTier(authorizer Authorizer, tier auth.Tier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := BearerToken(c)
			if err != nil {
				return err
			}

			principal, err := authorizer.Authorize(c.Request().Context(), token, tier)
			if err != nil {
				return err
			}

			c.Set(PrincipalKey, principal)
			return next(c)
		}
	}
}

func GetPrincipal(c echo.Context) *auth.Principal {
	if p, ok := c.Get(PrincipalKey).(*auth.Principal); ok {
		return p
	}
	return nil
}
