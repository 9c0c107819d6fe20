package jwt

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tech-arch1tect/accounts/apperr"
	"github.com/tech-arch1tect/accounts/clock"
	"github.com/tech-arch1tect/accounts/config"
	"github.com/tech-arch1tect/accounts/services/logging"
	"go.uber.org/zap"
)

// Claims carries the subject account and whether the second factor is still
// outstanding.
type Claims struct {
	Pending2FA bool `json:"pending_2fa"`
	jwt.RegisteredClaims
}

func (c *Claims) AccountID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, apperr.ErrTokenMalformed
	}
	return id, nil
}

type Service struct {
	config *config.JWTConfig
	method jwt.SigningMethod
	clock  clock.Clock
	logger *logging.Service
}

func NewService(cfg *config.JWTConfig, clk clock.Clock, logger *logging.Service) (*Service, error) {
	method := jwt.GetSigningMethod(cfg.Algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
	if cfg.SecretKey == "" {
		return nil, config.ErrMissingSecret
	}

	return &Service{
		config: cfg,
		method: method,
		clock:  clk,
		logger: logger.Named("jwt"),
	}, nil
}

func (s *Service) AccessExpirySeconds() int {
	return int(s.config.AccessExpiry.Seconds())
}

// Issue mints a new token; tokens are never modified after issuance.
func (s *Service) Issue(accountID uuid.UUID, pending2FA bool) (string, error) {
	now := s.clock.Now()
	claims := Claims{
		Pending2FA: pending2FA,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   accountID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessExpiry)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString([]byte(s.config.SecretKey))
	if err != nil {
		s.logger.Error("failed to sign session token", zap.Error(err))
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, algorithm and expiry before any claim is read.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(s.config.SecretKey), nil
	}, opts...)
	if err != nil {
		mapped := mapError(err)
		s.logger.Debug("session token rejected", zap.String("reason", string(mapped.Kind)), zap.Error(err))
		return nil, mapped
	}
	if !token.Valid {
		return nil, apperr.ErrTokenMalformed
	}

	if _, err := claims.AccountID(); err != nil {
		return nil, err
	}
	return claims, nil
}

func mapError(err error) *apperr.Error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperr.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return apperr.ErrBadSignature
	default:
		return apperr.ErrTokenMalformed
	}
}
