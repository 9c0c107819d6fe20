package ratelimit

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/accounts/apperr"
	"github.com/tech-arch1tect/accounts/clock"
	"github.com/tech-arch1tect/accounts/config"
	mwjwt "github.com/tech-arch1tect/accounts/middleware/jwt"
	"github.com/tech-arch1tect/accounts/services/jwt"
	"github.com/tech-arch1tect/accounts/services/logging"
	"go.uber.org/zap"
)

type Config struct {
	Store   Store
	Name    string
	Limit   config.Limit
	KeyFunc func(c echo.Context) string
	Clock   clock.Clock
	Logger  *logging.Service
}

// Middleware enforces cfg.Limit per key. Store failures let the request
// through.
func Middleware(cfg Config) echo.MiddlewareFunc {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPKey
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := cfg.Name + ":" + cfg.KeyFunc(c)

			count, resetTime, err := cfg.Store.Increment(c.Request().Context(), key, cfg.Limit.Period)
			if err != nil {
				cfg.Logger.Warn("rate limit store unavailable", zap.String("limit", cfg.Name), zap.Error(err))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit.Requests))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(cfg.Limit.Requests-count, 0)))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if count > cfg.Limit.Requests {
				retry := max(int(resetTime.Sub(cfg.Clock.Now()).Seconds()), 1)
				h.Set("Retry-After", strconv.Itoa(retry))
				cfg.Logger.Info("rate limit exceeded", zap.String("limit", cfg.Name), zap.String("key", key))
				return apperr.ErrRateLimited
			}

			return next(c)
		}
	}
}

func IPKey(c echo.Context) string {
	ip := c.RealIP()
	if ip == "" || ip == "unknown" {
		ip = "fallback"
	}
	return "ip:" + ip
}

type TokenValidator interface {
	Validate(token string) (*jwt.Claims, error)
}

// SubjectKey keys on the bearer's subject when the token validates and on
// the client IP otherwise.
func SubjectKey(tokens TokenValidator) func(c echo.Context) string {
	return func(c echo.Context) string {
		token, err := mwjwt.BearerToken(c)
		if err != nil {
			return IPKey(c)
		}
		claims, err := tokens.Validate(token)
		if err != nil || claims.Subject == "" {
			return IPKey(c)
		}
		return "user:" + claims.Subject
	}
}

// Limiter builds per-route middleware from the configured limits.
type Limiter struct {
	config *config.RateLimitConfig
	store  Store
	keys   func(c echo.Context) string
	clock  clock.Clock
	logger *logging.Service
}

func NewLimiter(cfg *config.RateLimitConfig, store Store, tokens TokenValidator, clk clock.Clock, logger *logging.Service) *Limiter {
	keys := IPKey
	if tokens != nil {
		keys = SubjectKey(tokens)
	}
	return &Limiter{config: cfg, store: store, keys: keys, clock: clk, logger: logger.Named("ratelimit")}
}

func (l *Limiter) For(name string, limit config.Limit) echo.MiddlewareFunc {
	if l == nil || !l.config.Enabled || !limit.Active() || l.store == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return Middleware(Config{
		Store:   l.store,
		Name:    name,
		Limit:   limit,
		KeyFunc: l.keys,
		Clock:   l.clock,
		Logger:  l.logger,
	})
}

func (l *Limiter) Signup() echo.MiddlewareFunc         { return l.For("signup", l.config.Signup) }
func (l *Limiter) Resend() echo.MiddlewareFunc         { return l.For("resend", l.config.Resend) }
func (l *Limiter) Login() echo.MiddlewareFunc          { return l.For("login", l.config.Login) }
func (l *Limiter) TwoFactor() echo.MiddlewareFunc      { return l.For("two_factor", l.config.TwoFactor) }
func (l *Limiter) ForgotPassword() echo.MiddlewareFunc { return l.For("forgot_password", l.config.ForgotPassword) }
