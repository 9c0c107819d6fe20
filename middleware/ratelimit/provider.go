package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/tech-arch1tect/accounts/clock"
	"github.com/tech-arch1tect/accounts/config"
	"github.com/tech-arch1tect/accounts/services/jwt"
	"github.com/tech-arch1tect/accounts/services/logging"
	"go.uber.org/fx"
)

func NewStore(cfg *config.RateLimitConfig, clk clock.Clock) (Store, error) {
	switch cfg.Store {
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid rate limit redis url: %w", err)
		}
		return NewRedisStore(redis.NewClient(opts), cfg.Prefix, clk), nil
	case "memory", "":
		return NewMemoryStore(clk), nil
	default:
		return nil, fmt.Errorf("unknown rate limit store %q", cfg.Store)
	}
}

func ProvideRateLimitStore(lc fx.Lifecycle, cfg *config.Config, clk clock.Clock, logger *logging.Service) (Store, error) {
	store, err := NewStore(&cfg.RateLimit, clk)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Debug("closing rate limit store")
			return store.Close()
		},
	})
	return store, nil
}

func ProvideLimiter(cfg *config.Config, store Store, tokens *jwt.Service, clk clock.Clock, logger *logging.Service) *Limiter {
	return NewLimiter(&cfg.RateLimit, store, tokens, clk, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideRateLimitStore, ProvideLimiter),
)
