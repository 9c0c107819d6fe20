package totp

import (
	"context"
	"time"

	"github.com/tech-arch1tect/accounts/clock"
	"github.com/tech-arch1tect/accounts/config"
	"github.com/tech-arch1tect/accounts/services/logging"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const purgeInterval = 10 * time.Minute

func ProvideEngine(cfg *config.Config, clk clock.Clock) *Engine {
	return NewEngine(&cfg.TOTP, clk)
}

func ProvideService(cfg *config.Config, db *gorm.DB, engine *Engine, clk clock.Clock, logger *logging.Service) *Service {
	return NewService(&cfg.TOTP, db, engine, clk, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideEngine, ProvideService),
	fx.Invoke(registerPurge),
)

func registerPurge(lc fx.Lifecycle, s *Service) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(purgeInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						if _, err := s.PurgeUsedCodes(ctx); err != nil {
							s.logger.Warn("used code purge failed", zap.Error(err))
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
