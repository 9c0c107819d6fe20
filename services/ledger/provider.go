package ledger

import (
	"github.com/tech-arch1tect/accounts/clock"
	"github.com/tech-arch1tect/accounts/config"
	"github.com/tech-arch1tect/accounts/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideLedger(cfg *config.Config, db *gorm.DB, clk clock.Clock, logger *logging.Service) *Service {
	return NewService(&cfg.Auth, db, clk, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideLedger),
)
