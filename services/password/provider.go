package password

import (
	"github.com/tech-arch1tect/accounts/config"
	"github.com/tech-arch1tect/accounts/services/logging"
	"go.uber.org/fx"
)

func ProvidePasswordService(cfg *config.Config, logger *logging.Service) *Service {
	return NewService(&cfg.Auth, logger)
}

var Module = fx.Options(
	fx.Provide(ProvidePasswordService),
)
