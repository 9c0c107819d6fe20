package account

import (
	"github.com/tech-arch1tect/accounts/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideRepository(db *gorm.DB, logger *logging.Service) *Repository {
	return NewRepository(db, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideRepository),
)
