package auth

import (
	"github.com/tech-arch1tect/accounts/clock"
	"github.com/tech-arch1tect/accounts/config"
	"github.com/tech-arch1tect/accounts/services/account"
	"github.com/tech-arch1tect/accounts/services/delivery"
	"github.com/tech-arch1tect/accounts/services/jwt"
	"github.com/tech-arch1tect/accounts/services/ledger"
	"github.com/tech-arch1tect/accounts/services/logging"
	"github.com/tech-arch1tect/accounts/services/password"
	"github.com/tech-arch1tect/accounts/services/totp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type ServiceParams struct {
	fx.In

	Config     *config.Config
	DB         *gorm.DB
	Accounts   *account.Repository
	Passwords  *password.Service
	TwoFactor  *totp.Service
	Ledger     *ledger.Service
	Tokens     *jwt.Service
	Dispatcher *delivery.Dispatcher
	Clock      clock.Clock
	Logger     *logging.Service
}

func ProvideAuthService(p ServiceParams) *Service {
	return NewService(Dependencies{
		Config:    p.Config,
		DB:        p.DB,
		Accounts:  p.Accounts,
		Passwords: p.Passwords,
		TwoFactor: p.TwoFactor,
		Ledger:    p.Ledger,
		Tokens:    p.Tokens,
		Delivery:  p.Dispatcher,
		Clock:     p.Clock,
		Logger:    p.Logger,
	})
}

var Module = fx.Options(
	fx.Provide(ProvideAuthService),
)
