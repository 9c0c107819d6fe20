package app

import (
	"fmt"

	"github.com/tech-arch1tect/accounts/clock"
	"github.com/tech-arch1tect/accounts/config"
	"github.com/tech-arch1tect/accounts/database"
	"github.com/tech-arch1tect/accounts/handlers"
	"github.com/tech-arch1tect/accounts/middleware/ratelimit"
	"github.com/tech-arch1tect/accounts/server"
	"github.com/tech-arch1tect/accounts/services/account"
	"github.com/tech-arch1tect/accounts/services/auth"
	"github.com/tech-arch1tect/accounts/services/delivery"
	"github.com/tech-arch1tect/accounts/services/jwt"
	"github.com/tech-arch1tect/accounts/services/ledger"
	"github.com/tech-arch1tect/accounts/services/logging"
	"github.com/tech-arch1tect/accounts/services/password"
	"github.com/tech-arch1tect/accounts/services/totp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"
)

// Models lists every table the service owns, in creation order.
func Models() []any {
	return []any{
		&account.Account{},
		&totp.TwoFactorConfig{},
		&totp.UsedCode{},
		&ledger.EphemeralToken{},
	}
}

type AppBuilder struct {
	config    *config.Config
	clock     clock.Clock
	fxOptions []fx.Option
	errors    []error
}

func NewApp() *AppBuilder {
	return &AppBuilder{}
}

func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	if cfg == nil {
		b.errors = append(b.errors, fmt.Errorf("config cannot be nil"))
		return b
	}
	b.config = cfg
	return b
}

// WithClock replaces the system clock, mostly for tests.
func (b *AppBuilder) WithClock(clk clock.Clock) *AppBuilder {
	b.clock = clk
	return b
}

func (b *AppBuilder) WithFxOptions(opts ...fx.Option) *AppBuilder {
	b.fxOptions = append(b.fxOptions, opts...)
	return b
}

func (b *AppBuilder) Build() (*App, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("configuration errors: %v", b.errors)
	}

	a := &App{}
	opts := append(b.options(), b.fxOptions...)
	opts = append(opts, fx.Populate(&a.config, &a.logger, &a.db, &a.server))

	fxApp := fx.New(opts...)
	if err := fxApp.Err(); err != nil {
		return nil, fmt.Errorf("failed to build application: %w", err)
	}
	a.fx = fxApp
	return a, nil
}

func (b *AppBuilder) options() []fx.Option {
	clk := b.clock
	if clk == nil {
		clk = clock.New()
	}

	return []fx.Option{
		fx.WithLogger(func(logger *logging.Service) fxevent.Logger {
			if z := logger.Logger(); z != nil {
				l := &fxevent.ZapLogger{Logger: z.Named("fx")}
				l.UseLogLevel(zapcore.DebugLevel)
				return l
			}
			return fxevent.NopLogger
		}),
		config.NewProvider(b.config),
		fx.Provide(func() clock.Clock { return clk }),
		fx.Supply(database.WithModels(Models()...)),
		logging.Module,
		database.Module,
		account.Module,
		password.Module,
		totp.Module,
		ledger.Module,
		jwt.Module,
		delivery.Module,
		auth.Module,
		ratelimit.Module,
		server.NewProvider(),
		handlers.Module,
	}
}
