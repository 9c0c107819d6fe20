package delivery

import (
	"context"

	"github.com/tech-arch1tect/accounts/clock"
	"github.com/tech-arch1tect/accounts/config"
	"github.com/tech-arch1tect/accounts/services/logging"
	"github.com/tech-arch1tect/accounts/services/mail"
	"go.uber.org/fx"
)

func ProvideSender(cfg *config.Config, logger *logging.Service) (Sender, error) {
	if cfg.Mail.Host == "" {
		logger.Warn("ACCOUNTS_MAIL_HOST not set, emails will only be logged")
		return NewLogSender(logger), nil
	}
	return mail.NewService(&cfg.Mail, logger)
}

func ProvideDispatcher(lc fx.Lifecycle, cfg *config.Config, sender Sender, clk clock.Clock, logger *logging.Service) *Dispatcher {
	d := NewDispatcher(cfg, sender, clk, logger)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			d.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cfg.Delivery.DrainTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Delivery.DrainTimeout)
				defer cancel()
			}
			return d.Stop(ctx)
		},
	})
	return d
}

var Module = fx.Options(
	fx.Provide(ProvideSender, ProvideDispatcher),
)
