package server

import (
	"context"

	"go.uber.org/fx"
)

func NewProvider() fx.Option {
	return fx.Options(
		fx.Provide(New),
		fx.Invoke(func(lc fx.Lifecycle, srv *Server) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					if err := srv.Listen(); err != nil {
						return err
					}
					go srv.Serve()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return srv.Shutdown(ctx)
				},
			})
		}),
	)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("stopping http server")
	return s.echo.Shutdown(ctx)
}
