package handlers

import (
	"github.com/tech-arch1tect/accounts/config"
	"github.com/tech-arch1tect/accounts/middleware/ratelimit"
	"github.com/tech-arch1tect/accounts/openapi"
	"github.com/tech-arch1tect/accounts/server"
	"go.uber.org/fx"
)

func ProvideOpenAPI(cfg *config.Config) *openapi.OpenAPI {
	return openapi.New(cfg.App.Name+" API", cfg.App.Version).
		Description("Account signup, login, two-factor and password recovery").
		Server(cfg.App.URL, "")
}

var Module = fx.Options(
	fx.Provide(New, ProvideOpenAPI),
	fx.Invoke(func(h *Handler, srv *server.Server, limiter *ratelimit.Limiter, doc *openapi.OpenAPI) {
		h.Register(srv, limiter, doc)
	}),
)
