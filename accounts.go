// Package accounts is the user-account service: signup with emailed
// verification codes, password login, TOTP second factor and password reset.
package accounts

import (
	"github.com/tech-arch1tect/accounts/app"
	"github.com/tech-arch1tect/accounts/config"
)

type App = app.App

// New builds the service; a nil cfg is loaded from the environment.
func New(cfg *config.Config) (*App, error) {
	return app.New(cfg)
}
