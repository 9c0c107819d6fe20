package config

import "go.uber.org/fx"

// NewProvider supplies cfg when it is non-nil and otherwise loads the
// configuration from the environment.
func NewProvider(cfg *Config) fx.Option {
	if cfg != nil {
		return fx.Provide(func() (*Config, error) {
			return cfg, cfg.Validate()
		})
	}

	return fx.Provide(func() (*Config, error) {
		loaded := &Config{}
		if err := LoadConfig(loaded); err != nil {
			return nil, err
		}
		return loaded, nil
	})
}
