package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig       `envPrefix:"ACCOUNTS_APP_"`
	Server    ServerConfig    `envPrefix:"ACCOUNTS_SERVER_"`
	Log       LogConfig       `envPrefix:"ACCOUNTS_LOG_"`
	Database  DatabaseConfig  `envPrefix:"ACCOUNTS_DATABASE_"`
	Auth      AuthConfig      `envPrefix:"ACCOUNTS_AUTH_"`
	JWT       JWTConfig       `envPrefix:"ACCOUNTS_JWT_"`
	TOTP      TOTPConfig      `envPrefix:"ACCOUNTS_TOTP_"`
	Mail      MailConfig      `envPrefix:"ACCOUNTS_MAIL_"`
	Delivery  DeliveryConfig  `envPrefix:"ACCOUNTS_DELIVERY_"`
	RateLimit RateLimitConfig `envPrefix:"ACCOUNTS_RATELIMIT_"`
}

type AppConfig struct {
	Name             string `env:"NAME" envDefault:"Accounts"`
	URL              string `env:"URL" envDefault:"http://localhost:8080"`
	Version          string `env:"VERSION" envDefault:"dev"`
	EnableUserEmails bool   `env:"ENABLE_USER_EMAILS" envDefault:"true"`
}

type ServerConfig struct {
	Host      string `env:"HOST" envDefault:"localhost"`
	Port      string `env:"PORT" envDefault:"8080"`
	BodyLimit string `env:"BODY_LIMIT" envDefault:"1M"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver        string `env:"DRIVER" envDefault:"sqlite"`
	DSN           string `env:"DSN" envDefault:"accounts.db"`
	AutoMigrate   bool   `env:"AUTO_MIGRATE" envDefault:"true"`
	MigrationMode string `env:"MIGRATION_MODE" envDefault:"auto"`
	MaxOpenConns  int    `env:"MAX_OPEN_CONNS" envDefault:"0"`
}

type AuthConfig struct {
	BcryptCost          int           `env:"BCRYPT_COST" envDefault:"10"`
	MinLength           int           `env:"MIN_LENGTH" envDefault:"8"`
	RequireUpper        bool          `env:"REQUIRE_UPPER" envDefault:"false"`
	RequireLower        bool          `env:"REQUIRE_LOWER" envDefault:"false"`
	RequireNumber       bool          `env:"REQUIRE_NUMBER" envDefault:"false"`
	RequireSpecial      bool          `env:"REQUIRE_SPECIAL" envDefault:"false"`
	SignupCodeExpiry    time.Duration `env:"SIGNUP_CODE_EXPIRY" envDefault:"24h"`
	PasswordResetExpiry time.Duration `env:"PASSWORD_RESET_EXPIRY" envDefault:"1h"`
	ResetTokenBytes     int           `env:"RESET_TOKEN_BYTES" envDefault:"32"`
}

type JWTConfig struct {
	SecretKey    string        `env:"SECRET_KEY"`
	Algorithm    string        `env:"ALGORITHM" envDefault:"HS256"`
	AccessExpiry time.Duration `env:"ACCESS_EXPIRY" envDefault:"60m"`
	Issuer       string        `env:"ISSUER" envDefault:"accounts"`
}

type TOTPConfig struct {
	Issuer           string `env:"ISSUER" envDefault:"Accounts"`
	SecretSize       uint   `env:"SECRET_SIZE" envDefault:"20"`
	Period           uint   `env:"PERIOD" envDefault:"30"`
	SetupWindow      int    `env:"SETUP_WINDOW" envDefault:"0"`
	LoginWindow      int    `env:"LOGIN_WINDOW" envDefault:"1"`
	ReplayProtection bool   `env:"REPLAY_PROTECTION" envDefault:"true"`
}

type MailConfig struct {
	Host         string `env:"HOST"`
	Port         int    `env:"PORT" envDefault:"587"`
	Username     string `env:"USERNAME"`
	Password     string `env:"PASSWORD"`
	Encryption   string `env:"ENCRYPTION" envDefault:"starttls"`
	FromAddress  string `env:"FROM_ADDRESS" envDefault:"noreply@localhost"`
	FromName     string `env:"FROM_NAME" envDefault:"Accounts"`
	TemplatesDir string `env:"TEMPLATES_DIR"`
}

type DeliveryConfig struct {
	Workers      int           `env:"WORKERS" envDefault:"2"`
	QueueSize    int           `env:"QUEUE_SIZE" envDefault:"100"`
	SendTimeout  time.Duration `env:"SEND_TIMEOUT" envDefault:"30s"`
	DrainTimeout time.Duration `env:"DRAIN_TIMEOUT" envDefault:"10s"`
}

type RateLimitConfig struct {
	Enabled  bool   `env:"ENABLED" envDefault:"true"`
	Store    string `env:"STORE" envDefault:"memory"`
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	Prefix   string `env:"PREFIX" envDefault:"accounts:ratelimit:"`

	Signup         Limit `envPrefix:"SIGNUP_"`
	Resend         Limit `envPrefix:"RESEND_"`
	Login          Limit `envPrefix:"LOGIN_"`
	TwoFactor      Limit `envPrefix:"TWO_FACTOR_"`
	ForgotPassword Limit `envPrefix:"FORGOT_PASSWORD_"`
}

type Limit struct {
	Requests int           `env:"REQUESTS"`
	Period   time.Duration `env:"PERIOD"`
}

func (l Limit) Active() bool {
	return l.Requests > 0 && l.Period > 0
}

var (
	ErrMissingSecret     = errors.New("jwt secret key is required")
	ErrWeakSecret        = errors.New("jwt secret key must be at least 16 bytes")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

func LoadConfig(cfg *Config) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	applyLimitDefaults(&cfg.RateLimit)

	return cfg.Validate()
}

func applyLimitDefaults(rl *RateLimitConfig) {
	defaults := []struct {
		limit    *Limit
		requests int
		period   time.Duration
	}{
		{&rl.Signup, 2, 24 * time.Hour},
		{&rl.Resend, 1, 5 * time.Minute},
		{&rl.Login, 10, time.Minute},
		{&rl.TwoFactor, 5, time.Minute},
		{&rl.ForgotPassword, 3, time.Hour},
	}

	for _, d := range defaults {
		if d.limit.Requests == 0 && d.limit.Period == 0 {
			d.limit.Requests = d.requests
			d.limit.Period = d.period
		}
	}
}

func (c *Config) Validate() error {
	var errs []error

	switch {
	case c.JWT.SecretKey == "":
		errs = append(errs, ErrMissingSecret)
	case len(c.JWT.SecretKey) < 16:
		errs = append(errs, ErrWeakSecret)
	}

	switch c.JWT.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("unsupported jwt algorithm %q", c.JWT.Algorithm))
	}

	if c.JWT.AccessExpiry <= 0 {
		errs = append(errs, errors.New("jwt access expiry must be positive"))
	}

	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "postgres", "postgresql", "mysql":
	default:
		errs = append(errs, fmt.Errorf("%w: %s", ErrUnsupportedDriver, c.Database.Driver))
	}

	switch c.Database.MigrationMode {
	case "auto", "":
	case "goose":
		if d := strings.ToLower(c.Database.Driver); d != "postgres" && d != "postgresql" {
			errs = append(errs, errors.New("goose migrations are only shipped for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown migration mode %q", c.Database.MigrationMode))
	}

	if c.Auth.SignupCodeExpiry <= 0 {
		errs = append(errs, errors.New("signup code expiry must be positive"))
	}
	if c.Auth.PasswordResetExpiry <= 0 {
		errs = append(errs, errors.New("password reset expiry must be positive"))
	}
	if c.Auth.ResetTokenBytes < 16 {
		errs = append(errs, errors.New("reset tokens need at least 16 random bytes"))
	}

	if c.TOTP.SetupWindow < 0 || c.TOTP.LoginWindow < 0 {
		errs = append(errs, errors.New("totp windows cannot be negative"))
	}

	switch c.RateLimit.Store {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("unknown rate limit store %q", c.RateLimit.Store))
	}

	return errors.Join(errs...)
}
