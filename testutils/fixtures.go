package testutils

import (
	"time"

	"github.com/tech-arch1tect/accounts/config"
	"golang.org/x/crypto/bcrypt"
)

// Epoch is a fixed, step-aligned instant used with clock.Mock.
var Epoch = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:             "Test App",
			URL:              "http://localhost:8080",
			Version:          "test",
			EnableUserEmails: true,
		},
		Server: config.ServerConfig{
			Host:      "localhost",
			Port:      "0",
			BodyLimit: "1M",
		},
		Log: config.LogConfig{
			Level:  "debug",
			Format: "console",
			Output: "stdout",
		},
		Database: config.DatabaseConfig{
			Driver:        "sqlite",
			DSN:           ":memory:",
			AutoMigrate:   true,
			MigrationMode: "auto",
			MaxOpenConns:  1,
		},
		Auth: config.AuthConfig{
			BcryptCost:          bcrypt.MinCost,
			MinLength:           8,
			SignupCodeExpiry:    24 * time.Hour,
			PasswordResetExpiry: time.Hour,
			ResetTokenBytes:     32,
		},
		JWT: config.JWTConfig{
			SecretKey:    "test-signing-key-with-enough-entropy",
			Algorithm:    "HS256",
			AccessExpiry: time.Hour,
			Issuer:       "test-issuer",
		},
		TOTP: config.TOTPConfig{
			Issuer:           "Test App",
			SecretSize:       20,
			Period:           30,
			SetupWindow:      0,
			LoginWindow:      1,
			ReplayProtection: true,
		},
		Mail: config.MailConfig{
			Port:        1025,
			Encryption:  "none",
			FromAddress: "noreply@example.com",
			FromName:    "Test App",
		},
		Delivery: config.DeliveryConfig{
			Workers:      1,
			QueueSize:    16,
			SendTimeout:  time.Second,
			DrainTimeout: time.Second,
		},
		RateLimit: config.RateLimitConfig{
			Enabled:        false,
			Store:          "memory",
			Prefix:         "test:",
			Signup:         config.Limit{Requests: 2, Period: 24 * time.Hour},
			Resend:         config.Limit{Requests: 1, Period: 5 * time.Minute},
			Login:          config.Limit{Requests: 10, Period: time.Minute},
			TwoFactor:      config.Limit{Requests: 5, Period: time.Minute},
			ForgotPassword: config.Limit{Requests: 3, Period: time.Hour},
		},
	}
}

var TestPasswords = struct {
	Valid    string
	Other    string
	TooShort string
}{
	Valid:    "longenough1",
	Other:    "evenlonger22",
	TooShort: "short",
}

var TestAccount = struct {
	Email    string
	FullName string
}{
	Email:    "a@b.com",
	FullName: "Jane Doe",
}
