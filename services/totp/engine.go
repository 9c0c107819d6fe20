package totp

import (
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/tech-arch1tect/accounts/clock"
	"github.com/tech-arch1tect/accounts/config"
)

const codeDigits = otp.DigitsSix

var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Engine computes and checks codes. It holds no per-account state.
type Engine struct {
	issuer     string
	secretSize uint
	period     uint
	clock      clock.Clock
}

func NewEngine(cfg *config.TOTPConfig, clk clock.Clock) *Engine {
	e := &Engine{
		issuer:     cfg.Issuer,
		secretSize: cfg.SecretSize,
		period:     cfg.Period,
		clock:      clk,
	}
	if e.issuer == "" {
		e.issuer = "Accounts"
	}
	if e.secretSize == 0 {
		e.secretSize = 20
	}
	if e.period == 0 {
		e.period = 30
	}
	return e
}

func (e *Engine) Period() time.Duration {
	return time.Duration(e.period) * time.Second
}

func (e *Engine) GenerateSecret() (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.issuer,
		AccountName: "pending",
		Period:      e.period,
		SecretSize:  e.secretSize,
		Digits:      codeDigits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate totp secret: %w", err)
	}
	return key.Secret(), nil
}

func (e *Engine) CurrentCode(secret string) (string, error) {
	return e.CodeAt(secret, e.clock.Now())
}

func (e *Engine) CodeAt(secret string, at time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(secret, at.UTC(), e.opts(0))
	if err != nil {
		return "", fmt.Errorf("failed to compute totp code: %w", err)
	}
	return code, nil
}

// Verify accepts the code for the current step, plus window steps either side.
func (e *Engine) Verify(secret, code string, window int) bool {
	return e.VerifyAt(secret, code, e.clock.Now(), window)
}

func (e *Engine) VerifyAt(secret, code string, at time.Time, window int) bool {
	if window < 0 {
		window = 0
	}
	ok, err := totp.ValidateCustom(code, secret, at.UTC(), e.opts(uint(window)))
	return err == nil && ok
}

// ProvisioningURI formats the otpauth:// URI for secret. It touches no storage.
func (e *Engine) ProvisioningURI(secret, label string) (string, error) {
	raw, err := secretEncoding.DecodeString(strings.ToUpper(strings.TrimRight(secret, "=")))
	if err != nil {
		return "", fmt.Errorf("invalid totp secret: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.issuer,
		AccountName: label,
		Period:      e.period,
		Secret:      raw,
		Digits:      codeDigits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build provisioning uri: %w", err)
	}
	return key.URL(), nil
}

func (e *Engine) opts(skew uint) totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    e.period,
		Skew:      skew,
		Digits:    codeDigits,
		Algorithm: otp.AlgorithmSHA1,
	}
}
