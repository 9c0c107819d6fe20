package totp

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tech-arch1tect/accounts/apperr"
	"github.com/tech-arch1tect/accounts/clock"
	"github.com/tech-arch1tect/accounts/config"
	"github.com/tech-arch1tect/accounts/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service owns the per-account TwoFactorConfig rows.
type Service struct {
	config *config.TOTPConfig
	db     *gorm.DB
	engine *Engine
	clock  clock.Clock
	logger *logging.Service
}

func NewService(cfg *config.TOTPConfig, db *gorm.DB, engine *Engine, clk clock.Clock, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		db:     db,
		engine: engine,
		clock:  clk,
		logger: logger.Named("totp"),
	}
}

// WithTx returns a copy bound to tx.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	c := *s
	c.db = tx
	return &c
}

func (s *Service) Create(ctx context.Context, accountID uuid.UUID) (*TwoFactorConfig, error) {
	secret, err := s.engine.GenerateSecret()
	if err != nil {
		s.logger.Error("totp secret generation failed", zap.Error(err), logging.AccountID(accountID))
		return nil, err
	}

	cfg := &TwoFactorConfig{AccountID: accountID, Secret: secret}
	if err := s.db.WithContext(ctx).Create(cfg).Error; err != nil {
		return nil, fmt.Errorf("failed to store two-factor config: %w", err)
	}

	s.logger.Debug("two-factor config created", logging.AccountID(accountID))
	return cfg, nil
}

func (s *Service) Get(ctx context.Context, accountID uuid.UUID) (*TwoFactorConfig, error) {
	var cfg TwoFactorConfig
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("two-factor config missing", logging.AccountID(accountID))
			return nil, apperr.ErrTwoFactorNotConfigured
		}
		return nil, fmt.Errorf("failed to load two-factor config: %w", err)
	}
	return &cfg, nil
}

// IsEnabled reports false for accounts without a config row.
func (s *Service) IsEnabled(ctx context.Context, accountID uuid.UUID) (bool, error) {
	cfg, err := s.Get(ctx, accountID)
	if errors.Is(err, apperr.ErrTwoFactorNotConfigured) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return cfg.Enabled, nil
}

func (s *Service) ProvisioningURI(ctx context.Context, accountID uuid.UUID, label string) (string, error) {
	cfg, err := s.Get(ctx, accountID)
	if err != nil {
		return "", err
	}
	return s.engine.ProvisioningURI(cfg.Secret, label)
}

// Enable confirms setup with the setup window (exact step by default).
// VerifiedAt is only stamped on the first confirmation.
func (s *Service) Enable(ctx context.Context, accountID uuid.UUID, code string) (*TwoFactorConfig, error) {
	cfg, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !s.engine.Verify(cfg.Secret, code, s.config.SetupWindow) {
		s.logger.Warn("two-factor enable rejected: invalid code", logging.AccountID(accountID))
		return nil, apperr.ErrInvalidTotpCode
	}

	updates := map[string]any{"enabled": true}
	if cfg.VerifiedAt == nil {
		now := s.clock.Now()
		updates["verified_at"] = now
		cfg.VerifiedAt = &now
	}
	if err := s.db.WithContext(ctx).Model(cfg).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to enable two-factor: %w", err)
	}
	cfg.Enabled = true

	s.logger.Info("two-factor enabled", logging.AccountID(accountID))
	return cfg, nil
}

// VerifyLogin checks a step-up code with the login window and records it so
// the same code cannot be presented twice.
func (s *Service) VerifyLogin(ctx context.Context, accountID uuid.UUID, code string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cfg TwoFactorConfig
		if err := tx.Where("account_id = ?", accountID).First(&cfg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrTwoFactorNotConfigured
			}
			return fmt.Errorf("failed to load two-factor config: %w", err)
		}

		if !cfg.Enabled {
			return apperr.ErrTwoFactorNotEnabled
		}

		if !s.engine.Verify(cfg.Secret, code, s.config.LoginWindow) {
			s.logger.Warn("two-factor step-up rejected: invalid code", logging.AccountID(accountID))
			return apperr.ErrInvalidTotpCode
		}

		if !s.config.ReplayProtection {
			return nil
		}

		if err := s.consumeCode(ctx, tx, accountID, code); err != nil {
			if errors.Is(err, errCodeReplayed) {
				s.logger.Warn("two-factor step-up rejected: code replayed", logging.AccountID(accountID))
				return apperr.ErrInvalidTotpCode
			}
			return err
		}
		return nil
	})
}

func (s *Service) Disable(ctx context.Context, accountID uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&TwoFactorConfig{}).
		Where("account_id = ?", accountID).
		Update("enabled", false)
	if result.Error != nil {
		return fmt.Errorf("failed to disable two-factor: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// some drivers report only changed rows
		if _, err := s.Get(ctx, accountID); err != nil {
			return err
		}
	}

	s.logger.Info("two-factor disabled", logging.AccountID(accountID))
	return nil
}

// DeleteForAccount removes the config and replay records of an account.
func (s *Service) DeleteForAccount(ctx context.Context, accountID uuid.UUID) error {
	db := s.db.WithContext(ctx)
	if err := db.Where("account_id = ?", accountID).Delete(&UsedCode{}).Error; err != nil {
		return fmt.Errorf("failed to delete used codes: %w", err)
	}
	if err := db.Where("account_id = ?", accountID).Delete(&TwoFactorConfig{}).Error; err != nil {
		return fmt.Errorf("failed to delete two-factor config: %w", err)
	}
	return nil
}
