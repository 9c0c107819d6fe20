package totp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tech-arch1tect/accounts/services/logging"
	"gorm.io/gorm"
)

var errCodeReplayed = errors.New("totp code already used")

// UsedCode records accepted step-up codes so they cannot be replayed while
// still inside the validity window.
type UsedCode struct {
	ID        uint      `gorm:"primaryKey"`
	AccountID uuid.UUID `gorm:"size:36;not null;uniqueIndex:idx_used_code_account_code,priority:1"`
	Code      string    `gorm:"size:16;not null;uniqueIndex:idx_used_code_account_code,priority:2"`
	UsedAt    time.Time `gorm:"not null;index"`
}

func (UsedCode) TableName() string {
	return "totp_used_codes"
}

// consumeCode must run inside a transaction.
func (s *Service) consumeCode(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, code string) error {
	now := s.clock.Now()
	cutoff := now.Add(-s.replayWindow())

	if err := tx.WithContext(ctx).
		Where("account_id = ? AND used_at < ?", accountID, cutoff).
		Delete(&UsedCode{}).Error; err != nil {
		return fmt.Errorf("failed to prune used codes: %w", err)
	}

	var seen int64
	if err := tx.WithContext(ctx).Model(&UsedCode{}).
		Where("account_id = ? AND code = ?", accountID, code).
		Count(&seen).Error; err != nil {
		return fmt.Errorf("failed to check used codes: %w", err)
	}
	if seen > 0 {
		return errCodeReplayed
	}

	err := tx.WithContext(ctx).Create(&UsedCode{AccountID: accountID, Code: code, UsedAt: now}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errCodeReplayed
	}
	if err != nil {
		return fmt.Errorf("failed to record used code: %w", err)
	}
	return nil
}

func (s *Service) replayWindow() time.Duration {
	steps := 2*s.config.LoginWindow + 1
	return time.Duration(steps) * s.engine.Period()
}

// PurgeUsedCodes drops replay records older than the validity window.
func (s *Service) PurgeUsedCodes(ctx context.Context) (int64, error) {
	cutoff := s.clock.Now().Add(-s.replayWindow())
	result := s.db.WithContext(ctx).Where("used_at < ?", cutoff).Delete(&UsedCode{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge used codes: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		s.logger.Info("purged used totp codes", logging.Count(result.RowsAffected))
	}
	return result.RowsAffected, nil
}
