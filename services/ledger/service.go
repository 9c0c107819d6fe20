package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tech-arch1tect/accounts/clock"
	"github.com/tech-arch1tect/accounts/config"
	"github.com/tech-arch1tect/accounts/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFoundOrExpired = errors.New("token not found, expired or already used")
	ErrUnknownKind       = errors.New("unknown token kind")
)

const issueAttempts = 3

type Service struct {
	config *config.AuthConfig
	db     *gorm.DB
	clock  clock.Clock
	logger *logging.Service
}

func NewService(cfg *config.AuthConfig, db *gorm.DB, clk clock.Clock, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		db:     db,
		clock:  clk,
		logger: logger.Named("ledger"),
	}
}

// WithTx returns a copy whose operations join tx.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	c := *s
	c.db = tx
	return &c
}

func (s *Service) TTL(kind Kind) (time.Duration, error) {
	switch kind {
	case KindSignup:
		return s.config.SignupCodeExpiry, nil
	case KindPasswordReset:
		return s.config.PasswordResetExpiry, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

func (s *Service) generate(kind Kind) (string, error) {
	if kind == KindSignup {
		return GenerateSignupCode()
	}
	return GenerateOpaqueToken(s.config.ResetTokenBytes)
}

// Issue creates a token of kind for accountID valid for the configured TTL.
// The plaintext is only available on the returned record.
func (s *Service) Issue(ctx context.Context, accountID uuid.UUID, kind Kind) (*EphemeralToken, error) {
	ttl, err := s.TTL(kind)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	for attempt := 1; ; attempt++ {
		value, err := s.generate(kind)
		if err != nil {
			return nil, err
		}

		record := &EphemeralToken{
			AccountID: accountID,
			Kind:      kind,
			TokenHash: hashToken(value),
			ExpiresAt: now.Add(ttl),
			CreatedAt: now,
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Create(record).Error
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < issueAttempts {
			// same account drew the same code twice
			continue
		}
		if err != nil {
			s.logger.Error("failed to store ephemeral token", zap.Error(err),
				logging.AccountID(accountID), zap.String("kind", string(kind)))
			return nil, fmt.Errorf("failed to store token: %w", err)
		}

		record.Token = value
		s.logger.Debug("ephemeral token issued", logging.AccountID(accountID),
			zap.String("kind", string(kind)), zap.Time("expires_at", record.ExpiresAt))
		return record, nil
	}
}

// Redeem consumes token for accountID in a single conditional update, so of
// any number of concurrent callers exactly one succeeds.
func (s *Service) Redeem(ctx context.Context, token string, accountID uuid.UUID, kind Kind) (*EphemeralToken, error) {
	if token == "" {
		return nil, ErrNotFoundOrExpired
	}

	now := s.clock.Now()
	hash := hashToken(token)
	db := s.db.WithContext(ctx)

	result := db.Model(&EphemeralToken{}).
		Where("account_id = ? AND kind = ? AND token_hash = ? AND used_at IS NULL AND expires_at > ?",
			accountID, kind, hash, now).
		Update("used_at", now)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to redeem token: %w", result.Error)
	}
	if result.RowsAffected != 1 {
		s.logger.Warn("ephemeral token redemption rejected", logging.AccountID(accountID),
			zap.String("kind", string(kind)))
		return nil, ErrNotFoundOrExpired
	}

	var record EphemeralToken
	if err := db.Where("account_id = ? AND kind = ? AND token_hash = ?", accountID, kind, hash).
		First(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to load redeemed token: %w", err)
	}

	s.logger.Info("ephemeral token redeemed", logging.AccountID(accountID),
		zap.String("kind", string(kind)))
	return &record, nil
}

// Active reports whether token is currently redeemable, without consuming it.
func (s *Service) Active(ctx context.Context, token string, accountID uuid.UUID, kind Kind) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&EphemeralToken{}).
		Where("account_id = ? AND kind = ? AND token_hash = ? AND used_at IS NULL AND expires_at > ?",
			accountID, kind, hashToken(token), s.clock.Now()).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up token: %w", err)
	}
	return n > 0, nil
}

// Invalidate marks every unused token of kind for accountID as used.
func (s *Service) Invalidate(ctx context.Context, accountID uuid.UUID, kind Kind) (int64, error) {
	result := s.db.WithContext(ctx).Model(&EphemeralToken{}).
		Where("account_id = ? AND kind = ? AND used_at IS NULL", accountID, kind).
		Update("used_at", s.clock.Now())
	if result.Error != nil {
		return 0, fmt.Errorf("failed to invalidate tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *Service) DeleteForAccount(ctx context.Context, accountID uuid.UUID) error {
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&EphemeralToken{}).Error; err != nil {
		return fmt.Errorf("failed to delete tokens: %w", err)
	}
	return nil
}
