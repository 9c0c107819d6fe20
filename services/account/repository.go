package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tech-arch1tect/accounts/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("account not found")
	ErrEmailTaken = errors.New("email already registered")
)

type Repository struct {
	db     *gorm.DB
	logger *logging.Service
}

func NewRepository(db *gorm.DB, logger *logging.Service) *Repository {
	return &Repository{db: db, logger: logger.Named("account")}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx, logger: r.logger}
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	var a Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return &a, nil
}

// GetByEmail expects an already normalized address.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	var a Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load account by email: %w", err)
	}
	return &a, nil
}

func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Account{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return n > 0, nil
}

func (r *Repository) Insert(ctx context.Context, a *Account) error {
	err := r.db.WithContext(ctx).Create(a).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	r.logger.Info("account created", logging.AccountID(a.ID), logging.Email(a.Email))
	return nil
}

// Update writes only the named columns of a.
func (r *Repository) Update(ctx context.Context, a *Account, fields map[string]any) error {
	result := r.db.WithContext(ctx).Model(a).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkVerified sets the verification time and clears the signup code, once.
// It reports false when the account was already verified or does not exist.
func (r *Repository) MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Account{}).
		Where("id = ? AND email_verified_at IS NULL", id).
		Updates(map[string]any{
			"email_verified_at": at,
			"signup_code":       nil,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark account verified: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		r.logger.Info("account email verified", logging.AccountID(id))
	}
	return result.RowsAffected == 1, nil
}

func (r *Repository) Delete(ctx context.Context, a *Account) error {
	result := r.db.WithContext(ctx).Delete(a)
	if result.Error != nil {
		return fmt.Errorf("failed to delete account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	r.logger.Info("account deleted", logging.AccountID(a.ID), zap.Time("created_at", a.CreatedAt))
	return nil
}
