package totp

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TwoFactorConfig is created with every account; Enabled flips only after an
// exact-match confirmation.
type TwoFactorConfig struct {
	ID         uuid.UUID  `json:"id" gorm:"size:36;primaryKey"`
	AccountID  uuid.UUID  `json:"account_id" gorm:"size:36;uniqueIndex;not null"`
	Secret     string     `json:"-" gorm:"size:128;not null"`
	Enabled    bool       `json:"enabled" gorm:"not null;default:false"`
	VerifiedAt *time.Time `json:"verified_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (TwoFactorConfig) TableName() string {
	return "two_factor_configs"
}

func (c *TwoFactorConfig) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
