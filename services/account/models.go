package account

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Account struct {
	ID              uuid.UUID  `json:"id" gorm:"size:36;primaryKey"`
	Email           string     `json:"email" gorm:"size:255;uniqueIndex;not null"`
	FullName        string     `json:"full_name" gorm:"size:255;not null"`
	PasswordHash    string     `json:"-" gorm:"size:255;not null"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	SignupCode      *string    `json:"-" gorm:"size:6"`
	IsAdmin         bool       `json:"is_admin" gorm:"not null;default:false"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

func (a *Account) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *Account) IsVerified() bool {
	return a.EmailVerifiedAt != nil
}
