package ledger

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Kind string

const (
	KindSignup        Kind = "signup"
	KindPasswordReset Kind = "password_reset"
)

// EphemeralToken is a single-use secret. Only the SHA-256 of the value is
// stored; Token is populated on issuance and never persisted.
type EphemeralToken struct {
	ID        uuid.UUID  `json:"id" gorm:"size:36;primaryKey"`
	AccountID uuid.UUID  `json:"account_id" gorm:"size:36;not null;uniqueIndex:idx_ephemeral_tokens_lookup,priority:1"`
	Kind      Kind       `json:"kind" gorm:"size:32;not null;uniqueIndex:idx_ephemeral_tokens_lookup,priority:2"`
	TokenHash string     `json:"-" gorm:"size:64;not null;uniqueIndex:idx_ephemeral_tokens_lookup,priority:3"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null;index"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`

	Token string `json:"-" gorm:"-"`
}

func (EphemeralToken) TableName() string {
	return "ephemeral_tokens"
}

func (t *EphemeralToken) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
