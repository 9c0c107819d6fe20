package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tech-arch1tect/accounts/apperr"
	"github.com/tech-arch1tect/accounts/clock"
	"github.com/tech-arch1tect/accounts/config"
	"github.com/tech-arch1tect/accounts/services/account"
	"github.com/tech-arch1tect/accounts/services/delivery"
	"github.com/tech-arch1tect/accounts/services/jwt"
	"github.com/tech-arch1tect/accounts/services/ledger"
	"github.com/tech-arch1tect/accounts/services/logging"
	"github.com/tech-arch1tect/accounts/services/password"
	"github.com/tech-arch1tect/accounts/services/totp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deliverer hands messages to the background lane. Implementations must not
// block and must not report failures.
type Deliverer interface {
	Deliver(kind delivery.Kind, recipient string, payload delivery.Payload)
}

type Dependencies struct {
	Config    *config.Config
	DB        *gorm.DB
	Accounts  *account.Repository
	Passwords *password.Service
	TwoFactor *totp.Service
	Ledger    *ledger.Service
	Tokens    *jwt.Service
	Delivery  Deliverer
	Clock     clock.Clock
	Logger    *logging.Service
}

// Service drives every account state transition. Each method either fully
// applies or returns an *apperr.Error (or a wrapped storage error).
type Service struct {
	config    *config.Config
	db        *gorm.DB
	accounts  *account.Repository
	passwords *password.Service
	twoFactor *totp.Service
	ledger    *ledger.Service
	tokens    *jwt.Service
	delivery  Deliverer
	clock     clock.Clock
	logger    *logging.Service
}

func NewService(d Dependencies) *Service {
	return &Service{
		config:    d.Config,
		db:        d.DB,
		accounts:  d.Accounts,
		passwords: d.Passwords,
		twoFactor: d.TwoFactor,
		ledger:    d.Ledger,
		tokens:    d.Tokens,
		delivery:  d.Delivery,
		clock:     d.Clock,
		logger:    d.Logger.Named("auth"),
	}
}

type Profile struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	FullName         string     `json:"full_name"`
	EmailVerified    bool       `json:"email_verified"`
	EmailVerifiedAt  *time.Time `json:"email_verified_at"`
	IsAdmin          bool       `json:"is_admin"`
	TwoFactorEnabled bool       `json:"two_fa_enabled"`
	Pending2FA       bool       `json:"pending_2fa"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type Session struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	Pending2FA  bool     `json:"pending_2fa"`
	User        *Profile `json:"user"`
}

func newProfile(a *account.Account, twoFactorEnabled, pending bool) *Profile {
	return &Profile{
		ID:               a.ID.String(),
		Email:            a.Email,
		FullName:         a.FullName,
		EmailVerified:    a.IsVerified(),
		EmailVerifiedAt:  a.EmailVerifiedAt,
		IsAdmin:          a.IsAdmin,
		TwoFactorEnabled: twoFactorEnabled,
		Pending2FA:       pending,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func (s *Service) newSession(a *account.Account, pending, twoFactorEnabled bool) (*Session, error) {
	token, err := s.tokens.Issue(a.ID, pending)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   s.tokens.AccessExpirySeconds(),
		Pending2FA:  pending,
		User:        newProfile(a, twoFactorEnabled, pending),
	}, nil
}

// Authorize validates bearer, loads its account and checks it against tier.
func (s *Service) Authorize(ctx context.Context, bearer string, tier Tier) (*Principal, error) {
	claims, err := s.tokens.Validate(bearer)
	if err != nil {
		return nil, err
	}

	id, err := claims.AccountID()
	if err != nil {
		return nil, err
	}

	acct, err := s.accounts.Get(ctx, id)
	if errors.Is(err, account.ErrNotFound) {
		s.logger.Warn("token subject no longer exists", logging.AccountID(id))
		return nil, apperr.ErrSubjectNotFound
	}
	if err != nil {
		return nil, err
	}

	p := &Principal{Account: acct, Claims: claims}
	if err := p.Require(tier); err != nil {
		s.logger.Debug("trust tier rejected", logging.AccountID(id),
			zap.Stringer("required", tier), zap.Stringer("held", p.Tier()))
		return nil, err
	}
	return p, nil
}

func (s *Service) Me(ctx context.Context, p *Principal) (*Profile, error) {
	enabled, err := s.twoFactor.IsEnabled(ctx, p.AccountID())
	if err != nil {
		return nil, err
	}
	return newProfile(p.Account, enabled, p.Pending2FA()), nil
}

func (s *Service) reload(ctx context.Context, id uuid.UUID, pending bool) (*Profile, error) {
	acct, err := s.accounts.Get(ctx, id)
	if err != nil {
		return nil, accountErr(err)
	}
	enabled, err := s.twoFactor.IsEnabled(ctx, id)
	if err != nil {
		return nil, err
	}
	return newProfile(acct, enabled, pending), nil
}

// accountErr maps a vanished account to its domain error.
func accountErr(err error) error {
	if errors.Is(err, account.ErrNotFound) {
		return apperr.ErrAccountNotFound
	}
	return err
}

func (s *Service) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := s.db.WithContext(ctx).Transaction(fn)
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return fmt.Errorf("transaction failed: %w", err)
}

func expiryHours(d time.Duration) int {
	h := int(d.Hours())
	if h < 1 {
		return 1
	}
	return h
}
