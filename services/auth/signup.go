package auth

import (
	"context"
	"errors"

	"github.com/tech-arch1tect/accounts/apperr"
	"github.com/tech-arch1tect/accounts/services/account"
	"github.com/tech-arch1tect/accounts/services/delivery"
	"github.com/tech-arch1tect/accounts/services/ledger"
	"github.com/tech-arch1tect/accounts/services/logging"
	"gorm.io/gorm"
)

type SignupInput struct {
	Email    string
	Password string
	FullName string
}

// Signup creates an unverified account with its two-factor config and a
// signup code, then returns an unverified-tier session.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	email, err := account.ValidateEmail(in.Email)
	if err != nil {
		return nil, err
	}
	fullName, err := account.ValidateFullName(in.FullName)
	if err != nil {
		return nil, err
	}
	if err := s.passwords.Validate(in.Password); err != nil {
		return nil, err
	}

	exists, err := s.accounts.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.ErrEmailAlreadyExists
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	acct := &account.Account{Email: email, FullName: fullName, PasswordHash: hash}
	var code string
	err = s.inTx(ctx, func(tx *gorm.DB) error {
		accounts := s.accounts.WithTx(tx)
		if err := accounts.Insert(ctx, acct); err != nil {
			if errors.Is(err, account.ErrEmailTaken) {
				return apperr.ErrEmailAlreadyExists
			}
			return err
		}
		if _, err := s.twoFactor.WithTx(tx).Create(ctx, acct.ID); err != nil {
			return err
		}
		issued, err := s.ledger.WithTx(tx).Issue(ctx, acct.ID, ledger.KindSignup)
		if err != nil {
			return err
		}
		code = issued.Token
		return accountErr(accounts.Update(ctx, acct, map[string]any{"signup_code": code}))
	})
	if err != nil {
		return nil, err
	}
	acct.SignupCode = &code

	s.sendVerification(acct, code)

	return s.newSession(acct, false, false)
}

// VerifySignup redeems a signup code for the principal's account.
func (s *Service) VerifySignup(ctx context.Context, p *Principal, code string) (*Profile, error) {
	if !ledger.IsSignupCode(code) {
		return nil, apperr.ErrInvalidSignupToken
	}
	if p.Account.IsVerified() {
		return nil, apperr.ErrUserAlreadyVerified
	}

	id := p.AccountID()
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.ledger.WithTx(tx).Redeem(ctx, code, id, ledger.KindSignup); err != nil {
			if errors.Is(err, ledger.ErrNotFoundOrExpired) {
				return apperr.ErrInvalidVerificationCode
			}
			return err
		}
		marked, err := s.accounts.WithTx(tx).MarkVerified(ctx, id, s.clock.Now())
		if err != nil {
			return err
		}
		if !marked {
			return apperr.ErrUserAlreadyVerified
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	profile, err := s.reload(ctx, id, p.Pending2FA())
	if err != nil {
		return nil, err
	}

	s.delivery.Deliver(delivery.KindWelcome, profile.Email, delivery.Payload{
		"Name": profile.FullName,
	})
	return profile, nil
}

// ResendVerification re-delivers the active signup code, or supersedes it
// with a fresh one when it has expired.
func (s *Service) ResendVerification(ctx context.Context, p *Principal) error {
	if p.Account.IsVerified() {
		return apperr.ErrUserAlreadyVerified
	}

	acct := p.Account
	id := p.AccountID()
	var code string
	if acct.SignupCode != nil {
		active, err := s.ledger.Active(ctx, *acct.SignupCode, id, ledger.KindSignup)
		if err != nil {
			return err
		}
		if active {
			code = *acct.SignupCode
		}
	}

	if code == "" {
		err := s.inTx(ctx, func(tx *gorm.DB) error {
			codes := s.ledger.WithTx(tx)
			if _, err := codes.Invalidate(ctx, id, ledger.KindSignup); err != nil {
				return err
			}
			issued, err := codes.Issue(ctx, id, ledger.KindSignup)
			if err != nil {
				return err
			}
			code = issued.Token
			return accountErr(s.accounts.WithTx(tx).Update(ctx, acct, map[string]any{"signup_code": code}))
		})
		if err != nil {
			return err
		}
		acct.SignupCode = &code
		s.logger.Info("signup code reissued", logging.AccountID(id))
	}

	s.sendVerification(acct, code)
	return nil
}

func (s *Service) sendVerification(a *account.Account, code string) {
	s.delivery.Deliver(delivery.KindSignupVerification, a.Email, delivery.Payload{
		"Name":        a.FullName,
		"Code":        code,
		"ExpiryHours": expiryHours(s.config.Auth.SignupCodeExpiry),
	})
}
