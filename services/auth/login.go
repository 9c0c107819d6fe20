package auth

import (
	"context"
	"errors"

	"github.com/tech-arch1tect/accounts/apperr"
	"github.com/tech-arch1tect/accounts/services/account"
	"github.com/tech-arch1tect/accounts/services/logging"
)

// Login checks credentials. Accounts with two-factor enabled receive a
// pending_2fa session that only the step-up accepts.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	normalized := account.NormalizeEmail(email)

	acct, err := s.accounts.GetByEmail(ctx, normalized)
	if errors.Is(err, account.ErrNotFound) {
		s.passwords.Burn(password)
		s.logger.Info("login failed", logging.Email(normalized))
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !s.passwords.Verify(password, acct.PasswordHash) {
		s.logger.Info("login failed", logging.AccountID(acct.ID))
		return nil, apperr.ErrInvalidCredentials
	}

	enabled, err := s.twoFactor.IsEnabled(ctx, acct.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("login succeeded", logging.AccountID(acct.ID))
	return s.newSession(acct, enabled, enabled)
}

// VerifySecondFactor is the step-up. A valid code mints a new session
// without pending_2fa; the presented token is left untouched.
func (s *Service) VerifySecondFactor(ctx context.Context, p *Principal, code string) (*Session, error) {
	if err := s.twoFactor.VerifyLogin(ctx, p.AccountID(), code); err != nil {
		s.logger.Info("second factor rejected", logging.AccountID(p.AccountID()))
		return nil, err
	}
	return s.newSession(p.Account, false, true)
}
