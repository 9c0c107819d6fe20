package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/tech-arch1tect/accounts/apperr"
	"github.com/tech-arch1tect/accounts/services/account"
	"github.com/tech-arch1tect/accounts/services/delivery"
	"github.com/tech-arch1tect/accounts/services/ledger"
	"github.com/tech-arch1tect/accounts/services/logging"
	"gorm.io/gorm"
)

const PasswordResetRequested = "Password reset email sent"

// RequestPasswordReset reports success whether or not the email is known.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	normalized, err := account.ValidateEmail(email)
	if err != nil {
		return err
	}

	acct, err := s.accounts.GetByEmail(ctx, normalized)
	if errors.Is(err, account.ErrNotFound) {
		s.logger.Info("password reset requested for unknown email", logging.Email(normalized))
		return nil
	}
	if err != nil {
		return err
	}

	issued, err := s.ledger.Issue(ctx, acct.ID, ledger.KindPasswordReset)
	if err != nil {
		return err
	}

	s.logger.Info("password reset issued", logging.AccountID(acct.ID))
	s.delivery.Deliver(delivery.KindPasswordReset, acct.Email, delivery.Payload{
		"Name":        acct.FullName,
		"ResetURL":    s.resetURL(issued.Token, acct.ID),
		"ExpiryHours": expiryHours(s.config.Auth.PasswordResetExpiry),
	})
	return nil
}

func (s *Service) resetURL(token string, id uuid.UUID) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("user_id", id.String())
	return strings.TrimRight(s.config.App.URL, "/") + "/verify-forgot-password?" + q.Encode()
}

type ResetPasswordInput struct {
	Token       string
	AccountID   uuid.UUID
	NewPassword string
}

// ResetPassword consumes a reset token and stores the new password in the
// same transaction. No session is required.
func (s *Service) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if in.Token == "" || in.AccountID == uuid.Nil {
		return apperr.ErrInvalidPasswordResetToken
	}
	if err := s.passwords.Validate(in.NewPassword); err != nil {
		return err
	}
	hash, err := s.passwords.Hash(in.NewPassword)
	if err != nil {
		return err
	}

	var acct *account.Account
	err = s.inTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.ledger.WithTx(tx).Redeem(ctx, in.Token, in.AccountID, ledger.KindPasswordReset); err != nil {
			if errors.Is(err, ledger.ErrNotFoundOrExpired) {
				return apperr.ErrInvalidPasswordResetToken
			}
			return err
		}
		accounts := s.accounts.WithTx(tx)
		found, err := accounts.Get(ctx, in.AccountID)
		if err != nil {
			if errors.Is(err, account.ErrNotFound) {
				return apperr.ErrInvalidPasswordResetToken
			}
			return err
		}
		acct = found
		return accountErr(accounts.Update(ctx, acct, map[string]any{"password_hash": hash}))
	})
	if err != nil {
		return err
	}

	s.logger.Info("password reset completed", logging.AccountID(acct.ID))
	s.delivery.Deliver(delivery.KindPasswordResetSuccess, acct.Email, delivery.Payload{
		"Name": acct.FullName,
	})
	return nil
}
