package auth

import (
	"context"

	"github.com/tech-arch1tect/accounts/apperr"
	"github.com/tech-arch1tect/accounts/services/account"
	"github.com/tech-arch1tect/accounts/services/logging"
	"gorm.io/gorm"
)

type ProfileUpdate struct {
	FullName *string
}

func (s *Service) UpdateProfile(ctx context.Context, p *Principal, in ProfileUpdate) (*Profile, error) {
	fields := map[string]any{}
	if in.FullName != nil {
		name, err := account.ValidateFullName(*in.FullName)
		if err != nil {
			return nil, err
		}
		fields["full_name"] = name
	}

	if len(fields) > 0 {
		if err := s.accounts.Update(ctx, p.Account, fields); err != nil {
			return nil, accountErr(err)
		}
	}
	return s.reload(ctx, p.AccountID(), p.Pending2FA())
}

func (s *Service) ChangePassword(ctx context.Context, p *Principal, current, next string) error {
	if !s.passwords.Verify(current, p.Account.PasswordHash) {
		return apperr.ErrInvalidPasswordChange
	}
	if err := s.passwords.Validate(next); err != nil {
		return err
	}
	hash, err := s.passwords.Hash(next)
	if err != nil {
		return err
	}
	if err := s.accounts.Update(ctx, p.Account, map[string]any{"password_hash": hash}); err != nil {
		return accountErr(err)
	}
	s.logger.Info("password changed", logging.AccountID(p.AccountID()))
	return nil
}

// DeleteAccount removes the account along with its two-factor config and
// ephemeral tokens.
func (s *Service) DeleteAccount(ctx context.Context, p *Principal) error {
	id := p.AccountID()
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := s.ledger.WithTx(tx).DeleteForAccount(ctx, id); err != nil {
			return err
		}
		if err := s.twoFactor.WithTx(tx).DeleteForAccount(ctx, id); err != nil {
			return err
		}
		return accountErr(s.accounts.WithTx(tx).Delete(ctx, p.Account))
	})
	if err != nil {
		return err
	}
	s.logger.Info("account deleted", logging.AccountID(id))
	return nil
}
