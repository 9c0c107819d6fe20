package auth

import (
	"context"

	"github.com/tech-arch1tect/accounts/services/logging"
)

type TwoFactorSetup struct {
	ProvisioningURI string `json:"url"`
}

func (s *Service) SetupTwoFactor(ctx context.Context, p *Principal) (*TwoFactorSetup, error) {
	uri, err := s.twoFactor.ProvisioningURI(ctx, p.AccountID(), p.Account.Email)
	if err != nil {
		return nil, err
	}
	return &TwoFactorSetup{ProvisioningURI: uri}, nil
}

// EnableTwoFactor confirms enrollment with an exact current-step code.
func (s *Service) EnableTwoFactor(ctx context.Context, p *Principal, code string) (*Profile, error) {
	if _, err := s.twoFactor.Enable(ctx, p.AccountID(), code); err != nil {
		return nil, err
	}
	s.logger.Info("two-factor enabled", logging.AccountID(p.AccountID()))
	return newProfile(p.Account, true, p.Pending2FA()), nil
}

func (s *Service) DisableTwoFactor(ctx context.Context, p *Principal) (*Profile, error) {
	if err := s.twoFactor.Disable(ctx, p.AccountID()); err != nil {
		return nil, err
	}
	s.logger.Info("two-factor disabled", logging.AccountID(p.AccountID()))
	return newProfile(p.Account, false, p.Pending2FA()), nil
}
