package auth

import (
	"github.com/google/uuid"
	"github.com/tech-arch1tect/accounts/apperr"
	"github.com/tech-arch1tect/accounts/services/account"
	"github.com/tech-arch1tect/accounts/services/jwt"
)

type Tier int

const (
	// TierUnverified accepts any valid token, including pending_2fa ones.
	TierUnverified Tier = iota
	// TierFull needs a verified email and no outstanding second factor.
	TierFull
	// TierElevated is TierFull on an admin account.
	TierElevated
)

func (t Tier) String() string {
	switch t {
	case TierUnverified:
		return "unverified"
	case TierFull:
		return "full"
	case TierElevated:
		return "elevated"
	default:
		return "unknown"
	}
}

// Principal is an authenticated bearer: the validated claims plus the
// account they name, loaded at request time.
type Principal struct {
	Account *account.Account
	Claims  *jwt.Claims
}

func (p *Principal) AccountID() uuid.UUID {
	return p.Account.ID
}

func (p *Principal) Pending2FA() bool {
	return p.Claims != nil && p.Claims.Pending2FA
}

// Tier is the highest tier the principal satisfies.
func (p *Principal) Tier() Tier {
	switch {
	case !p.Account.IsVerified() || p.Pending2FA():
		return TierUnverified
	case p.Account.IsAdmin:
		return TierElevated
	default:
		return TierFull
	}
}

// Require is the single place trust tiers are decided.
func (p *Principal) Require(tier Tier) error {
	if tier <= TierUnverified {
		return nil
	}
	if !p.Account.IsVerified() {
		return apperr.ErrEmailNotVerified
	}
	if p.Pending2FA() {
		return apperr.ErrTwoFactorRequired
	}
	if tier >= TierElevated && !p.Account.IsAdmin {
		return apperr.ErrAdminRequired
	}
	return nil
}
