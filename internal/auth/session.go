package auth

import (
	"context"
	"errors"

	"vitalflow/pkg/types"
)

const SuperAdminID = "superadmin"

var ErrForbidden = errors.New("not permitted for this role")

// Session is the authenticated caller. Exactly one of Donor, BloodBank and
// Camp is set, matching Role; a super-admin session has none.
type Session struct {
	Principal
	Donor     *types.Donor
	BloodBank *types.BloodBank
	Camp      *types.DonationCamp
}

type DonorLookup interface {
	Donor(ctx context.Context, donorID string) (*types.Donor, error)
}

type BloodBankLookup interface {
	BloodBank(ctx context.Context, bankID string) (*types.BloodBank, error)
}

type CampLookup interface {
	Camp(ctx context.Context, campID string) (*types.DonationCamp, error)
}

type Resolver struct {
	donors DonorLookup
	banks  BloodBankLookup
	camps  CampLookup
}

func NewResolver(donors DonorLookup, banks BloodBankLookup, camps CampLookup) *Resolver {
	return &Resolver{donors: donors, banks: banks, camps: camps}
}

// Resolve loads the record behind p. A principal whose record no longer
// exists is reported as ErrInvalidToken.
func (r *Resolver) Resolve(ctx context.Context, p Principal) (*Session, error) {
	s := &Session{Principal: p}

	var err error
	switch p.Role {
	case RoleDonor:
		s.Donor, err = r.donors.Donor(ctx, p.ID)
	case RoleBloodBank:
		s.BloodBank, err = r.banks.BloodBank(ctx, p.ID)
	case RoleCamp:
		s.Camp, err = r.camps.Camp(ctx, p.ID)
	case RoleSuperAdmin:
		if p.ID != SuperAdminID {
			return nil, ErrInvalidToken
		}
	default:
		return nil, ErrInvalidToken
	}

	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return s, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, types.ErrDonorNotFound) ||
		errors.Is(err, types.ErrBloodBankNotFound) ||
		errors.Is(err, types.ErrCampNotFound)
}

// Allows reports whether the session has one of roles.
func (s *Session) Allows(roles ...Role) bool {
	for _, role := range roles {
		if s.Role == role {
			return true
		}
	}
	return false
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok
}
