package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

type Role string

const (
	RoleDonor      Role = "donor"
	RoleBloodBank  Role = "bloodBank"
	RoleCamp       Role = "camp"
	RoleSuperAdmin Role = "superAdmin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleDonor, RoleBloodBank, RoleCamp, RoleSuperAdmin:
		return true
	}
	return false
}

const (
	claimRole  = "role"
	claimEmail = "email"
	claimType  = "typ"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Principal is the identity carried by a session token.
type Principal struct {
	Role  Role
	ID    string
	Email string
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type IssuerConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

type Issuer struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(cfg IssuerConfig) *Issuer {
	return &Issuer{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
}

func (i *Issuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

func (i *Issuer) Issue(p Principal) (TokenPair, error) {
	access, err := i.sign(p, tokenTypeAccess, i.accessKey, i.accessTTL, true)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := i.sign(p, tokenTypeRefresh, i.refreshKey, i.refreshTTL, false)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *Issuer) sign(p Principal, typ string, key []byte, ttl time.Duration, withEmail bool) (string, error) {
	now := i.now()

	b := jwt.NewBuilder().
		Subject(p.ID).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		Claim(claimRole, string(p.Role)).
		Claim(claimType, typ)
	if withEmail && p.Email != "" {
		b = b.Claim(claimEmail, p.Email)
	}

	token, err := b.Build()
	if err != nil {
		return "", err
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), key))
	if err != nil {
		return "", err
	}

	return string(signed), nil
}

func (i *Issuer) ParseAccess(raw string) (Principal, error) {
	return i.parse(raw, tokenTypeAccess, i.accessKey)
}

func (i *Issuer) ParseRefresh(raw string) (Principal, error) {
	return i.parse(raw, tokenTypeRefresh, i.refreshKey)
}

func (i *Issuer) parse(raw, typ string, key []byte) (Principal, error) {
	token, err := jwt.Parse(
		[]byte(raw),
		jwt.WithKey(jwa.HS256(), key),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(i.now)),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var gotType string
	if err := token.Get(claimType, &gotType); err != nil || gotType != typ {
		return Principal{}, ErrInvalidToken
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return Principal{}, ErrInvalidToken
	}

	var role string
	if err := token.Get(claimRole, &role); err != nil || !Role(role).Valid() {
		return Principal{}, ErrInvalidToken
	}

	p := Principal{Role: Role(role), ID: subject}

	// email is only present on access tokens
	var email string
	if err := token.Get(claimEmail, &email); err == nil {
		p.Email = email
	}

	return p, nil
}
