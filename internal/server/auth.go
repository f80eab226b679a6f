package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"vitalflow/internal/auth"
)

// sessionPayload is returned by every login, registration and refresh.
type sessionPayload struct {
	Account any `json:"account"`
	auth.TokenPair
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *credentials) validate() error {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if c.Email == "" || c.Password == "" {
		return statusError(http.StatusBadRequest, "email and password are required")
	}
	return nil
}

// startSession issues a token pair for principal, sets both cookies and
// writes the account with the tokens.
func (s *Service) startSession(w http.ResponseWriter, r *http.Request, status int, principal auth.Principal, account any, message string) {
	pair, err := s.Issuer.Issue(principal)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.setTokenCookie(w, cookieAccessToken, pair.AccessToken, s.Issuer.AccessTTL()); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.setTokenCookie(w, cookieRefreshToken, pair.RefreshToken, s.Issuer.RefreshTTL()); err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, status, sessionPayload{Account: account, TokenPair: pair}, message)
}

func (s *Service) setTokenCookie(w http.ResponseWriter, name, token string, age time.Duration) error {
	encoded, err := s.cookie.Encode(name, token)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    encoded,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   int(age.Seconds()),
		Path:     "/",
	})
	return nil
}

func (s *Service) clearTokenCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearTokenCookie(w, cookieAccessToken)
	s.clearTokenCookie(w, cookieRefreshToken)
	s.respond(w, http.StatusOK, nil, "Logged out successfully")
}

// handleRefresh exchanges a refresh token belonging to role for a new pair.
func (s *Service) handleRefresh(role auth.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := s.tokenFromRequest(r, cookieRefreshToken)
		if !ok {
			s.fail(w, r, auth.ErrInvalidToken)
			return
		}

		principal, err := s.Issuer.ParseRefresh(raw)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if principal.Role != role {
			s.fail(w, r, auth.ErrInvalidToken)
			return
		}

		session, err := s.Resolver.Resolve(r.Context(), principal)
		if err != nil {
			s.fail(w, r, err)
			return
		}

		s.startSession(w, r, http.StatusOK, session.Principal, s.sessionAccount(session), "Access token refreshed successfully")
	}
}

// sessionAccount is the record shown for the signed-in caller. The super
// admin has no row, so its email comes from config rather than the token.
func (s *Service) sessionAccount(session *auth.Session) any {
	switch session.Role {
	case auth.RoleDonor:
		return session.Donor
	case auth.RoleBloodBank:
		return session.BloodBank
	case auth.RoleCamp:
		return session.Camp
	}
	return superAdminAccount{Email: strings.ToLower(s.config.SuperAdminEmail), Role: session.Role}
}

type superAdminAccount struct {
	Email string    `json:"email"`
	Role  auth.Role `json:"role"`
}

func (s *Service) handleSuperAdminLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := creds.validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	if s.config.SuperAdminEmail == "" || !superAdminMatches(s.config.SuperAdminEmail, s.config.SuperAdminPassword, creds) {
		s.fail(w, r, auth.ErrInvalidCredentials)
		return
	}

	principal := auth.Principal{Role: auth.RoleSuperAdmin, ID: auth.SuperAdminID, Email: creds.Email}
	s.startSession(w, r, http.StatusOK, principal, superAdminAccount{Email: creds.Email, Role: auth.RoleSuperAdmin}, "Super Admin logged in successfully")
}

func superAdminMatches(email, password string, creds credentials) bool {
	emailOK := subtle.ConstantTimeCompare([]byte(strings.ToLower(email)), []byte(creds.Email)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(creds.Password)) == 1
	return emailOK && passwordOK
}

func (s *Service) handleGetSuperAdmin(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.sessionAccount(s.session(r)), "Super Admin fetched successfully")
}
