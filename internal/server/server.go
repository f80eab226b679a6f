package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"vitalflow/internal/assistant"
	"vitalflow/internal/auth"
	"vitalflow/internal/ledger"
	"vitalflow/internal/otp"
	"vitalflow/internal/ratelimit"
	"vitalflow/internal/storage"
	"vitalflow/internal/store"
	"vitalflow/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

// Deps are the collaborators the HTTP layer dispatches to. Assistant and
// Documents are optional; their routes answer 503 when unset.
type Deps struct {
	Donors     *store.DonorRepository
	BloodBanks *store.BloodBankRepository
	Camps      *store.CampRepository

	Ledger    *ledger.Service
	OTP       *otp.Service
	Assistant *assistant.Service
	Documents *storage.S3Storage

	Issuer   *auth.Issuer
	Resolver *auth.Resolver
	Limiter  *ratelimit.Limiter
}

type Service struct {
	Deps

	logger *logrus.Logger
	config *types.Config
	cookie *securecookie.SecureCookie

	server *http.Server
}

func New(config *types.Config, logger *logrus.Logger, deps Deps) (*Service, error) {
	mux := flow.New()

	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil {
		return nil, fmt.Errorf("decode cookie hash key: %w", err)
	}
	blockKey, err := base64.StdEncoding.DecodeString(config.CookieBlockKey)
	if err != nil {
		return nil, fmt.Errorf("decode cookie block key: %w", err)
	}

	s := &Service{
		Deps:   deps,
		logger: logger,
		config: config,
		cookie: securecookie.New(hashKey, blockKey),
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)
	// Preflight and trailing-slash requests never match a route, so these
	// wrap the router instead of being registered on it.
	s.server.Handler = s.CORS(s.StripTrailingSlash(mux))

	return s, nil
}

func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) Start() error {
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RateLimit(s.config.RateLimitRouteMax))

		r.HandleFunc("/api/v1/bloodbank/send-register-otp", s.handleBloodBankSendOTP, http.MethodPost)
		r.HandleFunc("/api/v1/bloodbank/verify-otp", s.handleVerifyEmailOTP, http.MethodPost)
		r.HandleFunc("/api/v1/bloodbank/register", s.handleBloodBankRegister, http.MethodPost)
		r.HandleFunc("/api/v1/bloodbank/login", s.handleBloodBankLogin, http.MethodPost)
		r.HandleFunc("/api/v1/bloodbank/refresh-token", s.handleRefresh(auth.RoleBloodBank), http.MethodGet)

		r.HandleFunc("/api/v1/donor/send-phone-otp", s.handleDonorSendOTP(types.OTPChannelPhone), http.MethodPost)
		r.HandleFunc("/api/v1/donor/send-email-otp", s.handleDonorSendOTP(types.OTPChannelEmail), http.MethodPost)
		r.HandleFunc("/api/v1/donor/verify-otp", s.handleDonorVerifyOTP, http.MethodPost)
		r.HandleFunc("/api/v1/donor/register-doner", s.handleDonorRegister, http.MethodPost)
		r.HandleFunc("/api/v1/donor/send-login-otp", s.handleDonorSendLoginOTP, http.MethodPost)
		r.HandleFunc("/api/v1/donor/login-donor", s.handleDonorLogin, http.MethodPost)
		r.HandleFunc("/api/v1/donor/refresh-token", s.handleRefresh(auth.RoleDonor), http.MethodGet)

		r.HandleFunc("/api/v1/camp/send-register-otp", s.handleCampSendOTP, http.MethodPost)
		r.HandleFunc("/api/v1/camp/verify-otp", s.handleVerifyEmailOTP, http.MethodPost)
		r.HandleFunc("/api/v1/camp/register", s.handleCampRegister, http.MethodPost)
		r.HandleFunc("/api/v1/camp/login", s.handleCampLogin, http.MethodPost)
		r.HandleFunc("/api/v1/camp/refresh-token", s.handleRefresh(auth.RoleCamp), http.MethodGet)
		r.HandleFunc("/api/v1/camp/get-blood-banks", s.handleApprovedBloodBanks, http.MethodGet)

		r.HandleFunc("/api/v1/superadmin/login", s.handleSuperAdminLogin, http.MethodPost)

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireRole(auth.RoleBloodBank))

			r.HandleFunc("/api/v1/bloodbank/get-blood-bank", s.handleGetBloodBank, http.MethodGet)
			r.HandleFunc("/api/v1/bloodbank/logout", s.handleLogout, http.MethodGet)
			r.HandleFunc("/api/v1/bloodbank/get-camps", s.handleGetCamps, http.MethodGet)
			r.HandleFunc("/api/v1/bloodbank/change-camp-status", s.handleChangeCampStatus, http.MethodPut)
			r.HandleFunc("/api/v1/bloodbank/assign-recipient", s.handleAssignRecipient, http.MethodPut)
			r.HandleFunc("/api/v1/bloodbank/extract-components", s.handleExtractComponents, http.MethodPut)
			r.HandleFunc("/api/v1/bloodbank/get-available-quantity", s.handleAvailableQuantity, http.MethodGet)
			r.HandleFunc("/api/v1/bloodbank/donations", s.handleBankDonations, http.MethodGet)
			r.HandleFunc("/api/v1/bloodbank/license-document", s.handleUploadLicense, http.MethodPost)
			r.HandleFunc("/api/v1/chat/blood-bank-chat", s.handleChat, http.MethodPost)
		})

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireRole(auth.RoleDonor))

			r.HandleFunc("/api/v1/donor/get-donor", s.handleGetDonor, http.MethodGet)
			r.HandleFunc("/api/v1/donor/logout", s.handleLogout, http.MethodGet)
			r.HandleFunc("/api/v1/donor/donations", s.handleDonorDonations, http.MethodGet)
		})

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireRole(auth.RoleCamp))

			r.HandleFunc("/api/v1/camp/get-camp", s.handleGetCamp, http.MethodGet)
			r.HandleFunc("/api/v1/camp/logout", s.handleLogout, http.MethodGet)
			r.HandleFunc("/api/v1/camp/record-donation", s.handleRecordDonation, http.MethodPost)
			r.HandleFunc("/api/v1/chat/camp-chat", s.handleChat, http.MethodPost)
		})

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireRole(auth.RoleSuperAdmin))

			r.HandleFunc("/api/v1/superadmin/get-super-admin", s.handleGetSuperAdmin, http.MethodGet)
			r.HandleFunc("/api/v1/superadmin/get-blood-banks", s.handleAdminBloodBanks, http.MethodGet)
			r.HandleFunc("/api/v1/superadmin/change-blood-bank-status", s.handleChangeBloodBankStatus, http.MethodPut)
			r.HandleFunc("/api/v1/superadmin/logout", s.handleLogout, http.MethodGet)
		})

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireRole(auth.RoleBloodBank, auth.RoleCamp))

			r.HandleFunc("/api/v1/chat/get-chat-history", s.handleChatHistory, http.MethodGet)
			r.HandleFunc("/api/v1/chat/remove-chat-context", s.handleClearChatContext, http.MethodPut)
		})
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"}, "")
}
