package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"vitalflow/internal/auth"
	"vitalflow/internal/cache"
	"vitalflow/internal/ledger"
	"vitalflow/internal/otp"
	"vitalflow/internal/ratelimit"
	"vitalflow/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecords struct {
	mu        sync.Mutex
	donors    map[string]*types.Donor
	banks     map[string]*types.BloodBank
	camps     map[string]*types.DonationCamp
	donations map[string]*types.Donation
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		donors:    map[string]*types.Donor{},
		banks:     map[string]*types.BloodBank{},
		camps:     map[string]*types.DonationCamp{},
		donations: map[string]*types.Donation{},
	}
}

func (f *fakeRecords) Donor(_ context.Context, id string) (*types.Donor, error) {
	if d, ok := f.donors[id]; ok {
		return d, nil
	}
	return nil, types.ErrDonorNotFound
}

func (f *fakeRecords) BloodBank(_ context.Context, id string) (*types.BloodBank, error) {
	if b, ok := f.banks[id]; ok {
		return b, nil
	}
	return nil, types.ErrBloodBankNotFound
}

func (f *fakeRecords) Camp(_ context.Context, id string) (*types.DonationCamp, error) {
	if c, ok := f.camps[id]; ok {
		return c, nil
	}
	return nil, types.ErrCampNotFound
}

func (f *fakeRecords) Donation(_ context.Context, id string) (*types.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.donations[id]
	if !ok {
		return nil, types.ErrDonationNotFound
	}
	c := *d
	c.Recipients = append([]types.Recipient(nil), d.Recipients...)
	return &c, nil
}

func (f *fakeRecords) DonationsByDonor(_ context.Context, donorID string) ([]*types.Donation, error) {
	return nil, nil
}

func (f *fakeRecords) DonationsByBank(_ context.Context, bankID string) ([]*types.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Donation
	for _, d := range f.donations {
		if d.BloodBankID == bankID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRecords) Create(_ context.Context, d *types.Donation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.donations[d.ID] = d
	return nil
}

func (f *fakeRecords) SaveRevision(_ context.Context, d *types.Donation, expected int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.donations[d.ID].Revision != expected {
		return types.ErrRevisionConflict
	}
	d.Revision = expected + 1
	f.donations[d.ID] = d
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testKey(n int) string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", n)))
}

type testServer struct {
	*Service
	records *fakeRecords
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mem, err := cache.NewMemory(128)
	require.NoError(t, err)

	records := newFakeRecords()
	logger := quietLogger()
	config := &types.Config{
		CookieHashKey:     testKey(32),
		CookieBlockKey:    testKey(32),
		RateLimitRouteMax: 50,
		CORSOrigins:       []string{"https://app.vitalflow.test"},
	}

	svc, err := New(config, logger, Deps{
		Ledger: ledger.NewService(records, records, records, logger),
		OTP:    otp.NewService(nil, nil, logger),
		Issuer: auth.NewIssuer(auth.IssuerConfig{
			AccessSecret:  "access-secret",
			AccessTTL:     time.Hour,
			RefreshSecret: "refresh-secret",
			RefreshTTL:    24 * time.Hour,
		}),
		Resolver: auth.NewResolver(records, records, records),
		Limiter:  ratelimit.New(mem, time.Minute, 2),
	})
	require.NoError(t, err)

	return &testServer{Service: svc, records: records}
}

func (ts *testServer) token(t *testing.T, role auth.Role, id string) string {
	t.Helper()
	pair, err := ts.Issuer.Issue(auth.Principal{Role: role, ID: id})
	require.NoError(t, err)
	return pair.AccessToken
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.9:5000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &ledger.ValidationError{Field: "donationId", Message: "is required"}, http.StatusBadRequest},
		{"field errors", fieldErrors{"email": "bad"}, http.StatusBadRequest},
		{"not found", fmt.Errorf("load: %w", types.ErrDonationNotFound), http.StatusNotFound},
		{"recipient not found", types.ErrRecipientNotFound, http.StatusNotFound},
		{"insufficient", &ledger.InsufficientQuantityError{Component: types.ComponentPlasma, Remaining: 10}, http.StatusConflict},
		{"exceeds donated", ledger.ErrExceedsDonatedQuantity, http.StatusConflict},
		{"extraction below allocated", fmt.Errorf("%w: plasma", ledger.ErrExtractionBelowAllocated), http.StatusConflict},
		{"revision conflict", ledger.ErrRevisionConflict, http.StatusConflict},
		{"duplicate", fmt.Errorf("create donor: %w", types.ErrAlreadyExists), http.StatusConflict},
		{"invalid component", ledger.ErrInvalidComponent, http.StatusUnprocessableEntity},
		{"not whole blood", ledger.ErrNotWholeBlood, http.StatusUnprocessableEntity},
		{"bad token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"bad password", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"wrong role", auth.ErrForbidden, http.StatusForbidden},
		{"camp not approved", ledger.ErrCampNotApproved, http.StatusForbidden},
		{"otp pending", otp.ErrOTPAlreadySent, http.StatusConflict},
		{"bad otp", otp.ErrInvalidOTP, http.StatusBadRequest},
		{"rate limited", errTooManyRequests, http.StatusTooManyRequests},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errorResponse(tt.err)
			assert.Equal(t, tt.status, got.StatusCode)
			assert.False(t, got.Success)
		})
	}
}

func TestErrorResponseHidesInternals(t *testing.T) {
	got := errorResponse(errors.New("pq: password authentication failed"))
	assert.Equal(t, "something went wrong", got.Message)

	got = errorResponse(fmt.Errorf("failed to fetch donation: %w", types.ErrDonationNotFound))
	assert.Equal(t, "donation not found", got.Message)
}

func TestErrorResponseCarriesRemaining(t *testing.T) {
	got := errorResponse(fmt.Errorf("allocate: %w", &ledger.InsufficientQuantityError{Component: types.ComponentPlasma, Remaining: 120}))
	require.Equal(t, http.StatusConflict, got.StatusCode)
	details, ok := got.Errors.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 120, details["remaining"])
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		remoteAddr string
		want       string
	}{
		{"forwarded", "203.0.113.1", "198.51.100.10:1234", "203.0.113.1"},
		{"first valid forwarded", " invalid , 203.0.113.2 ", "198.51.100.10:1234", "203.0.113.2"},
		{"remote host", "", "198.51.100.10:1234", "198.51.100.10"},
		{"ipv6 remote", "", net.JoinHostPort("2001:db8::2", "443"), "2001:db8::2"},
		{"remote without port", "", "203.0.113.7", "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.header != "" {
				req.Header.Set("X-Forwarded-For", tt.header)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}

func TestStripTrailingSlashRedirects(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz/?verbose=1", nil)
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/healthz?verbose=1", rec.Header().Get("Location"))
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Success", body["message"])
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/bloodbank/login", nil)
	req.Header.Set("Origin", "https://app.vitalflow.test")
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.vitalflow.test", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/bloodbank/login", nil)
	req.Header.Set("Origin", "https://evil.test")
	rec = httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitRejectsBeyondMax(t *testing.T) {
	ts := newTestServer(t)

	handler := ts.RateLimit(2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	hit := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/camp/get-blood-banks", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, hit("203.0.113.1:1").Code)
	assert.Equal(t, http.StatusNoContent, hit("203.0.113.1:2").Code)

	rec := hit("203.0.113.1:3")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusNoContent, hit("203.0.113.2:1").Code)
}

func TestRequireRole(t *testing.T) {
	ts := newTestServer(t)
	ts.records.banks["bank-1"] = &types.BloodBank{ID: "bank-1", Name: "City"}
	ts.records.donors["donor-1"] = &types.Donor{ID: "donor-1", FullName: "Asha"}

	rec, _ := ts.do(t, http.MethodGet, "/api/v1/bloodbank/get-blood-bank", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/bloodbank/get-blood-bank", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/bloodbank/get-blood-bank", ts.token(t, auth.RoleDonor, "donor-1"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/bloodbank/get-blood-bank", ts.token(t, auth.RoleBloodBank, "missing"), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := ts.do(t, http.MethodGet, "/api/v1/bloodbank/get-blood-bank", ts.token(t, auth.RoleBloodBank, "bank-1"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "City", data["name"])
}

func TestTokenFromCookie(t *testing.T) {
	ts := newTestServer(t)

	encoded, err := ts.cookie.Encode(cookieAccessToken, "raw-token")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieAccessToken, Value: encoded})
	req.Header.Set("Authorization", "Bearer header-token")

	token, ok := ts.tokenFromRequest(req, cookieAccessToken)
	require.True(t, ok)
	assert.Equal(t, "raw-token", token)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieAccessToken, Value: "tampered"})
	req.Header.Set("Authorization", "Bearer header-token")

	token, ok = ts.tokenFromRequest(req, cookieAccessToken)
	require.True(t, ok)
	assert.Equal(t, "header-token", token)
}

func TestAssignRecipientThroughRouter(t *testing.T) {
	ts := newTestServer(t)
	ts.records.banks["bank-1"] = &types.BloodBank{ID: "bank-1"}
	ts.records.banks["bank-2"] = &types.BloodBank{ID: "bank-2"}
	ts.records.donations["don-1"] = &types.Donation{
		ID:          "don-1",
		BloodBankID: "bank-1",
		Revision:    1,
		ComponentDetails: types.ComponentDetails{
			ComponentType:     types.ComponentPlasma,
			ComponentQuantity: 300,
			BloodGroup:        types.BloodGroupOPos,
		},
	}
	token := ts.token(t, auth.RoleBloodBank, "bank-1")

	allocation := map[string]any{
		"donationId":             "don-1",
		"fullName":               "Walk In",
		"phone":                  "9876543210",
		"componentGiven":         types.ComponentPlasma,
		"componentQuantityGiven": 200,
	}

	rec, body := ts.do(t, http.MethodPut, "/api/v1/bloodbank/assign-recipient", token, allocation)
	require.Equal(t, http.StatusOK, rec.Code, body)

	rec, body = ts.do(t, http.MethodPut, "/api/v1/bloodbank/assign-recipient", token, allocation)
	require.Equal(t, http.StatusConflict, rec.Code)
	details := body["errors"].(map[string]any)
	assert.Equal(t, float64(100), details["remaining"])

	allocation["componentGiven"] = types.ComponentPackedRedBloodCells
	rec, _ = ts.do(t, http.MethodPut, "/api/v1/bloodbank/assign-recipient", token, allocation)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = ts.do(t, http.MethodPut, "/api/v1/bloodbank/assign-recipient", ts.token(t, auth.RoleBloodBank, "bank-2"), allocation)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = ts.do(t, http.MethodGet, "/api/v1/bloodbank/get-available-quantity", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	available := body["data"].(map[string]any)
	assert.Equal(t, float64(100), available[string(types.ComponentPlasma)])

	rec, body = ts.do(t, http.MethodGet, "/api/v1/bloodbank/donations?id=don-1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	donation := body["data"].(map[string]any)
	assert.Len(t, donation["recipients"], 1)

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/bloodbank/donations?id=don-1", ts.token(t, auth.RoleBloodBank, "bank-2"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssignRecipientRejectsMalformedBody(t *testing.T) {
	ts := newTestServer(t)
	ts.records.banks["bank-1"] = &types.BloodBank{ID: "bank-1"}
	token := ts.token(t, auth.RoleBloodBank, "bank-1")

	rec, body := ts.do(t, http.MethodPut, "/api/v1/bloodbank/assign-recipient", token, map[string]any{"fullName": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["errors"], "donationId")
}

func TestChatWithoutAssistantIsUnavailable(t *testing.T) {
	ts := newTestServer(t)
	ts.records.camps["camp-1"] = &types.DonationCamp{ID: "camp-1"}

	rec, _ := ts.do(t, http.MethodPost, "/api/v1/chat/camp-chat", ts.token(t, auth.RoleCamp, "camp-1"), map[string]string{"question": "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestValidateDonorRegistration(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	valid := donorRegistration{
		FullName:   "Asha Rao",
		DOB:        "1995-04-12",
		Weight:     60,
		Gender:     types.GenderFemale,
		BloodGroup: types.BloodGroupBPos,
		Phone:      "9876543210",
	}
	dob, err := validateDonorRegistration(&valid, now)
	require.NoError(t, err)
	assert.Equal(t, 1995, dob.Year())

	bad := donorRegistration{
		FullName:   "A",
		DOB:        "12/04/1995",
		Weight:     40,
		Gender:     "unknown",
		BloodGroup: "C+",
		Phone:      "12345",
		Email:      "not-an-email",
	}
	_, err = validateDonorRegistration(&bad, now)
	var fields fieldErrors
	require.ErrorAs(t, err, &fields)
	for _, key := range []string{"fullName", "dob", "weight", "gender", "bloodGroup", "phone", "email"} {
		assert.Contains(t, fields, key)
	}
}

func TestValidateBloodBankRegistration(t *testing.T) {
	req := bloodBankRegistration{
		Name:               "City Blood Centre",
		Category:           types.BloodBankCategoryGovernment,
		ContactPersonName:  "Dr Mehta",
		ContactPersonPhone: "9123456780",
		Email:              " Bank@Example.com ",
		License:            "LIC-1",
		LicenseValidity:    "2030-01-01",
		Address:            &types.Address{AddressLine1: "1 Main Rd", State: "KA", City: "Bengaluru", Pincode: 560001},
		Password:           "Str0ng@pass",
		ConfirmPassword:    "Str0ng@pass",
	}
	_, err := validateBloodBankRegistration(&req)
	require.NoError(t, err)
	assert.Equal(t, "bank@example.com", req.Email)

	req.ConfirmPassword = "different"
	req.Password = "weak"
	req.Address = nil
	_, err = validateBloodBankRegistration(&req)
	var fields fieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "confirmPassword")
	assert.Contains(t, fields, "address")
}

func TestValidateCampRegistration(t *testing.T) {
	start := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	req := campRegistration{
		OrganizationName:      "Helping Hands",
		OrganizationType:      types.OrganizationTypeRWA,
		OrganizerName:         "Ravi",
		OrganizerMobileNumber: "9988776655",
		OrganizerEmail:        "ravi@example.com",
		CampName:              "Summer Drive",
		Address:               &types.Address{AddressLine1: "Park", State: "KA", City: "Mysuru", Pincode: 570001},
		BloodBank:             "bank-1",
		CampDate:              "2026-07-01",
		CampStartTime:         start,
		CampEndTime:           start.Add(6 * time.Hour),
		EstimatedParticipants: 80,
		Password:              "Str0ng@pass",
		ConfirmPassword:       "Str0ng@pass",
	}
	_, err := validateCampRegistration(&req)
	require.NoError(t, err)

	req.CampEndTime = start.Add(-time.Hour)
	req.EstimatedParticipants = 0
	_, err = validateCampRegistration(&req)
	var fields fieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "campEndTime")
	assert.Contains(t, fields, "estimatedParticipants")
}

func TestGetSuperAdminUsesConfiguredEmail(t *testing.T) {
	ts := newTestServer(t)
	ts.config.SuperAdminEmail = "Admin@VitalFlow.in"

	// Tokens minted without an email claim, as refresh tokens are.
	token := ts.token(t, auth.RoleSuperAdmin, auth.SuperAdminID)

	rec, body := ts.do(t, http.MethodGet, "/api/v1/superadmin/get-super-admin", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	account := body["data"].(map[string]any)
	assert.Equal(t, "admin@vitalflow.in", account["email"])
	assert.Equal(t, string(auth.RoleSuperAdmin), account["role"])
}
