package server

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"vitalflow/internal/auth"
	"vitalflow/internal/ledger"
	"vitalflow/internal/otp"
	"vitalflow/internal/storage"
	"vitalflow/internal/utils"
	"vitalflow/pkg/types"
)

const (
	maxLicenseBytes = 10 << 20
	licenseURLTTL   = 15 * time.Minute
)

type bloodBankRegistration struct {
	Name               string                  `json:"name"`
	ParentHospitalName string                  `json:"parentHospitalName"`
	Category           types.BloodBankCategory `json:"category"`
	ContactPersonName  string                  `json:"contactPersonName"`
	ContactPersonPhone string                  `json:"contactPersonPhone"`
	Email              string                  `json:"email"`
	License            string                  `json:"license"`
	LicenseValidity    string                  `json:"licenseValidity"`
	Address            *types.Address          `json:"address"`
	Website            string                  `json:"website"`
	ComponentFacility  bool                    `json:"componentFacility"`
	ApheresisFacility  bool                    `json:"apheresisFacility"`
	HelplineNumber     string                  `json:"helplineNumber"`
	Password           string                  `json:"password"`
	ConfirmPassword    string                  `json:"confirmPassword"`
}

func validatePassword(errs fieldErrors, password, confirm string) {
	if password != confirm {
		errs["confirmPassword"] = "Passwords do not match."
	}
	if !auth.StrongPassword(password) {
		errs["password"] = "Password must be at least 8 characters and include uppercase, lowercase, number, and symbol."
	}
}

func validateEmail(errs fieldErrors, field, email string) {
	if email == "" {
		errs[field] = "Email is required."
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs[field] = "Enter a valid email address."
	}
}

func validateBloodBankRegistration(req *bloodBankRegistration) (time.Time, error) {
	errs := fieldErrors{}

	req.Name = strings.TrimSpace(req.Name)
	req.ContactPersonName = strings.TrimSpace(req.ContactPersonName)
	req.ContactPersonPhone = strings.TrimSpace(req.ContactPersonPhone)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.License = strings.TrimSpace(req.License)

	if req.Name == "" {
		errs["name"] = "Name is required."
	}
	if !req.Category.Valid() {
		errs["category"] = "Select a valid category."
	}
	if req.ContactPersonName == "" {
		errs["contactPersonName"] = "Contact person name is required."
	}
	if !otp.ValidDestination(types.OTPChannelPhone, req.ContactPersonPhone) {
		errs["contactPersonPhone"] = "Enter a valid phone number."
	}
	validateEmail(errs, "email", req.Email)
	if req.License == "" {
		errs["license"] = "License number is required."
	}

	validity, err := time.Parse(time.DateOnly, strings.TrimSpace(req.LicenseValidity))
	if err != nil {
		errs["licenseValidity"] = "License validity must be in YYYY-MM-DD format."
	}

	if !req.Address.Complete() {
		errs["address"] = "All address fields are required."
	}

	validatePassword(errs, req.Password, req.ConfirmPassword)

	return validity, errs.orNil()
}

func (s *Service) handleBloodBankRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req bloodBankRegistration
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	validity, err := validateBloodBankRegistration(&req)
	if err != nil {
		s.logger.WithField("field_errors", err).Info("validation errors during blood bank registration")
		s.fail(w, r, err)
		return
	}

	verified, err := s.OTP.IsVerified(ctx, types.OTPChannelEmail, req.Email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !verified {
		s.fail(w, r, statusError(http.StatusBadRequest, "Please verify your email first"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	req.Address.AddressType = types.AddressTypeBloodbank
	bank := &types.BloodBank{
		ID:                 utils.NanoID(),
		Name:               req.Name,
		ParentHospitalName: utils.NilIfEmpty(strings.TrimSpace(req.ParentHospitalName)),
		Category:           req.Category,
		ContactPersonName:  req.ContactPersonName,
		ContactPersonPhone: req.ContactPersonPhone,
		Email:              req.Email,
		PasswordHash:       hash,
		License:            req.License,
		LicenseValidity:    validity,
		Address:            req.Address,
		Website:            utils.NilIfEmpty(strings.TrimSpace(req.Website)),
		ComponentFacility:  req.ComponentFacility,
		ApheresisFacility:  req.ApheresisFacility,
		HelplineNumber:     utils.NilIfEmpty(strings.TrimSpace(req.HelplineNumber)),
		Status:             types.ApprovalStatusPending,
	}

	if err := s.BloodBanks.Create(ctx, bank); err != nil {
		s.fail(w, r, err)
		return
	}

	principal := auth.Principal{Role: auth.RoleBloodBank, ID: bank.ID, Email: bank.Email}
	s.startSession(w, r, http.StatusCreated, principal, bank, "Blood bank registered successfully")
}

func (s *Service) handleBloodBankLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := creds.validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	bank, err := s.BloodBanks.BloodBankByEmail(r.Context(), creds.Email)
	if err != nil {
		if errors.Is(err, types.ErrBloodBankNotFound) {
			err = auth.ErrInvalidCredentials
		}
		s.fail(w, r, err)
		return
	}

	if err := auth.CheckPassword(bank.PasswordHash, creds.Password); err != nil {
		s.fail(w, r, err)
		return
	}

	principal := auth.Principal{Role: auth.RoleBloodBank, ID: bank.ID, Email: bank.Email}
	s.startSession(w, r, http.StatusOK, principal, bank, "Blood bank logged in successfully")
}

func (s *Service) handleGetBloodBank(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.session(r).BloodBank, "Blood bank fetched successfully")
}

func (s *Service) handleGetCamps(w http.ResponseWriter, r *http.Request) {
	var filter types.CampFilter
	if err := decoder.Decode(&filter, r.URL.Query()); err != nil {
		s.fail(w, r, statusError(http.StatusBadRequest, "invalid query parameters"))
		return
	}
	if filter.Status != "" && !filter.Status.Valid() {
		s.fail(w, r, fieldErrors{"status": "Select a valid status."})
		return
	}

	camps, err := s.Camps.CampsByBank(r.Context(), s.session(r).ID, filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, camps, "Camps fetched successfully")
}

type statusChange struct {
	ID     string               `form:"id"`
	Status types.ApprovalStatus `form:"status"`
}

func decodeStatusChange(r *http.Request) (*statusChange, error) {
	var change statusChange
	if err := decoder.Decode(&change, r.URL.Query()); err != nil {
		return nil, statusError(http.StatusBadRequest, "invalid query parameters")
	}

	errs := fieldErrors{}
	if strings.TrimSpace(change.ID) == "" {
		errs["id"] = "Id is required."
	}
	if !change.Status.Valid() {
		errs["status"] = "Select a valid status."
	}
	if err := errs.orNil(); err != nil {
		return nil, err
	}

	return &change, nil
}

func (s *Service) handleChangeCampStatus(w http.ResponseWriter, r *http.Request) {
	change, err := decodeStatusChange(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.Camps.UpdateStatus(r.Context(), s.session(r).ID, change.ID, change.Status); err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, nil, "Camp status changed successfully")
}

func (s *Service) handleAssignRecipient(w http.ResponseWriter, r *http.Request) {
	var req ledger.AllocationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	donation, err := s.Ledger.AssignRecipient(r.Context(), s.session(r).ID, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, donation, "Recipient assigned successfully")
}

func (s *Service) handleExtractComponents(w http.ResponseWriter, r *http.Request) {
	var req ledger.ExtractionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	donation, err := s.Ledger.ExtractComponents(r.Context(), s.session(r).ID, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, donation, "Components extracted successfully")
}

func (s *Service) handleAvailableQuantity(w http.ResponseWriter, r *http.Request) {
	available, err := s.Ledger.AvailableQuantity(r.Context(), s.session(r).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, available, "Available quantity fetched successfully")
}

// handleBankDonations lists the bank's donations, or returns one when an id
// query parameter is given.
func (s *Service) handleBankDonations(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("id"); id != "" {
		donation, err := s.Ledger.Donation(r.Context(), s.session(r).ID, id)
		if err != nil {
			s.fail(w, r, err)
			return
		}

		s.respond(w, http.StatusOK, donation, "Donation fetched successfully")
		return
	}

	donations, err := s.Ledger.DonationsForBank(r.Context(), s.session(r).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, donations, "Donations fetched successfully")
}

type licenseDocument struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// handleUploadLicense stores the bank's license document and replaces any
// earlier one.
func (s *Service) handleUploadLicense(w http.ResponseWriter, r *http.Request) {
	if s.Documents == nil {
		s.fail(w, r, errNotConfigured)
		return
	}

	ctx := r.Context()
	bank := s.session(r).BloodBank

	r.Body = http.MaxBytesReader(w, r.Body, maxLicenseBytes)
	if err := r.ParseMultipartForm(maxLicenseBytes); err != nil {
		s.fail(w, r, statusError(http.StatusBadRequest, "license document must be a multipart upload under 10 MB"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, fieldErrors{"file": "License document is required."})
		return
	}
	defer func() {
		_ = file.Close()
	}()

	contentType := header.Header.Get("Content-Type")
	ext, ok := storage.LicenseExtension(contentType)
	if !ok {
		s.fail(w, r, fieldErrors{"file": "License document must be a PDF, JPEG or PNG."})
		return
	}

	key := storage.LicenseKey(bank.ID, ext)
	if err := s.Documents.Upload(ctx, key, file, contentType); err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.BloodBanks.SetLicenseDocument(ctx, bank.ID, key); err != nil {
		s.fail(w, r, err)
		return
	}

	if previous := utils.PtrString(bank.LicenseDocumentKey); previous != "" && previous != key {
		if err := s.Documents.Delete(ctx, previous); err != nil {
			s.logger.WithError(err).WithField("key", previous).Warn("failed to delete previous license document")
		}
	}

	url, err := s.Documents.PresignGet(ctx, key, licenseURLTTL)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, http.StatusCreated, licenseDocument{Key: key, URL: url}, "License document uploaded successfully")
}
