package server

import (
	"net/http"
	"strings"
	"time"

	"vitalflow/internal/auth"
	"vitalflow/internal/otp"
	"vitalflow/internal/utils"
	"vitalflow/pkg/types"
)

type donorRegistration struct {
	FullName   string           `json:"fullName"`
	DOB        string           `json:"dob"`
	Weight     float64          `json:"weight"`
	Gender     types.Gender     `json:"gender"`
	BloodGroup types.BloodGroup `json:"bloodGroup"`
	Email      string           `json:"email"`
	Phone      string           `json:"phone"`
	Whatsapp   string           `json:"whatsapp"`
	Address    *types.Address   `json:"address"`
}

func validateDonorRegistration(req *donorRegistration, now time.Time) (time.Time, error) {
	errs := fieldErrors{}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Whatsapp = strings.TrimSpace(req.Whatsapp)

	if len(req.FullName) < 3 {
		errs["fullName"] = "Full name must be at least 3 characters."
	}

	dob, err := time.Parse(time.DateOnly, strings.TrimSpace(req.DOB))
	if err != nil {
		errs["dob"] = "Date of birth must be in YYYY-MM-DD format."
	} else if !dob.Before(now) {
		errs["dob"] = "Date of birth must be in the past."
	}

	if req.Weight < types.MinimumDonorWeight {
		errs["weight"] = "The minimum allowed weight is 45."
	}
	if !req.Gender.Valid() {
		errs["gender"] = "Select a valid gender."
	}
	if !req.BloodGroup.Valid() {
		errs["bloodGroup"] = "Select a valid blood group."
	}

	if !otp.ValidDestination(types.OTPChannelPhone, req.Phone) {
		errs["phone"] = "Enter a valid phone number."
	}
	if req.Email != "" && !otp.ValidDestination(types.OTPChannelEmail, req.Email) {
		errs["email"] = "Enter a valid email address."
	}
	if req.Whatsapp != "" && !otp.ValidDestination(types.OTPChannelPhone, req.Whatsapp) {
		errs["whatsapp"] = "Enter a valid whatsapp number."
	}

	if req.Address != nil && !req.Address.Complete() {
		errs["address"] = "All address fields are required."
	}

	return dob, errs.orNil()
}

func (s *Service) handleDonorRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req donorRegistration
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	dob, err := validateDonorRegistration(&req, time.Now())
	if err != nil {
		s.logger.WithField("field_errors", err).Info("validation errors during donor registration")
		s.fail(w, r, err)
		return
	}

	phoneVerified, err := s.OTP.IsVerified(ctx, types.OTPChannelPhone, req.Phone)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	emailVerified := false
	if req.Email != "" {
		emailVerified, err = s.OTP.IsVerified(ctx, types.OTPChannelEmail, req.Email)
		if err != nil {
			s.fail(w, r, err)
			return
		}
	}
	if !phoneVerified && !emailVerified {
		s.fail(w, r, statusError(http.StatusBadRequest, "Phone or Email not verified"))
		return
	}

	if req.Address != nil {
		req.Address.AddressType = types.AddressTypeDonor
	}

	donor := &types.Donor{
		ID:            utils.NanoID(),
		FullName:      req.FullName,
		DOB:           dob,
		Weight:        req.Weight,
		Gender:        req.Gender,
		BloodGroup:    req.BloodGroup,
		Email:         utils.NilIfEmpty(req.Email),
		Phone:         req.Phone,
		Whatsapp:      utils.NilIfEmpty(req.Whatsapp),
		PhoneVerified: phoneVerified,
		EmailVerified: emailVerified,
		Address:       req.Address,
	}

	if err := s.Donors.Create(ctx, donor); err != nil {
		s.fail(w, r, err)
		return
	}

	principal := auth.Principal{Role: auth.RoleDonor, ID: donor.ID, Email: req.Email}
	s.startSession(w, r, http.StatusCreated, principal, donor, "Donor registered successfully")
}

func (s *Service) handleDonorLogin(w http.ResponseWriter, r *http.Request) {
	req, channel, destination, err := s.decodeOTPRequest(w, r, true)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	donor, err := s.verifiedDonor(r.Context(), channel, destination)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.OTP.Verify(r.Context(), channel, destination, req.OTP, types.OTPTypeLogin); err != nil {
		s.fail(w, r, err)
		return
	}

	principal := auth.Principal{Role: auth.RoleDonor, ID: donor.ID, Email: utils.PtrString(donor.Email)}
	s.startSession(w, r, http.StatusOK, principal, donor, "Donor logged in successfully")
}

func (s *Service) handleGetDonor(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.session(r).Donor, "Donor fetched successfully")
}

func (s *Service) handleDonorDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := s.Ledger.DonationsForDonor(r.Context(), s.session(r).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, donations, "Donations fetched successfully")
}
