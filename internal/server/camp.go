package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"vitalflow/internal/auth"
	"vitalflow/internal/ledger"
	"vitalflow/internal/otp"
	"vitalflow/internal/utils"
	"vitalflow/pkg/types"
)

type campRegistration struct {
	OrganizationName        string                 `json:"organizationName"`
	OrganizationType        types.OrganizationType `json:"organizationType"`
	OrganizerName           string                 `json:"organizerName"`
	OrganizerMobileNumber   string                 `json:"organizerMobileNumber"`
	OrganizerEmail          string                 `json:"organizerEmail"`
	CoOrganizerName         string                 `json:"coOrganizerName"`
	CoOrganizerMobileNumber string                 `json:"coOrganizerMobileNumber"`
	CampName                string                 `json:"campName"`
	Address                 *types.Address         `json:"address"`
	BloodBank               string                 `json:"bloodbank"`
	CampDate                string                 `json:"campDate"`
	CampStartTime           time.Time              `json:"campStartTime"`
	CampEndTime             time.Time              `json:"campEndTime"`
	EstimatedParticipants   int                    `json:"estimatedParticipants"`
	Supporter               string                 `json:"supporter"`
	Remarks                 string                 `json:"remarks"`
	Password                string                 `json:"password"`
	ConfirmPassword         string                 `json:"confirmPassword"`
}

func validateCampRegistration(req *campRegistration) (time.Time, error) {
	errs := fieldErrors{}

	req.OrganizationName = strings.TrimSpace(req.OrganizationName)
	req.OrganizerName = strings.TrimSpace(req.OrganizerName)
	req.OrganizerMobileNumber = strings.TrimSpace(req.OrganizerMobileNumber)
	req.OrganizerEmail = strings.ToLower(strings.TrimSpace(req.OrganizerEmail))
	req.CoOrganizerMobileNumber = strings.TrimSpace(req.CoOrganizerMobileNumber)
	req.CampName = strings.TrimSpace(req.CampName)
	req.BloodBank = strings.TrimSpace(req.BloodBank)

	if req.OrganizationName == "" {
		errs["organizationName"] = "Organization name is required."
	}
	if !req.OrganizationType.Valid() {
		errs["organizationType"] = "Select a valid organization type."
	}
	if req.OrganizerName == "" {
		errs["organizerName"] = "Organizer name is required."
	}
	if !otp.ValidDestination(types.OTPChannelPhone, req.OrganizerMobileNumber) {
		errs["organizerMobileNumber"] = "Enter a valid phone number."
	}
	if req.CoOrganizerMobileNumber != "" && !otp.ValidDestination(types.OTPChannelPhone, req.CoOrganizerMobileNumber) {
		errs["coOrganizerMobileNumber"] = "Enter a valid phone number."
	}
	validateEmail(errs, "organizerEmail", req.OrganizerEmail)
	if req.CampName == "" {
		errs["campName"] = "Camp name is required."
	}
	if req.BloodBank == "" {
		errs["bloodbank"] = "Select the blood bank collecting donations."
	}

	campDate, err := time.Parse(time.DateOnly, strings.TrimSpace(req.CampDate))
	if err != nil {
		errs["campDate"] = "Camp date must be in YYYY-MM-DD format."
	}
	if req.CampStartTime.IsZero() {
		errs["campStartTime"] = "Start time is required."
	}
	if req.CampEndTime.IsZero() {
		errs["campEndTime"] = "End time is required."
	} else if !req.CampEndTime.After(req.CampStartTime) {
		errs["campEndTime"] = "End time must be after start time."
	}
	if req.EstimatedParticipants <= 0 {
		errs["estimatedParticipants"] = "Estimated participants must be greater than zero."
	}

	if !req.Address.Complete() {
		errs["address"] = "All address fields are required."
	}

	validatePassword(errs, req.Password, req.ConfirmPassword)

	return campDate, errs.orNil()
}

func (s *Service) handleCampRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req campRegistration
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	campDate, err := validateCampRegistration(&req)
	if err != nil {
		s.logger.WithField("field_errors", err).Info("validation errors during camp registration")
		s.fail(w, r, err)
		return
	}

	verified, err := s.OTP.IsVerified(ctx, types.OTPChannelEmail, req.OrganizerEmail)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !verified {
		s.fail(w, r, statusError(http.StatusBadRequest, "Please verify your email first"))
		return
	}

	bank, err := s.BloodBanks.BloodBank(ctx, req.BloodBank)
	if err != nil {
		if errors.Is(err, types.ErrBloodBankNotFound) {
			err = fieldErrors{"bloodbank": "Blood bank does not exist."}
		}
		s.fail(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	req.Address.AddressType = types.AddressTypeCamp
	camp := &types.DonationCamp{
		ID:                      utils.NanoID(),
		OrganizationName:        req.OrganizationName,
		OrganizationType:        req.OrganizationType,
		OrganizerName:           req.OrganizerName,
		OrganizerMobileNumber:   req.OrganizerMobileNumber,
		OrganizerEmail:          req.OrganizerEmail,
		CoOrganizerName:         utils.NilIfEmpty(strings.TrimSpace(req.CoOrganizerName)),
		CoOrganizerMobileNumber: utils.NilIfEmpty(req.CoOrganizerMobileNumber),
		CampName:                req.CampName,
		Address:                 req.Address,
		BloodBankID:             bank.ID,
		CampDate:                campDate,
		CampStartTime:           req.CampStartTime,
		CampEndTime:             req.CampEndTime,
		EstimatedParticipants:   req.EstimatedParticipants,
		Supporter:               utils.NilIfEmpty(strings.TrimSpace(req.Supporter)),
		Remarks:                 utils.NilIfEmpty(strings.TrimSpace(req.Remarks)),
		PasswordHash:            hash,
		Status:                  types.ApprovalStatusPending,
	}

	if err := s.Camps.Create(ctx, camp); err != nil {
		s.fail(w, r, err)
		return
	}

	principal := auth.Principal{Role: auth.RoleCamp, ID: camp.ID, Email: camp.OrganizerEmail}
	s.startSession(w, r, http.StatusCreated, principal, camp, "Donation camp registered successfully")
}

func (s *Service) handleCampLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := creds.validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	camp, err := s.Camps.CampByEmail(r.Context(), creds.Email)
	if err != nil {
		if errors.Is(err, types.ErrCampNotFound) {
			err = auth.ErrInvalidCredentials
		}
		s.fail(w, r, err)
		return
	}

	if err := auth.CheckPassword(camp.PasswordHash, creds.Password); err != nil {
		s.fail(w, r, err)
		return
	}

	principal := auth.Principal{Role: auth.RoleCamp, ID: camp.ID, Email: camp.OrganizerEmail}
	s.startSession(w, r, http.StatusOK, principal, camp, "Donation camp logged in successfully")
}

func (s *Service) handleGetCamp(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.session(r).Camp, "Camp fetched successfully")
}

// handleApprovedBloodBanks lists the banks a new camp may attach to.
func (s *Service) handleApprovedBloodBanks(w http.ResponseWriter, r *http.Request) {
	var filter types.BloodBankFilter
	if err := decoder.Decode(&filter, r.URL.Query()); err != nil {
		s.fail(w, r, statusError(http.StatusBadRequest, "invalid query parameters"))
		return
	}
	filter.Status = types.ApprovalStatusApproved

	banks, err := s.BloodBanks.BloodBanks(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, banks, "Blood banks fetched successfully")
}

func (s *Service) handleRecordDonation(w http.ResponseWriter, r *http.Request) {
	var req ledger.DonationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	donation, err := s.Ledger.RecordDonation(r.Context(), s.session(r).ID, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, http.StatusCreated, donation, "Donation recorded successfully")
}
