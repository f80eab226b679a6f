package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"vitalflow/internal/otp"
	"vitalflow/pkg/types"
)

type otpRequest struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// destination picks the phone number when both are given.
func (o *otpRequest) destination() (types.OTPChannel, string, error) {
	phone := strings.TrimSpace(o.Phone)
	email := strings.ToLower(strings.TrimSpace(o.Email))

	switch {
	case phone != "":
		if !otp.ValidDestination(types.OTPChannelPhone, phone) {
			return "", "", fieldErrors{"phone": "Please provide a valid phone number"}
		}
		return types.OTPChannelPhone, phone, nil
	case email != "":
		if !otp.ValidDestination(types.OTPChannelEmail, email) {
			return "", "", fieldErrors{"email": "Please provide a valid email"}
		}
		return types.OTPChannelEmail, email, nil
	}
	return "", "", statusError(http.StatusBadRequest, "please provide a phone number or email")
}

func (s *Service) decodeOTPRequest(w http.ResponseWriter, r *http.Request, requireCode bool) (*otpRequest, types.OTPChannel, string, error) {
	var req otpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, "", "", err
	}

	channel, destination, err := req.destination()
	if err != nil {
		return nil, "", "", err
	}

	req.OTP = strings.TrimSpace(req.OTP)
	if requireCode && req.OTP == "" {
		return nil, "", "", fieldErrors{"otp": "OTP is required"}
	}

	return &req, channel, destination, nil
}

// sendRegistrationOTP issues a verification code to an email address that is
// not yet registered, as decided by registered.
func (s *Service) sendRegistrationOTP(w http.ResponseWriter, r *http.Request, registered func(ctx context.Context, email string) (bool, error)) {
	req, channel, email, err := s.decodeOTPRequest(w, r, false)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if channel != types.OTPChannelEmail || req.Email == "" {
		s.fail(w, r, fieldErrors{"email": "Please provide an email"})
		return
	}

	exists, err := registered(r.Context(), email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if exists {
		s.fail(w, r, statusError(http.StatusConflict, "Email already registered"))
		return
	}

	err = s.OTP.Issue(r.Context(), otp.Request{Channel: channel, Destination: email, Type: types.OTPTypeVerification})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, nil, fmt.Sprintf("OTP sent successfully to %s", email))
}

func (s *Service) handleBloodBankSendOTP(w http.ResponseWriter, r *http.Request) {
	s.sendRegistrationOTP(w, r, func(ctx context.Context, email string) (bool, error) {
		_, err := s.BloodBanks.BloodBankByEmail(ctx, email)
		return found(err, types.ErrBloodBankNotFound)
	})
}

func (s *Service) handleCampSendOTP(w http.ResponseWriter, r *http.Request) {
	s.sendRegistrationOTP(w, r, func(ctx context.Context, email string) (bool, error) {
		_, err := s.Camps.CampByEmail(ctx, email)
		return found(err, types.ErrCampNotFound)
	})
}

// found turns a lookup error into an existence check.
func found(err, notFound error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, notFound) {
		return false, nil
	}
	return false, err
}

func (s *Service) handleVerifyEmailOTP(w http.ResponseWriter, r *http.Request) {
	req, channel, email, err := s.decodeOTPRequest(w, r, true)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if channel != types.OTPChannelEmail {
		s.fail(w, r, fieldErrors{"email": "Please provide an email"})
		return
	}

	if err := s.OTP.Verify(r.Context(), channel, email, req.OTP, types.OTPTypeVerification); err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, nil, "OTP verified successfully")
}

func (s *Service) handleDonorSendOTP(channel types.OTPChannel) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, got, destination, err := s.decodeOTPRequest(w, r, false)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if got != channel {
			s.fail(w, r, fieldErrors{string(channel): "Please provide a valid " + string(channel)})
			return
		}

		err = s.OTP.Issue(r.Context(), otp.Request{Channel: channel, Destination: destination, Type: types.OTPTypeVerification})
		if err != nil {
			s.fail(w, r, err)
			return
		}

		s.respond(w, http.StatusOK, nil, fmt.Sprintf("OTP sent successfully to %s", destination))
	}
}

func (s *Service) handleDonorVerifyOTP(w http.ResponseWriter, r *http.Request) {
	req, channel, destination, err := s.decodeOTPRequest(w, r, true)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.OTP.Verify(r.Context(), channel, destination, req.OTP, types.OTPTypeVerification); err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, nil, "OTP verified successfully")
}

// verifiedDonor finds the donor owning destination, provided that channel
// was verified at registration.
func (s *Service) verifiedDonor(ctx context.Context, channel types.OTPChannel, destination string) (*types.Donor, error) {
	var (
		donor *types.Donor
		err   error
	)
	if channel == types.OTPChannelPhone {
		donor, err = s.Donors.DonorByPhone(ctx, destination)
	} else {
		donor, err = s.Donors.DonorByEmail(ctx, destination)
	}
	if err != nil {
		return nil, err
	}

	if (channel == types.OTPChannelPhone && !donor.PhoneVerified) || (channel == types.OTPChannelEmail && !donor.EmailVerified) {
		return nil, types.ErrDonorNotFound
	}

	return donor, nil
}

func (s *Service) handleDonorSendLoginOTP(w http.ResponseWriter, r *http.Request) {
	_, channel, destination, err := s.decodeOTPRequest(w, r, false)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if _, err := s.verifiedDonor(r.Context(), channel, destination); err != nil {
		s.fail(w, r, err)
		return
	}

	err = s.OTP.Issue(r.Context(), otp.Request{Channel: channel, Destination: destination, Type: types.OTPTypeLogin})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, nil, "OTP sent successfully")
}
