// Package otp issues and verifies one-time codes sent by email or SMS.
//
// Issuing is three explicit steps: validate the destination, persist the
// code, then hand it to the Notifier.
package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"vitalflow/internal/utils"
	"vitalflow/pkg/types"

	"github.com/sirupsen/logrus"
)

const (
	codeLength = 6

	// maxVerifyAttempts is how many wrong codes a pending OTP survives.
	maxVerifyAttempts = 5
)

var (
	phoneReg = regexp.MustCompile(`^[6-9]\d{9}$`)
	emailReg = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,4}$`)
)

var (
	ErrInvalidDestination = errors.New("invalid phone number or email")
	ErrOTPAlreadySent     = errors.New("an otp has already been sent, try again later")
	ErrInvalidOTP         = errors.New("invalid or expired otp")
	ErrDeliveryFailed     = errors.New("failed to deliver otp")
)

type Store interface {
	Create(ctx context.Context, otp *types.OTP) error
	Pending(ctx context.Context, channel types.OTPChannel, destination string, otpType types.OTPType, now time.Time) (*types.OTP, error)
	MarkVerified(ctx context.Context, otpID string) error
	RecordFailedAttempt(ctx context.Context, otpID string) (int, error)
	VerifiedExists(ctx context.Context, channel types.OTPChannel, destination string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) error
	Delete(ctx context.Context, otpID string) error
}

type Notifier interface {
	SendEmail(ctx context.Context, to, subject, html string) error
	SendSMS(ctx context.Context, to, body string) error
}

type Request struct {
	Channel     types.OTPChannel
	Destination string
	Type        types.OTPType
}

type Service struct {
	store    Store
	notifier Notifier
	logger   *logrus.Logger
	now      func() time.Time
	code     func() (string, error)
}

func NewService(store Store, notifier Notifier, logger *logrus.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		code:     func() (string, error) { return utils.NumericCode(codeLength) },
	}
}

// ValidDestination checks a phone number or email address for channel.
func ValidDestination(channel types.OTPChannel, destination string) bool {
	switch channel {
	case types.OTPChannelPhone:
		return phoneReg.MatchString(destination)
	case types.OTPChannelEmail:
		return emailReg.MatchString(destination)
	}
	return false
}

func normalize(channel types.OTPChannel, destination string) string {
	destination = strings.TrimSpace(destination)
	if channel == types.OTPChannelEmail {
		destination = strings.ToLower(destination)
	}
	return destination
}

func (s *Service) Issue(ctx context.Context, req Request) error {
	destination := normalize(req.Channel, req.Destination)
	if !ValidDestination(req.Channel, destination) {
		return ErrInvalidDestination
	}

	now := s.now()
	if err := s.store.DeleteExpired(ctx, now); err != nil {
		return err
	}

	_, err := s.store.Pending(ctx, req.Channel, destination, req.Type, now)
	switch {
	case err == nil:
		return ErrOTPAlreadySent
	case !errors.Is(err, types.ErrOTPNotFound):
		return err
	}

	code, err := s.code()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	record := &types.OTP{
		ID:     utils.NanoID(),
		Code:   code,
		Expiry: now.Add(types.OTPLifetime),
		Status: types.OTPStatusPending,
		Type:   req.Type,
	}
	if req.Channel == types.OTPChannelEmail {
		record.Email = &destination
	} else {
		record.Phone = &destination
	}

	if err := s.store.Create(ctx, record); err != nil {
		return err
	}

	if err := s.deliver(ctx, req.Channel, destination, code); err != nil {
		s.logger.WithError(err).WithField("channel", req.Channel).Error("otp delivery failed")
		if delErr := s.store.Delete(ctx, record.ID); delErr != nil {
			s.logger.WithError(delErr).WithField("otp_id", record.ID).Warn("failed to remove undelivered otp")
		}
		return ErrDeliveryFailed
	}

	return nil
}

func (s *Service) deliver(ctx context.Context, channel types.OTPChannel, destination, code string) error {
	minutes := int(types.OTPLifetime / time.Minute)
	if channel == types.OTPChannelEmail {
		html := fmt.Sprintf(
			"<p>Your VitalFlow verification code is <strong>%s</strong>.</p><p>It expires in %d minutes.</p>",
			code, minutes,
		)
		return s.notifier.SendEmail(ctx, destination, "Your VitalFlow verification code", html)
	}

	body := fmt.Sprintf("Your VitalFlow OTP is %s. It expires in %d minutes.", code, minutes)
	return s.notifier.SendSMS(ctx, "+91"+destination, body)
}

// Verify marks the matching pending code as verified.
func (s *Service) Verify(ctx context.Context, channel types.OTPChannel, destination, code string, otpType types.OTPType) error {
	destination = normalize(channel, destination)

	record, err := s.store.Pending(ctx, channel, destination, otpType, s.now())
	if err != nil {
		if errors.Is(err, types.ErrOTPNotFound) {
			return ErrInvalidOTP
		}
		return err
	}

	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(strings.TrimSpace(code))) != 1 {
		return s.rejectAttempt(ctx, record)
	}

	if err := s.store.MarkVerified(ctx, record.ID); err != nil {
		if errors.Is(err, types.ErrOTPNotFound) {
			return ErrInvalidOTP
		}
		return err
	}

	return nil
}

// rejectAttempt counts a wrong code and discards the OTP once it has seen
// maxVerifyAttempts of them.
func (s *Service) rejectAttempt(ctx context.Context, record *types.OTP) error {
	attempts, err := s.store.RecordFailedAttempt(ctx, record.ID)
	if err != nil {
		if errors.Is(err, types.ErrOTPNotFound) {
			return ErrInvalidOTP
		}
		return err
	}

	if attempts >= maxVerifyAttempts {
		s.logger.WithField("otp_id", record.ID).Warn("otp discarded after too many failed attempts")
		if err := s.store.Delete(ctx, record.ID); err != nil {
			return err
		}
	}

	return ErrInvalidOTP
}

// IsVerified reports whether destination has completed verification.
func (s *Service) IsVerified(ctx context.Context, channel types.OTPChannel, destination string) (bool, error) {
	return s.store.VerifiedExists(ctx, channel, normalize(channel, destination))
}
