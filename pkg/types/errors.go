package types

import "errors"

var (
	ErrDonationNotFound  = errors.New("donation not found")
	ErrDonorNotFound     = errors.New("donor not found")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrBloodBankNotFound = errors.New("blood bank not found")
	ErrCampNotFound      = errors.New("camp not found")
	ErrOTPNotFound       = errors.New("otp not found")

	// ErrAlreadyExists is returned by repositories when a unique column
	// (email, phone, license) collides with an existing row.
	ErrAlreadyExists = errors.New("already exists")
)

// ErrRevisionConflict is returned when a conditional write finds the row at a
// different revision than the caller loaded.
var ErrRevisionConflict = errors.New("record was modified concurrently")
