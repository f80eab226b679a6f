package types

import "time"

type OTPStatus string

const (
	OTPStatusPending  OTPStatus = "pending"
	OTPStatusVerified OTPStatus = "verified"
)

type OTPType string

const (
	OTPTypeVerification   OTPType = "verification"
	OTPTypeLogin          OTPType = "login"
	OTPTypeForgotPassword OTPType = "forgotPassword"
)

type OTPChannel string

const (
	OTPChannelPhone OTPChannel = "phone"
	OTPChannelEmail OTPChannel = "email"
)

const OTPLifetime = 5 * time.Minute

type OTP struct {
	ID        string    `db:"id" json:"id"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Code      string    `db:"code" json:"-"`
	Expiry    time.Time `db:"expiry" json:"expiry"`
	Status    OTPStatus `db:"status" json:"status"`
	Type      OTPType   `db:"type" json:"type"`
	Attempts  int       `db:"attempts" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
