package types

import "time"

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

const MinimumDonorWeight = 45

type Donor struct {
	ID            string     `db:"id" json:"id"`
	FullName      string     `db:"full_name" json:"fullName"`
	DOB           time.Time  `db:"dob" json:"dob"`
	Age           int        `db:"age" json:"age"`
	Weight        float64    `db:"weight" json:"weight"`
	Gender        Gender     `db:"gender" json:"gender"`
	BloodGroup    BloodGroup `db:"blood_group" json:"bloodGroup"`
	Email         *string    `db:"email" json:"email,omitempty"`
	Phone         string     `db:"phone" json:"phone"`
	Whatsapp      *string    `db:"whatsapp" json:"whatsapp,omitempty"`
	PhoneVerified bool       `db:"phone_verified" json:"phoneVerified"`
	EmailVerified bool       `db:"email_verified" json:"emailVerified"`
	Address       *Address   `db:"address" json:"address,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

// AgeOn returns the donor's age in whole years at the given instant.
func AgeOn(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
