package types

import "time"

// ComponentDetails describes what the donor actually gave: a named component
// directly, or raw Whole Blood.
type ComponentDetails struct {
	ComponentType     ComponentType `db:"component_type" json:"componentType"`
	ComponentQuantity int           `db:"component_quantity" json:"componentQuantity"`
	BloodGroup        BloodGroup    `db:"blood_group" json:"bloodGroup"`
}

type Donation struct {
	ID          string `db:"id" json:"id"`
	DonorID     string `db:"donor_id" json:"donorId"`
	CampID      string `db:"camp_id" json:"campId"`
	BloodBankID string `db:"blood_bank_id" json:"bloodBankId"`

	ComponentDetails `json:"componentDetails"`

	// Only populated for Whole Blood donations.
	ExtractedComponents []ExtractedComponent `db:"extracted_components" json:"extractedComponentsFromWholeBlood"`
	// Append-only.
	Recipients []Recipient `db:"recipients" json:"recipients"`

	DonationTime time.Time `db:"donation_time" json:"donationTime"`
	Revision     int       `db:"revision" json:"revision"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

func (d *Donation) IsWholeBlood() bool {
	return d.ComponentType == ComponentWholeBlood
}

type ExtractedComponent struct {
	Component ComponentType `json:"component"`
	Quantity  int           `json:"quantity"`
}

type Recipient struct {
	Registered  bool    `json:"registered"`
	RecipientID *string `json:"recipientId,omitempty"`
	FullName    string  `json:"fullName"`
	Phone       string  `json:"phone"`
	Email       string  `json:"email"`

	ComponentGiven ComponentType `json:"componentGiven"`
	// Nil on legacy allocations recorded before quantities were tracked.
	ComponentQuantityGiven *int `json:"componentQuantityGiven,omitempty"`
}
