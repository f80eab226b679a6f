package types

import "time"

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "Pending"
	ApprovalStatusApproved ApprovalStatus = "Approved"
	ApprovalStatusRejected ApprovalStatus = "Rejected"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected:
		return true
	}
	return false
}

type BloodBankCategory string

const (
	BloodBankCategoryGovernment BloodBankCategory = "Government"
	BloodBankCategoryRedCross   BloodBankCategory = "RedCross"
	BloodBankCategoryCharitable BloodBankCategory = "Charitable/Vol"
	BloodBankCategoryPrivate    BloodBankCategory = "Private"
)

func (c BloodBankCategory) Valid() bool {
	switch c {
	case BloodBankCategoryGovernment, BloodBankCategoryRedCross, BloodBankCategoryCharitable, BloodBankCategoryPrivate:
		return true
	}
	return false
}

type BloodBank struct {
	ID                 string            `db:"id" json:"id"`
	Name               string            `db:"name" json:"name"`
	ParentHospitalName *string           `db:"parent_hospital_name" json:"parentHospitalName,omitempty"`
	Category           BloodBankCategory `db:"category" json:"category"`
	ContactPersonName  string            `db:"contact_person_name" json:"contactPersonName"`
	ContactPersonPhone string            `db:"contact_person_phone" json:"contactPersonPhone"`
	Email              string            `db:"email" json:"email"`
	PasswordHash       string            `db:"password_hash" json:"-"`
	License            string            `db:"license" json:"license"`
	LicenseValidity    time.Time         `db:"license_validity" json:"licenseValidity"`
	LicenseDocumentKey *string           `db:"license_document_key" json:"licenseDocumentKey,omitempty"`
	Address            *Address          `db:"address" json:"address,omitempty"`
	Website            *string           `db:"website" json:"website,omitempty"`
	ComponentFacility  bool              `db:"component_facility" json:"componentFacility"`
	ApheresisFacility  bool              `db:"apheresis_facility" json:"apheresisFacility"`
	HelplineNumber     *string           `db:"helpline_number" json:"helplineNumber,omitempty"`
	Status             ApprovalStatus    `db:"status" json:"status"`
	CreatedAt          time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updatedAt"`
}

// BloodBankFilter narrows blood bank listings. Zero values are ignored.
type BloodBankFilter struct {
	Pincode  int               `form:"pincode"`
	Category BloodBankCategory `form:"category"`
	Name     string            `form:"name"`
	Status   ApprovalStatus    `form:"status"`
}
