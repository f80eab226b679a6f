package types

import "time"

type OrganizationType string

const (
	OrganizationTypeSewa      OrganizationType = "Sewa hi Sangathan - Health Volunteers"
	OrganizationTypeTerapanth OrganizationType = "Terapanth Yuvak Parishad"
	OrganizationTypeRedCross  OrganizationType = "RedCross"
	OrganizationTypeRWA       OrganizationType = "RWA"
	OrganizationTypeOther     OrganizationType = "Other"
)

func (o OrganizationType) Valid() bool {
	switch o {
	case OrganizationTypeSewa, OrganizationTypeTerapanth, OrganizationTypeRedCross, OrganizationTypeRWA, OrganizationTypeOther:
		return true
	}
	return false
}

type DonationCamp struct {
	ID                      string           `db:"id" json:"id"`
	OrganizationName        string           `db:"organization_name" json:"organizationName"`
	OrganizationType        OrganizationType `db:"organization_type" json:"organizationType"`
	OrganizerName           string           `db:"organizer_name" json:"organizerName"`
	OrganizerMobileNumber   string           `db:"organizer_mobile_number" json:"organizerMobileNumber"`
	OrganizerEmail          string           `db:"organizer_email" json:"organizerEmail"`
	CoOrganizerName         *string          `db:"co_organizer_name" json:"coOrganizerName,omitempty"`
	CoOrganizerMobileNumber *string          `db:"co_organizer_mobile_number" json:"coOrganizerMobileNumber,omitempty"`
	CampName                string           `db:"camp_name" json:"campName"`
	Address                 *Address         `db:"address" json:"address,omitempty"`
	BloodBankID             string           `db:"blood_bank_id" json:"bloodBankId"`
	CampDate                time.Time        `db:"camp_date" json:"campDate"`
	CampStartTime           time.Time        `db:"camp_start_time" json:"campStartTime"`
	CampEndTime             time.Time        `db:"camp_end_time" json:"campEndTime"`
	EstimatedParticipants   int              `db:"estimated_participants" json:"estimatedParticipants"`
	Supporter               *string          `db:"supporter" json:"supporter,omitempty"`
	Remarks                 *string          `db:"remarks" json:"remarks,omitempty"`
	PasswordHash            string           `db:"password_hash" json:"-"`
	Status                  ApprovalStatus   `db:"status" json:"status"`
	CreatedAt               time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt               time.Time        `db:"updated_at" json:"updatedAt"`
}

// CampFilter narrows a blood bank's camp listing. Zero values are ignored.
type CampFilter struct {
	Status           ApprovalStatus   `form:"status"`
	OrganizationType OrganizationType `form:"organizationType"`
	Date             string           `form:"date"`
	State            string           `form:"state"`
	City             string           `form:"city"`
}
