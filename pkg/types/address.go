package types

type AddressType string

const (
	AddressTypeDonor     AddressType = "Donor"
	AddressTypeBloodbank AddressType = "Bloodbank"
	AddressTypeCamp      AddressType = "Camp"
)

type Address struct {
	AddressType  AddressType `json:"addressType"`
	AddressLine1 string      `json:"addressLine1"`
	AddressLine2 string      `json:"addressLine2,omitempty"`
	State        string      `json:"state"`
	City         string      `json:"city"`
	Pincode      int         `json:"pincode"`
	Longitude    float64     `json:"longitude,omitempty"`
	Latitude     float64     `json:"latitude,omitempty"`
}

// Complete reports whether the fields required for registration are present.
func (a *Address) Complete() bool {
	return a != nil && a.AddressLine1 != "" && a.State != "" && a.City != "" && a.Pincode != 0
}
