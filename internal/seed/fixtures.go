package seed

import (
	"time"

	"vitalflow/internal/ledger"
	"vitalflow/internal/utils"
	"vitalflow/pkg/types"
)

// FixturePassword is the login password of every seeded bank and camp.
const FixturePassword = "Vital@Flow1"

const (
	bankCityID     = "Qm3yT0cHqgVbWk7r1s9LZpXa2nEoUdJf"
	bankRedCrossID = "b7Xc1N4vKpR8sLq2YwZ0eTgHj5MuAiDo"
	campSummerID   = "Jp2rX9mA4kTq7VbN1cWs8LyE0hGdUfZo"
	campPendingID  = "w5Hn3QeR8tYu1IoP6aSd9FgJ2kLzXcVb"
	donorAshaID    = "Fz8Lk2Pq5Wm1Rt7Yx3Cv6Bn9Ja0Sd4Hg"
	donorRaviID    = "Ue1Tr6Yw3Qi9Op4As7Df2Gh5Jk8Lz0Xc"
	donationWBID   = "Nc5Vb8Mx1Za4Sq7Wd0Ef3Rg6Th9Yj2Uk"
	donationFFPID  = "Ik3Ol6Pm9Nj2Bh5Vg8Cf1Xd4Zs7Aq0Ew"
)

func fixtureBloodBanks() []*types.BloodBank {
	return []*types.BloodBank{
		{
			ID:                 bankCityID,
			Name:               "City General Blood Centre",
			ParentHospitalName: utils.StringPtr("City General Hospital"),
			Category:           types.BloodBankCategoryGovernment,
			ContactPersonName:  "Dr Meera Iyer",
			ContactPersonPhone: "9810012345",
			Email:              "citybank+seed@example.com",
			License:            "KA-BB-0001",
			LicenseValidity:    time.Date(2030, 3, 31, 0, 0, 0, 0, time.UTC),
			Address: &types.Address{
				AddressType:  types.AddressTypeBloodbank,
				AddressLine1: "12 Hospital Road",
				State:        "Karnataka",
				City:         "Bengaluru",
				Pincode:      560001,
			},
			ComponentFacility: true,
			HelplineNumber:    utils.StringPtr("9810012399"),
			Status:            types.ApprovalStatusApproved,
		},
		{
			ID:                 bankRedCrossID,
			Name:               "Red Cross Blood Bank",
			Category:           types.BloodBankCategoryRedCross,
			ContactPersonName:  "Anil Kapoor",
			ContactPersonPhone: "9820098765",
			Email:              "redcross+seed@example.com",
			License:            "MH-BB-0420",
			LicenseValidity:    time.Date(2028, 12, 31, 0, 0, 0, 0, time.UTC),
			Address: &types.Address{
				AddressType:  types.AddressTypeBloodbank,
				AddressLine1: "4 Marine Drive",
				State:        "Maharashtra",
				City:         "Mumbai",
				Pincode:      400020,
			},
			Status: types.ApprovalStatusPending,
		},
	}
}

func fixtureCamps() []*types.DonationCamp {
	day := time.Date(2026, 7, 12, 0, 0, 0, 0, time.UTC)
	return []*types.DonationCamp{
		{
			ID:                    campSummerID,
			OrganizationName:      "Koramangala Residents Welfare",
			OrganizationType:      types.OrganizationTypeRWA,
			OrganizerName:         "Kavya Shetty",
			OrganizerMobileNumber: "9900112233",
			OrganizerEmail:        "summercamp+seed@example.com",
			CampName:              "Summer Donation Drive",
			Address: &types.Address{
				AddressType:  types.AddressTypeCamp,
				AddressLine1: "Community Hall, 5th Block",
				State:        "Karnataka",
				City:         "Bengaluru",
				Pincode:      560095,
			},
			BloodBankID:           bankCityID,
			CampDate:              day,
			CampStartTime:         day.Add(9 * time.Hour),
			CampEndTime:           day.Add(16 * time.Hour),
			EstimatedParticipants: 120,
			Status:                types.ApprovalStatusApproved,
		},
		{
			ID:                    campPendingID,
			OrganizationName:      "Terapanth Yuvak Parishad Jayanagar",
			OrganizationType:      types.OrganizationTypeTerapanth,
			OrganizerName:         "Rahul Jain",
			OrganizerMobileNumber: "9844556677",
			OrganizerEmail:        "typ+seed@example.com",
			CampName:              "Monsoon Drive",
			Address: &types.Address{
				AddressType:  types.AddressTypeCamp,
				AddressLine1: "Jain Bhavan",
				State:        "Karnataka",
				City:         "Bengaluru",
				Pincode:      560041,
			},
			BloodBankID:           bankCityID,
			CampDate:              day.AddDate(0, 1, 0),
			CampStartTime:         day.AddDate(0, 1, 0).Add(10 * time.Hour),
			CampEndTime:           day.AddDate(0, 1, 0).Add(15 * time.Hour),
			EstimatedParticipants: 60,
			Status:                types.ApprovalStatusPending,
		},
	}
}

func fixtureDonors() []*types.Donor {
	return []*types.Donor{
		{
			ID:            donorAshaID,
			FullName:      "Asha Rao",
			DOB:           time.Date(1994, 4, 12, 0, 0, 0, 0, time.UTC),
			Weight:        58,
			Gender:        types.GenderFemale,
			BloodGroup:    types.BloodGroupOPos,
			Email:         utils.StringPtr("asha+seed@example.com"),
			Phone:         "9876500001",
			PhoneVerified: true,
			EmailVerified: true,
		},
		{
			ID:            donorRaviID,
			FullName:      "Ravi Kumar",
			DOB:           time.Date(1988, 11, 3, 0, 0, 0, 0, time.UTC),
			Weight:        72,
			Gender:        types.GenderMale,
			BloodGroup:    types.BloodGroupBNeg,
			Phone:         "9876500002",
			PhoneVerified: true,
		},
	}
}

// fixtureDonations builds donations at the approved camp and runs them
// through the ledger so the seeded rows are internally consistent.
func fixtureDonations() ([]*types.Donation, error) {
	collected := time.Date(2026, 7, 12, 11, 30, 0, 0, time.UTC)

	wholeBlood := &types.Donation{
		ID:          donationWBID,
		DonorID:     donorAshaID,
		CampID:      campSummerID,
		BloodBankID: bankCityID,
		ComponentDetails: types.ComponentDetails{
			ComponentType:     types.ComponentWholeBlood,
			ComponentQuantity: 450,
			BloodGroup:        types.BloodGroupOPos,
		},
		DonationTime: collected,
	}

	err := ledger.RecordExtraction(wholeBlood, []types.ExtractedComponent{
		{Component: types.ComponentPackedRedBloodCells, Quantity: 250},
		{Component: types.ComponentFreshFrozenPlasma, Quantity: 150},
		{Component: types.ComponentPlateletConcentrate, Quantity: 50},
	})
	if err != nil {
		return nil, err
	}

	err = ledger.TryAllocate(wholeBlood, types.ComponentPackedRedBloodCells, 200, types.Recipient{
		FullName: "Sunil Verma",
		Phone:    "9123400001",
	})
	if err != nil {
		return nil, err
	}

	plasma := &types.Donation{
		ID:          donationFFPID,
		DonorID:     donorRaviID,
		CampID:      campSummerID,
		BloodBankID: bankCityID,
		ComponentDetails: types.ComponentDetails{
			ComponentType:     types.ComponentSingleDonorPlasma,
			ComponentQuantity: 300,
			BloodGroup:        types.BloodGroupBNeg,
		},
		DonationTime: collected.Add(40 * time.Minute),
	}

	return []*types.Donation{wholeBlood, plasma}, nil
}
