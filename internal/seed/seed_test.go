package seed

import (
	"testing"

	"vitalflow/internal/auth"
	"vitalflow/internal/ledger"
	"vitalflow/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixturePasswordIsAccepted(t *testing.T) {
	assert.True(t, auth.StrongPassword(FixturePassword))
}

func TestFixturesReferenceEachOther(t *testing.T) {
	banks := map[string]*types.BloodBank{}
	for _, b := range fixtureBloodBanks() {
		require.True(t, b.Category.Valid())
		require.True(t, b.Address.Complete(), b.ID)
		banks[b.ID] = b
	}

	camps := map[string]*types.DonationCamp{}
	for _, c := range fixtureCamps() {
		require.Contains(t, banks, c.BloodBankID)
		require.True(t, c.OrganizationType.Valid())
		require.True(t, c.CampEndTime.After(c.CampStartTime))
		camps[c.ID] = c
	}

	donors := map[string]*types.Donor{}
	for _, d := range fixtureDonors() {
		require.True(t, d.BloodGroup.Valid())
		require.GreaterOrEqual(t, d.Weight, float64(types.MinimumDonorWeight))
		donors[d.ID] = d
	}

	donations, err := fixtureDonations()
	require.NoError(t, err)
	for _, d := range donations {
		require.Contains(t, donors, d.DonorID)
		camp, ok := camps[d.CampID]
		require.True(t, ok)
		assert.Equal(t, types.ApprovalStatusApproved, camp.Status)
		assert.Equal(t, camp.BloodBankID, d.BloodBankID)
		assert.Equal(t, donors[d.DonorID].BloodGroup, d.BloodGroup)
	}
}

func TestFixtureDonationsConserveQuantity(t *testing.T) {
	donations, err := fixtureDonations()
	require.NoError(t, err)

	available := ledger.AvailableByComponent(donations)
	assert.Equal(t, 50, available[types.ComponentPackedRedBloodCells])
	assert.Equal(t, 150, available[types.ComponentFreshFrozenPlasma])
	assert.Equal(t, 50, available[types.ComponentPlateletConcentrate])
	assert.Equal(t, 300, available[types.ComponentSingleDonorPlasma])
}
