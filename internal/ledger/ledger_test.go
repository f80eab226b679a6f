package ledger

import (
	"testing"

	"vitalflow/internal/utils"
	"vitalflow/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func directDonation(component types.ComponentType, quantity int) *types.Donation {
	return &types.Donation{
		ID:          "d1",
		BloodBankID: "bank1",
		ComponentDetails: types.ComponentDetails{
			ComponentType:     component,
			ComponentQuantity: quantity,
			BloodGroup:        types.BloodGroupOPos,
		},
		Revision: 1,
	}
}

func wholeBlood(quantity int, extracted ...types.ExtractedComponent) *types.Donation {
	d := directDonation(types.ComponentWholeBlood, quantity)
	d.ExtractedComponents = extracted
	return d
}

func walkIn(name string) types.Recipient {
	return types.Recipient{FullName: name, Phone: "9876543210"}
}

func TestBasisQuantity(t *testing.T) {
	tests := []struct {
		name      string
		donation  *types.Donation
		component types.ComponentType
		want      int
		wantErr   error
	}{
		{
			name:      "direct donation matching component",
			donation:  directDonation(types.ComponentPlasma, 250),
			component: types.ComponentPlasma,
			want:      250,
		},
		{
			name:      "direct donation other component",
			donation:  directDonation(types.ComponentPlasma, 250),
			component: types.ComponentPlateletConcentrate,
			wantErr:   ErrInvalidComponent,
		},
		{
			name:      "whole blood extracted component",
			donation:  wholeBlood(450, types.ExtractedComponent{Component: types.ComponentPlasma, Quantity: 200}),
			component: types.ComponentPlasma,
			want:      200,
		},
		{
			name:      "whole blood component not extracted",
			donation:  wholeBlood(450, types.ExtractedComponent{Component: types.ComponentPlasma, Quantity: 200}),
			component: types.ComponentSagmPackedRBC,
			wantErr:   ErrInvalidComponent,
		},
		{
			name:      "whole blood itself is never a basis",
			donation:  wholeBlood(450),
			component: types.ComponentWholeBlood,
			wantErr:   ErrInvalidComponent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BasisQuantity(tt.donation, tt.component)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllocatedIgnoresLegacyEntries(t *testing.T) {
	d := directDonation(types.ComponentPlasma, 300)
	d.Recipients = []types.Recipient{
		{ComponentGiven: types.ComponentPlasma, ComponentQuantityGiven: utils.IntPtr(100)},
		{ComponentGiven: types.ComponentPlasma},
		{ComponentGiven: types.ComponentPlateletConcentrate, ComponentQuantityGiven: utils.IntPtr(40)},
	}

	assert.Equal(t, 100, Allocated(d, types.ComponentPlasma))
	assert.Equal(t, 40, Allocated(d, types.ComponentPlateletConcentrate))
	assert.Equal(t, 0, Allocated(d, types.ComponentCryoprecipitate))
}

func TestDirectDonationRejectsOtherComponents(t *testing.T) {
	for _, donated := range types.ComponentTypes {
		if donated == types.ComponentWholeBlood {
			continue
		}
		for _, requested := range types.ComponentTypes {
			if requested == donated {
				continue
			}
			d := directDonation(donated, 300)
			err := TryAllocate(d, requested, 1, walkIn("A"))
			assert.ErrorIs(t, err, ErrInvalidComponent, "%s from %s", requested, donated)
			assert.Empty(t, d.Recipients)
		}
	}
}

func TestPackedRedCellsExhausted(t *testing.T) {
	d := directDonation(types.ComponentPackedRedBloodCells, 300)

	require.NoError(t, TryAllocate(d, types.ComponentPackedRedBloodCells, 300, walkIn("A")))
	remaining, err := Remaining(d, types.ComponentPackedRedBloodCells)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	err = TryAllocate(d, types.ComponentPackedRedBloodCells, 1, walkIn("B"))
	require.ErrorIs(t, err, ErrInsufficientQuantity)

	var insufficient *InsufficientQuantityError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 0, insufficient.Remaining)
	assert.Len(t, d.Recipients, 1)
}

func TestWholeBloodExtractThenAllocate(t *testing.T) {
	d := wholeBlood(450)

	require.NoError(t, RecordExtraction(d, []types.ExtractedComponent{
		{Component: types.ComponentPlasma, Quantity: 200},
		{Component: types.ComponentPlateletConcentrate, Quantity: 150},
	}))

	require.NoError(t, TryAllocate(d, types.ComponentPlasma, 150, walkIn("A")))
	remaining, err := Remaining(d, types.ComponentPlasma)
	require.NoError(t, err)
	assert.Equal(t, 50, remaining)

	err = TryAllocate(d, types.ComponentPlasma, 60, walkIn("B"))
	var insufficient *InsufficientQuantityError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 50, insufficient.Remaining)
	assert.Equal(t, types.ComponentPlasma, insufficient.Component)
}

func TestWholeBloodWithoutExtraction(t *testing.T) {
	d := wholeBlood(450)
	for _, component := range types.ComponentTypes {
		assert.ErrorIs(t, TryAllocate(d, component, 1, walkIn("A")), ErrInvalidComponent)
	}
}

func TestRecordExtraction(t *testing.T) {
	t.Run("over donated quantity", func(t *testing.T) {
		d := wholeBlood(450)
		err := RecordExtraction(d, []types.ExtractedComponent{
			{Component: types.ComponentPlasma, Quantity: 300},
			{Component: types.ComponentPlateletConcentrate, Quantity: 200},
		})
		assert.ErrorIs(t, err, ErrExceedsDonatedQuantity)
		assert.Empty(t, d.ExtractedComponents)
	})

	t.Run("exactly donated quantity", func(t *testing.T) {
		d := wholeBlood(450)
		err := RecordExtraction(d, []types.ExtractedComponent{
			{Component: types.ComponentPlasma, Quantity: 250},
			{Component: types.ComponentPlateletConcentrate, Quantity: 200},
		})
		require.NoError(t, err)
		assert.Len(t, d.ExtractedComponents, 2)
	})

	t.Run("not whole blood", func(t *testing.T) {
		d := directDonation(types.ComponentPlasma, 450)
		err := RecordExtraction(d, []types.ExtractedComponent{{Component: types.ComponentPlasma, Quantity: 10}})
		assert.ErrorIs(t, err, ErrNotWholeBlood)
	})

	t.Run("replaces previous list", func(t *testing.T) {
		d := wholeBlood(450, types.ExtractedComponent{Component: types.ComponentPlasma, Quantity: 200})
		require.NoError(t, RecordExtraction(d, []types.ExtractedComponent{
			{Component: types.ComponentCryoprecipitate, Quantity: 50},
		}))
		assert.Equal(t, []types.ExtractedComponent{{Component: types.ComponentCryoprecipitate, Quantity: 50}}, d.ExtractedComponents)
	})

	t.Run("below allocated quantity", func(t *testing.T) {
		d := wholeBlood(450, types.ExtractedComponent{Component: types.ComponentPlasma, Quantity: 200})
		require.NoError(t, TryAllocate(d, types.ComponentPlasma, 150, walkIn("A")))

		err := RecordExtraction(d, []types.ExtractedComponent{{Component: types.ComponentPlasma, Quantity: 50}})
		assert.ErrorIs(t, err, ErrExtractionBelowAllocated)
		basis, err := BasisQuantity(d, types.ComponentPlasma)
		require.NoError(t, err)
		assert.Equal(t, 200, basis)
	})

	t.Run("drops allocated component", func(t *testing.T) {
		d := wholeBlood(450, types.ExtractedComponent{Component: types.ComponentPlasma, Quantity: 200})
		require.NoError(t, TryAllocate(d, types.ComponentPlasma, 150, walkIn("A")))

		err := RecordExtraction(d, []types.ExtractedComponent{{Component: types.ComponentPlateletConcentrate, Quantity: 100}})
		assert.ErrorIs(t, err, ErrExtractionBelowAllocated)
		assert.Equal(t, 50, AvailableByComponent([]*types.Donation{d})[types.ComponentPlasma])
	})

	t.Run("covers allocated quantity", func(t *testing.T) {
		d := wholeBlood(450, types.ExtractedComponent{Component: types.ComponentPlasma, Quantity: 200})
		require.NoError(t, TryAllocate(d, types.ComponentPlasma, 150, walkIn("A")))

		require.NoError(t, RecordExtraction(d, []types.ExtractedComponent{
			{Component: types.ComponentPlasma, Quantity: 150},
			{Component: types.ComponentPlateletConcentrate, Quantity: 100},
		}))
		remaining, err := Remaining(d, types.ComponentPlasma)
		require.NoError(t, err)
		assert.Equal(t, 0, remaining)
	})
}

func TestRepeatedAllocationsNeverExceedBasis(t *testing.T) {
	d := wholeBlood(450)
	require.NoError(t, RecordExtraction(d, []types.ExtractedComponent{
		{Component: types.ComponentPlasma, Quantity: 200},
		{Component: types.ComponentSagmPackedRBC, Quantity: 220},
	}))

	requests := []int{70, 30, 90, 15, 5, 60, 1, 200, 20, 10}
	for _, component := range []types.ComponentType{types.ComponentPlasma, types.ComponentSagmPackedRBC} {
		basis, err := BasisQuantity(d, component)
		require.NoError(t, err)

		for _, q := range requests {
			_ = TryAllocate(d, component, q, walkIn("X"))
			assert.LessOrEqual(t, Allocated(d, component), basis)
		}
	}
}

func TestAvailableByComponent(t *testing.T) {
	plasma := directDonation(types.ComponentPlasma, 300)
	plasma.Recipients = []types.Recipient{
		{ComponentGiven: types.ComponentPlasma, ComponentQuantityGiven: utils.IntPtr(100)},
	}

	whole := wholeBlood(450,
		types.ExtractedComponent{Component: types.ComponentPlasma, Quantity: 200},
		types.ExtractedComponent{Component: types.ComponentPlateletConcentrate, Quantity: 150},
	)
	whole.Recipients = []types.Recipient{
		{ComponentGiven: types.ComponentPlateletConcentrate, ComponentQuantityGiven: utils.IntPtr(150)},
		{ComponentGiven: types.ComponentPlasma},
	}

	unextracted := wholeBlood(450)

	got := AvailableByComponent([]*types.Donation{plasma, whole, unextracted})
	assert.Equal(t, map[types.ComponentType]int{
		types.ComponentPlasma:              400,
		types.ComponentPlateletConcentrate: 0,
	}, got)
}

func TestAvailableByComponentEmpty(t *testing.T) {
	assert.Empty(t, AvailableByComponent(nil))
}
