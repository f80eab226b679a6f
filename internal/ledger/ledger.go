// Package ledger enforces conservation of donated blood: what is allocated to
// recipients never exceeds what was extracted, and what was extracted never
// exceeds what was donated.
package ledger

import (
	"fmt"

	"vitalflow/internal/utils"
	"vitalflow/pkg/types"
)

// BasisQuantity returns how much of component the donation can supply.
func BasisQuantity(donation *types.Donation, component types.ComponentType) (int, error) {
	if !donation.IsWholeBlood() {
		if component != donation.ComponentType {
			return 0, ErrInvalidComponent
		}
		return donation.ComponentQuantity, nil
	}

	for _, extracted := range donation.ExtractedComponents {
		if extracted.Component == component {
			return extracted.Quantity, nil
		}
	}

	return 0, ErrInvalidComponent
}

// Allocated sums the quantity already given to recipients for component.
// Allocations without a recorded quantity count as zero.
func Allocated(donation *types.Donation, component types.ComponentType) int {
	total := 0
	for _, r := range donation.Recipients {
		if r.ComponentGiven == component {
			total += utils.PtrInt(r.ComponentQuantityGiven)
		}
	}
	return total
}

// Remaining is the basis quantity minus what has been allocated.
func Remaining(donation *types.Donation, component types.ComponentType) (int, error) {
	basis, err := BasisQuantity(donation, component)
	if err != nil {
		return 0, err
	}
	return basis - Allocated(donation, component), nil
}

// TryAllocate appends an allocation of requested ml of component to recipient.
// The donation is left untouched on failure.
func TryAllocate(donation *types.Donation, component types.ComponentType, requested int, recipient types.Recipient) error {
	remaining, err := Remaining(donation, component)
	if err != nil {
		return err
	}

	if requested > remaining {
		if remaining < 0 {
			remaining = 0
		}
		return &InsufficientQuantityError{Component: component, Remaining: remaining}
	}

	recipient.ComponentGiven = component
	recipient.ComponentQuantityGiven = utils.IntPtr(requested)
	donation.Recipients = append(donation.Recipients, recipient)

	return nil
}

// RecordExtraction replaces the donation's extracted component list.
func RecordExtraction(donation *types.Donation, extracted []types.ExtractedComponent) error {
	if !donation.IsWholeBlood() {
		return ErrNotWholeBlood
	}

	total := 0
	for _, item := range extracted {
		total += item.Quantity
	}

	if total > donation.ComponentQuantity {
		return ErrExceedsDonatedQuantity
	}

	// A replacement list must still cover every allocation already made.
	replacement := &types.Donation{ComponentDetails: donation.ComponentDetails, ExtractedComponents: extracted}
	for _, r := range donation.Recipients {
		given := Allocated(donation, r.ComponentGiven)
		basis, err := BasisQuantity(replacement, r.ComponentGiven)
		if err != nil || basis < given {
			return fmt.Errorf("%w: %d ml of %s already allocated", ErrExtractionBelowAllocated, given, r.ComponentGiven)
		}
	}

	donation.ExtractedComponents = append([]types.ExtractedComponent{}, extracted...)
	return nil
}

// AvailableByComponent reports, per component, what is still unallocated
// across donations. Whole blood contributes its extracted components;
// everything else contributes its own component.
func AvailableByComponent(donations []*types.Donation) map[types.ComponentType]int {
	available := make(map[types.ComponentType]int)
	given := make(map[types.ComponentType]int)

	for _, d := range donations {
		if d.IsWholeBlood() {
			for _, extracted := range d.ExtractedComponents {
				available[extracted.Component] += extracted.Quantity
			}
		} else {
			available[d.ComponentType] += d.ComponentQuantity
		}

		for _, r := range d.Recipients {
			given[r.ComponentGiven] += utils.PtrInt(r.ComponentQuantityGiven)
		}
	}

	remaining := make(map[types.ComponentType]int, len(available))
	for component, total := range available {
		remaining[component] = max(0, total-given[component])
	}

	return remaining
}
