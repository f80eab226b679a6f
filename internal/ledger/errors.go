package ledger

import (
	"errors"
	"fmt"

	"vitalflow/pkg/types"
)

var (
	// ErrInvalidComponent means the donation has no basis quantity for the
	// requested component: the wrong component for a direct donation, or one
	// never extracted from a whole-blood unit.
	ErrInvalidComponent       = errors.New("component is not available from this donation")
	ErrInsufficientQuantity   = errors.New("requested quantity exceeds remaining quantity")
	ErrNotWholeBlood          = errors.New("components can only be extracted from whole blood")
	ErrExceedsDonatedQuantity = errors.New("extracted quantity exceeds donated quantity")

	// ErrExtractionBelowAllocated means a replacement extraction list would
	// shrink or drop a component below what recipients were already given.
	ErrExtractionBelowAllocated = errors.New("extracted quantity is below allocated quantity")

	ErrRevisionConflict = types.ErrRevisionConflict
)

// InsufficientQuantityError carries the quantity still available for the
// component so callers can show it.
type InsufficientQuantityError struct {
	Component types.ComponentType
	Remaining int
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("only %d ml of %s remaining", e.Remaining, e.Component)
}

func (e *InsufficientQuantityError) Unwrap() error {
	return ErrInsufficientQuantity
}

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
