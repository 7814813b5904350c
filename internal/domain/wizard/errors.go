// internal/domain/wizard/errors.go
package wizard

import (
	"errors"
	"fmt"

	"github.com/your-org/eyewear-backend/internal/domain/prescription"
)

var (
	ErrInvalidTransition     = errors.New("event not allowed on the current step")
	ErrNoPreviousStep        = errors.New("no previous step")
	ErrUnknownOption         = errors.New("option is not offered for this product")
	ErrNoProgressiveVariants = errors.New("no progressive variants available")
	ErrInvalidQuantity       = errors.New("quantity must be at least 1")
	ErrNotReady              = errors.New("lens options are still loading")
	ErrSessionClosed         = errors.New("wizard session is closed")
	ErrStaleResolution       = errors.New("lens configuration arrived for a closed or replaced wizard")
)

// StepIncompleteError blocks leaving a step until a selection is made
type StepIncompleteError struct {
	Step    Step
	Message string
}

func (e *StepIncompleteError) Error() string {
	return e.Message
}

// CartSubmissionError wraps a failed add to cart. The wizard stays on the summary.
type CartSubmissionError struct {
	Err error
}

func (e *CartSubmissionError) Error() string {
	return fmt.Sprintf("failed to add item to cart: %v", e.Err)
}

func (e *CartSubmissionError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text shown to the buyer for a rejected event
func UserMessage(err error) string {
	var incomplete *StepIncompleteError
	var cartErr *CartSubmissionError
	switch {
	case errors.As(err, &incomplete):
		return incomplete.Message
	case errors.As(err, &cartErr):
		return "We could not add this item to your cart. Please try again."
	case errors.Is(err, ErrNoProgressiveVariants):
		return "No progressive lens options are available right now. Please choose another lens type."
	case errors.Is(err, ErrNoPreviousStep):
		return "You are already on the first step."
	case errors.Is(err, ErrInvalidQuantity):
		return "Please choose a quantity of at least 1."
	default:
		return prescription.UserMessage(err)
	}
}
