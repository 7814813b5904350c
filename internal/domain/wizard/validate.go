// internal/domain/wizard/validate.go
package wizard

import (
	"github.com/your-org/eyewear-backend/internal/domain/lens"
	"github.com/your-org/eyewear-backend/internal/domain/prescription"
)

// Validate is the add-to-cart gate: the wizard must be on the summary with every
// selection its path requires. It returns the first problem found.
func Validate(s State, c *Catalog) error {
	if s.Step.IsTerminal() {
		return ErrSessionClosed
	}
	if s.Step != StepSummary {
		return incomplete(s.Step, "Please complete every step before adding to cart.")
	}

	if s.LensType == nil {
		return incomplete(StepLensType, "Please select a lens type.")
	}
	category := s.LensCategory()

	if category == lens.CategoryProgressive && s.ProgressiveVariant == nil {
		return incomplete(StepProgressiveVariant, "Please select a progressive lens option.")
	}

	if category.NeedsPrescription() {
		if s.Prescription == nil {
			return incomplete(StepPrescription, "Please enter your prescription.")
		}
		form := *s.Prescription
		form.Astigmatism = c.Astigmatism()
		if err := prescription.ValidateForm(form, &c.Config.PrescriptionOptions); err != nil {
			return err
		}
	}

	if err := thicknessComplete(&s, c); err != nil {
		return err
	}

	if c.Product.HasFrameSizes() && s.FrameSize == nil {
		return incomplete(StepFrameSize, "Please select a frame size.")
	}

	if s.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if c.ShippingMethod(s.Shipping) == nil {
		return incomplete(StepSummary, "Please select a shipping method.")
	}

	return nil
}

// CanAddToCart is the boolean form of Validate
func CanAddToCart(s State, c *Catalog) bool {
	return Validate(s, c) == nil
}
