// internal/domain/wizard/machine.go
package wizard

import (
	"fmt"
	"slices"

	"github.com/your-org/eyewear-backend/internal/domain/lens"
	"github.com/your-org/eyewear-backend/internal/domain/prescription"
)

// Apply is the wizard transition function. It never mutates the given state.
// A rejected event returns the previous selections unchanged with Error set.
func Apply(state State, c *Catalog, event Event) (State, error) {
	if state.Step.IsTerminal() {
		return state, ErrSessionClosed
	}

	next := state.Clone()
	next.Error = ""

	if err := apply(&next, c, event); err != nil {
		rejected := state.Clone()
		rejected.Error = UserMessage(err)
		return rejected, err
	}
	return next, nil
}

func apply(s *State, c *Catalog, event Event) error {
	switch e := event.(type) {
	case SelectVariant:
		if e.VariantID != nil && c.Product.Variant(e.VariantID) == nil {
			return fmt.Errorf("product variant %d: %w", *e.VariantID, ErrUnknownOption)
		}
		s.VariantID = e.VariantID
		return nil

	case SelectLensType:
		return selectLensType(s, c, e)

	case SelectProgressiveVariant:
		if err := requireStep(s, StepProgressiveVariant); err != nil {
			return err
		}
		for i := range s.AvailableVariants {
			if s.AvailableVariants[i].ID == e.ID {
				v := s.AvailableVariants[i]
				s.ProgressiveVariant = &v
				return nil
			}
		}
		return fmt.Errorf("progressive variant %d: %w", e.ID, ErrUnknownOption)

	case SubmitPrescription:
		if err := requireStep(s, StepPrescription); err != nil {
			return err
		}
		form := e.Form
		form.Astigmatism = c.Astigmatism()
		if err := prescription.ValidateForm(form, &c.Config.PrescriptionOptions); err != nil {
			return err
		}
		form = prescription.Normalize(form)
		s.Prescription = &form
		forward(s, StepLensThickness)
		return nil

	case SelectThicknessMaterial:
		if err := requireStep(s, StepLensThickness); err != nil {
			return err
		}
		material := c.Config.ThicknessMaterial(e.ID)
		if material == nil {
			return fmt.Errorf("thickness material %d: %w", e.ID, ErrUnknownOption)
		}
		m := *material
		s.ThicknessMaterial = &m
		return nil

	case SelectLensIndex:
		if err := requireStep(s, StepLensThickness); err != nil {
			return err
		}
		option := c.Config.ThicknessOption(e.ID)
		if option == nil {
			return fmt.Errorf("lens index %d: %w", e.ID, ErrUnknownOption)
		}
		o := *option
		s.LensIndex = &o
		return nil

	case ToggleTreatment:
		if c.Config.Treatment(e.ID) == nil {
			return fmt.Errorf("treatment %d: %w", e.ID, ErrUnknownOption)
		}
		if i := slices.Index(s.Treatments, e.ID); i >= 0 {
			s.Treatments = slices.Delete(s.Treatments, i, i+1)
		} else {
			s.Treatments = append(s.Treatments, e.ID)
		}
		return nil

	case SelectFrameSize:
		if err := requireStep(s, StepFrameSize); err != nil {
			return err
		}
		size := c.Product.FrameSize(e.ID)
		if size == nil {
			return fmt.Errorf("frame size %d: %w", e.ID, ErrUnknownOption)
		}
		fs := *size
		s.FrameSize = &fs
		return nil

	case SetQuantity:
		if e.Quantity < 1 {
			return ErrInvalidQuantity
		}
		s.Quantity = e.Quantity
		return nil

	case SelectShipping:
		if c.ShippingMethod(e.MethodID) == nil {
			return fmt.Errorf("shipping method %q: %w", e.MethodID, ErrUnknownOption)
		}
		s.Shipping = e.MethodID
		return nil

	case ApplyCoupon:
		coupon := e.Coupon
		s.Coupon = &coupon
		return nil

	case RemoveCoupon:
		s.Coupon = nil
		return nil

	case RemoveSelection:
		return removeSelection(s, e)

	case Continue:
		return advance(s, c)

	case Back:
		return back(s)

	case Close:
		*s = State{Step: StepClosed, ProductID: s.ProductID}
		return nil

	case CartAdded:
		if err := requireStep(s, StepSummary); err != nil {
			return err
		}
		*s = State{Step: StepCompleted, ProductID: s.ProductID}
		return nil

	default:
		return fmt.Errorf("%s: %w", event.Name(), ErrInvalidTransition)
	}
}

func selectLensType(s *State, c *Catalog, e SelectLensType) error {
	if err := requireStep(s, StepLensType); err != nil {
		return err
	}

	found := c.Config.LensType(e.LensTypeID, e.Slug)
	if found == nil {
		return fmt.Errorf("lens type %d: %w", e.LensTypeID, ErrUnknownOption)
	}
	lensType := *found
	category := lensType.Category()

	var variants []lens.ProgressiveVariant
	if category == lens.CategoryProgressive {
		for _, v := range e.Variants {
			if v.IsActive {
				variants = append(variants, v)
			}
		}
		if len(variants) == 0 {
			return ErrNoProgressiveVariants
		}
	}

	if !sameLensType(s.LensType, &lensType) {
		s.ProgressiveVariant = nil
	}
	if !category.NeedsPrescription() {
		s.Prescription = nil
	}
	s.LensType = &lensType
	s.AvailableVariants = variants

	forward(s, stepAfterLensType(category))
	return nil
}

// advance implements Continue for every step
func advance(s *State, c *Catalog) error {
	switch s.Step {
	case StepLensType:
		if s.LensType == nil {
			return incomplete(StepLensType, "Please select a lens type.")
		}
		category := s.LensCategory()
		if category == lens.CategoryProgressive && len(s.AvailableVariants) == 0 {
			return ErrNoProgressiveVariants
		}
		forward(s, stepAfterLensType(category))

	case StepProgressiveVariant:
		if s.ProgressiveVariant == nil {
			return incomplete(StepProgressiveVariant, "Please select a progressive lens option.")
		}
		forward(s, StepPrescription)

	case StepPrescription:
		if s.Prescription == nil {
			return incomplete(StepPrescription, "Please enter your prescription.")
		}
		form := *s.Prescription
		form.Astigmatism = c.Astigmatism()
		if err := prescription.ValidateForm(form, &c.Config.PrescriptionOptions); err != nil {
			return err
		}
		forward(s, StepLensThickness)

	case StepLensThickness:
		if err := thicknessComplete(s, c); err != nil {
			return err
		}
		forward(s, StepTreatments)

	case StepTreatments:
		if c.Product.HasFrameSizes() {
			forward(s, StepFrameSize)
		} else {
			forward(s, StepSummary)
		}

	case StepFrameSize:
		if s.FrameSize == nil {
			return incomplete(StepFrameSize, "Please select a frame size.")
		}
		forward(s, StepSummary)

	default:
		return fmt.Errorf("continue from %s: %w", s.Step, ErrInvalidTransition)
	}
	return nil
}

// back pops the forward edge. Leaving the prescription step backwards drops the
// captured prescription so it is entered again; every other selection is kept.
func back(s *State) error {
	if len(s.History) == 0 {
		return ErrNoPreviousStep
	}
	if s.Step == StepPrescription {
		s.Prescription = nil
	}
	last := len(s.History) - 1
	s.Step = s.History[last]
	s.History = s.History[:last]
	return nil
}

func removeSelection(s *State, e RemoveSelection) error {
	switch e.Kind {
	case SelectionLensType:
		s.LensType = nil
		s.AvailableVariants = nil
		s.ProgressiveVariant = nil
	case SelectionProgressiveVariant:
		s.ProgressiveVariant = nil
	case SelectionThicknessMaterial:
		s.ThicknessMaterial = nil
	case SelectionLensIndex:
		s.LensIndex = nil
	case SelectionTreatment:
		i := slices.Index(s.Treatments, e.ID)
		if i < 0 {
			return fmt.Errorf("treatment %d: %w", e.ID, ErrUnknownOption)
		}
		s.Treatments = slices.Delete(s.Treatments, i, i+1)
	case SelectionFrameSize:
		s.FrameSize = nil
	default:
		return fmt.Errorf("remove %q: %w", e.Kind, ErrInvalidTransition)
	}
	return nil
}

func thicknessComplete(s *State, c *Catalog) error {
	if len(c.Config.ThicknessMaterials) > 0 && s.ThicknessMaterial == nil {
		return incomplete(StepLensThickness, "Please select a lens material.")
	}
	if len(c.Config.ThicknessOptions) > 0 && s.LensIndex == nil {
		return incomplete(StepLensThickness, "Please select a lens thickness.")
	}
	return nil
}

func stepAfterLensType(category lens.LensCategory) Step {
	switch category {
	case lens.CategoryProgressive:
		return StepProgressiveVariant
	case lens.CategoryRequiresPrescription:
		return StepPrescription
	default:
		return StepLensThickness
	}
}

func forward(s *State, to Step) {
	s.History = append(s.History, s.Step)
	s.Step = to
}

func requireStep(s *State, step Step) error {
	if s.Step != step {
		return fmt.Errorf("expected step %s, wizard is on %s: %w", step, s.Step, ErrInvalidTransition)
	}
	return nil
}

func sameLensType(a, b *lens.LensType) bool {
	if a == nil || b == nil {
		return false
	}
	if a.ID != 0 || b.ID != 0 {
		return a.ID == b.ID
	}
	return a.Slug == b.Slug
}

func incomplete(step Step, message string) *StepIncompleteError {
	return &StepIncompleteError{Step: step, Message: message}
}
