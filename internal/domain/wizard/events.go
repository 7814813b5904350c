// internal/domain/wizard/events.go
package wizard

import (
	"fmt"

	"github.com/your-org/eyewear-backend/internal/domain/checkout"
	"github.com/your-org/eyewear-backend/internal/domain/lens"
	"github.com/your-org/eyewear-backend/internal/domain/prescription"
)

// Event is an input to the wizard machine
type Event interface {
	Name() string
}

// SelectVariant picks the product variant (colour, finish). Nil selects the base product.
type SelectVariant struct{ VariantID *uint }

// SelectLensType picks a lens type and moves to the step its category leads to.
// Variants must carry the lens type's progressive variants when it is progressive.
type SelectLensType struct {
	LensTypeID uint
	Slug       string
	Variants   []lens.ProgressiveVariant
}

// SelectProgressiveVariant picks a progressive design tier
type SelectProgressiveVariant struct{ ID uint }

// SubmitPrescription captures the prescription form and moves on when it is valid
type SubmitPrescription struct{ Form prescription.Form }

// SelectThicknessMaterial picks a lens material
type SelectThicknessMaterial struct{ ID uint }

// SelectLensIndex picks a refractive index option
type SelectLensIndex struct{ ID uint }

// ToggleTreatment adds or removes a treatment
type ToggleTreatment struct{ ID uint }

// SelectFrameSize picks a frame size
type SelectFrameSize struct{ ID uint }

// SetQuantity changes the number of pairs
type SetQuantity struct{ Quantity int }

// SelectShipping picks a shipping method
type SelectShipping struct{ MethodID string }

// ApplyCoupon records a coupon that was validated by the coupon service
type ApplyCoupon struct{ Coupon checkout.Coupon }

// RemoveCoupon drops the applied coupon
type RemoveCoupon struct{}

// RemoveSelection clears one selection, as when a summary line is removed
type RemoveSelection struct {
	Kind SelectionKind
	ID   uint
}

// Continue leaves the current step when its guard passes
type Continue struct{}

// Back returns along the forward edge that led to the current step
type Back struct{}

// Close cancels the wizard and discards its state
type Close struct{}

// CartAdded finishes the wizard after the cart accepted the item
type CartAdded struct{}

func (SelectVariant) Name() string            { return "select_variant" }
func (SelectLensType) Name() string           { return "select_lens_type" }
func (SelectProgressiveVariant) Name() string { return "select_progressive_variant" }
func (SubmitPrescription) Name() string       { return "submit_prescription" }
func (SelectThicknessMaterial) Name() string  { return "select_thickness_material" }
func (SelectLensIndex) Name() string          { return "select_lens_index" }
func (ToggleTreatment) Name() string          { return "toggle_treatment" }
func (SelectFrameSize) Name() string          { return "select_frame_size" }
func (SetQuantity) Name() string              { return "set_quantity" }
func (SelectShipping) Name() string           { return "select_shipping" }
func (ApplyCoupon) Name() string              { return "apply_validated_coupon" }
func (RemoveCoupon) Name() string             { return "remove_coupon" }
func (RemoveSelection) Name() string          { return "remove_selection" }
func (Continue) Name() string                 { return "continue" }
func (Back) Name() string                     { return "back" }
func (Close) Name() string                    { return "close" }
func (CartAdded) Name() string                { return "cart_added" }

// SelectionKind names a removable selection
type SelectionKind string

const (
	SelectionLensType           SelectionKind = "lens_type"
	SelectionProgressiveVariant SelectionKind = "progressive_variant"
	SelectionThicknessMaterial  SelectionKind = "thickness_material"
	SelectionLensIndex          SelectionKind = "lens_index"
	SelectionTreatment          SelectionKind = "treatment"
	SelectionFrameSize          SelectionKind = "frame_size"
)

// EventRequest is the wire form of an event
type EventRequest struct {
	Type         string             `json:"type" binding:"required"`
	ID           uint               `json:"id,omitempty"`
	Slug         string             `json:"slug,omitempty"`
	VariantID    *uint              `json:"variant_id,omitempty"`
	Quantity     int                `json:"quantity,omitempty"`
	MethodID     string             `json:"method_id,omitempty"`
	CouponCode   string             `json:"coupon_code,omitempty"`
	Prescription *prescription.Form `json:"prescription,omitempty"`
}

// ApplyCouponCode asks the session to validate a code before applying it.
// The machine itself only accepts validated coupons.
type ApplyCouponCode struct{ Code string }

func (ApplyCouponCode) Name() string { return "apply_coupon" }

// Decode turns a wire event into a machine event. Lens type variants are filled
// in by the session, coupon codes are validated by it.
func (r *EventRequest) Decode() (Event, error) {
	switch r.Type {
	case "select_variant":
		return SelectVariant{VariantID: r.VariantID}, nil
	case "select_lens_type":
		return SelectLensType{LensTypeID: r.ID, Slug: r.Slug}, nil
	case "select_progressive_variant":
		return SelectProgressiveVariant{ID: r.ID}, nil
	case "submit_prescription":
		if r.Prescription == nil {
			return nil, fmt.Errorf("prescription is required for %s", r.Type)
		}
		return SubmitPrescription{Form: *r.Prescription}, nil
	case "select_thickness_material":
		return SelectThicknessMaterial{ID: r.ID}, nil
	case "select_lens_index":
		return SelectLensIndex{ID: r.ID}, nil
	case "toggle_treatment":
		return ToggleTreatment{ID: r.ID}, nil
	case "select_frame_size":
		return SelectFrameSize{ID: r.ID}, nil
	case "set_quantity":
		return SetQuantity{Quantity: r.Quantity}, nil
	case "select_shipping":
		return SelectShipping{MethodID: r.MethodID}, nil
	case "apply_coupon":
		return ApplyCouponCode{Code: r.CouponCode}, nil
	case "remove_coupon":
		return RemoveCoupon{}, nil
	case "continue":
		return Continue{}, nil
	case "back":
		return Back{}, nil
	case "close":
		return Close{}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", r.Type)
	}
}
