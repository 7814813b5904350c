// internal/domain/wizard/state.go
package wizard

import (
	"slices"

	"github.com/shopspring/decimal"
	"github.com/your-org/eyewear-backend/internal/domain/checkout"
	"github.com/your-org/eyewear-backend/internal/domain/lens"
	"github.com/your-org/eyewear-backend/internal/domain/prescription"
	"github.com/your-org/eyewear-backend/internal/domain/product"
)

// Step is a wizard step
type Step string

const (
	StepLensType           Step = "lens_type"
	StepProgressiveVariant Step = "progressive_variant"
	StepPrescription       Step = "prescription"
	StepLensThickness      Step = "lens_thickness"
	StepTreatments         Step = "treatments"
	StepFrameSize          Step = "frame_size"
	StepSummary            Step = "summary"

	// Terminal steps
	StepCompleted Step = "completed"
	StepClosed    Step = "closed"
)

// IsTerminal reports whether the wizard has finished
func (s Step) IsTerminal() bool {
	return s == StepCompleted || s == StepClosed
}

// State is everything the buyer has selected in one wizard session
type State struct {
	Step      Step   `json:"step"`
	History   []Step `json:"history"`
	ProductID uint   `json:"product_id"`
	VariantID *uint  `json:"variant_id,omitempty"`

	LensType           *lens.LensType              `json:"lens_type,omitempty"`
	AvailableVariants  []lens.ProgressiveVariant   `json:"available_variants,omitempty"`
	ProgressiveVariant *lens.ProgressiveVariant    `json:"progressive_variant,omitempty"`
	Prescription       *prescription.Form          `json:"prescription,omitempty"`
	ThicknessMaterial  *lens.LensThicknessMaterial `json:"thickness_material,omitempty"`
	LensIndex          *lens.LensThicknessOption   `json:"lens_index,omitempty"`
	Treatments         []uint                      `json:"treatments"`
	FrameSize          *product.FrameSize          `json:"frame_size,omitempty"`

	Quantity int              `json:"quantity"`
	Shipping string           `json:"shipping"`
	Coupon   *checkout.Coupon `json:"coupon,omitempty"`

	// Error is the message of the last rejected event, cleared by the next accepted one
	Error string `json:"error,omitempty"`
}

// Catalog is the read-only data one wizard session works against
type Catalog struct {
	Product         *product.Product
	Config          *lens.ResolvedConfig
	ShippingMethods []checkout.ShippingMethod
	DefaultPD       decimal.Decimal
}

// Astigmatism reports whether the product's category takes CYL and AXIS
func (c *Catalog) Astigmatism() bool {
	return c.Product.Category.SupportsAstigmatism()
}

// ShippingMethod finds a shipping method by id
func (c *Catalog) ShippingMethod(id string) *checkout.ShippingMethod {
	for i := range c.ShippingMethods {
		if c.ShippingMethods[i].ID == id {
			return &c.ShippingMethods[i]
		}
	}
	return nil
}

// NewState returns the fresh state of a wizard opened for the catalog's product
func NewState(c *Catalog) State {
	state := State{
		Step:       StepLensType,
		History:    []Step{},
		ProductID:  c.Product.ID,
		Treatments: []uint{},
		Quantity:   1,
	}
	if len(c.ShippingMethods) > 0 {
		state.Shipping = c.ShippingMethods[0].ID
	}
	return state
}

// Clone returns a deep copy of the state
func (s State) Clone() State {
	out := s
	out.History = slices.Clone(s.History)
	out.Treatments = slices.Clone(s.Treatments)
	out.AvailableVariants = slices.Clone(s.AvailableVariants)
	out.VariantID = clonePtr(s.VariantID)
	out.LensType = clonePtr(s.LensType)
	out.ProgressiveVariant = clonePtr(s.ProgressiveVariant)
	out.Prescription = clonePtr(s.Prescription)
	out.ThicknessMaterial = clonePtr(s.ThicknessMaterial)
	out.LensIndex = clonePtr(s.LensIndex)
	out.FrameSize = clonePtr(s.FrameSize)
	out.Coupon = clonePtr(s.Coupon)
	if out.LensType != nil {
		out.LensType.Variants = slices.Clone(s.LensType.Variants)
	}
	return out
}

// LensCategory classifies the selected lens type
func (s *State) LensCategory() lens.LensCategory {
	if s.LensType == nil {
		return lens.CategoryOther
	}
	return s.LensType.Category()
}

// HasTreatment reports whether a treatment is selected
func (s *State) HasTreatment(id uint) bool {
	return slices.Contains(s.Treatments, id)
}

// PrescriptionDraft returns the captured prescription or a fresh form to fill in
func (s *State) PrescriptionDraft(c *Catalog) prescription.Form {
	if s.Prescription != nil {
		return *s.Prescription
	}
	return prescription.NewForm(c.DefaultPD, c.Astigmatism())
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
