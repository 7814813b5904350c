// internal/domain/configurator/payload.go
package configurator

import (
	"slices"

	"github.com/your-org/eyewear-backend/internal/domain/cart"
	"github.com/your-org/eyewear-backend/internal/domain/lens"
	"github.com/your-org/eyewear-backend/internal/domain/prescription"
	"github.com/your-org/eyewear-backend/internal/domain/summary"
	"github.com/your-org/eyewear-backend/internal/domain/wizard"
)

// BuildCartPayload materializes a completed wizard state into a cart line.
// Callers run wizard.Validate first.
func BuildCartPayload(s wizard.State, c *wizard.Catalog) *cart.AddLensItemRequest {
	sum := summary.Compute(s, c)

	req := &cart.AddLensItemRequest{
		ProductID:    s.ProductID,
		VariantID:    s.VariantID,
		Quantity:     sum.Quantity,
		UnitPrice:    sum.UnitPrice,
		TreatmentIDs: slices.Clone(s.Treatments),
	}
	if req.TreatmentIDs == nil {
		req.TreatmentIDs = []uint{}
	}

	if s.LensType != nil {
		req.LensType = s.LensType.Name
		if s.LensType.ID != 0 {
			id := s.LensType.ID
			req.LensTypeID = &id
		}
	}
	if s.ProgressiveVariant != nil {
		id := s.ProgressiveVariant.ID
		req.ProgressiveVariantID = &id
	}
	if s.ThicknessMaterial != nil {
		id := s.ThicknessMaterial.ID
		req.LensThicknessMaterialID = &id
	}
	if s.LensIndex != nil {
		id := s.LensIndex.ID
		req.LensThicknessOptionID = &id
		req.LensIndex = s.LensIndex.Value
	}
	if s.FrameSize != nil {
		id := s.FrameSize.ID
		req.FrameSizeID = &id
	}

	if s.Prescription != nil && s.LensCategory().NeedsPrescription() {
		req.Prescription = prescriptionLine(*s.Prescription)
	}

	return req
}

// prescriptionLine flattens a form. A disabled eye is sent with every value unset.
func prescriptionLine(f prescription.Form) *cart.PrescriptionLine {
	right := eyeValues(f, lens.EyeRight)
	left := eyeValues(f, lens.EyeLeft)

	return &cart.PrescriptionLine{
		RightSPH:  right.SPH,
		RightCYL:  right.CYL,
		RightAxis: right.Axis,
		LeftSPH:   left.SPH,
		LeftCYL:   left.CYL,
		LeftAxis:  left.Axis,
		PD:        f.PD.StringFixed(1),
	}
}

func eyeValues(f prescription.Form, side lens.EyeSide) prescription.EyePrescription {
	if !f.Enabled(side) {
		return prescription.EmptyEye()
	}
	return f.Eye(side)
}
