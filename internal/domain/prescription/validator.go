// internal/domain/prescription/validator.go
package prescription

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/your-org/eyewear-backend/internal/domain/lens"
	"github.com/your-org/eyewear-backend/internal/pkg/optics"
)

// ErrNoEyeEnabled is returned when neither eye is part of the order
var ErrNoEyeEnabled = errors.New("no eye enabled")

const noEyeEnabledMessage = "Please enable at least one eye."

// IncompleteSelectionError names the single field that blocks submission
type IncompleteSelectionError struct {
	Field   lens.Field
	Eye     lens.EyeSide
	Message string
}

func (e *IncompleteSelectionError) Error() string {
	return e.Message
}

// UserMessage returns the text shown to the buyer for a validation error
func UserMessage(err error) string {
	var incomplete *IncompleteSelectionError
	if errors.As(err, &incomplete) {
		return incomplete.Message
	}
	if errors.Is(err, ErrNoEyeEnabled) {
		return noEyeEnabledMessage
	}
	return err.Error()
}

// Requirements lists the contact lens fit fields an eye must carry
type Requirements struct {
	BaseCurve bool
	Diameter  bool
}

// RequirementsFor makes a fit field required only when options exist for it
func RequirementsFor(opts *lens.PrescriptionOptions, side lens.EyeSide) Requirements {
	return Requirements{
		BaseCurve: opts.Has(lens.FieldBaseCurve, side),
		Diameter:  opts.Has(lens.FieldDiameter, side),
	}
}

// CanSubmit reports whether an eye is addable without fit requirements
func CanSubmit(eye EyePrescription, astigmatism bool) bool {
	return CanSubmitWith(eye, astigmatism, Requirements{})
}

// CanSubmitWith is the add-to-cart gate for one eye.
// It must agree with ValidateEye returning nil.
func CanSubmitWith(eye EyePrescription, astigmatism bool, req Requirements) bool {
	sph, cyl, axis := IsSet(eye.SPH), IsSet(eye.CYL), IsSet(eye.Axis)

	var complete bool
	if astigmatism {
		complete = (!cyl && sph) || (cyl && axis)
	} else {
		complete = sph
	}
	if !complete {
		return false
	}

	if sph && !validDiopter(eye.SPH) {
		return false
	}
	if astigmatism && cyl && (!validDiopter(eye.CYL) || !validAxis(eye.Axis)) {
		return false
	}

	return (!req.BaseCurve || IsSet(eye.BaseCurve)) && (!req.Diameter || IsSet(eye.Diameter))
}

// ValidateEye returns the first blocking problem of one eye as a field-named error
func ValidateEye(eye EyePrescription, side lens.EyeSide, astigmatism bool, req Requirements) error {
	label := eyeLabel(side)

	if astigmatism && IsSet(eye.CYL) {
		if !validDiopter(eye.CYL) {
			return incomplete(lens.FieldCYL, side, "Please enter a valid CYL for %s.", label)
		}
		if !IsSet(eye.Axis) {
			return incomplete(lens.FieldAxis, side, "Please enter AXIS for %s when CYL is specified.", label)
		}
		if !validAxis(eye.Axis) {
			return incomplete(lens.FieldAxis, side, "Please enter a valid AXIS (0-%d) for %s.", optics.MaxAxis, label)
		}
	} else if !IsSet(eye.SPH) {
		return incomplete(lens.FieldSPH, side, "Please enter SPH for %s.", label)
	}

	if IsSet(eye.SPH) && !validDiopter(eye.SPH) {
		return incomplete(lens.FieldSPH, side, "Please enter a valid SPH for %s.", label)
	}

	if req.BaseCurve && !IsSet(eye.BaseCurve) {
		return incomplete(lens.FieldBaseCurve, side, "Please fill in Base Curve for %s.", label)
	}
	if req.Diameter && !IsSet(eye.Diameter) {
		return incomplete(lens.FieldDiameter, side, "Please fill in Diameter for %s.", label)
	}

	return nil
}

// ValidateForm checks the enabled eyes and the PD of a prescription form
func ValidateForm(f Form, opts *lens.PrescriptionOptions) error {
	if !f.RightEnabled && !f.LeftEnabled {
		return ErrNoEyeEnabled
	}

	for _, side := range []lens.EyeSide{lens.EyeRight, lens.EyeLeft} {
		if !f.Enabled(side) {
			continue
		}
		if err := ValidateEye(f.Eye(side), side, f.Astigmatism, RequirementsFor(opts, side)); err != nil {
			return err
		}
	}

	if !f.PD.IsPositive() {
		return incomplete(lens.FieldPD, lens.EyeBoth, "Please enter a valid PD.")
	}

	return nil
}

// FormCanSubmit is the boolean form of ValidateForm
func FormCanSubmit(f Form, opts *lens.PrescriptionOptions) bool {
	if !f.RightEnabled && !f.LeftEnabled {
		return false
	}
	for _, side := range []lens.EyeSide{lens.EyeRight, lens.EyeLeft} {
		if f.Enabled(side) && !CanSubmitWith(f.Eye(side), f.Astigmatism, RequirementsFor(opts, side)) {
			return false
		}
	}
	return f.PD.IsPositive()
}

// AxisDegrees parses a set AXIS value
func AxisDegrees(v string) (int, bool) {
	if !validAxis(v) {
		return 0, false
	}
	deg, _ := strconv.Atoi(strings.TrimSpace(v))
	return deg, true
}

func incomplete(field lens.Field, side lens.EyeSide, format string, args ...interface{}) *IncompleteSelectionError {
	return &IncompleteSelectionError{
		Field:   field,
		Eye:     side,
		Message: fmt.Sprintf(format, args...),
	}
}

func eyeLabel(side lens.EyeSide) string {
	if side == lens.EyeLeft {
		return "left eye"
	}
	return "right eye"
}

func validDiopter(v string) bool {
	_, err := decimal.NewFromString(strings.TrimSpace(v))
	return err == nil
}

func validAxis(v string) bool {
	deg, err := strconv.Atoi(strings.TrimSpace(v))
	return err == nil && deg >= 0 && deg <= optics.MaxAxis
}
