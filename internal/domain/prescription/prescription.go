// internal/domain/prescription/prescription.go
package prescription

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/your-org/eyewear-backend/internal/domain/lens"
)

// Unset marks a prescription value the buyer has not picked
const Unset = "--"

// IsSet reports whether a value was picked. Empty strings count as unset.
func IsSet(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != Unset
}

// EyePrescription holds one eye's values as entered, "--" meaning unset
type EyePrescription struct {
	SPH       string `json:"sph"`
	CYL       string `json:"cyl"`
	Axis      string `json:"axis"`
	BaseCurve string `json:"base_curve,omitempty"`
	Diameter  string `json:"diameter,omitempty"`
	Quantity  int    `json:"quantity,omitempty"` // contact lens boxes, unused for spectacles
}

// EmptyEye returns an eye with every field unset
func EmptyEye() EyePrescription {
	return EyePrescription{
		SPH:       Unset,
		CYL:       Unset,
		Axis:      Unset,
		BaseCurve: Unset,
		Diameter:  Unset,
	}
}

// Data is a full prescription. PD always carries a value.
type Data struct {
	PD       decimal.Decimal `json:"pd"`
	RightEye EyePrescription `json:"right_eye"`
	LeftEye  EyePrescription `json:"left_eye"`
}

// Form is the prescription step input: the data plus which eyes are being ordered
type Form struct {
	Data
	RightEnabled bool `json:"right_enabled"`
	LeftEnabled  bool `json:"left_enabled"`
	Astigmatism  bool `json:"astigmatism"`
}

// NewForm returns a form with both eyes enabled, nothing picked and the default PD
func NewForm(defaultPD decimal.Decimal, astigmatism bool) Form {
	return Form{
		Data: Data{
			PD:       defaultPD,
			RightEye: EmptyEye(),
			LeftEye:  EmptyEye(),
		},
		RightEnabled: true,
		LeftEnabled:  true,
		Astigmatism:  astigmatism,
	}
}

// Eye returns the values of one side
func (d *Data) Eye(side lens.EyeSide) EyePrescription {
	if side == lens.EyeLeft {
		return d.LeftEye
	}
	return d.RightEye
}

// Enabled reports whether the side is part of the order
func (f *Form) Enabled(side lens.EyeSide) bool {
	if side == lens.EyeLeft {
		return f.LeftEnabled
	}
	return f.RightEnabled
}

// CopyRightToLeft copies the right eye onto the left eye, keeping the left quantity
func (d *Data) CopyRightToLeft() {
	quantity := d.LeftEye.Quantity
	d.LeftEye = d.RightEye
	d.LeftEye.Quantity = quantity
}

// Normalize returns the form as it is submitted: values trimmed, SPH filled with
// "0.00" when only CYL was given, and CYL/AXIS dropped for spherical categories
func Normalize(f Form) Form {
	f.RightEye = normalizeEye(f.RightEye, f.Astigmatism)
	f.LeftEye = normalizeEye(f.LeftEye, f.Astigmatism)
	return f
}

func normalizeEye(eye EyePrescription, astigmatism bool) EyePrescription {
	eye.SPH = normalizeValue(eye.SPH)
	eye.CYL = normalizeValue(eye.CYL)
	eye.Axis = normalizeValue(eye.Axis)
	eye.BaseCurve = normalizeValue(eye.BaseCurve)
	eye.Diameter = normalizeValue(eye.Diameter)

	if !astigmatism {
		eye.CYL = Unset
		eye.Axis = Unset
		return eye
	}
	if IsSet(eye.CYL) && !IsSet(eye.SPH) {
		eye.SPH = "0.00"
	}
	return eye
}

func normalizeValue(v string) string {
	if !IsSet(v) {
		return Unset
	}
	return strings.TrimSpace(v)
}
