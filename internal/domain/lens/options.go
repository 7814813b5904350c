// internal/domain/lens/options.go
package lens

import (
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Field is a prescription field with a configurable value list
type Field string

const (
	FieldSPH       Field = "sph"
	FieldCYL       Field = "cyl"
	FieldAxis      Field = "axis"
	FieldPD        Field = "pd"
	FieldBaseCurve Field = "base_curve"
	FieldDiameter  Field = "diameter"
)

// EyeSide scopes a value list to one eye, or to either eye with EyeBoth
type EyeSide string

const (
	EyeRight EyeSide = "right"
	EyeLeft  EyeSide = "left"
	EyeBoth  EyeSide = "both"
)

// Source tells where a resolved option list came from
type Source string

const (
	SourceCategory Source = "category"
	SourceGlobal   Source = "global"
	SourceDefault  Source = "default"
)

// PrescriptionOptions holds allowed values per field and eye side
type PrescriptionOptions struct {
	Values map[Field]map[EyeSide][]string `json:"values"`
}

// Set replaces the value list of a field for one side
func (p *PrescriptionOptions) Set(field Field, side EyeSide, values []string) {
	if p.Values == nil {
		p.Values = map[Field]map[EyeSide][]string{}
	}
	if p.Values[field] == nil {
		p.Values[field] = map[EyeSide][]string{}
	}
	p.Values[field][side] = values
}

// ValuesFor returns the side-specific list, falling back to the "both" list
func (p *PrescriptionOptions) ValuesFor(field Field, side EyeSide) []string {
	if p == nil {
		return nil
	}
	bySide := p.Values[field]
	if values := bySide[side]; len(values) > 0 {
		return values
	}
	return bySide[EyeBoth]
}

// Has reports whether a non-empty value list applies to the field for the side
func (p *PrescriptionOptions) Has(field Field, side EyeSide) bool {
	return len(p.ValuesFor(field, side)) > 0
}

// IsEmpty reports whether no field has any values
func (p *PrescriptionOptions) IsEmpty() bool {
	if p == nil {
		return true
	}
	for _, bySide := range p.Values {
		for _, values := range bySide {
			if len(values) > 0 {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy
func (p *PrescriptionOptions) Clone() PrescriptionOptions {
	out := PrescriptionOptions{Values: map[Field]map[EyeSide][]string{}}
	if p == nil {
		return out
	}
	for field, bySide := range p.Values {
		for side, values := range bySide {
			out.Set(field, side, slices.Clone(values))
		}
	}
	return out
}

// withDefaults fills SPH, CYL, AXIS and PD from the defaults when no list applies.
// Base curve and diameter are left absent so they stay inapplicable.
func (p PrescriptionOptions) withDefaults(defaults PrescriptionOptions) PrescriptionOptions {
	for _, field := range []Field{FieldSPH, FieldCYL, FieldAxis, FieldPD} {
		if len(p.Values[field]) == 0 {
			for side, values := range defaults.Values[field] {
				p.Set(field, side, slices.Clone(values))
			}
		}
	}
	return p
}

// DefaultPrescriptionOptions returns the ranges used when nothing is configured
func DefaultPrescriptionOptions() PrescriptionOptions {
	var opts PrescriptionOptions
	opts.Set(FieldSPH, EyeBoth, DecimalRange("-20.00", "12.00", "0.25", 2))
	opts.Set(FieldCYL, EyeBoth, DecimalRange("-6.00", "0.00", "0.25", 2))
	opts.Set(FieldAxis, EyeBoth, DecimalRange("0", "180", "1", 0))
	opts.Set(FieldPD, EyeBoth, DecimalRange("50.0", "80.0", "0.5", 1))
	return opts
}

// DecimalRange lists from..to inclusive in step increments, formatted with places decimals
func DecimalRange(from, to, step string, places int32) []string {
	start := decimal.RequireFromString(from)
	end := decimal.RequireFromString(to)
	inc := decimal.RequireFromString(step)

	var values []string
	for v := start; v.LessThanOrEqual(end); v = v.Add(inc) {
		values = append(values, v.StringFixed(places))
	}
	return values
}

// Options is one tuple of lens option lists
type Options struct {
	LensTypes          []LensType              `json:"lens_types"`
	Treatments         []LensTreatment         `json:"treatments"`
	Coatings           []LensCoating           `json:"coatings"`
	ThicknessMaterials []LensThicknessMaterial `json:"thickness_materials"`
	ThicknessOptions   []LensThicknessOption   `json:"thickness_options"`
}

// Len returns how many records the tuple holds for a kind
func (o *Options) Len(kind OptionKind) int {
	if o == nil {
		return 0
	}
	switch kind {
	case KindLensType:
		return len(o.LensTypes)
	case KindTreatment:
		return len(o.Treatments)
	case KindCoating:
		return len(o.Coatings)
	case KindThicknessMaterial:
		return len(o.ThicknessMaterials)
	case KindThicknessOption:
		return len(o.ThicknessOptions)
	}
	return 0
}

// take copies every record of one kind from src
func (o *Options) take(kind OptionKind, src *Options) {
	switch kind {
	case KindLensType:
		o.LensTypes = slices.Clone(src.LensTypes)
	case KindTreatment:
		o.Treatments = slices.Clone(src.Treatments)
	case KindCoating:
		o.Coatings = slices.Clone(src.Coatings)
	case KindThicknessMaterial:
		o.ThicknessMaterials = slices.Clone(src.ThicknessMaterials)
	case KindThicknessOption:
		o.ThicknessOptions = slices.Clone(src.ThicknessOptions)
	}
}

// CategoryLensConfig is the seller override for one store category
type CategoryLensConfig struct {
	Options
	PrescriptionOptions *PrescriptionOptions `json:"prescription_options,omitempty"`
}

// ResolvedConfig is the effective lens configuration of a product
type ResolvedConfig struct {
	ProductID uint `json:"product_id"`
	Options
	PrescriptionOptions PrescriptionOptions   `json:"prescription_options"`
	Source              Source                `json:"source"`
	Sources             map[OptionKind]Source `json:"sources"`
	Degraded            bool                  `json:"degraded"`
}

// Clone returns a deep copy safe to hand to a single caller
func (r *ResolvedConfig) Clone() *ResolvedConfig {
	out := *r
	for _, kind := range OptionKinds {
		out.Options.take(kind, &r.Options)
	}
	out.PrescriptionOptions = r.PrescriptionOptions.Clone()
	out.Sources = maps.Clone(r.Sources)
	return &out
}

// LensType finds a resolved lens type by id, or by slug for built-in fallbacks (id 0)
func (r *ResolvedConfig) LensType(id uint, slug string) *LensType {
	for i := range r.LensTypes {
		t := &r.LensTypes[i]
		if id != 0 && t.ID == id {
			return t
		}
		if id == 0 && t.ID == 0 && slug != "" && strings.EqualFold(t.Slug, slug) {
			return t
		}
	}
	return nil
}

// Treatment finds a resolved treatment by id
func (r *ResolvedConfig) Treatment(id uint) *LensTreatment {
	for i := range r.Treatments {
		if r.Treatments[i].ID == id {
			return &r.Treatments[i]
		}
	}
	return nil
}

// ThicknessMaterial finds a resolved thickness material by id
func (r *ResolvedConfig) ThicknessMaterial(id uint) *LensThicknessMaterial {
	for i := range r.ThicknessMaterials {
		if r.ThicknessMaterials[i].ID == id {
			return &r.ThicknessMaterials[i]
		}
	}
	return nil
}

// ThicknessOption finds a resolved index option by id
func (r *ResolvedConfig) ThicknessOption(id uint) *LensThicknessOption {
	for i := range r.ThicknessOptions {
		if r.ThicknessOptions[i].ID == id {
			return &r.ThicknessOptions[i]
		}
	}
	return nil
}

// FallbackLensTypes are offered when no lens type can be resolved
func FallbackLensTypes(index decimal.Decimal) []LensType {
	return []LensType{
		{Name: "Distance Vision", Slug: "distance-vision", Description: "For seeing things far away", Index: index, PriceAdjustment: decimal.Zero, IsActive: true},
		{Name: "Near Vision", Slug: "near-vision", Description: "For reading and close-up work", Index: index, PriceAdjustment: decimal.Zero, IsActive: true},
		{Name: "Progressive", Slug: "progressive", Description: "Clear vision at every distance", Index: index, PriceAdjustment: decimal.Zero, IsActive: true},
	}
}
