// internal/domain/lens/classify.go
package lens

import (
	"strings"
)

// LensCategory drives which wizard step follows the lens type choice
type LensCategory string

const (
	CategoryProgressive          LensCategory = "progressive"
	CategoryRequiresPrescription LensCategory = "requires_prescription"
	CategoryOther                LensCategory = "other"
)

// Words that mark a name as a progressive tier rather than the progressive type itself
var progressiveTierWords = []string{"variant", "premium", "standard", "basic"}

var prescriptionWords = []string{"distance", "near", "reading"}

// Classify derives the lens category from a lens type name and slug, case-insensitively
func Classify(name, slug string) LensCategory {
	text := strings.ToLower(name + " " + slug)

	progressive := strings.Contains(text, "progressive")
	if progressive && !containsAny(text, progressiveTierWords) {
		return CategoryProgressive
	}
	// Progressive tiers still need a prescription
	if progressive || containsAny(text, prescriptionWords) {
		return CategoryRequiresPrescription
	}
	return CategoryOther
}

// NeedsPrescription reports whether the prescription step is on the path
func (c LensCategory) NeedsPrescription() bool {
	return c == CategoryProgressive || c == CategoryRequiresPrescription
}

// TreatmentGroup is a display group of treatments
type TreatmentGroup struct {
	Name       string          `json:"name"`
	Treatments []LensTreatment `json:"treatments"`
}

const (
	GroupPhotochromic = "Photochromic"
	GroupSun          = "Prescription Sun Lenses"
	GroupStandard     = "Standard"
)

// GroupTreatments buckets treatments by name for display.
// The result is derived on every call and never stored; empty groups are omitted.
func GroupTreatments(treatments []LensTreatment) []TreatmentGroup {
	buckets := map[string][]LensTreatment{}
	for _, t := range treatments {
		name := strings.ToLower(t.Name)
		switch {
		case containsAny(name, []string{"photochromic", "transition"}):
			buckets[GroupPhotochromic] = append(buckets[GroupPhotochromic], t)
		case containsAny(name, []string{"sun", "polarized", "polarised", "tint"}):
			buckets[GroupSun] = append(buckets[GroupSun], t)
		default:
			buckets[GroupStandard] = append(buckets[GroupStandard], t)
		}
	}

	var groups []TreatmentGroup
	for _, name := range []string{GroupPhotochromic, GroupSun, GroupStandard} {
		if len(buckets[name]) > 0 {
			groups = append(groups, TreatmentGroup{Name: name, Treatments: buckets[name]})
		}
	}
	return groups
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
