// internal/pkg/optics/axis.go
package optics

import (
	"fmt"
	"math"
	"strings"
)

// Notation identifies how a cylinder axis is written on a prescription
type Notation string

const (
	// NotationINT is the International notation used by the buyer UI
	NotationINT Notation = "int"
	// NotationTABO is the European TABO notation
	NotationTABO Notation = "tabo"
)

// MaxAxis is the largest axis value accepted on a prescription
const MaxAxis = 180

// IntToTabo converts an International axis to TABO.
// Non-finite input yields 0. The result is not rounded.
func IntToTabo(intDegrees float64) float64 {
	if !isFinite(intDegrees) {
		return 0
	}
	return MaxAxis - math.Mod(intDegrees, MaxAxis)
}

// TaboToInt converts a TABO axis to International.
// Non-finite input yields 0. The result is not rounded.
func TaboToInt(taboDegrees float64) float64 {
	if !isFinite(taboDegrees) {
		return 0
	}
	return MaxAxis - math.Mod(taboDegrees, MaxAxis)
}

// Normalize folds an axis into [0, 180). 180 and 0 describe the same meridian.
func Normalize(degrees float64) float64 {
	if !isFinite(degrees) {
		return 0
	}
	v := math.Mod(degrees, MaxAxis)
	if v < 0 {
		v += MaxAxis
	}
	return v
}

// RoundDegrees rounds an axis to whole degrees for display and storage
func RoundDegrees(degrees float64) int {
	if !isFinite(degrees) {
		return 0
	}
	return int(math.Round(degrees))
}

// ParseNotation parses a notation name, case-insensitively
func ParseNotation(s string) (Notation, error) {
	switch Notation(strings.ToLower(strings.TrimSpace(s))) {
	case NotationINT:
		return NotationINT, nil
	case NotationTABO:
		return NotationTABO, nil
	default:
		return "", fmt.Errorf("unknown axis notation %q", s)
	}
}

// Convert converts an axis between notations. Converting to the same notation is a no-op.
func Convert(degrees float64, from, to Notation) float64 {
	if from == to {
		return degrees
	}
	if from == NotationINT {
		return IntToTabo(degrees)
	}
	return TaboToInt(degrees)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
