package lens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		lensName string
		slug     string
		want     LensCategory
	}{
		{"progressive", "Progressive", "progressive", CategoryProgressive},
		{"progressive by slug only", "Varifocal", "progressive-lenses", CategoryProgressive},
		{"progressive tier is not the progressive type", "Premium Progressive", "premium-progressive", CategoryRequiresPrescription},
		{"progressive variant", "Progressive Variant", "progressive-variant", CategoryRequiresPrescription},
		{"basic progressive", "Basic", "basic-progressive", CategoryRequiresPrescription},
		{"distance", "Distance Vision", "distance-vision", CategoryRequiresPrescription},
		{"near", "Near Vision", "near-vision", CategoryRequiresPrescription},
		{"reading", "Reading Glasses", "readers", CategoryRequiresPrescription},
		{"case insensitive", "DISTANCE", "", CategoryRequiresPrescription},
		{"non prescription", "Non-Prescription", "plano", CategoryOther},
		{"blue light", "Blue Light Only", "blue-light", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.lensName, tt.slug))
		})
	}
}

func TestNeedsPrescription(t *testing.T) {
	assert.True(t, CategoryProgressive.NeedsPrescription())
	assert.True(t, CategoryRequiresPrescription.NeedsPrescription())
	assert.False(t, CategoryOther.NeedsPrescription())
}

func TestGroupTreatments(t *testing.T) {
	treatments := []LensTreatment{
		{ID: 1, Name: "Blue Light Filter"},
		{ID: 2, Name: "Photochromic Grey"},
		{ID: 3, Name: "Polarized Sun"},
		{ID: 4, Name: "Transitions Gen 8"},
		{ID: 5, Name: "Brown Tint"},
		{ID: 6, Name: "Anti-Fog"},
	}

	groups := GroupTreatments(treatments)
	require.Len(t, groups, 3)

	assert.Equal(t, GroupPhotochromic, groups[0].Name)
	assert.Equal(t, []uint{2, 4}, treatmentIDs(groups[0].Treatments))

	assert.Equal(t, GroupSun, groups[1].Name)
	assert.Equal(t, []uint{3, 5}, treatmentIDs(groups[1].Treatments))

	assert.Equal(t, GroupStandard, groups[2].Name)
	assert.Equal(t, []uint{1, 6}, treatmentIDs(groups[2].Treatments))
}

func TestGroupTreatmentsOmitsEmptyGroups(t *testing.T) {
	groups := GroupTreatments([]LensTreatment{{ID: 1, Name: "Hard Coat"}})
	require.Len(t, groups, 1)
	assert.Equal(t, GroupStandard, groups[0].Name)

	assert.Empty(t, GroupTreatments(nil))
}

func treatmentIDs(ts []LensTreatment) []uint {
	ids := make([]uint, 0, len(ts))
	for _, t := range ts {
		ids = append(ids, t.ID)
	}
	return ids
}
