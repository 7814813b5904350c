package lens

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/eyewear-backend/internal/config"
	"github.com/your-org/eyewear-backend/internal/pkg/logger"
)

type fakeCatalog struct {
	category      *CategoryLensConfig
	categoryErr   error
	global        *Options
	globalErr     error
	prescriptions *PrescriptionOptions
	prescErr      error
	variants      map[uint][]ProgressiveVariant

	block        chan struct{}
	categoryHits atomic.Int32
	globalHits   atomic.Int32
}

func (f *fakeCatalog) GetCategoryLensConfig(ctx context.Context, productID uint) (*CategoryLensConfig, error) {
	f.categoryHits.Add(1)
	if f.block != nil {
		<-f.block
	}
	return f.category, f.categoryErr
}

func (f *fakeCatalog) GetGlobalLensOptions(ctx context.Context, productID uint) (*Options, error) {
	f.globalHits.Add(1)
	return f.global, f.globalErr
}

func (f *fakeCatalog) GetPrescriptionOptions(ctx context.Context, productID uint) (*PrescriptionOptions, error) {
	return f.prescriptions, f.prescErr
}

func (f *fakeCatalog) GetProgressiveVariants(ctx context.Context, lensTypeID uint) ([]ProgressiveVariant, error) {
	return f.variants[lensTypeID], nil
}

func newTestResolver(catalog Catalog) *Resolver {
	return NewResolver(catalog, logger.Discard(), config.LensConfig{
		ResolverTimeout: time.Second,
		FallbackIndex:   decimal.RequireFromString("1.5"),
	})
}

func storeOptions() *Options {
	return &Options{
		LensTypes: []LensType{
			{ID: 1, Name: "Distance Vision", Slug: "distance-vision", IsActive: true},
			{ID: 2, Name: "Near Vision", Slug: "near-vision", IsActive: true},
			{ID: 3, Name: "Progressive", Slug: "progressive", IsActive: true},
			{ID: 4, Name: "Non-Prescription", Slug: "plano", IsActive: true},
		},
		Treatments:         []LensTreatment{{ID: 10, Name: "Blue Light Filter", Price: decimal.RequireFromString("15.00")}},
		Coatings:           []LensCoating{{ID: 20, Name: "Anti-Reflective"}},
		ThicknessMaterials: []LensThicknessMaterial{{ID: 30, Name: "Standard"}, {ID: 31, Name: "Premium", Price: decimal.RequireFromString("25.00")}},
		ThicknessOptions:   []LensThicknessOption{{ID: 40, Name: "Standard", Value: "1.56"}, {ID: 41, Name: "Thin", Value: "1.67"}},
	}
}

func TestResolveFallsBackToBuiltInLensTypes(t *testing.T) {
	catalog := &fakeCatalog{
		categoryErr: errors.New("connection refused"),
		globalErr:   errors.New("connection refused"),
	}

	resolved, err := newTestResolver(catalog).Resolve(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, resolved.LensTypes, 3)
	assert.Equal(t, []string{"Distance Vision", "Near Vision", "Progressive"}, lensTypeNames(resolved.LensTypes))
	for _, lt := range resolved.LensTypes {
		assert.True(t, lt.PriceAdjustment.IsZero(), lt.Name)
		assert.Equal(t, "1.5", lt.Index.String(), lt.Name)
	}
	assert.True(t, resolved.Degraded)
	assert.Equal(t, SourceDefault, resolved.Source)
	assert.Empty(t, resolved.Treatments)
	assert.Empty(t, resolved.Coatings)
}

func TestResolveCategoryFailureWithEmptyStoreUsesBuiltInLensTypes(t *testing.T) {
	catalog := &fakeCatalog{
		categoryErr: errors.New("timeout"),
		global:      &Options{},
	}

	resolved, err := newTestResolver(catalog).Resolve(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, []string{"Distance Vision", "Near Vision", "Progressive"}, lensTypeNames(resolved.LensTypes))
	assert.True(t, resolved.Degraded)
}

func TestResolveCategoryFailureDegradesToStoreOptions(t *testing.T) {
	catalog := &fakeCatalog{
		categoryErr: errors.New("timeout"),
		global:      storeOptions(),
	}

	resolved, err := newTestResolver(catalog).Resolve(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, SourceGlobal, resolved.Source)
	assert.Len(t, resolved.LensTypes, 4)
	assert.Len(t, resolved.Treatments, 1)
	assert.True(t, resolved.Degraded)
}

func TestResolveEachKindIndependently(t *testing.T) {
	catalog := &fakeCatalog{
		category: &CategoryLensConfig{Options: Options{
			Treatments: []LensTreatment{{ID: 11, Name: "Photochromic"}},
		}},
		global: storeOptions(),
	}

	resolved, err := newTestResolver(catalog).Resolve(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, SourceCategory, resolved.Source)
	assert.Equal(t, SourceCategory, resolved.Sources[KindTreatment])
	assert.Equal(t, SourceGlobal, resolved.Sources[KindLensType])
	assert.Equal(t, SourceGlobal, resolved.Sources[KindThicknessMaterial])

	// Category treatments replace the store list entirely, no per-id merge
	require.Len(t, resolved.Treatments, 1)
	assert.Equal(t, uint(11), resolved.Treatments[0].ID)
	assert.Len(t, resolved.ThicknessMaterials, 2)
	assert.False(t, resolved.Degraded)
}

func TestResolveSkipsStoreLookupWhenCategoryCoversEveryKind(t *testing.T) {
	full := storeOptions()
	catalog := &fakeCatalog{
		category:  &CategoryLensConfig{Options: *full},
		globalErr: errors.New("must not be called"),
	}

	resolved, err := newTestResolver(catalog).Resolve(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int32(0), catalog.globalHits.Load())
	assert.False(t, resolved.Degraded)
	for _, kind := range OptionKinds {
		assert.Equal(t, SourceCategory, resolved.Sources[kind], kind)
	}
}

func TestResolvePadsMissingPrescriptionLensTypes(t *testing.T) {
	catalog := &fakeCatalog{
		global: &Options{LensTypes: []LensType{
			{ID: 1, Name: "Distance Vision", Slug: "distance-vision", PriceAdjustment: decimal.RequireFromString("10"), IsActive: true},
			{ID: 4, Name: "Non-Prescription", Slug: "plano", IsActive: true},
			{ID: 5, Name: "Reading", Slug: "reading", IsActive: false},
		}},
	}

	resolved, err := newTestResolver(catalog).Resolve(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, []string{"Distance Vision", "Non-Prescription", "Near Vision", "Progressive"}, lensTypeNames(resolved.LensTypes))
	assert.Equal(t, "10", resolved.LensTypes[0].PriceAdjustment.String(), "store lens type keeps its own price")
	assert.Equal(t, uint(0), resolved.LensTypes[2].ID)
}

func TestResolveNoPaddingWithThreePrescriptionTypes(t *testing.T) {
	catalog := &fakeCatalog{global: storeOptions()}

	resolved, err := newTestResolver(catalog).Resolve(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, []string{"Distance Vision", "Near Vision", "Progressive", "Non-Prescription"}, lensTypeNames(resolved.LensTypes))
}

func TestResolvePrescriptionOptions(t *testing.T) {
	t.Run("category options win", func(t *testing.T) {
		var opts PrescriptionOptions
		opts.Set(FieldSPH, EyeBoth, []string{"-1.00", "0.00"})
		opts.Set(FieldBaseCurve, EyeRight, []string{"8.4", "8.6"})
		catalog := &fakeCatalog{
			category: &CategoryLensConfig{PrescriptionOptions: &opts},
			global:   storeOptions(),
			prescErr: errors.New("must not be called"),
		}

		resolved, err := newTestResolver(catalog).Resolve(context.Background(), 7)
		require.NoError(t, err)

		assert.Equal(t, []string{"-1.00", "0.00"}, resolved.PrescriptionOptions.ValuesFor(FieldSPH, EyeLeft))
		assert.True(t, resolved.PrescriptionOptions.Has(FieldBaseCurve, EyeRight))
		assert.False(t, resolved.PrescriptionOptions.Has(FieldBaseCurve, EyeLeft))
		assert.True(t, resolved.PrescriptionOptions.Has(FieldPD, EyeBoth), "missing core fields get default ranges")
		assert.False(t, resolved.Degraded)
	})

	t.Run("product lookup when category has none", func(t *testing.T) {
		var opts PrescriptionOptions
		opts.Set(FieldCYL, EyeLeft, []string{"-0.50"})
		catalog := &fakeCatalog{global: storeOptions(), prescriptions: &opts}

		resolved, err := newTestResolver(catalog).Resolve(context.Background(), 7)
		require.NoError(t, err)

		assert.Equal(t, []string{"-0.50"}, resolved.PrescriptionOptions.ValuesFor(FieldCYL, EyeLeft))
		assert.Nil(t, resolved.PrescriptionOptions.ValuesFor(FieldCYL, EyeRight))
	})

	t.Run("defaults on failure", func(t *testing.T) {
		catalog := &fakeCatalog{global: storeOptions(), prescErr: errors.New("down")}

		resolved, err := newTestResolver(catalog).Resolve(context.Background(), 7)
		require.NoError(t, err)

		assert.True(t, resolved.Degraded)
		sph := resolved.PrescriptionOptions.ValuesFor(FieldSPH, EyeRight)
		require.NotEmpty(t, sph)
		assert.Equal(t, "-20.00", sph[0])
		assert.Equal(t, "12.00", sph[len(sph)-1])
		assert.Len(t, sph, 129)
		assert.Len(t, resolved.PrescriptionOptions.ValuesFor(FieldAxis, EyeLeft), 181)
		assert.Contains(t, resolved.PrescriptionOptions.ValuesFor(FieldPD, EyeBoth), "63.0")
	})
}

func TestResolveCoalescesConcurrentCalls(t *testing.T) {
	catalog := &fakeCatalog{global: storeOptions(), block: make(chan struct{})}
	resolver := newTestResolver(catalog)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*ResolvedConfig, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := resolver.Resolve(context.Background(), 7)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}

	require.Eventually(t, func() bool { return catalog.categoryHits.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(catalog.block)
	wg.Wait()

	assert.Equal(t, int32(1), catalog.categoryHits.Load())
	for _, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, SourceGlobal, res.Source)
	}

	// Every caller gets its own copy
	results[0].LensTypes[0].Name = "changed"
	assert.Equal(t, "Distance Vision", results[1].LensTypes[0].Name)
}

func TestResolveReturnsContextError(t *testing.T) {
	catalog := &fakeCatalog{global: storeOptions(), block: make(chan struct{})}
	defer close(catalog.block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestResolver(catalog).Resolve(ctx, 7)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolvedConfigLookups(t *testing.T) {
	resolved := &ResolvedConfig{Options: *storeOptions()}
	resolved.LensTypes = append(resolved.LensTypes, FallbackLensTypes(decimal.RequireFromString("1.5"))[2])

	assert.Equal(t, "Near Vision", resolved.LensType(2, "").Name)
	assert.Equal(t, "Progressive", resolved.LensType(0, "progressive").Name)
	assert.Nil(t, resolved.LensType(0, "missing"))
	assert.Equal(t, "Premium", resolved.ThicknessMaterial(31).Name)
	assert.Equal(t, "1.67", resolved.ThicknessOption(41).Value)
	assert.Nil(t, resolved.Treatment(99))
}

func lensTypeNames(types []LensType) []string {
	names := make([]string, 0, len(types))
	for _, lt := range types {
		names = append(names, lt.Name)
	}
	return names
}
