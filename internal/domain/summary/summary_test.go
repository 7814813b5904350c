package summary

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/eyewear-backend/internal/domain/checkout"
	"github.com/your-org/eyewear-backend/internal/domain/lens"
	"github.com/your-org/eyewear-backend/internal/domain/prescription"
	"github.com/your-org/eyewear-backend/internal/domain/product"
	"github.com/your-org/eyewear-backend/internal/domain/wizard"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testCatalog() *wizard.Catalog {
	return &wizard.Catalog{
		Product: &product.Product{
			ID:       1,
			Name:     "Aviator Classic",
			Price:    price("100.00"),
			Category: product.Category{PrescriptionKind: product.PrescriptionAstigmatism},
			Variants: []product.ProductVariant{{ID: 5, Name: "Gold", Price: price("110.00"), IsActive: true}},
		},
		Config: &lens.ResolvedConfig{
			Options: lens.Options{
				LensTypes: []lens.LensType{
					{ID: 1, Name: "Distance Vision", Slug: "distance-vision", IsActive: true},
					{ID: 2, Name: "Near Vision", Slug: "near-vision", PriceAdjustment: price("15.00"), IsActive: true},
				},
				Treatments: []lens.LensTreatment{
					{ID: 10, Name: "Blue Light Filter", Price: price("5.00")},
					{ID: 11, Name: "Anti-Fog", Price: price("0")},
				},
				ThicknessMaterials: []lens.LensThicknessMaterial{{ID: 21, Name: "Premium", Price: price("25.00")}},
				ThicknessOptions:   []lens.LensThicknessOption{{ID: 30, Name: "Standard", Value: "1.56"}},
			},
			PrescriptionOptions: lens.DefaultPrescriptionOptions(),
		},
		ShippingMethods: []checkout.ShippingMethod{
			{ID: checkout.ShippingStandard, Name: "Standard Shipping", Price: price("3.90")},
			{ID: checkout.ShippingExpress, Name: "Express Shipping", Price: price("9.90")},
		},
		DefaultPD: decimal.NewFromInt(63),
	}
}

func apply(t *testing.T, c *wizard.Catalog, s wizard.State, events ...wizard.Event) wizard.State {
	t.Helper()
	for _, e := range events {
		var err error
		s, err = wizard.Apply(s, c, e)
		require.NoError(t, err, e.Name())
	}
	return s
}

func configuredState(t *testing.T, c *wizard.Catalog) wizard.State {
	form := prescription.NewForm(decimal.NewFromInt(63), true)
	form.RightEye.SPH = "-2.00"
	form.LeftEye.SPH = "-2.00"

	return apply(t, c, wizard.NewState(c),
		wizard.SelectLensType{LensTypeID: 1},
		wizard.SubmitPrescription{Form: form},
		wizard.SelectThicknessMaterial{ID: 21},
		wizard.SelectLensIndex{ID: 30},
		wizard.Continue{},
		wizard.Continue{},
	)
}

func TestDistanceVisionScenarioTotals(t *testing.T) {
	c := testCatalog()
	s := configuredState(t, c)
	require.Equal(t, wizard.StepSummary, s.Step)

	sum := Compute(s, c)

	assert.Equal(t, "125", sum.Subtotal.String())
	assert.Equal(t, "3.9", sum.Shipping.String())
	assert.True(t, sum.Discount.IsZero())
	assert.Equal(t, "128.9", sum.Total.String())

	ids := make([]string, 0, len(sum.Items))
	for _, item := range sum.Items {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"product", "thickness_material", "shipping"}, ids)

	// Zero priced selections are included, not listed
	require.NotNil(t, sum.Find("lens_type"))
	require.NotNil(t, sum.Find("lens_index"))
	assert.Len(t, sum.Included, 2)
}

func TestTreatmentRemovalKeepsSummaryInSync(t *testing.T) {
	c := testCatalog()
	s := apply(t, c, configuredState(t, c), wizard.ToggleTreatment{ID: 10})

	before := Compute(s, c)
	item := before.Find("treatment:10")
	require.NotNil(t, item)
	assert.True(t, item.Removable)
	assert.Equal(t, "130", before.Subtotal.String())

	s, err := Remove(s, c, "treatment:10")
	require.NoError(t, err)
	assert.False(t, s.HasTreatment(10))

	after := Compute(s, c)
	assert.Nil(t, after.Find("treatment:10"))
	assert.Equal(t, "5", before.Subtotal.Sub(after.Subtotal).String())
}

func TestRemoveLensTypeClearsSelection(t *testing.T) {
	c := testCatalog()
	form := prescription.NewForm(decimal.NewFromInt(63), true)
	form.RightEye.SPH = "1.00"
	form.LeftEye.SPH = "1.00"
	s := apply(t, c, wizard.NewState(c), wizard.SelectLensType{LensTypeID: 2}, wizard.SubmitPrescription{Form: form})

	before := Compute(s, c)
	require.NotNil(t, before.Find("lens_type"))
	assert.Equal(t, "115", before.Subtotal.String())

	s, err := Remove(s, c, "lens_type")
	require.NoError(t, err)
	assert.Nil(t, s.LensType)
	assert.Equal(t, "100", Compute(s, c).Subtotal.String())
}

func TestProductAndShippingAreNotRemovable(t *testing.T) {
	c := testCatalog()
	s := configuredState(t, c)

	_, err := Remove(s, c, "product")
	assert.ErrorIs(t, err, ErrItemNotRemovable)
	_, err = Remove(s, c, "shipping")
	assert.ErrorIs(t, err, ErrItemNotRemovable)
	_, err = Remove(s, c, "treatment:99")
	assert.ErrorIs(t, err, ErrItemNotFound)
	_, err = Remove(s, c, "coating")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestVariantPriceQuantityAndCoupon(t *testing.T) {
	c := testCatalog()
	variant := uint(5)
	s := apply(t, c, configuredState(t, c),
		wizard.SelectVariant{VariantID: &variant},
		wizard.SetQuantity{Quantity: 2},
		wizard.SelectShipping{MethodID: checkout.ShippingExpress},
		wizard.ApplyCoupon{Coupon: checkout.Coupon{Code: "SAVE10", DiscountPercent: decimal.NewFromInt(10)}},
	)

	sum := Compute(s, c)

	frame := sum.Find("product")
	require.NotNil(t, frame)
	assert.Equal(t, "Aviator Classic - Gold", frame.Name)
	assert.Equal(t, "110", frame.UnitPrice.String())
	assert.Equal(t, "220", frame.Price.String())

	assert.Equal(t, "135", sum.UnitPrice.String())
	assert.Equal(t, "270", sum.Subtotal.String())
	assert.Equal(t, "9.9", sum.Shipping.String(), "shipping is per order")
	assert.Equal(t, "27", sum.Discount.String())
	assert.Equal(t, "252.9", sum.Total.String())
}

func TestDiscountRounding(t *testing.T) {
	c := testCatalog()
	c.Product.Price = price("33.33")
	s := wizard.NewState(c)
	s.Coupon = &checkout.Coupon{Code: "WELCOME20", DiscountPercent: decimal.NewFromInt(20)}

	sum := Compute(s, c)
	assert.Equal(t, "6.67", sum.Discount.String())
	assert.Equal(t, "30.56", sum.Total.String())
}

func TestComputeIsDerivedNotAccumulated(t *testing.T) {
	c := testCatalog()
	s := configuredState(t, c)

	for i := 0; i < 3; i++ {
		s = apply(t, c, s, wizard.ToggleTreatment{ID: 10}, wizard.ToggleTreatment{ID: 10})
	}
	assert.Equal(t, "125", Compute(s, c).Subtotal.String())
}

func TestRemovalEvent(t *testing.T) {
	event, err := RemovalEvent("treatment:12")
	require.NoError(t, err)
	assert.Equal(t, wizard.RemoveSelection{Kind: wizard.SelectionTreatment, ID: 12}, event)

	event, err = RemovalEvent("frame_size")
	require.NoError(t, err)
	assert.Equal(t, wizard.RemoveSelection{Kind: wizard.SelectionFrameSize}, event)

	_, err = RemovalEvent("treatment:abc")
	assert.ErrorIs(t, err, ErrItemNotFound)
}
