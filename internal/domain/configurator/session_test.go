package configurator

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/eyewear-backend/internal/domain/cart"
	"github.com/your-org/eyewear-backend/internal/domain/checkout"
	"github.com/your-org/eyewear-backend/internal/domain/lens"
	"github.com/your-org/eyewear-backend/internal/domain/prescription"
	"github.com/your-org/eyewear-backend/internal/domain/wizard"
)

func distanceForm() prescription.Form {
	form := prescription.NewForm(decimal.NewFromInt(63), true)
	form.RightEye.SPH = "-2.00"
	form.LeftEye.SPH = "-2.00"
	return form
}

func loadedSession(t *testing.T, h *harness, productID uint) *Session {
	t.Helper()
	s := NewSession("test-session", &h.deps)
	require.NoError(t, s.Load(context.Background(), productID))
	return s
}

func dispatchAll(t *testing.T, s *Session, events ...wizard.Event) wizard.State {
	t.Helper()
	var state wizard.State
	for _, e := range events {
		var err error
		state, err = s.Dispatch(context.Background(), e)
		require.NoError(t, err, e.Name())
	}
	return state
}

func toSummary(t *testing.T, s *Session) wizard.State {
	t.Helper()
	return dispatchAll(t, s,
		wizard.SelectLensType{LensTypeID: 1},
		wizard.SubmitPrescription{Form: distanceForm()},
		wizard.SelectThicknessMaterial{ID: 21},
		wizard.SelectLensIndex{ID: 30},
		wizard.Continue{},
		wizard.Continue{},
	)
}

func TestSessionCompletesDistanceVisionOrder(t *testing.T) {
	h := newHarness()
	s := loadedSession(t, h, 1)

	state := toSummary(t, s)
	require.Equal(t, wizard.StepSummary, state.Step)

	state, err := s.AddToCart(context.Background(), cart.Owner{SessionID: "guest-1"})
	require.NoError(t, err)
	assert.Equal(t, wizard.StepCompleted, state.Step)

	payload := h.cart.last()
	require.NotNil(t, payload)
	assert.Equal(t, uint(1), payload.ProductID)
	assert.Equal(t, 1, payload.Quantity)
	assert.Equal(t, "125", payload.UnitPrice.String())
	assert.Equal(t, "Distance Vision", payload.LensType)
	assert.Equal(t, uint(1), *payload.LensTypeID)
	assert.Equal(t, "1.56", payload.LensIndex)
	assert.Equal(t, uint(21), *payload.LensThicknessMaterialID)
	assert.Equal(t, uint(30), *payload.LensThicknessOptionID)
	assert.Empty(t, payload.TreatmentIDs)
	assert.Nil(t, payload.ProgressiveVariantID)
	require.NotNil(t, payload.Prescription)
	assert.Equal(t, "-2.00", payload.Prescription.RightSPH)
	assert.Equal(t, "--", payload.Prescription.RightCYL)
	assert.Equal(t, "--", payload.Prescription.LeftAxis)
	assert.Equal(t, "63.0", payload.Prescription.PD)
}

func TestSessionCartFailureKeepsSummary(t *testing.T) {
	h := newHarness()
	s := loadedSession(t, h, 1)
	toSummary(t, s)

	h.cart.err = errCartDown
	state, err := s.AddToCart(context.Background(), cart.Owner{SessionID: "guest-1"})

	var cartErr *wizard.CartSubmissionError
	require.True(t, errors.As(err, &cartErr))
	assert.ErrorIs(t, err, errCartDown)
	assert.Equal(t, wizard.StepSummary, state.Step)
	assert.NotEmpty(t, state.Error)
	require.NotNil(t, state.ThicknessMaterial)
	require.NotNil(t, state.Prescription)

	// Retry without re-entering anything
	h.cart.err = nil
	state, err = s.AddToCart(context.Background(), cart.Owner{SessionID: "guest-1"})
	require.NoError(t, err)
	assert.Equal(t, wizard.StepCompleted, state.Step)
}

func TestSessionRejectsSecondSubmitUntilFirstIsApplied(t *testing.T) {
	h := newHarness()
	coupons := &blockingCoupons{Service: h.checkout, entered: make(chan struct{}), release: make(chan struct{})}
	h.deps.Coupons = coupons
	s := loadedSession(t, h, 1)
	toSummary(t, s)

	owner := cart.Owner{SessionID: "guest-1"}
	done := make(chan error, 1)
	go func() {
		_, err := s.AddToCart(context.Background(), owner)
		done <- err
	}()
	<-coupons.entered

	_, err := s.AddToCart(context.Background(), owner)
	assert.ErrorIs(t, err, ErrSubmitInProgress)

	close(coupons.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, h.cart.count())
	assert.Equal(t, wizard.StepCompleted, s.State().Step)

	// The completed wizard does not submit again
	_, err = s.AddToCart(context.Background(), owner)
	assert.ErrorIs(t, err, wizard.ErrSessionClosed)
	assert.Equal(t, 1, h.cart.count())
}

func TestSessionAddToCartRejectsIncompleteWizard(t *testing.T) {
	h := newHarness()
	s := loadedSession(t, h, 1)
	dispatchAll(t, s, wizard.SelectLensType{LensTypeID: 1})

	state, err := s.AddToCart(context.Background(), cart.Owner{SessionID: "guest-1"})

	var incomplete *wizard.StepIncompleteError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, "Please complete every step before adding to cart.", state.Error)
	assert.Nil(t, h.cart.last())
}

func TestSessionDiscardsResolutionForReplacedProduct(t *testing.T) {
	h := newHarness()
	h.resolver.started = make(chan uint, 1)
	gate := h.resolver.gate(1)
	s := NewSession("test-session", &h.deps)

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background(), 1) }()
	<-h.resolver.started

	assert.True(t, s.Loading())
	_, err := s.Dispatch(context.Background(), wizard.Continue{})
	assert.ErrorIs(t, err, wizard.ErrNotReady)

	require.NoError(t, s.Load(context.Background(), 2))
	close(gate)

	assert.ErrorIs(t, <-done, wizard.ErrStaleResolution)
	assert.Equal(t, uint(2), s.State().ProductID)
	assert.Equal(t, uint(2), s.Catalog().Product.ID)
	assert.False(t, s.Loading())
}

func TestSessionDiscardsResolutionAfterClose(t *testing.T) {
	h := newHarness()
	h.resolver.started = make(chan uint, 1)
	gate := h.resolver.gate(1)
	s := NewSession("test-session", &h.deps)

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background(), 1) }()
	<-h.resolver.started

	s.Close(context.Background())
	close(gate)

	assert.ErrorIs(t, <-done, wizard.ErrStaleResolution)
	assert.Equal(t, wizard.StepClosed, s.State().Step)
	assert.Nil(t, s.Catalog())

	_, err := s.Dispatch(context.Background(), wizard.Continue{})
	assert.ErrorIs(t, err, wizard.ErrSessionClosed)
}

func TestSessionProgressiveVariants(t *testing.T) {
	h := newHarness()
	s := loadedSession(t, h, 1)

	state, err := s.Dispatch(context.Background(), wizard.SelectLensType{LensTypeID: 3})
	assert.ErrorIs(t, err, wizard.ErrNoProgressiveVariants)
	assert.Equal(t, wizard.StepLensType, state.Step)
	assert.NotEmpty(t, state.Error)

	h.variants.variants[3] = []lens.ProgressiveVariant{
		{ID: 7, LensTypeID: 3, Name: "Premium", Price: price("60.00"), IsActive: true},
		{ID: 8, LensTypeID: 3, Name: "Retired", Price: price("20.00"), IsActive: false},
	}
	state = dispatchAll(t, s, wizard.SelectLensType{LensTypeID: 3})
	assert.Equal(t, wizard.StepProgressiveVariant, state.Step)
	require.Len(t, state.AvailableVariants, 1)
	assert.Empty(t, state.Error)

	state = dispatchAll(t, s, wizard.SelectProgressiveVariant{ID: 7}, wizard.Continue{})
	assert.Equal(t, wizard.StepPrescription, state.Step)
	assert.Equal(t, uint(7), state.ProgressiveVariant.ID)
}

func TestSessionCoupons(t *testing.T) {
	h := newHarness()
	s := loadedSession(t, h, 1)

	state, err := s.Dispatch(context.Background(), wizard.ApplyCouponCode{Code: "BOGUS"})
	assert.ErrorIs(t, err, checkout.ErrCouponInvalid)
	assert.Equal(t, "This coupon code is not valid.", state.Error)
	assert.Nil(t, state.Coupon)

	state = dispatchAll(t, s, wizard.ApplyCouponCode{Code: " save10 "})
	require.NotNil(t, state.Coupon)
	assert.Equal(t, "SAVE10", state.Coupon.Code)

	state = dispatchAll(t, s, wizard.RemoveCoupon{})
	assert.Nil(t, state.Coupon)
}

func TestSessionCouponServiceUnavailable(t *testing.T) {
	h := newHarness()
	h.configCfg.Checkout.CouponsEnabled = false
	s := loadedSession(t, h, 1)

	state, err := s.Dispatch(context.Background(), wizard.ApplyCouponCode{Code: "SAVE10"})
	assert.ErrorIs(t, err, checkout.ErrCouponServiceUnavailable)
	assert.Equal(t, "Coupons cannot be applied right now.", state.Error)
}

func TestSessionRemoveItem(t *testing.T) {
	h := newHarness()
	s := loadedSession(t, h, 1)
	toSummary(t, s)
	dispatchAll(t, s, wizard.ToggleTreatment{ID: 10})

	state, err := s.RemoveItem("treatment:10")
	require.NoError(t, err)
	assert.False(t, state.HasTreatment(10))

	state, err = s.RemoveItem("product")
	assert.Error(t, err)
	assert.Equal(t, "This item cannot be removed.", state.Error)
}

func TestSessionLoadUnknownProduct(t *testing.T) {
	h := newHarness()
	s := NewSession("test-session", &h.deps)

	err := s.Load(context.Background(), 99)
	assert.Error(t, err)
	assert.False(t, s.Loading())

	_, err = s.Dispatch(context.Background(), wizard.Continue{})
	assert.ErrorIs(t, err, wizard.ErrNotReady)
}

func TestBuildCartPayloadSkipsPrescriptionForNonPrescriptionLens(t *testing.T) {
	h := newHarness()
	s := loadedSession(t, h, 1)
	state := dispatchAll(t, s,
		wizard.SelectLensType{LensTypeID: 4},
		wizard.SelectThicknessMaterial{ID: 21},
		wizard.SelectLensIndex{ID: 30},
		wizard.Continue{},
		wizard.Continue{},
	)
	require.Equal(t, wizard.StepSummary, state.Step)

	payload := BuildCartPayload(state, s.Catalog())
	assert.Nil(t, payload.Prescription)
	assert.Equal(t, "Non-Prescription", payload.LensType)
}

func TestBuildCartPayloadDisabledEye(t *testing.T) {
	h := newHarness()
	s := loadedSession(t, h, 1)

	form := distanceForm()
	form.LeftEnabled = false
	form.LeftEye.SPH = "-4.00"
	state := dispatchAll(t, s, wizard.SelectLensType{LensTypeID: 1}, wizard.SubmitPrescription{Form: form})

	payload := BuildCartPayload(state, s.Catalog())
	require.NotNil(t, payload.Prescription)
	assert.Equal(t, "-2.00", payload.Prescription.RightSPH)
	assert.Equal(t, prescription.Unset, payload.Prescription.LeftSPH)
}

func TestServiceResumesFromStore(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	first := h.service()
	session, err := first.Open(ctx, 1)
	require.NoError(t, err)
	_, err = first.Dispatch(ctx, session.ID, wizard.SelectLensType{LensTypeID: 2})
	require.NoError(t, err)

	// A second process sees the same session through the store
	second := h.service()
	resumed, err := second.Get(ctx, session.ID)
	require.NoError(t, err)
	state := resumed.State()
	assert.Equal(t, wizard.StepPrescription, state.Step)
	require.NotNil(t, state.LensType)
	assert.Equal(t, uint(2), state.LensType.ID)

	view := second.ViewOf(resumed)
	require.NotNil(t, view.PrescriptionDraft)
	assert.True(t, view.PrescriptionDraft.Astigmatism)
	assert.Equal(t, "115", view.Summary.Subtotal.String())
	assert.False(t, view.CanAddToCart)

	require.NoError(t, second.Close(ctx, session.ID))
	_, err = h.store.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestServiceRechecksCouponOnResume(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	first := h.service()
	session, err := first.Open(ctx, 1)
	require.NoError(t, err)
	_, err = first.Dispatch(ctx, session.ID, wizard.ApplyCouponCode{Code: "save10"})
	require.NoError(t, err)

	resumed, err := h.service().Get(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, resumed.State().Coupon)
	assert.Equal(t, "SAVE10", resumed.State().Coupon.Code)

	// A code withdrawn from the coupon table is dropped on the next resume
	snapshot, err := h.store.Get(ctx, session.ID)
	require.NoError(t, err)
	snapshot.State.Coupon.Code = "SUMMER50"
	require.NoError(t, h.store.Save(ctx, snapshot))

	resumed, err = h.service().Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, resumed.State().Coupon)
	assert.True(t, h.service().ViewOf(resumed).Summary.Discount.IsZero())
}

func TestServiceDropsCompletedSession(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	svc := h.service()

	session, err := svc.Open(ctx, 1)
	require.NoError(t, err)
	toSummary(t, session)

	_, err = svc.AddToCart(ctx, session.ID, cart.Owner{SessionID: "guest-1"})
	require.NoError(t, err)

	_, err = h.store.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestServiceUnknownSession(t *testing.T) {
	h := newHarness()
	_, err := h.service().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestViewGroupsTreatments(t *testing.T) {
	h := newHarness()
	svc := h.service()
	session, err := svc.Open(context.Background(), 1)
	require.NoError(t, err)

	view := svc.ViewOf(session)
	require.Len(t, view.TreatmentGroups, 2)
	assert.Equal(t, lens.GroupPhotochromic, view.TreatmentGroups[0].Name)
	assert.Equal(t, lens.GroupStandard, view.TreatmentGroups[1].Name)
	assert.Equal(t, "103.9", view.Summary.Total.String())
}
