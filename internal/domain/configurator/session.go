// internal/domain/configurator/session.go
package configurator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/eyewear-backend/internal/domain/cart"
	"github.com/your-org/eyewear-backend/internal/domain/checkout"
	"github.com/your-org/eyewear-backend/internal/domain/lens"
	"github.com/your-org/eyewear-backend/internal/domain/product"
	"github.com/your-org/eyewear-backend/internal/domain/summary"
	"github.com/your-org/eyewear-backend/internal/domain/wizard"
)

var ErrSubmitInProgress = errors.New("add to cart is already in progress")

// ProductLoader loads a product with its category, variants and frame sizes
type ProductLoader interface {
	GetProduct(ctx context.Context, id uint) (*product.Product, error)
}

// CouponService validates coupon codes and remembers them per session
type CouponService interface {
	ApplyCoupon(ctx context.Context, sessionID, code string) (*checkout.Coupon, error)
	RemoveCoupon(ctx context.Context, sessionID string) error
	RestoreCoupon(ctx context.Context, sessionID string, current *checkout.Coupon) (*checkout.Coupon, error)
}

// CartSubmitter receives completed configurations
type CartSubmitter interface {
	AddLensItem(ctx context.Context, owner cart.Owner, req *cart.AddLensItemRequest) (*cart.CartResponse, error)
}

// Dependencies are the collaborators a wizard session talks to
type Dependencies struct {
	Products        ProductLoader
	Resolver        lens.ConfigResolver
	Variants        lens.VariantProvider
	Coupons         CouponService
	Cart            CartSubmitter
	ShippingMethods []checkout.ShippingMethod
	DefaultPD       decimal.Decimal
	Logger          logrus.FieldLogger
}

// Session binds the wizard machine to its collaborators for one buyer.
// Results of lookups that finish after the session was closed or moved to
// another product are dropped.
type Session struct {
	ID string

	deps *Dependencies

	mu         sync.Mutex
	generation uint64
	loading    bool
	submitting bool
	closed     bool
	catalog    *wizard.Catalog
	state      wizard.State
	updatedAt  time.Time
}

// NewSession creates an empty session. Call Load or Resume before dispatching.
func NewSession(id string, deps *Dependencies) *Session {
	return &Session{ID: id, deps: deps, updatedAt: time.Now().UTC()}
}

// Load resolves the product and its lens configuration and starts a fresh wizard.
// Calling it again switches product; a resolution overtaken by a newer Load or by
// Close returns wizard.ErrStaleResolution and leaves the session untouched.
func (s *Session) Load(ctx context.Context, productID uint) error {
	gen, err := s.beginLoad()
	if err != nil {
		return err
	}

	catalog, err := s.loadCatalog(ctx, productID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.generation != gen {
		s.deps.Logger.WithFields(logrus.Fields{
			"session_id": s.ID,
			"product_id": productID,
		}).Debug("Discarding lens configuration for a replaced wizard")
		return wizard.ErrStaleResolution
	}
	s.loading = false
	if err != nil {
		return err
	}

	s.catalog = catalog
	s.state = wizard.NewState(catalog)
	s.touch()
	return nil
}

// Resume restores a persisted state against a freshly resolved catalog
func (s *Session) Resume(ctx context.Context, snapshot *Snapshot) error {
	gen, err := s.beginLoad()
	if err != nil {
		return err
	}

	catalog, err := s.loadCatalog(ctx, snapshot.ProductID)

	state := snapshot.State.Clone()
	if err == nil {
		state.Coupon = s.restoreCoupon(ctx, state.Coupon)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.generation != gen {
		return wizard.ErrStaleResolution
	}
	s.loading = false
	if err != nil {
		return err
	}

	s.catalog = catalog
	s.state = state
	s.updatedAt = snapshot.UpdatedAt
	return nil
}

// Dispatch applies one event. Lens type selection fetches progressive variants
// and coupon codes are validated before the machine sees them.
func (s *Session) Dispatch(ctx context.Context, event wizard.Event) (wizard.State, error) {
	catalog, gen, err := s.ready()
	if err != nil {
		return s.State(), err
	}

	switch e := event.(type) {
	case wizard.SelectLensType:
		if e.Variants == nil {
			e.Variants = s.progressiveVariants(ctx, catalog, e)
		}
		event = e

	case wizard.ApplyCouponCode:
		coupon, err := s.deps.Coupons.ApplyCoupon(ctx, s.ID, e.Code)
		if err != nil {
			return s.reject(gen, err)
		}
		event = wizard.ApplyCoupon{Coupon: *coupon}

	case wizard.RemoveCoupon:
		if err := s.deps.Coupons.RemoveCoupon(ctx, s.ID); err != nil {
			s.deps.Logger.WithError(err).WithField("session_id", s.ID).Warn("Failed to forget applied coupon")
		}
	}

	return s.apply(gen, func(state wizard.State) (wizard.State, error) {
		return wizard.Apply(state, catalog, event)
	})
}

// RemoveItem clears the selection behind a summary line
func (s *Session) RemoveItem(itemID string) (wizard.State, error) {
	catalog, gen, err := s.ready()
	if err != nil {
		return s.State(), err
	}
	return s.apply(gen, func(state wizard.State) (wizard.State, error) {
		next, err := summary.Remove(state, catalog, itemID)
		if err != nil && next.Error == "" {
			next.Error = "This item cannot be removed."
		}
		return next, err
	})
}

// AddToCart validates the configuration and submits it. A failed submission keeps
// the wizard on the summary with the error set so the buyer can retry.
func (s *Session) AddToCart(ctx context.Context, owner cart.Owner) (wizard.State, error) {
	catalog, gen, err := s.ready()
	if err != nil {
		return s.State(), err
	}

	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return s.State(), ErrSubmitInProgress
	}
	state := s.state.Clone()
	if err := wizard.Validate(state, catalog); err != nil {
		s.state.Error = wizard.UserMessage(err)
		out := s.state.Clone()
		s.mu.Unlock()
		return out, err
	}
	s.submitting = true
	s.mu.Unlock()
	// submitting stays set until the outcome is applied
	defer s.endSubmit()

	payload := BuildCartPayload(state, catalog)
	if _, err := s.deps.Cart.AddLensItem(ctx, owner, payload); err != nil {
		s.deps.Logger.WithError(err).WithFields(logrus.Fields{
			"session_id": s.ID,
			"product_id": state.ProductID,
		}).Error("Failed to add lens configuration to cart")
		return s.reject(gen, &wizard.CartSubmissionError{Err: err})
	}

	next, err := s.apply(gen, func(state wizard.State) (wizard.State, error) {
		return wizard.Apply(state, catalog, wizard.CartAdded{})
	})
	if err != nil {
		return next, err
	}

	if err := s.deps.Coupons.RemoveCoupon(ctx, s.ID); err != nil {
		s.deps.Logger.WithError(err).WithField("session_id", s.ID).Warn("Failed to forget applied coupon")
	}
	return next, nil
}

func (s *Session) endSubmit() {
	s.mu.Lock()
	s.submitting = false
	s.mu.Unlock()
}

// Close cancels the wizard. Lookups still in flight are discarded when they land.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	s.closed = true
	s.generation++
	s.loading = false
	s.state = wizard.State{Step: wizard.StepClosed, ProductID: s.state.ProductID}
	s.touch()
	s.mu.Unlock()

	if err := s.deps.Coupons.RemoveCoupon(ctx, s.ID); err != nil {
		s.deps.Logger.WithError(err).WithField("session_id", s.ID).Warn("Failed to forget applied coupon")
	}
}

// State returns a copy of the current wizard state
func (s *Session) State() wizard.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Catalog returns the resolved catalog, nil while loading
func (s *Session) Catalog() *wizard.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog
}

// Loading reports whether the lens configuration is still being resolved
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Snapshot returns the persistable form of the session
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Snapshot{
		ID:        s.ID,
		ProductID: s.state.ProductID,
		State:     s.state.Clone(),
		UpdatedAt: s.updatedAt,
	}
}

func (s *Session) beginLoad() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, wizard.ErrSessionClosed
	}
	s.generation++
	s.loading = true
	return s.generation, nil
}

func (s *Session) loadCatalog(ctx context.Context, productID uint) (*wizard.Catalog, error) {
	prod, err := s.deps.Products.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %d: %w", productID, err)
	}

	resolved, err := s.deps.Resolver.Resolve(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve lens configuration: %w", err)
	}

	return &wizard.Catalog{
		Product:         prod,
		Config:          resolved,
		ShippingMethods: s.deps.ShippingMethods,
		DefaultPD:       s.deps.DefaultPD,
	}, nil
}

func (s *Session) ready() (*wizard.Catalog, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return nil, 0, wizard.ErrSessionClosed
	case s.loading || s.catalog == nil:
		return nil, 0, wizard.ErrNotReady
	}
	return s.catalog, s.generation, nil
}

// restoreCoupon re-checks a persisted coupon. A failed check keeps the coupon.
func (s *Session) restoreCoupon(ctx context.Context, current *checkout.Coupon) *checkout.Coupon {
	coupon, err := s.deps.Coupons.RestoreCoupon(ctx, s.ID, current)
	if err != nil {
		s.deps.Logger.WithError(err).WithField("session_id", s.ID).Warn("Failed to restore applied coupon")
		return current
	}
	if current != nil && coupon == nil {
		s.deps.Logger.WithFields(logrus.Fields{
			"session_id":  s.ID,
			"coupon_code": current.Code,
		}).Info("Dropped coupon that is no longer valid")
	}
	return coupon
}

func (s *Session) progressiveVariants(ctx context.Context, catalog *wizard.Catalog, e wizard.SelectLensType) []lens.ProgressiveVariant {
	lensType := catalog.Config.LensType(e.LensTypeID, e.Slug)
	if lensType == nil || lensType.Category() != lens.CategoryProgressive || lensType.ID == 0 {
		return nil
	}

	variants, err := s.deps.Variants.GetProgressiveVariants(ctx, lensType.ID)
	if err != nil {
		s.deps.Logger.WithError(err).WithFields(logrus.Fields{
			"session_id":   s.ID,
			"lens_type_id": lensType.ID,
		}).Warn("Failed to load progressive variants")
		return nil
	}
	return variants
}

// apply runs a transition against the current state, unless the session moved on
// while the caller was waiting on a collaborator
func (s *Session) apply(gen uint64, transition func(wizard.State) (wizard.State, error)) (wizard.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.state.Clone(), wizard.ErrSessionClosed
	}
	if s.generation != gen {
		return s.state.Clone(), wizard.ErrStaleResolution
	}

	next, err := transition(s.state)
	s.state = next
	s.touch()
	return next.Clone(), err
}

func (s *Session) reject(gen uint64, cause error) (wizard.State, error) {
	return s.apply(gen, func(state wizard.State) (wizard.State, error) {
		rejected := state.Clone()
		rejected.Error = userMessage(cause)
		return rejected, cause
	})
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return time.Now().UTC()
	}
	return s.updatedAt
}

func (s *Session) touch() {
	s.updatedAt = time.Now().UTC()
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, checkout.ErrCouponInvalid):
		return "This coupon code is not valid."
	case errors.Is(err, checkout.ErrCouponServiceUnavailable):
		return "Coupons cannot be applied right now."
	default:
		return wizard.UserMessage(err)
	}
}
