package configurator

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/your-org/eyewear-backend/internal/config"
	"github.com/your-org/eyewear-backend/internal/domain/cart"
	"github.com/your-org/eyewear-backend/internal/domain/checkout"
	"github.com/your-org/eyewear-backend/internal/domain/lens"
	"github.com/your-org/eyewear-backend/internal/domain/product"
	"github.com/your-org/eyewear-backend/internal/pkg/logger"
)

var errCartDown = errors.New("cart backend unavailable")

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeProducts struct {
	products map[uint]*product.Product
}

func (f *fakeProducts) GetProduct(ctx context.Context, id uint) (*product.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	out := *p
	return &out, nil
}

// fakeResolver resolves from a fixed map. A product listed in gates blocks until
// its gate is closed and signals started when it begins.
type fakeResolver struct {
	mu      sync.Mutex
	configs map[uint]*lens.ResolvedConfig
	gates   map[uint]chan struct{}
	started chan uint
}

func (f *fakeResolver) Resolve(ctx context.Context, productID uint) (*lens.ResolvedConfig, error) {
	f.mu.Lock()
	gate := f.gates[productID]
	resolved, ok := f.configs[productID]
	f.mu.Unlock()

	if gate != nil {
		if f.started != nil {
			f.started <- productID
		}
		<-gate
	}
	if !ok {
		return nil, lens.ErrConfigUnavailable
	}
	return resolved.Clone(), nil
}

func (f *fakeResolver) gate(productID uint) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[productID] = ch
	return ch
}

type fakeVariants struct {
	variants map[uint][]lens.ProgressiveVariant
}

func (f *fakeVariants) GetProgressiveVariants(ctx context.Context, lensTypeID uint) ([]lens.ProgressiveVariant, error) {
	return f.variants[lensTypeID], nil
}

type fakeCart struct {
	mu       sync.Mutex
	err      error
	received []*cart.AddLensItemRequest
}

func (f *fakeCart) AddLensItem(ctx context.Context, owner cart.Owner, req *cart.AddLensItemRequest) (*cart.CartResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.received = append(f.received, req)
	return &cart.CartResponse{SessionID: owner.SessionID}, nil
}

func (f *fakeCart) last() *cart.AddLensItemRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.received) == 0 {
		return nil
	}
	return f.received[len(f.received)-1]
}

// blockingCoupons holds RemoveCoupon until release is closed and signals entered
// when it is reached
type blockingCoupons struct {
	*checkout.Service
	entered chan struct{}
	release chan struct{}
}

func (b *blockingCoupons) RemoveCoupon(ctx context.Context, sessionID string) error {
	b.entered <- struct{}{}
	<-b.release
	return nil
}

func (f *fakeCart) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.received)
}

type harness struct {
	deps      Dependencies
	products  *fakeProducts
	resolver  *fakeResolver
	variants  *fakeVariants
	cart      *fakeCart
	checkout  *checkout.Service
	store     *MemoryStore
	configCfg *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		Lens: config.LensConfig{
			DefaultPD:     decimal.NewFromInt(63),
			FallbackIndex: price("1.5"),
		},
		Checkout: config.CheckoutConfig{
			Currency:              "EUR",
			StandardShippingPrice: price("3.90"),
			ExpressShippingPrice:  price("9.90"),
			CouponsEnabled:        true,
		},
	}
}

// newHarness builds product 1 ("Aviator Classic", 100.00, astigmatism category)
// with a store catalog of three lens types, two treatments, one material and one
// index option, and product 2 (a spherical frame at 80.00) with built-in lens types.
func newHarness() *harness {
	cfg := testConfig()

	products := &fakeProducts{products: map[uint]*product.Product{
		1: {
			ID:       1,
			Name:     "Aviator Classic",
			Price:    price("100.00"),
			IsActive: true,
			Category: product.Category{ID: 3, Name: "Eyeglasses", PrescriptionKind: product.PrescriptionAstigmatism},
		},
		2: {
			ID:       2,
			Name:     "Round Reader",
			Price:    price("80.00"),
			IsActive: true,
			Category: product.Category{ID: 4, Name: "Readers", PrescriptionKind: product.PrescriptionSpherical},
		},
	}}

	resolver := &fakeResolver{
		configs: map[uint]*lens.ResolvedConfig{
			1: {
				ProductID: 1,
				Options: lens.Options{
					LensTypes: []lens.LensType{
						{ID: 1, Name: "Distance Vision", Slug: "distance-vision", IsActive: true},
						{ID: 2, Name: "Near Vision", Slug: "near-vision", PriceAdjustment: price("15.00"), IsActive: true},
						{ID: 3, Name: "Progressive", Slug: "progressive", PriceAdjustment: price("40.00"), IsActive: true},
						{ID: 4, Name: "Non-Prescription", Slug: "non-prescription", IsActive: true},
					},
					Treatments: []lens.LensTreatment{
						{ID: 10, Name: "Blue Light Filter", Price: price("5.00"), IsActive: true},
						{ID: 11, Name: "Photochromic", Price: price("30.00"), IsActive: true},
					},
					ThicknessMaterials: []lens.LensThicknessMaterial{{ID: 21, Name: "Premium", Price: price("25.00"), IsActive: true}},
					ThicknessOptions:   []lens.LensThicknessOption{{ID: 30, Name: "Standard", Value: "1.56", IsActive: true}},
				},
				PrescriptionOptions: lens.DefaultPrescriptionOptions(),
				Source:              lens.SourceGlobal,
			},
			2: {
				ProductID:           2,
				Options:             lens.Options{LensTypes: lens.FallbackLensTypes(price("1.5"))},
				PrescriptionOptions: lens.DefaultPrescriptionOptions(),
				Source:              lens.SourceDefault,
			},
		},
		gates: map[uint]chan struct{}{},
	}

	variants := &fakeVariants{variants: map[uint][]lens.ProgressiveVariant{}}
	fc := &fakeCart{}
	checkoutSvc := checkout.NewService(nil, cfg)

	h := &harness{
		products:  products,
		resolver:  resolver,
		variants:  variants,
		cart:      fc,
		checkout:  checkoutSvc,
		store:     NewMemoryStore(),
		configCfg: cfg,
	}
	h.deps = Dependencies{
		Products:        products,
		Resolver:        resolver,
		Variants:        variants,
		Coupons:         checkoutSvc,
		Cart:            fc,
		ShippingMethods: checkoutSvc.ShippingMethods(),
		DefaultPD:       cfg.Lens.DefaultPD,
		Logger:          logger.Discard(),
	}
	return h
}

func (h *harness) service() *Service {
	return NewService(h.deps, h.store, 0)
}
