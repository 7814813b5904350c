package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/your-org/eyewear-backend/internal/config"
	"github.com/your-org/eyewear-backend/internal/domain/cart"
	"github.com/your-org/eyewear-backend/internal/domain/checkout"
	"github.com/your-org/eyewear-backend/internal/domain/configurator"
	"github.com/your-org/eyewear-backend/internal/domain/lens"
	"github.com/your-org/eyewear-backend/internal/domain/product"
	"github.com/your-org/eyewear-backend/internal/pkg/logger"
	"github.com/your-org/eyewear-backend/internal/pkg/pdf"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type stubProducts struct{}

func (stubProducts) GetProduct(ctx context.Context, id uint) (*product.Product, error) {
	if id != 1 {
		return nil, product.ErrProductNotFound
	}
	return &product.Product{
		ID:       1,
		Name:     "Aviator Classic",
		Price:    price("100.00"),
		IsActive: true,
		Category: product.Category{ID: 3, Name: "Eyeglasses", PrescriptionKind: product.PrescriptionAstigmatism},
	}, nil
}

type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context, productID uint) (*lens.ResolvedConfig, error) {
	return &lens.ResolvedConfig{
		ProductID: productID,
		Options: lens.Options{
			LensTypes: []lens.LensType{
				{ID: 1, Name: "Distance Vision", Slug: "distance-vision", IsActive: true},
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
	}, nil
}

type stubVariants struct{}

func (stubVariants) GetProgressiveVariants(ctx context.Context, lensTypeID uint) ([]lens.ProgressiveVariant, error) {
	return nil, nil
}

type recordingCart struct {
	mu       sync.Mutex
	err      error
	owners   []cart.Owner
	payloads []*cart.AddLensItemRequest
}

func (r *recordingCart) AddLensItem(ctx context.Context, owner cart.Owner, req *cart.AddLensItemRequest) (*cart.CartResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.owners = append(r.owners, owner)
	r.payloads = append(r.payloads, req)
	return &cart.CartResponse{SessionID: owner.SessionID}, nil
}

func (r *recordingCart) GetCart(ctx context.Context, owner cart.Owner) (*cart.CartResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.owners = append(r.owners, owner)
	return &cart.CartResponse{SessionID: owner.SessionID, UserID: owner.UserID, Items: []cart.CartItemResponse{}, Currency: "EUR"}, nil
}

func (r *recordingCart) RemoveItem(ctx context.Context, owner cart.Owner, itemID uint) (*cart.CartResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners = append(r.owners, owner)
	if itemID != 1 {
		return nil, cart.ErrItemNotFound
	}
	return &cart.CartResponse{SessionID: owner.SessionID, Items: []cart.CartItemResponse{}, Currency: "EUR"}, nil
}

func (r *recordingCart) ClearCart(ctx context.Context, owner cart.Owner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners = append(r.owners, owner)
	return r.err
}

func (r *recordingCart) lastOwner() cart.Owner {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owners[len(r.owners)-1]
}

type recordingQuotes struct {
	last pdf.QuoteInput
}

func (q *recordingQuotes) GenerateQuote(in pdf.QuoteInput) (*bytes.Buffer, error) {
	q.last = in
	return bytes.NewBufferString("%PDF-1.4 quote"), nil
}

func testConfig() *config.Config {
	return &config.Config{
		Lens: config.LensConfig{DefaultPD: decimal.NewFromInt(63)},
		Checkout: config.CheckoutConfig{
			Currency:              "EUR",
			StandardShippingPrice: price("3.90"),
			ExpressShippingPrice:  price("9.90"),
			CouponsEnabled:        true,
		},
	}
}

type testAPI struct {
	router *gin.Engine
	cart   *recordingCart
	quotes *recordingQuotes
}

// newTestAPI mounts the handlers the way the route table does
func newTestAPI() *testAPI {
	cfg := testConfig()
	checkoutService := checkout.NewService(nil, cfg)
	cartService := &recordingCart{}
	quotes := &recordingQuotes{}

	wizardService := configurator.NewService(configurator.Dependencies{
		Products:        stubProducts{},
		Resolver:        stubResolver{},
		Variants:        stubVariants{},
		Coupons:         checkoutService,
		Cart:            cartService,
		ShippingMethods: checkoutService.ShippingMethods(),
		DefaultPD:       cfg.Lens.DefaultPD,
		Logger:          logger.Discard(),
	}, configurator.NewMemoryStore(), 0)

	lensHandler := NewLensHandler(stubResolver{}, stubProducts{})
	wizardHandler := NewWizardHandler(wizardService, quotes)
	cartHandler := NewCartHandler(cartService)

	router := gin.New()
	api := router.Group("/api/v1")
	api.GET("/products/:id/lens-config", lensHandler.GetLensConfig)
	api.GET("/optics/axis/convert", ConvertAxis)
	api.POST("/prescriptions/validate", lensHandler.ValidatePrescription)

	api.POST("/wizard", wizardHandler.Open)
	api.GET("/wizard/:id", wizardHandler.Get)
	api.POST("/wizard/:id/events", wizardHandler.Dispatch)
	api.DELETE("/wizard/:id/items/:itemId", wizardHandler.RemoveItem)
	api.POST("/wizard/:id/cart", wizardHandler.AddToCart)
	api.GET("/wizard/:id/quote.pdf", wizardHandler.Quote)
	api.DELETE("/wizard/:id", wizardHandler.Close)

	api.GET("/cart", cartHandler.GetCart)
	api.DELETE("/cart/items/:itemId", cartHandler.RemoveItem)
	api.DELETE("/cart", cartHandler.ClearCart)

	return &testAPI{router: router, cart: cartService, quotes: quotes}
}

func (a *testAPI) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// envelope is the common response shape
type envelope struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Details string          `json:"details"`
	Data    json.RawMessage `json:"data"`
}

type wizardView struct {
	ID    string `json:"id"`
	State struct {
		Step  string `json:"step"`
		Error string `json:"error"`
	} `json:"state"`
	Summary *struct {
		Subtotal decimal.Decimal `json:"subtotal"`
		Total    decimal.Decimal `json:"total"`
	} `json:"summary"`
	CanAddToCart bool `json:"can_add_to_cart"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) wizardView {
	t.Helper()
	var view wizardView
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view), w.Body.String())
	return view
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}
