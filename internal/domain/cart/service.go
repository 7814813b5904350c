// internal/domain/cart/service.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/your-org/eyewear-backend/internal/config"
	"github.com/your-org/eyewear-backend/internal/domain/product"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrInvalidItem        = errors.New("invalid cart item")
	ErrProductUnavailable = errors.New("product not found or inactive")
	ErrItemNotFound       = errors.New("item not found in cart")
	ErrNoOwner            = errors.New("user or session ID required for cart")
)

const guestCartTTL = 24 * time.Hour

// Owner identifies whose cart is addressed: a signed-in user or a guest session
type Owner struct {
	UserID    *uint
	SessionID string
}

// Service handles cart business logic
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	config      *config.Config
	validate    *validator.Validate
}

// NewService creates a new cart service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Service {
	return &Service{
		db:          db,
		redisClient: redisClient,
		config:      cfg,
		validate:    validator.New(),
	}
}

// PrescriptionLine carries the prescription values of a configured pair
type PrescriptionLine struct {
	RightSPH  string `json:"right_sph" validate:"required"`
	RightCYL  string `json:"right_cyl" validate:"required"`
	RightAxis string `json:"right_axis" validate:"required"`
	LeftSPH   string `json:"left_sph" validate:"required"`
	LeftCYL   string `json:"left_cyl" validate:"required"`
	LeftAxis  string `json:"left_axis" validate:"required"`
	PD        string `json:"pd" validate:"required"`
}

// AddLensItemRequest is a completed lens configuration ready to become a cart line
type AddLensItemRequest struct {
	ProductID               uint              `json:"product_id" validate:"required"`
	VariantID               *uint             `json:"variant_id,omitempty"`
	Quantity                int               `json:"quantity" validate:"required,min=1"`
	UnitPrice               decimal.Decimal   `json:"unit_price"`
	LensTypeID              *uint             `json:"lens_type_id,omitempty"`
	LensType                string            `json:"lens_type" validate:"required"`
	LensIndex               string            `json:"lens_index,omitempty"`
	LensThicknessMaterialID *uint             `json:"lens_thickness_material_id,omitempty"`
	LensThicknessOptionID   *uint             `json:"lens_thickness_option_id,omitempty"`
	TreatmentIDs            []uint            `json:"treatment_ids" validate:"dive,required"`
	ProgressiveVariantID    *uint             `json:"progressive_variant_id,omitempty"`
	FrameSizeID             *uint             `json:"frame_size_id,omitempty"`
	Prescription            *PrescriptionLine `json:"prescription,omitempty"`
}

// CartItemResponse represents a cart line with product details
type CartItemResponse struct {
	ID               uint             `json:"id"`
	ProductID        uint             `json:"product_id"`
	ProductVariantID *uint            `json:"product_variant_id,omitempty"`
	Quantity         int              `json:"quantity"`
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	LineTotal        decimal.Decimal  `json:"line_total"`
	Lens             LensLine         `json:"lens"`
	Product          *product.Product `json:"product,omitempty"`
	AddedAt          time.Time        `json:"added_at"`
}

// CartResponse represents a shopping cart with items and summary
type CartResponse struct {
	SessionID string             `json:"session_id,omitempty"`
	UserID    *uint              `json:"user_id,omitempty"`
	Items     []CartItemResponse `json:"items"`
	Totals    CartTotals         `json:"totals"`
	Currency  string             `json:"currency"`
}

// ValidateRequest checks a lens item payload before anything is stored
func (s *Service) ValidateRequest(req *AddLensItemRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	if !req.UnitPrice.IsPositive() {
		return fmt.Errorf("%w: unit price must be positive", ErrInvalidItem)
	}
	return nil
}

// AddLensItem stores a configured pair as its own cart line. Lines are never
// merged since two pairs of one frame can differ in every lens field.
func (s *Service) AddLensItem(ctx context.Context, owner Owner, req *AddLensItemRequest) (*CartResponse, error) {
	if err := s.ValidateRequest(req); err != nil {
		return nil, err
	}
	if owner.UserID == nil && owner.SessionID == "" {
		return nil, ErrNoOwner
	}

	// Validate product exists and is active
	var prod product.Product
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", req.ProductID, true).First(&prod).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductUnavailable
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	line, err := lensLineFromRequest(req)
	if err != nil {
		return nil, err
	}

	if owner.UserID != nil {
		item := CartItem{
			UserID:           owner.UserID,
			ProductID:        req.ProductID,
			ProductVariantID: req.VariantID,
			Quantity:         req.Quantity,
			UnitPrice:        req.UnitPrice,
			LensLine:         line,
		}
		if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
			return nil, fmt.Errorf("failed to add item to cart: %w", err)
		}
	} else {
		if err := s.addToGuestCart(ctx, owner.SessionID, req, line); err != nil {
			return nil, err
		}
	}

	return s.GetCart(ctx, owner)
}

// GetCart retrieves cart for user or session
func (s *Service) GetCart(ctx context.Context, owner Owner) (*CartResponse, error) {
	var items []CartItemResponse

	if owner.UserID != nil {
		var dbItems []CartItem
		if err := s.db.WithContext(ctx).Where("user_id = ?", *owner.UserID).Order("id").Find(&dbItems).Error; err != nil {
			return nil, fmt.Errorf("failed to retrieve user cart: %w", err)
		}

		items = make([]CartItemResponse, len(dbItems))
		for i, item := range dbItems {
			items[i] = CartItemResponse{
				ID:               item.ID,
				ProductID:        item.ProductID,
				ProductVariantID: item.ProductVariantID,
				Quantity:         item.Quantity,
				UnitPrice:        item.UnitPrice,
				Lens:             item.LensLine,
				AddedAt:          item.CreatedAt,
			}
		}
	} else {
		sessionCart, err := s.getGuestCart(ctx, owner.SessionID)
		if err != nil {
			return nil, err
		}

		items = make([]CartItemResponse, len(sessionCart.Items))
		for i, item := range sessionCart.Items {
			items[i] = CartItemResponse{
				ID:               item.ID,
				ProductID:        item.ProductID,
				ProductVariantID: item.ProductVariantID,
				Quantity:         item.Quantity,
				UnitPrice:        item.UnitPrice,
				Lens:             item.LensLine,
				AddedAt:          item.AddedAt,
			}
		}
	}

	s.loadProductDetails(ctx, items)

	return &CartResponse{
		SessionID: owner.SessionID,
		UserID:    owner.UserID,
		Items:     items,
		Totals:    CalculateTotals(items),
		Currency:  s.config.Checkout.Currency,
	}, nil
}

// RemoveItem removes one line from the cart
func (s *Service) RemoveItem(ctx context.Context, owner Owner, itemID uint) (*CartResponse, error) {
	if owner.UserID != nil {
		result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", itemID, *owner.UserID).Delete(&CartItem{})
		if result.Error != nil {
			return nil, fmt.Errorf("failed to remove cart item: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrItemNotFound
		}
		return s.GetCart(ctx, owner)
	}

	sessionCart, err := s.getGuestCart(ctx, owner.SessionID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range sessionCart.Items {
		if sessionCart.Items[i].ID == itemID {
			sessionCart.Items = append(sessionCart.Items[:i], sessionCart.Items[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return nil, ErrItemNotFound
	}

	sessionCart.UpdatedAt = time.Now().UTC()
	if err := s.saveGuestCart(ctx, owner.SessionID, sessionCart); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, owner)
}

// ClearCart removes all items from the cart
func (s *Service) ClearCart(ctx context.Context, owner Owner) error {
	if owner.UserID != nil {
		return s.db.WithContext(ctx).Where("user_id = ?", *owner.UserID).Delete(&CartItem{}).Error
	}
	if owner.SessionID == "" {
		return ErrNoOwner
	}
	return s.redisClient.Del(ctx, guestCartKey(owner.SessionID)).Err()
}

// CalculateTotals sums the cart lines
func CalculateTotals(items []CartItemResponse) CartTotals {
	totals := CartTotals{
		ItemCount: len(items),
		SubTotal:  decimal.Zero,
	}
	for i := range items {
		items[i].LineTotal = items[i].UnitPrice.Mul(decimal.NewFromInt(int64(items[i].Quantity)))
		totals.TotalQuantity += items[i].Quantity
		totals.SubTotal = totals.SubTotal.Add(items[i].LineTotal)
	}
	return totals
}

// Private helper methods

func lensLineFromRequest(req *AddLensItemRequest) (LensLine, error) {
	treatments := req.TreatmentIDs
	if treatments == nil {
		treatments = []uint{}
	}
	treatmentData, err := json.Marshal(treatments)
	if err != nil {
		return LensLine{}, fmt.Errorf("failed to marshal treatments: %w", err)
	}

	line := LensLine{
		LensTypeID:              req.LensTypeID,
		LensType:                req.LensType,
		LensIndex:               req.LensIndex,
		LensThicknessMaterialID: req.LensThicknessMaterialID,
		LensThicknessOptionID:   req.LensThicknessOptionID,
		TreatmentIDs:            datatypes.JSON(treatmentData),
		ProgressiveVariantID:    req.ProgressiveVariantID,
		FrameSizeID:             req.FrameSizeID,
	}
	if p := req.Prescription; p != nil {
		line.RightSPH, line.RightCYL, line.RightAxis = p.RightSPH, p.RightCYL, p.RightAxis
		line.LeftSPH, line.LeftCYL, line.LeftAxis = p.LeftSPH, p.LeftCYL, p.LeftAxis
		line.PD = p.PD
	}
	return line, nil
}

func (s *Service) addToGuestCart(ctx context.Context, sessionID string, req *AddLensItemRequest, line LensLine) error {
	sessionCart, err := s.getGuestCart(ctx, sessionID)
	if err != nil {
		return err
	}

	sessionCart.NextID++
	sessionCart.Items = append(sessionCart.Items, SessionCartItem{
		ID:               sessionCart.NextID,
		ProductID:        req.ProductID,
		ProductVariantID: req.VariantID,
		Quantity:         req.Quantity,
		UnitPrice:        req.UnitPrice,
		LensLine:         line,
		AddedAt:          time.Now().UTC(),
	})

	sessionCart.UpdatedAt = time.Now().UTC()
	return s.saveGuestCart(ctx, sessionID, sessionCart)
}

func (s *Service) getGuestCart(ctx context.Context, sessionID string) (*SessionCart, error) {
	if sessionID == "" {
		return nil, ErrNoOwner
	}

	cartData, err := s.redisClient.Get(ctx, guestCartKey(sessionID)).Result()
	if err == redis.Nil {
		// Cart doesn't exist, return empty cart
		now := time.Now().UTC()
		return &SessionCart{
			SessionID: sessionID,
			Items:     []SessionCartItem{},
			CreatedAt: now,
			UpdatedAt: now,
			ExpiresAt: now.Add(guestCartTTL),
		}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load guest cart: %w", err)
	}

	var sessionCart SessionCart
	if err := json.Unmarshal([]byte(cartData), &sessionCart); err != nil {
		return nil, fmt.Errorf("failed to decode guest cart: %w", err)
	}

	return &sessionCart, nil
}

func (s *Service) saveGuestCart(ctx context.Context, sessionID string, cart *SessionCart) error {
	cart.ExpiresAt = time.Now().UTC().Add(guestCartTTL)
	cartData, err := json.Marshal(cart)
	if err != nil {
		return err
	}

	return s.redisClient.Set(ctx, guestCartKey(sessionID), cartData, guestCartTTL).Err()
}

func (s *Service) loadProductDetails(ctx context.Context, items []CartItemResponse) {
	for i := range items {
		var prod product.Product
		err := s.db.WithContext(ctx).Preload("Category").
			Where("id = ?", items[i].ProductID).First(&prod).Error
		if err != nil {
			continue // Skip if product not found
		}
		items[i].Product = &prod
	}
}

func guestCartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}
