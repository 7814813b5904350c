// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/your-org/eyewear-backend/internal/config"
)

var (
	ErrCouponInvalid            = errors.New("invalid coupon code")
	ErrCouponServiceUnavailable = errors.New("coupon service is not available yet")
)

const (
	ShippingStandard = "standard"
	ShippingExpress  = "express"
)

// Service handles shipping rates and coupons for the lens checkout
type Service struct {
	redisClient *redis.Client
	config      *config.Config
}

// NewService creates a new checkout service. redisClient may be nil, in which case
// applied coupons are not remembered.
func NewService(redisClient *redis.Client, cfg *config.Config) *Service {
	return &Service{
		redisClient: redisClient,
		config:      cfg,
	}
}

// ShippingMethod represents a shipping option
type ShippingMethod struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	EstimatedDays string          `json:"estimated_days"`
}

// Coupon represents a validated percentage coupon
type Coupon struct {
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Description     string          `json:"description"`
}

// ShippingMethods returns the flat two-tier rates
func (s *Service) ShippingMethods() []ShippingMethod {
	return []ShippingMethod{
		{
			ID:            ShippingStandard,
			Name:          "Standard Shipping",
			Description:   "Delivered by regular post",
			Price:         s.config.Checkout.StandardShippingPrice,
			EstimatedDays: "5-7",
		},
		{
			ID:            ShippingExpress,
			Name:          "Express Shipping",
			Description:   "Tracked next business day dispatch",
			Price:         s.config.Checkout.ExpressShippingPrice,
			EstimatedDays: "1-2",
		},
	}
}

// ValidateCoupon checks a coupon code against the coupon table
func (s *Service) ValidateCoupon(code string) (*Coupon, error) {
	if !s.config.Checkout.CouponsEnabled {
		return nil, ErrCouponServiceUnavailable
	}

	// Static table until a coupon backend exists
	coupons := map[string]Coupon{
		"SAVE10": {
			Code:            "SAVE10",
			DiscountPercent: decimal.NewFromInt(10),
			Description:     "10% off your lenses",
		},
		"WELCOME20": {
			Code:            "WELCOME20",
			DiscountPercent: decimal.NewFromInt(20),
			Description:     "20% off your first order",
		},
	}

	coupon, exists := coupons[strings.ToUpper(strings.TrimSpace(code))]
	if !exists {
		return nil, ErrCouponInvalid
	}
	return &coupon, nil
}

// ApplyCoupon validates a code and remembers it for the wizard session
func (s *Service) ApplyCoupon(ctx context.Context, sessionID, code string) (*Coupon, error) {
	coupon, err := s.ValidateCoupon(code)
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil {
		couponData, err := json.Marshal(coupon)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal coupon: %w", err)
		}
		if err := s.redisClient.Set(ctx, couponKey(sessionID), couponData, s.config.Lens.WizardSessionTTL).Err(); err != nil {
			return nil, fmt.Errorf("failed to store applied coupon: %w", err)
		}
	}

	return coupon, nil
}

// RemoveCoupon forgets the coupon applied to a wizard session
func (s *Service) RemoveCoupon(ctx context.Context, sessionID string) error {
	if s.redisClient == nil {
		return nil
	}
	return s.redisClient.Del(ctx, couponKey(sessionID)).Err()
}

// GetAppliedCoupon returns the coupon remembered for a wizard session, or nil
func (s *Service) GetAppliedCoupon(ctx context.Context, sessionID string) (*Coupon, error) {
	if s.redisClient == nil {
		return nil, nil
	}

	couponData, err := s.redisClient.Get(ctx, couponKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load applied coupon: %w", err)
	}

	var coupon Coupon
	if err := json.Unmarshal([]byte(couponData), &coupon); err != nil {
		return nil, fmt.Errorf("failed to unmarshal applied coupon: %w", err)
	}
	return &coupon, nil
}

// RestoreCoupon re-checks the coupon of a resumed wizard session. The coupon
// remembered in Redis wins over the one carried in the session state. A code that
// is no longer valid is dropped; while the coupon service is unavailable the
// coupon is kept as it is.
func (s *Service) RestoreCoupon(ctx context.Context, sessionID string, current *Coupon) (*Coupon, error) {
	stored, err := s.GetAppliedCoupon(ctx, sessionID)
	if err != nil {
		return current, err
	}

	candidate := current
	if stored != nil {
		candidate = stored
	}
	if candidate == nil {
		return nil, nil
	}

	coupon, err := s.ValidateCoupon(candidate.Code)
	switch {
	case errors.Is(err, ErrCouponServiceUnavailable):
		return candidate, nil
	case errors.Is(err, ErrCouponInvalid):
		if err := s.RemoveCoupon(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("failed to forget expired coupon: %w", err)
		}
		return nil, nil
	case err != nil:
		return current, err
	}
	return coupon, nil
}

func couponKey(sessionID string) string {
	return fmt.Sprintf("applied_coupon:session:%s", sessionID)
}
