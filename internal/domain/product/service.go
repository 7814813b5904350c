// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrProductNotFound is returned when a product does not exist or is inactive
var ErrProductNotFound = errors.New("product not found or inactive")

// Service handles product lookups needed by the lens configuration flow
type Service struct {
	db *gorm.DB
}

// NewService creates a new product service
func NewService(db *gorm.DB) *Service {
	return &Service{
		db: db,
	}
}

// GetProduct loads an active product with its category, active variants and frame sizes
func (s *Service) GetProduct(ctx context.Context, id uint) (*Product, error) {
	var prod Product
	result := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Variants", "is_active = ?", true).
		Preload("FrameSizes", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Where("id = ? AND is_active = ?", id, true).
		First(&prod)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}

	return &prod, nil
}

// GetScope returns the store and category a product belongs to
func (s *Service) GetScope(ctx context.Context, id uint) (storeID, categoryID uint, err error) {
	var prod Product
	result := s.db.WithContext(ctx).
		Select("id", "store_id", "category_id").
		Where("id = ?", id).
		First(&prod)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, 0, ErrProductNotFound
		}
		return 0, 0, fmt.Errorf("failed to retrieve product scope: %w", result.Error)
	}

	return prod.StoreID, prod.CategoryID, nil
}
