// internal/domain/lens/repository.go
package lens

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/your-org/eyewear-backend/internal/domain/product"
	"gorm.io/gorm"
)

// ProductScope resolves the store and category a product belongs to
type ProductScope interface {
	GetScope(ctx context.Context, productID uint) (storeID, categoryID uint, err error)
}

// Repository reads the lens catalog from postgres
type Repository struct {
	db       *gorm.DB
	products ProductScope
}

// NewRepository creates a new lens catalog repository
func NewRepository(db *gorm.DB, products ProductScope) *Repository {
	return &Repository{
		db:       db,
		products: products,
	}
}

var _ Catalog = (*Repository)(nil)
var _ ProductScope = (*product.Service)(nil)

// GetCategoryLensConfig loads the category override of the product's store category
func (r *Repository) GetCategoryLensConfig(ctx context.Context, productID uint) (*CategoryLensConfig, error) {
	storeID, categoryID, err := r.products.GetScope(ctx, productID)
	if err != nil {
		return nil, err
	}

	var links []CategoryLensOption
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND category_id = ?", storeID, categoryID).
		Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to load category lens options: %w", err)
	}

	ids := make(map[OptionKind][]uint)
	for _, link := range links {
		ids[link.OptionKind] = append(ids[link.OptionKind], link.OptionID)
	}

	var rows []PrescriptionOption
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND category_id = ? AND product_id IS NULL", storeID, categoryID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load category prescription options: %w", err)
	}

	if len(links) == 0 && len(rows) == 0 {
		return nil, nil
	}

	cfg := &CategoryLensConfig{}
	if len(rows) > 0 {
		opts, err := buildPrescriptionOptions(rows)
		if err != nil {
			return nil, err
		}
		cfg.PrescriptionOptions = opts
	}

	db := r.db.WithContext(ctx)
	if err := findByIDs(db, storeID, ids[KindLensType], &cfg.LensTypes); err != nil {
		return nil, err
	}
	if err := findByIDs(db, storeID, ids[KindTreatment], &cfg.Treatments); err != nil {
		return nil, err
	}
	if err := findByIDs(db, storeID, ids[KindCoating], &cfg.Coatings); err != nil {
		return nil, err
	}
	if err := findByIDs(db, storeID, ids[KindThicknessMaterial], &cfg.ThicknessMaterials); err != nil {
		return nil, err
	}
	if err := findByIDs(db, storeID, ids[KindThicknessOption], &cfg.ThicknessOptions); err != nil {
		return nil, err
	}

	return cfg, nil
}

// GetGlobalLensOptions loads every active option of the product's store
func (r *Repository) GetGlobalLensOptions(ctx context.Context, productID uint) (*Options, error) {
	storeID, _, err := r.products.GetScope(ctx, productID)
	if err != nil {
		return nil, err
	}

	db := r.db.WithContext(ctx)
	opts := &Options{}
	if err := findActive(db, storeID, &opts.LensTypes); err != nil {
		return nil, err
	}
	if err := findActive(db, storeID, &opts.Treatments); err != nil {
		return nil, err
	}
	if err := findActive(db, storeID, &opts.Coatings); err != nil {
		return nil, err
	}
	if err := findActive(db, storeID, &opts.ThicknessMaterials); err != nil {
		return nil, err
	}
	if err := findActive(db, storeID, &opts.ThicknessOptions); err != nil {
		return nil, err
	}

	return opts, nil
}

// GetPrescriptionOptions loads product-specific value lists, else the store-wide ones
func (r *Repository) GetPrescriptionOptions(ctx context.Context, productID uint) (*PrescriptionOptions, error) {
	storeID, _, err := r.products.GetScope(ctx, productID)
	if err != nil {
		return nil, err
	}

	var rows []PrescriptionOption
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND product_id = ?", storeID, productID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load product prescription options: %w", err)
	}

	if len(rows) == 0 {
		if err := r.db.WithContext(ctx).
			Where("store_id = ? AND product_id IS NULL AND category_id IS NULL", storeID).
			Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to load store prescription options: %w", err)
		}
	}

	if len(rows) == 0 {
		return nil, nil
	}
	return buildPrescriptionOptions(rows)
}

// GetProgressiveVariants loads the active variants of a lens type
func (r *Repository) GetProgressiveVariants(ctx context.Context, lensTypeID uint) ([]ProgressiveVariant, error) {
	var variants []ProgressiveVariant
	if err := r.db.WithContext(ctx).
		Where("lens_type_id = ? AND is_active = ?", lensTypeID, true).
		Order("sort_order ASC, id ASC").
		Find(&variants).Error; err != nil {
		return nil, fmt.Errorf("failed to load progressive variants: %w", err)
	}
	return variants, nil
}

func findByIDs(db *gorm.DB, storeID uint, ids []uint, dest interface{}) error {
	if len(ids) == 0 {
		return nil
	}
	if err := db.Where("id IN ? AND store_id = ? AND is_active = ?", ids, storeID, true).
		Order("sort_order ASC, id ASC").
		Find(dest).Error; err != nil {
		return fmt.Errorf("failed to load category lens options: %w", err)
	}
	return nil
}

func findActive(db *gorm.DB, storeID uint, dest interface{}) error {
	if err := db.Where("store_id = ? AND is_active = ?", storeID, true).
		Order("sort_order ASC, id ASC").
		Find(dest).Error; err != nil {
		return fmt.Errorf("failed to load store lens options: %w", err)
	}
	return nil
}

func buildPrescriptionOptions(rows []PrescriptionOption) (*PrescriptionOptions, error) {
	opts := &PrescriptionOptions{}
	for _, row := range rows {
		var values []string
		if len(row.Values) > 0 {
			if err := json.Unmarshal(row.Values, &values); err != nil {
				return nil, fmt.Errorf("invalid prescription option values for %s: %w", row.Field, err)
			}
		}
		side := row.EyeSide
		if side == "" {
			side = EyeBoth
		}
		opts.Set(row.Field, side, values)
	}
	return opts, nil
}
