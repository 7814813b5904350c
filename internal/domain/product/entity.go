// internal/domain/product/entity.go
package product

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PrescriptionKind tells which prescription fields a category's lenses accept
type PrescriptionKind string

const (
	// PrescriptionAstigmatism accepts SPH, CYL and AXIS
	PrescriptionAstigmatism PrescriptionKind = "astigmatism"
	// PrescriptionSpherical accepts SPH only
	PrescriptionSpherical PrescriptionKind = "spherical"
)

// Product represents a frame or contact lens sold by a seller store
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	StoreID     uint            `gorm:"not null;index" json:"store_id"`
	CategoryID  uint            `gorm:"not null;index" json:"category_id"`
	SKU         string          `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name        string          `gorm:"not null;size:255" json:"name"`
	Slug        string          `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	Category   Category         `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
	Variants   []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"variants,omitempty"`
	FrameSizes []FrameSize      `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"frame_sizes,omitempty"`
}

// Category represents product categories such as eyeglasses or toric contact lenses
type Category struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	Name             string           `gorm:"not null;size:255" json:"name"`
	Slug             string           `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description      string           `gorm:"size:500" json:"description"`
	ParentID         *uint            `gorm:"index" json:"parent_id"`
	PrescriptionKind PrescriptionKind `gorm:"size:20;default:'astigmatism'" json:"prescription_kind"`
	IsActive         bool             `gorm:"default:true" json:"is_active"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" json:"-"`
}

// ProductVariant represents product variants (colour, finish, etc.)
type ProductVariant struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	SKU       string          `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name      string          `gorm:"not null;size:255" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"price"` // Override product price if set
	IsActive  bool            `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// FrameSize is one of the frame dimensions a buyer can pick for a product
type FrameSize struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ProductID    uint            `gorm:"not null;index" json:"product_id"`
	Name         string          `gorm:"not null;size:100" json:"name"`
	LensWidth    int             `json:"lens_width"`
	BridgeWidth  int             `json:"bridge_width"`
	TempleLength int             `json:"temple_length"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"price"`
	SortOrder    int             `gorm:"default:0" json:"sort_order"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName overrides
func (Product) TableName() string        { return "products" }
func (Category) TableName() string       { return "categories" }
func (ProductVariant) TableName() string { return "product_variants" }
func (FrameSize) TableName() string      { return "product_frame_sizes" }

// SupportsAstigmatism reports whether CYL and AXIS apply to the category's lenses
func (c *Category) SupportsAstigmatism() bool {
	return c.PrescriptionKind != PrescriptionSpherical
}

// UnitPrice returns the variant price when the variant overrides it, else the product price
func (p *Product) UnitPrice(variantID *uint) decimal.Decimal {
	if variant := p.Variant(variantID); variant != nil && variant.Price.IsPositive() {
		return variant.Price
	}
	return p.Price
}

// Variant finds an active variant by id
func (p *Product) Variant(variantID *uint) *ProductVariant {
	if variantID == nil {
		return nil
	}
	for i := range p.Variants {
		if p.Variants[i].ID == *variantID && p.Variants[i].IsActive {
			return &p.Variants[i]
		}
	}
	return nil
}

// FrameSize finds a frame size by id
func (p *Product) FrameSize(id uint) *FrameSize {
	for i := range p.FrameSizes {
		if p.FrameSizes[i].ID == id {
			return &p.FrameSizes[i]
		}
	}
	return nil
}

// HasFrameSizes reports whether the buyer must pick a frame size
func (p *Product) HasFrameSizes() bool {
	return len(p.FrameSizes) > 0
}
