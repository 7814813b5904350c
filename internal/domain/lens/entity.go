// internal/domain/lens/entity.go
package lens

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OptionKind names one independently resolved group of lens options
type OptionKind string

const (
	KindLensType          OptionKind = "lens_type"
	KindTreatment         OptionKind = "treatment"
	KindCoating           OptionKind = "coating"
	KindThicknessMaterial OptionKind = "thickness_material"
	KindThicknessOption   OptionKind = "thickness_option"
)

// OptionKinds lists every kind in resolution order
var OptionKinds = []OptionKind{
	KindLensType,
	KindTreatment,
	KindCoating,
	KindThicknessMaterial,
	KindThicknessOption,
}

// LensType represents a lens type offered by a store (distance, near, progressive...)
type LensType struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	StoreID         uint            `gorm:"not null;index" json:"store_id"`
	Name            string          `gorm:"not null;size:255" json:"name"`
	Slug            string          `gorm:"not null;size:255;index" json:"slug"`
	Description     string          `gorm:"size:500" json:"description"`
	Index           decimal.Decimal `gorm:"type:decimal(4,2);default:1.5" json:"index"`
	PriceAdjustment decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"price_adjustment"`
	IsActive        bool            `gorm:"default:true" json:"is_active"`
	SortOrder       int             `gorm:"default:0" json:"sort_order"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	Variants []ProgressiveVariant `gorm:"foreignKey:LensTypeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"variants,omitempty"`
}

// ProgressiveVariant is a design tier of a progressive lens type
type ProgressiveVariant struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	LensTypeID  uint            `gorm:"not null;index" json:"lens_type_id"`
	Name        string          `gorm:"not null;size:255" json:"name"`
	Description string          `gorm:"size:500" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"price"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	SortOrder   int             `gorm:"default:0" json:"sort_order"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// LensThicknessMaterial carries the price of a thinner lens material
type LensThicknessMaterial struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	StoreID     uint            `gorm:"not null;index" json:"store_id"`
	Name        string          `gorm:"not null;size:255" json:"name"`
	Description string          `gorm:"size:500" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"price"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	SortOrder   int             `gorm:"default:0" json:"sort_order"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// LensThicknessOption is a refractive index choice such as "1.56" or "1.67".
// Index options never carry a price; the material does.
type LensThicknessOption struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StoreID   uint      `gorm:"not null;index" json:"store_id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	Value     string    `gorm:"not null;size:20" json:"value"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LensTreatment represents an optional lens treatment (photochromic, tint, blue light...)
type LensTreatment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	StoreID     uint            `gorm:"not null;index" json:"store_id"`
	Name        string          `gorm:"not null;size:255" json:"name"`
	Description string          `gorm:"size:500" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"price"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	SortOrder   int             `gorm:"default:0" json:"sort_order"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// LensCoating represents a lens coating (anti-reflective, scratch resistant...)
type LensCoating struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	StoreID     uint            `gorm:"not null;index" json:"store_id"`
	Name        string          `gorm:"not null;size:255" json:"name"`
	Description string          `gorm:"size:500" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"price"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	SortOrder   int             `gorm:"default:0" json:"sort_order"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CategoryLensOption links one lens option to a store category.
// A category with links for a kind overrides the store-wide list for that kind.
type CategoryLensOption struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	StoreID    uint       `gorm:"not null;uniqueIndex:idx_category_lens_option" json:"store_id"`
	CategoryID uint       `gorm:"not null;uniqueIndex:idx_category_lens_option" json:"category_id"`
	OptionKind OptionKind `gorm:"not null;size:30;uniqueIndex:idx_category_lens_option" json:"option_kind"`
	OptionID   uint       `gorm:"not null;uniqueIndex:idx_category_lens_option" json:"option_id"`
	CreatedAt  time.Time  `json:"created_at"`
}

// PrescriptionOption stores the allowed values of one prescription field for one eye side.
// Rows are scoped to a category, a product, or the whole store when both are null.
type PrescriptionOption struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	StoreID    uint           `gorm:"not null;index" json:"store_id"`
	CategoryID *uint          `gorm:"index" json:"category_id"`
	ProductID  *uint          `gorm:"index" json:"product_id"`
	Field      Field          `gorm:"not null;size:20" json:"field"`
	EyeSide    EyeSide        `gorm:"not null;size:10;default:'both'" json:"eye_side"`
	Values     datatypes.JSON `gorm:"type:jsonb" json:"values"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TableName overrides
func (LensType) TableName() string              { return "lens_types" }
func (ProgressiveVariant) TableName() string    { return "lens_progressive_variants" }
func (LensThicknessMaterial) TableName() string { return "lens_thickness_materials" }
func (LensThicknessOption) TableName() string   { return "lens_thickness_options" }
func (LensTreatment) TableName() string         { return "lens_treatments" }
func (LensCoating) TableName() string           { return "lens_coatings" }
func (CategoryLensOption) TableName() string    { return "category_lens_options" }
func (PrescriptionOption) TableName() string    { return "prescription_options" }

// Category classifies the lens type by its name and slug
func (t *LensType) Category() LensCategory {
	return Classify(t.Name, t.Slug)
}
