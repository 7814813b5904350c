// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LensLine is the lens configuration attached to a cart line
type LensLine struct {
	LensTypeID              *uint          `gorm:"index" json:"lens_type_id,omitempty"`
	LensType                string         `gorm:"size:255" json:"lens_type"`
	LensIndex               string         `gorm:"size:20" json:"lens_index,omitempty"`
	LensThicknessMaterialID *uint          `json:"lens_thickness_material_id,omitempty"`
	LensThicknessOptionID   *uint          `json:"lens_thickness_option_id,omitempty"`
	TreatmentIDs            datatypes.JSON `gorm:"type:jsonb" json:"treatment_ids"`
	ProgressiveVariantID    *uint          `json:"progressive_variant_id,omitempty"`
	FrameSizeID             *uint          `json:"frame_size_id,omitempty"`

	// Prescription, "--" when a value was not given
	RightSPH  string `gorm:"size:10" json:"right_sph,omitempty"`
	RightCYL  string `gorm:"size:10" json:"right_cyl,omitempty"`
	RightAxis string `gorm:"size:10" json:"right_axis,omitempty"`
	LeftSPH   string `gorm:"size:10" json:"left_sph,omitempty"`
	LeftCYL   string `gorm:"size:10" json:"left_cyl,omitempty"`
	LeftAxis  string `gorm:"size:10" json:"left_axis,omitempty"`
	PD        string `gorm:"size:10" json:"pd,omitempty"`
}

// CartItem represents a cart item stored in database for authenticated users
type CartItem struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	UserID           *uint           `gorm:"index" json:"user_id"`
	ProductID        uint            `gorm:"not null;index" json:"product_id"`
	ProductVariantID *uint           `gorm:"index" json:"product_variant_id"`
	Quantity         int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"` // Price of one configured pair at time of adding
	LensLine         `gorm:"embedded"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}

// SessionCart represents a cart session for guest users (stored in Redis)
type SessionCart struct {
	SessionID string            `json:"session_id"`
	NextID    uint              `json:"next_id"`
	Items     []SessionCartItem `json:"items"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// SessionCartItem represents a cart item for guest users
type SessionCartItem struct {
	ID               uint            `json:"id"`
	ProductID        uint            `json:"product_id"`
	ProductVariantID *uint           `json:"product_variant_id,omitempty"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	LensLine
	AddedAt time.Time `json:"added_at"`
}

// CartTotals represents calculated cart totals
type CartTotals struct {
	ItemCount     int             `json:"item_count"`     // Number of lines
	TotalQuantity int             `json:"total_quantity"` // Sum of all quantities
	SubTotal      decimal.Decimal `json:"sub_total"`
}
