// internal/domain/summary/summary.go
package summary

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/your-org/eyewear-backend/internal/domain/wizard"
)

var (
	ErrItemNotFound     = errors.New("summary item not found")
	ErrItemNotRemovable = errors.New("summary item cannot be removed")
)

// ItemType classifies a summary line
type ItemType string

const (
	TypeProduct            ItemType = "product"
	TypeLensType           ItemType = "lens_type"
	TypeProgressiveVariant ItemType = "progressive_variant"
	TypeThicknessMaterial  ItemType = "thickness_material"
	TypeLensIndex          ItemType = "lens_index"
	TypeTreatment          ItemType = "treatment"
	TypeFrameSize          ItemType = "frame_size"
	TypeShipping           ItemType = "shipping"
)

// Item is one derived summary line. Price is UnitPrice times the quantity.
type Item struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Price     decimal.Decimal `json:"price"`
	Type      ItemType        `json:"type"`
	Removable bool            `json:"removable"`
}

// Summary is the order summary of a wizard state
type Summary struct {
	Items     []Item          `json:"items"`
	Included  []Item          `json:"included"` // selected but free
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"` // one configured pair
	Subtotal  decimal.Decimal `json:"subtotal"`
	Shipping  decimal.Decimal `json:"shipping"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
}

// Compute derives the summary from scratch. Nothing is accumulated between calls.
func Compute(s wizard.State, c *wizard.Catalog) Summary {
	quantity := s.Quantity
	if quantity < 1 {
		quantity = 1
	}
	qty := decimal.NewFromInt(int64(quantity))

	sum := Summary{
		Items:     []Item{},
		Included:  []Item{},
		Quantity:  quantity,
		UnitPrice: decimal.Zero,
	}

	add := func(id, name string, unit decimal.Decimal, itemType ItemType, removable bool) {
		item := Item{
			ID:        id,
			Name:      name,
			UnitPrice: unit,
			Price:     unit.Mul(qty),
			Type:      itemType,
			Removable: removable,
		}
		if itemType != TypeProduct && !unit.IsPositive() {
			sum.Included = append(sum.Included, item)
			return
		}
		sum.Items = append(sum.Items, item)
		sum.UnitPrice = sum.UnitPrice.Add(unit)
	}

	productName := c.Product.Name
	if variant := c.Product.Variant(s.VariantID); variant != nil {
		productName = fmt.Sprintf("%s - %s", c.Product.Name, variant.Name)
	}
	add(string(TypeProduct), productName, c.Product.UnitPrice(s.VariantID), TypeProduct, false)

	if s.LensType != nil {
		add(string(TypeLensType), s.LensType.Name, s.LensType.PriceAdjustment, TypeLensType, true)
	}
	if s.ProgressiveVariant != nil {
		add(string(TypeProgressiveVariant), s.ProgressiveVariant.Name, s.ProgressiveVariant.Price, TypeProgressiveVariant, true)
	}
	if s.ThicknessMaterial != nil {
		add(string(TypeThicknessMaterial), s.ThicknessMaterial.Name, s.ThicknessMaterial.Price, TypeThicknessMaterial, true)
	}
	if s.LensIndex != nil {
		// Index options carry no price
		add(string(TypeLensIndex), fmt.Sprintf("Lens index %s", s.LensIndex.Value), decimal.Zero, TypeLensIndex, true)
	}
	for _, id := range s.Treatments {
		treatment := c.Config.Treatment(id)
		if treatment == nil {
			continue
		}
		add(treatmentItemID(id), treatment.Name, treatment.Price, TypeTreatment, true)
	}
	if s.FrameSize != nil {
		add(string(TypeFrameSize), fmt.Sprintf("Frame size %s", s.FrameSize.Name), s.FrameSize.Price, TypeFrameSize, true)
	}

	sum.Subtotal = decimal.Zero
	for _, item := range sum.Items {
		sum.Subtotal = sum.Subtotal.Add(item.Price)
	}

	shipping := Item{ID: string(TypeShipping), Name: "Shipping", UnitPrice: decimal.Zero, Price: decimal.Zero, Type: TypeShipping}
	if method := c.ShippingMethod(s.Shipping); method != nil {
		shipping.Name = method.Name
		shipping.UnitPrice = method.Price
		shipping.Price = method.Price
	}
	sum.Items = append(sum.Items, shipping)
	sum.Shipping = shipping.Price

	sum.Discount = decimal.Zero
	if s.Coupon != nil {
		sum.Discount = sum.Subtotal.Mul(s.Coupon.DiscountPercent).Div(decimal.NewFromInt(100)).Round(2)
	}

	sum.Total = sum.Subtotal.Add(sum.Shipping).Sub(sum.Discount)
	return sum
}

// Find returns a listed or included item by id
func (s *Summary) Find(id string) *Item {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return &s.Items[i]
		}
	}
	for i := range s.Included {
		if s.Included[i].ID == id {
			return &s.Included[i]
		}
	}
	return nil
}

// RemovalEvent maps a summary item id to the wizard event clearing its selection
func RemovalEvent(itemID string) (wizard.Event, error) {
	if rest, ok := strings.CutPrefix(itemID, string(TypeTreatment)+":"); ok {
		id, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", itemID, ErrItemNotFound)
		}
		return wizard.RemoveSelection{Kind: wizard.SelectionTreatment, ID: uint(id)}, nil
	}

	switch ItemType(itemID) {
	case TypeLensType:
		return wizard.RemoveSelection{Kind: wizard.SelectionLensType}, nil
	case TypeProgressiveVariant:
		return wizard.RemoveSelection{Kind: wizard.SelectionProgressiveVariant}, nil
	case TypeThicknessMaterial:
		return wizard.RemoveSelection{Kind: wizard.SelectionThicknessMaterial}, nil
	case TypeLensIndex:
		return wizard.RemoveSelection{Kind: wizard.SelectionLensIndex}, nil
	case TypeFrameSize:
		return wizard.RemoveSelection{Kind: wizard.SelectionFrameSize}, nil
	case TypeProduct, TypeShipping:
		return nil, fmt.Errorf("%q: %w", itemID, ErrItemNotRemovable)
	default:
		return nil, fmt.Errorf("%q: %w", itemID, ErrItemNotFound)
	}
}

// Remove clears the selection behind a summary item so the next Compute drops it
func Remove(s wizard.State, c *wizard.Catalog, itemID string) (wizard.State, error) {
	current := Compute(s, c)
	item := current.Find(itemID)
	if item == nil {
		return s, fmt.Errorf("%q: %w", itemID, ErrItemNotFound)
	}
	if !item.Removable {
		return s, fmt.Errorf("%q: %w", itemID, ErrItemNotRemovable)
	}

	event, err := RemovalEvent(itemID)
	if err != nil {
		return s, err
	}
	return wizard.Apply(s, c, event)
}

func treatmentItemID(id uint) string {
	return fmt.Sprintf("%s:%d", TypeTreatment, id)
}
