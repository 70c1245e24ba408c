package models

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, the way the storefront has always sent them.
	decimal.MarshalJSONWithoutQuotes = true
}

var validate = validator.New()

// Product is read-only catalog data. Price is the amount charged; OriginalPrice
// only drives discount display.
type Product struct {
	ID            int              `json:"id" validate:"gt=0"`
	Name          string           `json:"name" validate:"required"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Category      string           `json:"category"`
	InStock       bool             `json:"inStock"`
	Rating        float64          `json:"rating" validate:"gte=0,lte=5"`
	Reviews       int              `json:"reviews" validate:"gte=0"`
	Image         string           `json:"image"`
	Manufacturer  string           `json:"manufacturer"`
	Description   string           `json:"description"`
	Composition   string           `json:"composition"`
	Benefits      []string         `json:"benefits"`
	Dosage        string           `json:"dosage"`
	SideEffects   string           `json:"sideEffects"`
}

// Validate checks the product against the catalog schema.
func (p Product) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if p.OriginalPrice != nil && p.OriginalPrice.LessThan(p.Price) {
		return fmt.Errorf("%w: originalPrice below price", ErrInvalidProduct)
	}
	return nil
}

// Discount is the amount saved against OriginalPrice, zero when there is none.
func (p Product) Discount() decimal.Decimal {
	if p.OriginalPrice == nil {
		return decimal.Zero
	}
	return p.OriginalPrice.Sub(p.Price)
}

// Clone returns a deep copy that shares no slices or pointers with p.
func (p Product) Clone() Product {
	out := p
	if p.OriginalPrice != nil {
		op := *p.OriginalPrice
		out.OriginalPrice = &op
	}
	if p.Benefits != nil {
		out.Benefits = append([]string(nil), p.Benefits...)
	}
	return out
}

// ParseProduct decodes and validates a catalog payload.
func ParseProduct(data []byte) (Product, error) {
	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return Product{}, fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Category is a browsing bucket of the catalog.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}
