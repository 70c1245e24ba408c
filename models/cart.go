package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLineItem binds a product snapshot to a quantity. Product is captured when
// the item is first added and is never refreshed from the catalog.
type CartLineItem struct {
	ID        int64   `json:"id"`
	ProductID int     `json:"productId"`
	Quantity  int     `json:"quantity"`
	Product   Product `json:"product"`
}

func (i CartLineItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i CartLineItem) Clone() CartLineItem {
	out := i
	out.Product = i.Product.Clone()
	return out
}

// Cart is the server-side copy of a user's line items.
type Cart struct {
	UserID    string         `json:"user_id"`
	Items     []CartLineItem `json:"items"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// CartTotal sums price*quantity over items; an empty list totals zero.
func CartTotal(items []CartLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// CartItemCount sums quantities, not distinct line items.
func CartItemCount(items []CartLineItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

// CloneItems returns a detached copy of items.
func CloneItems(items []CartLineItem) []CartLineItem {
	out := make([]CartLineItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

// AddToCartRequest adds quantity of a product. ItemID lets the caller choose
// the line item id so client and server agree on it.
type AddToCartRequest struct {
	ProductID int   `json:"productId" binding:"required,gt=0"`
	Quantity  int   `json:"quantity" binding:"gte=0"`
	ItemID    int64 `json:"itemId,omitempty" binding:"gte=0"`
}

// UpdateCartItemRequest sets a line item's quantity; zero or less removes it.
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}
