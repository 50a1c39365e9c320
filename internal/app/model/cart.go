package model

import "strings"

// CartLineItem is one row of the shopper's cart as the storefront shows it.
type CartLineItem struct {
	ItemID        string  `json:"item_id"`                  // server cart-item id, empty for guest rows
	SKU           string  `json:"sku"`                      // product identity
	Quantity      int     `json:"quantity"`                 // always >= 1 while present
	UnitPrice     float64 `json:"unit_price"`               // price per unit at last sync
	SelectedSize  string  `json:"selected_size,omitempty"`  // fixed once added
	SelectedColor string  `json:"selected_color,omitempty"` // fixed once added
	Name          string  `json:"name"`                     // display copy of the product name
	Image         string  `json:"image,omitempty"`          // display copy of the product image
	Description   string  `json:"description,omitempty"`    // display copy of the product description
}

// Subtotal is derived from price and quantity and never stored.
func (i CartLineItem) Subtotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// VariantKey identifies a sku/size/color combination.
func (i CartLineItem) VariantKey() string {
	return VariantKey(i.SKU, i.SelectedSize, i.SelectedColor)
}

// VariantKey builds the correlation key used to match server rows by product.
func VariantKey(sku, size, color string) string {
	return strings.Join([]string{sku, size, color}, "|")
}

// CloneItems returns an independent copy of items.
func CloneItems(items []CartLineItem) []CartLineItem {
	if items == nil {
		return []CartLineItem{}
	}
	out := make([]CartLineItem, len(items))
	copy(out, items)
	return out
}
