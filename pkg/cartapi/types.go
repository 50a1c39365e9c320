package cartapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ikkim/storefront-bff/internal/app/model"
)

// Config configures the backend client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Validate checks that the configuration is usable
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base URL must be http(s): %q", c.BaseURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

// ItemID accepts both string and numeric ids from the backend.
type ItemID string

func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ItemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("item id must be a string or number: %w", err)
	}
	*id = ItemID(n.String())
	return nil
}

// ProductResponse is the product embedded in a cart row or returned by the catalog.
type ProductResponse struct {
	SKU         string   `json:"sku"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Image       string   `json:"image"`
	Description string   `json:"description"`
	Sizes       []string `json:"sizes,omitempty"`
	Colors      []string `json:"colors,omitempty"`
}

// CartItemResponse is a row of GET /cart.
type CartItemResponse struct {
	ID            ItemID          `json:"id"`
	Product       ProductResponse `json:"product"`
	Quantity      int             `json:"quantity"`
	SelectedSize  string          `json:"selectedSize,omitempty"`
	SelectedColor string          `json:"selectedColor,omitempty"`
	Subtotal      float64         `json:"subtotal"`
}

// CartResponse is the body of GET /cart.
type CartResponse struct {
	Items    []CartItemResponse `json:"items"`
	Total    float64            `json:"total"`
	Currency string             `json:"currency"`
}

// Cart is the canonical server cart converted to storefront line items.
type Cart struct {
	Items    []model.CartLineItem
	Total    float64 // as reported by the backend
	Currency string
}

type addItemRequest struct {
	ProductSKU    string `json:"productSku"`
	Quantity      int    `json:"quantity"`
	SelectedSize  string `json:"selectedSize,omitempty"`
	SelectedColor string `json:"selectedColor,omitempty"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type placeOrderRequest struct {
	Items           []model.OrderDraftItem `json:"items"`
	ShippingAddress model.Address          `json:"shipping_address"`
	BillingAddress  model.Address          `json:"billing_address"`
	PaymentMethod   model.PaymentMethod    `json:"payment_method"`
}

// errorResponse covers both {"error": "..."} and {"error": CODE, "message": "..."}.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e errorResponse) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// toCart converts the wire cart. Rows with a non-positive quantity are
// dropped; the store never holds them.
func (r CartResponse) toCart() Cart {
	items := make([]model.CartLineItem, 0, len(r.Items))
	for _, it := range r.Items {
		if it.Quantity < 1 {
			continue
		}
		items = append(items, model.CartLineItem{
			ItemID:        string(it.ID),
			SKU:           it.Product.SKU,
			Quantity:      it.Quantity,
			UnitPrice:     it.Product.Price,
			SelectedSize:  it.SelectedSize,
			SelectedColor: it.SelectedColor,
			Name:          it.Product.Name,
			Image:         it.Product.Image,
			Description:   it.Product.Description,
		})
	}
	return Cart{Items: items, Total: r.Total, Currency: r.Currency}
}

func (p ProductResponse) toProduct() model.Product {
	return model.Product{
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.Image,
		Sizes:       p.Sizes,
		Colors:      p.Colors,
	}
}
