package model

// Product is the read-only catalog view needed to put something in a cart.
type Product struct {
	SKU         string   `json:"sku"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Image       string   `json:"image,omitempty"`
	Sizes       []string `json:"sizes,omitempty"`
	Colors      []string `json:"colors,omitempty"`
}

// OffersSize reports whether size is valid for the product. An empty
// selection, or a product that publishes no sizes, always passes.
func (p Product) OffersSize(size string) bool {
	return offers(p.Sizes, size)
}

// OffersColor reports whether color is valid for the product.
func (p Product) OffersColor(color string) bool {
	return offers(p.Colors, color)
}

func offers(options []string, value string) bool {
	if value == "" || len(options) == 0 {
		return true
	}
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
