package service

import (
	"encoding/json"

	"github.com/ikkim/storefront-bff/internal/app/model"
)

// CartPageLine is a cart row as the cart page renders it.
type CartPageLine struct {
	model.CartLineItem
	Subtotal float64 `json:"subtotal"`
}

// CartPageLines passes items through unchanged, attaching their subtotals.
func CartPageLines(items []model.CartLineItem) []CartPageLine {
	lines := make([]CartPageLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, CartPageLine{CartLineItem: it, Subtotal: it.Subtotal()})
	}
	return lines
}

// BuildOrderDraft maps the cart into what order placement accepts. Display
// lines and the total are copied from the cart, not recomputed.
func BuildOrderDraft(cart CartReader, shipping, billing model.Address, method model.PaymentMethod) model.OrderDraft {
	items := cart.Items()

	draft := model.OrderDraft{
		Items:           make([]model.OrderDraftItem, 0, len(items)),
		ShippingAddress: shipping,
		BillingAddress:  billing,
		PaymentMethod:   method,
		Lines:           items,
		Total:           cart.Total(),
	}
	for _, it := range items {
		draft.Items = append(draft.Items, model.OrderDraftItem{
			SKU:           it.SKU,
			Quantity:      it.Quantity,
			SelectedSize:  it.SelectedSize,
			SelectedColor: it.SelectedColor,
		})
	}
	return draft
}

type SummarySource string

const (
	SummarySourceAPI   SummarySource = "api"
	SummarySourceDraft SummarySource = "draft"
)

// SummaryLine is one confirmation row. Exactly one of Order and Draft is set,
// matching Source.
type SummaryLine struct {
	Source SummarySource
	Order  *model.OrderItem
	Draft  *model.CartLineItem
}

func (l SummaryLine) SKU() string {
	if l.Source == SummarySourceAPI {
		return l.Order.SKU
	}
	return l.Draft.SKU
}

func (l SummaryLine) Quantity() int {
	if l.Source == SummarySourceAPI {
		return l.Order.Quantity
	}
	return l.Draft.Quantity
}

func (l SummaryLine) MarshalJSON() ([]byte, error) {
	out := struct {
		Source        SummarySource `json:"source"`
		SKU           string        `json:"sku"`
		Name          string        `json:"name"`
		Quantity      int           `json:"quantity"`
		UnitPrice     float64       `json:"unit_price"`
		SelectedSize  string        `json:"selected_size,omitempty"`
		SelectedColor string        `json:"selected_color,omitempty"`
	}{Source: l.Source}

	switch l.Source {
	case SummarySourceAPI:
		out.SKU = l.Order.SKU
		out.Name = l.Order.Name
		out.Quantity = l.Order.Quantity
		out.UnitPrice = l.Order.Price
		out.SelectedSize = l.Order.SelectedSize
		out.SelectedColor = l.Order.SelectedColor
	case SummarySourceDraft:
		out.SKU = l.Draft.SKU
		out.Name = l.Draft.Name
		out.Quantity = l.Draft.Quantity
		out.UnitPrice = l.Draft.UnitPrice
		out.SelectedSize = l.Draft.SelectedSize
		out.SelectedColor = l.Draft.SelectedColor
	}
	return json.Marshal(out)
}

// OrderSummary is what the confirmation page shows.
type OrderSummary struct {
	Source          SummarySource       `json:"source"`
	OrderID         string              `json:"order_id,omitempty"`
	Status          model.OrderStatus   `json:"status,omitempty"`
	Lines           []SummaryLine       `json:"lines"`
	Total           float64             `json:"total"`
	ShippingAddress *model.Address      `json:"shipping_address,omitempty"`
	PaymentMethod   model.PaymentMethod `json:"payment_method,omitempty"`
}

// ConfirmationSummary prefers the persisted order and falls back to the last
// local draft. It returns nil when neither is available.
func ConfirmationSummary(order *model.Order, draft *model.OrderDraft) *OrderSummary {
	switch {
	case order != nil:
		summary := &OrderSummary{
			Source:  SummarySourceAPI,
			OrderID: order.ID,
			Status:  order.Status,
			Lines:   make([]SummaryLine, 0, len(order.Items)),
			Total:   order.TotalAmount,
		}
		for i := range order.Items {
			item := order.Items[i]
			summary.Lines = append(summary.Lines, SummaryLine{Source: SummarySourceAPI, Order: &item})
		}
		if draft != nil {
			addr := draft.ShippingAddress
			summary.ShippingAddress = &addr
			summary.PaymentMethod = draft.PaymentMethod
		}
		return summary

	case draft != nil:
		addr := draft.ShippingAddress
		summary := &OrderSummary{
			Source:          SummarySourceDraft,
			Lines:           make([]SummaryLine, 0, len(draft.Lines)),
			Total:           draft.Total,
			ShippingAddress: &addr,
			PaymentMethod:   draft.PaymentMethod,
		}
		for i := range draft.Lines {
			line := draft.Lines[i]
			summary.Lines = append(summary.Lines, SummaryLine{Source: SummarySourceDraft, Draft: &line})
		}
		return summary
	}
	return nil
}
