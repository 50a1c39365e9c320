package cartapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ikkim/storefront-bff/internal/app/model"
)

// PlaceOrder submits a checkout draft. Clearing the cart afterwards is the
// caller's job.
func (c *Client) PlaceOrder(ctx context.Context, draft model.OrderDraft) Result[model.Order] {
	if len(draft.Items) == 0 {
		return failure[model.Order](&callFailure{kind: KindValidation, message: "order has no items"})
	}

	req := placeOrderRequest{
		Items:           draft.Items,
		ShippingAddress: draft.ShippingAddress,
		BillingAddress:  draft.BillingAddress,
		PaymentMethod:   draft.PaymentMethod,
	}

	var order model.Order
	if f := c.doAuthorized(ctx, http.MethodPost, "/orders", req, &order); f != nil {
		return failure[model.Order](f)
	}
	return success(order)
}

// GetOrder reads back a placed order.
func (c *Client) GetOrder(ctx context.Context, orderID string) Result[model.Order] {
	var order model.Order
	if f := c.doAuthorized(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, &order); f != nil {
		return failure[model.Order](f)
	}
	return success(order)
}
