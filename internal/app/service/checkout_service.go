package service

import (
	"context"
	"errors"

	"github.com/ikkim/storefront-bff/internal/app/model"
	"github.com/ikkim/storefront-bff/internal/app/repository"
	"github.com/ikkim/storefront-bff/pkg/cartapi"
	"github.com/ikkim/storefront-bff/pkg/logger"
)

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrLoginRequired = errors.New("login required")
	ErrOrderNotFound = errors.New("order not found")
)

// OrderPlacer is the order placement API. *cartapi.Client satisfies it.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, draft model.OrderDraft) cartapi.Result[model.Order]
	GetOrder(ctx context.Context, orderID string) cartapi.Result[model.Order]
}

type CheckoutInput struct {
	ShippingAddress model.Address
	BillingAddress  *model.Address // defaults to the shipping address
	PaymentMethod   model.PaymentMethod
}

type CheckoutResult struct {
	Order   model.Order
	Summary *OrderSummary
	// CartCleared is false when the order was placed but taking the ordered
	// rows out of the cart afterwards failed; the cart then still shows them.
	// Rows added while the order was being placed are kept either way.
	CartCleared bool
}

type CheckoutService interface {
	Checkout(ctx context.Context, session *Session, input CheckoutInput) (*CheckoutResult, error)
	GetConfirmation(ctx context.Context, session *Session, orderID string) (*OrderSummary, error)
}

type checkoutService struct {
	drafts repository.OrderDraftRepository
}

func NewCheckoutService(drafts repository.OrderDraftRepository) CheckoutService {
	return &checkoutService{drafts: drafts}
}

func (s *checkoutService) Checkout(ctx context.Context, session *Session, input CheckoutInput) (*CheckoutResult, error) {
	logger.Info("Starting checkout", map[string]interface{}{
		"session_id":     session.ID,
		"payment_method": input.PaymentMethod,
	})

	if out := session.Cart.EnsureLoaded(ctx); !out.Succeeded() {
		if out.Status == OutcomeRedirect {
			return nil, ErrLoginRequired
		}
		return nil, &cartapi.Error{Kind: out.Kind, Message: out.Message, StatusCode: out.StatusCode}
	}

	cart := session.Cart.Cart()
	if cart.Count() == 0 {
		return nil, ErrEmptyCart
	}

	billing := input.ShippingAddress
	if input.BillingAddress != nil {
		billing = *input.BillingAddress
	}
	draft := BuildOrderDraft(cart, input.ShippingAddress, billing, input.PaymentMethod)

	// A lost draft only costs the confirmation fallback.
	record, err := s.drafts.Save(session.ID, &draft)
	if err != nil {
		logger.Warn("Continuing checkout without a stored draft", map[string]interface{}{
			"session_id": session.ID,
			"error":      err.Error(),
		})
	}

	res := session.Orders.PlaceOrder(ctx, draft)
	if !res.OK {
		logger.Warn("Order placement failed", map[string]interface{}{
			"session_id": session.ID,
			"kind":       res.Kind,
			"status":     res.StatusCode,
		})
		if res.Kind == cartapi.KindUnauthorized {
			return nil, ErrLoginRequired
		}
		return nil, res.Err()
	}
	order := res.Data

	if record != nil {
		if err := s.drafts.AttachOrder(record.ID, order.ID); err != nil {
			logger.Warn("Failed to link draft to order", map[string]interface{}{
				"draft_id": record.ID,
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	cleared := session.Cart.ClearOrdered(ctx, draft.Lines)
	if !cleared.Succeeded() {
		logger.Warn("Order placed but cart was not cleared", map[string]interface{}{
			"session_id": session.ID,
			"order_id":   order.ID,
			"kind":       cleared.Kind,
		})
	}

	logger.Info("Order placed", map[string]interface{}{
		"session_id": session.ID,
		"order_id":   order.ID,
		"items":      len(draft.Items),
		"total":      draft.Total,
	})

	return &CheckoutResult{
		Order:       order,
		Summary:     ConfirmationSummary(&order, &draft),
		CartCleared: cleared.Succeeded(),
	}, nil
}

// GetConfirmation reads the placed order back and falls back to the stored
// draft when the order API cannot provide it.
func (s *checkoutService) GetConfirmation(ctx context.Context, session *Session, orderID string) (*OrderSummary, error) {
	draft, err := s.drafts.FindByOrderID(session.ID, orderID)
	if err != nil {
		draft = nil
	}

	res := session.Orders.GetOrder(ctx, orderID)
	if res.OK {
		order := res.Data
		return ConfirmationSummary(&order, draft), nil
	}

	if draft != nil {
		logger.Info("Serving confirmation from stored draft", map[string]interface{}{
			"session_id": session.ID,
			"order_id":   orderID,
			"kind":       res.Kind,
		})
		summary := ConfirmationSummary(nil, draft)
		summary.OrderID = orderID
		return summary, nil
	}

	if res.Kind == cartapi.KindUnauthorized {
		return nil, ErrLoginRequired
	}
	return nil, ErrOrderNotFound
}
