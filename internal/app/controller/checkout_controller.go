package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-bff/internal/app/model"
	"github.com/ikkim/storefront-bff/internal/app/service"
	apperrors "github.com/ikkim/storefront-bff/internal/errors"
	"github.com/ikkim/storefront-bff/internal/middleware"
)

type CheckoutController struct {
	checkoutService service.CheckoutService
	loginPath       string
}

func NewCheckoutController(checkoutService service.CheckoutService, loginPath string) *CheckoutController {
	return &CheckoutController{
		checkoutService: checkoutService,
		loginPath:       loginPath,
	}
}

type CheckoutRequest struct {
	ShippingAddress model.Address       `json:"shipping_address" binding:"required"`
	BillingAddress  *model.Address      `json:"billing_address"`
	PaymentMethod   model.PaymentMethod `json:"payment_method" binding:"required,oneof=card kakaopay bank_transfer"`
}

// Checkout places an order from the current cart
// POST /api/v1/checkout
func (ctrl *CheckoutController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sess, ok := mustSession(c)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid checkout request", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Check your shipping address and payment method.")
		return
	}

	result, err := ctrl.checkoutService.Checkout(c.Request.Context(), sess, service.CheckoutInput{
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order":        result.Order,
		"summary":      result.Summary,
		"cart_cleared": result.CartCleared,
	})
}

// GetConfirmation returns the confirmation page data for a placed order
// GET /api/v1/checkout/orders/:id/confirmation
func (ctrl *CheckoutController) GetConfirmation(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}

	summary, err := ctrl.checkoutService.GetConfirmation(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary": summary,
	})
}

func (ctrl *CheckoutController) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		apperrors.BadRequest(c, apperrors.CartEmpty, "Your cart is empty.")
	case errors.Is(err, service.ErrLoginRequired):
		apperrors.LoginRequired(c, "", ctrl.loginPath)
	case errors.Is(err, service.ErrOrderNotFound):
		apperrors.NotFound(c, apperrors.OrderNotFound, "We couldn't find that order.")
	default:
		middleware.GetLoggerFromContext(c).Error("Checkout failed", err, nil)
		apperrors.Respond(c, apperrors.ParseError(err))
	}
}
