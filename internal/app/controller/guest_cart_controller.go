package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-bff/internal/app/service"
	apperrors "github.com/ikkim/storefront-bff/internal/errors"
	"github.com/ikkim/storefront-bff/internal/middleware"
)

// GuestCartController serves the anonymous cart. Nothing here reaches the
// cart service except the product lookup on add.
type GuestCartController struct {
	catalog ProductCatalog
}

func NewGuestCartController(catalog ProductCatalog) *GuestCartController {
	return &GuestCartController{catalog: catalog}
}

type AddToGuestCartRequest struct {
	SKU      string `json:"sku" binding:"required"`
	Quantity int    `json:"quantity" binding:"gte=0"`
}

type UpdateGuestCartRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GET /api/v1/guest/cart
func (ctrl *GuestCartController) GetCart(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}
	respondGuestCart(c, sess.Guest)
}

// POST /api/v1/guest/cart/items
func (ctrl *GuestCartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sess, ok := mustSession(c)
	if !ok {
		return
	}

	var req AddToGuestCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Choose a product to add.")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	res := ctrl.catalog.GetProduct(c.Request.Context(), req.SKU)
	if !res.OK {
		log.Warn("Product lookup failed for guest cart", map[string]interface{}{
			"guest_id": sess.Guest.GuestID(),
			"sku":      req.SKU,
			"kind":     res.Kind,
		})
		if res.StatusCode == http.StatusNotFound {
			apperrors.NotFound(c, apperrors.ProductNotFound, "That product is no longer available.")
			return
		}
		apperrors.Respond(c, apperrors.FromCartKind(res.Kind, res.Message, res.StatusCode))
		return
	}

	sess.Guest.AddItem(res.Data, req.Quantity)
	respondGuestCart(c, sess.Guest)
}

// PUT /api/v1/guest/cart/items/:sku
func (ctrl *GuestCartController) UpdateItem(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}

	var req UpdateGuestCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Quantity is required.")
		return
	}

	sess.Guest.UpdateQuantity(c.Param("sku"), *req.Quantity)
	respondGuestCart(c, sess.Guest)
}

// DELETE /api/v1/guest/cart/items/:sku
func (ctrl *GuestCartController) RemoveItem(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}
	sess.Guest.RemoveItem(c.Param("sku"))
	respondGuestCart(c, sess.Guest)
}

// DELETE /api/v1/guest/cart
func (ctrl *GuestCartController) ClearCart(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}
	sess.Guest.ClearCart()
	respondGuestCart(c, sess.Guest)
}

func respondGuestCart(c *gin.Context, cart *service.GuestCart) {
	c.JSON(http.StatusOK, CartResponse{Cart: newCartView(cart)})
}
