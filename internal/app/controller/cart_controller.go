package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-bff/internal/app/service"
	apperrors "github.com/ikkim/storefront-bff/internal/errors"
	"github.com/ikkim/storefront-bff/internal/middleware"
	"github.com/ikkim/storefront-bff/pkg/cartapi"
)

type CartController struct {
	catalog ProductCatalog
}

func NewCartController(catalog ProductCatalog) *CartController {
	return &CartController{
		catalog: catalog,
	}
}

type AddToCartRequest struct {
	SKU           string `json:"sku" binding:"required"`
	Quantity      int    `json:"quantity" binding:"gte=0"`
	SelectedSize  string `json:"selected_size"`
	SelectedColor string `json:"selected_color"`
}

type UpdateCartRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type AdjustCartRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// GetCart returns the session cart, loading it from the cart service once
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}

	out := sess.Cart.EnsureLoaded(c.Request.Context())
	respondWithOutcome(c, sess.Cart.Cart(), out)
}

// RefreshCart replaces the local cart with the server's
// POST /api/v1/cart/refresh
func (ctrl *CartController) RefreshCart(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}

	out := sess.Cart.Refresh(c.Request.Context())
	respondWithOutcome(c, sess.Cart.Cart(), out)
}

// AddToCart adds a product variant
// POST /api/v1/cart/items
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sess, ok := mustSession(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Choose a product to add.")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	res := ctrl.catalog.GetProduct(c.Request.Context(), req.SKU)
	if !res.OK {
		log.Warn("Product lookup failed", map[string]interface{}{
			"session_id": sess.ID,
			"sku":        req.SKU,
			"kind":       res.Kind,
		})
		if res.Kind == cartapi.KindServer && res.StatusCode == http.StatusNotFound {
			apperrors.NotFound(c, apperrors.ProductNotFound, "That product is no longer available.")
			return
		}
		apperrors.Respond(c, apperrors.FromCartKind(res.Kind, res.Message, res.StatusCode))
		return
	}

	out := sess.Cart.AddItem(c.Request.Context(), res.Data, req.Quantity, req.SelectedSize, req.SelectedColor)

	log.Info("Add to cart handled", map[string]interface{}{
		"session_id": sess.ID,
		"sku":        req.SKU,
		"quantity":   req.Quantity,
		"status":     out.Status,
	})

	respondWithOutcome(c, sess.Cart.Cart(), out)
}

// UpdateCartItem sets a line's quantity. Below one removes the line.
// PUT /api/v1/cart/items/:id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}

	var req UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Quantity is required.")
		return
	}

	itemID := ctrl.itemID(c, sess)
	out := sess.Cart.UpdateQuantityByID(c.Request.Context(), itemID, *req.Quantity)
	respondWithOutcome(c, sess.Cart.Cart(), out)
}

// AdjustCartItem applies a relative quantity change
// POST /api/v1/cart/items/:id/adjust
func (ctrl *CartController) AdjustCartItem(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}

	var req AdjustCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "A non-zero delta is required.")
		return
	}

	itemID := ctrl.itemID(c, sess)
	out := sess.Cart.AdjustQuantityByID(c.Request.Context(), itemID, req.Delta)
	respondWithOutcome(c, sess.Cart.Cart(), out)
}

// RemoveFromCart removes a line
// DELETE /api/v1/cart/items/:id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}

	itemID := ctrl.itemID(c, sess)
	out := sess.Cart.RemoveItemByID(c.Request.Context(), itemID)
	respondWithOutcome(c, sess.Cart.Cart(), out)
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}

	out := sess.Cart.Clear(c.Request.Context())
	respondWithOutcome(c, sess.Cart.Cart(), out)
}

// itemID accepts either a cart item id or a sku with size and color query
// parameters. Unresolvable references are passed through so the engine
// reports them.
func (ctrl *CartController) itemID(c *gin.Context, sess *service.Session) string {
	ref := c.Param("id")
	if id, ok := sess.Cart.ResolveItemID(ref, c.Query("size"), c.Query("color")); ok {
		return id
	}
	return ref
}
