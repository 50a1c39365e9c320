package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-bff/internal/app/model"
	"github.com/ikkim/storefront-bff/internal/app/service"
	apperrors "github.com/ikkim/storefront-bff/internal/errors"
	"github.com/ikkim/storefront-bff/internal/middleware"
	"github.com/ikkim/storefront-bff/pkg/cartapi"
)

// ProductCatalog is the read-only product source. *cartapi.Client satisfies it.
type ProductCatalog interface {
	GetProduct(ctx context.Context, sku string) cartapi.Result[model.Product]
}

type CartView struct {
	Items []service.CartPageLine `json:"items"`
	Count int                    `json:"count"`
	Total float64                `json:"total"`
}

func newCartView(cart service.CartReader) CartView {
	return CartView{
		Items: service.CartPageLines(cart.Items()),
		Count: cart.Count(),
		Total: cart.Total(),
	}
}

type CartResponse struct {
	Cart    CartView                 `json:"cart"`
	Warning *apperrors.ErrorResponse `json:"warning,omitempty"`
}

// CartErrorResponse carries the restored cart alongside the error.
type CartErrorResponse struct {
	apperrors.ErrorResponse
	Cart CartView `json:"cart"`
}

// respondWithOutcome writes the engine's outcome together with the cart as
// it stands after reconciliation.
func respondWithOutcome(c *gin.Context, cart service.CartReader, out service.MutationOutcome) {
	view := newCartView(cart)

	switch out.Status {
	case service.OutcomeOK:
		c.JSON(http.StatusOK, CartResponse{Cart: view})

	case service.OutcomeStale:
		c.JSON(http.StatusOK, CartResponse{
			Cart: view,
			Warning: &apperrors.ErrorResponse{
				Error:   apperrors.CartOutOfSync,
				Message: out.Message,
			},
		})

	case service.OutcomeRedirect:
		c.JSON(http.StatusUnauthorized, CartErrorResponse{
			ErrorResponse: apperrors.ErrorResponse{
				Error:    apperrors.AuthUnauthorized,
				Message:  out.Message,
				Redirect: out.RedirectTo,
			},
			Cart: view,
		})

	default:
		info := apperrors.FromCartKind(out.Kind, out.Message, out.StatusCode)
		c.JSON(info.Status, CartErrorResponse{
			ErrorResponse: apperrors.ErrorResponse{
				Error:   info.Code,
				Message: info.Message,
			},
			Cart: view,
		})
	}
}

// mustSession returns the session attached by SessionMiddleware.
func mustSession(c *gin.Context) (*service.Session, bool) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		middleware.GetLoggerFromContext(c).Error("Session missing from context", nil, map[string]interface{}{
			"path": c.Request.URL.Path,
		})
		apperrors.InternalError(c, "")
		return nil, false
	}
	return sess, true
}
