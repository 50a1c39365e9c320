package controller

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGuestCartControllerTest(t *testing.T) *gin.Engine {
	t.Helper()
	backend := newStubBackend()
	router := newTestRouter(newTestSessions(backend))

	ctrl := NewGuestCartController(backend)
	guest := router.Group("/guest/cart")
	{
		guest.GET("", ctrl.GetCart)
		guest.DELETE("", ctrl.ClearCart)
		guest.POST("/items", ctrl.AddItem)
		guest.PUT("/items/:sku", ctrl.UpdateItem)
		guest.DELETE("/items/:sku", ctrl.RemoveItem)
	}
	return router
}

func TestGuestCartController_AddAccumulatesBySKU(t *testing.T) {
	router := setupGuestCartControllerTest(t)

	w := doJSON(router, http.MethodPost, "/guest/cart/items", gin.H{"sku": "TEE-01", "quantity": 2}, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	session := sessionIDFrom(w)
	require.NotEmpty(t, session)

	w = doJSON(router, http.MethodPost, "/guest/cart/items", gin.H{"sku": "TEE-01"}, session, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	items := cartItems(t, body)
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, float64(3), item["quantity"])
	assert.Equal(t, "Boxy Tee", item["name"])
	assert.Equal(t, float64(57000), body["cart"].(map[string]interface{})["total"])
}

func TestGuestCartController_UnknownProduct(t *testing.T) {
	router := setupGuestCartControllerTest(t)

	w := doJSON(router, http.MethodPost, "/guest/cart/items", gin.H{"sku": "GONE-99"}, "", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PRODUCT_NOT_FOUND", decode(t, w)["error"])
}

func TestGuestCartController_UpdateRemoveAndClear(t *testing.T) {
	router := setupGuestCartControllerTest(t)

	w := doJSON(router, http.MethodPost, "/guest/cart/items", gin.H{"sku": "TEE-01"}, "", "")
	session := sessionIDFrom(w)
	doJSON(router, http.MethodPost, "/guest/cart/items", gin.H{"sku": "JEANS-02"}, session, "")

	w = doJSON(router, http.MethodPut, "/guest/cart/items/TEE-01", gin.H{"quantity": 4}, session, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(5), decode(t, w)["cart"].(map[string]interface{})["count"])

	w = doJSON(router, http.MethodDelete, "/guest/cart/items/JEANS-02", nil, session, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, cartItems(t, decode(t, w)), 1)

	w = doJSON(router, http.MethodDelete, "/guest/cart", nil, session, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, cartItems(t, decode(t, w)))
}

func TestGuestCartController_SessionsAreIsolated(t *testing.T) {
	router := setupGuestCartControllerTest(t)

	w := doJSON(router, http.MethodPost, "/guest/cart/items", gin.H{"sku": "TEE-01"}, "", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/guest/cart", nil, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, cartItems(t, decode(t, w)))
}
