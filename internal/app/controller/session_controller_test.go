package controller

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikkim/storefront-bff/internal/app/model"
	"github.com/ikkim/storefront-bff/internal/middleware"
)

func setupSessionControllerTest(t *testing.T) (*gin.Engine, *stubBackend) {
	t.Helper()
	backend := newStubBackend()
	sessions := newTestSessions(backend)
	router := newTestRouter(sessions)

	ctrl := NewSessionController(sessions, false)
	router.GET("/session", ctrl.GetSession)
	router.POST("/session/logout", ctrl.Logout)

	cart := NewCartController(backend)
	router.GET("/cart", cart.GetCart)
	guest := NewGuestCartController(backend)
	router.POST("/guest/cart/items", guest.AddItem)

	return router, backend
}

func TestSessionController_Guest(t *testing.T) {
	router, _ := setupSessionControllerTest(t)

	w := doJSON(router, http.MethodPost, "/guest/cart/items", gin.H{"sku": "TEE-01", "quantity": 2}, "", "")
	session := sessionIDFrom(w)

	w = doJSON(router, http.MethodGet, "/session", nil, session, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, session, body["session_id"])
	assert.Equal(t, false, body["authenticated"])
	assert.Equal(t, float64(2), body["cart_count"])
}

func TestSessionController_AuthenticatedCount(t *testing.T) {
	router, backend := setupSessionControllerTest(t)
	backend.seed(model.CartLineItem{ItemID: "i1", SKU: "JEANS-02", Quantity: 3, UnitPrice: 59000})
	token := generateTestToken(t, 5)

	w := doJSON(router, http.MethodGet, "/cart", nil, "", token)
	session := sessionIDFrom(w)

	w = doJSON(router, http.MethodGet, "/session", nil, session, token)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, float64(5), body["user_id"])
	assert.Equal(t, float64(3), body["cart_count"])
	assert.Equal(t, true, body["cart_loaded"])
	assert.Equal(t, "IDLE", body["reconcile_state"])
}

func TestSessionController_LogoutClearsCookie(t *testing.T) {
	router, backend := setupSessionControllerTest(t)
	backend.seed(model.CartLineItem{ItemID: "i1", SKU: "JEANS-02", Quantity: 1, UnitPrice: 59000})
	token := generateTestToken(t, 5)

	w := doJSON(router, http.MethodGet, "/cart", nil, "", token)
	session := sessionIDFrom(w)

	w = doJSON(router, http.MethodPost, "/session/logout", nil, session, "")
	require.Equal(t, http.StatusOK, w.Code)

	var cleared *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.AccessTokenCookie {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.True(t, cleared.MaxAge < 0)

	w = doJSON(router, http.MethodGet, "/session", nil, session, "")
	body := decode(t, w)
	assert.Equal(t, false, body["authenticated"])
	assert.Equal(t, false, body["cart_loaded"])
}
