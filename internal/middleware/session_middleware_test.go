package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-bff/internal/app/model"
	"github.com/ikkim/storefront-bff/internal/app/service"
	"github.com/ikkim/storefront-bff/pkg/cartapi"
	"github.com/ikkim/storefront-bff/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret-for-middleware"

// nopBackend satisfies service.SessionBackend; middleware tests never reach it.
type nopBackend struct{}

func (nopBackend) FetchCart(context.Context) cartapi.Result[cartapi.Cart] {
	return cartapi.Result[cartapi.Cart]{OK: true}
}
func (nopBackend) AddItem(context.Context, string, int, string, string) cartapi.Result[struct{}] {
	return cartapi.Result[struct{}]{OK: true}
}
func (nopBackend) RemoveItem(context.Context, string) cartapi.Result[struct{}] {
	return cartapi.Result[struct{}]{OK: true}
}
func (nopBackend) UpdateQuantity(context.Context, string, int) cartapi.Result[struct{}] {
	return cartapi.Result[struct{}]{OK: true}
}
func (nopBackend) ClearCart(context.Context) cartapi.Result[struct{}] {
	return cartapi.Result[struct{}]{OK: true}
}
func (nopBackend) PlaceOrder(context.Context, model.OrderDraft) cartapi.Result[model.Order] {
	return cartapi.Result[model.Order]{}
}
func (nopBackend) GetOrder(context.Context, string) cartapi.Result[model.Order] {
	return cartapi.Result[model.Order]{}
}

func setupSessionMiddlewareTest() (*gin.Engine, *service.SessionManager) {
	gin.SetMode(gin.TestMode)
	sessions := service.NewSessionManager(
		func(cartapi.CredentialSource) service.SessionBackend { return nopBackend{} },
		nil,
		nil,
		service.SessionManagerConfig{JWTSecret: testJWTSecret},
	)
	mw := NewSessionMiddleware(sessions, "sf_session", false)

	router := gin.New()
	router.GET("/test", mw.Attach(), func(c *gin.Context) {
		sess, ok := GetSession(c)
		userID, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"has_session": ok, "session_id": sess.ID, "user_id": userID})
	})
	return router, sessions
}

func generateTestToken(t *testing.T, userID uint) string {
	token, err := util.GenerateToken(userID, "test@example.com", "user", testJWTSecret, 15*time.Minute)
	require.NoError(t, err)
	return token
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "sf_session" {
			return c
		}
	}
	return nil
}

func TestSessionMiddleware_CreatesSessionCookie(t *testing.T) {
	router, sessions := setupSessionMiddlewareTest()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 1, sessions.Len())

	// The cookie brings the same session back.
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Nil(t, sessionCookie(w))
	assert.Contains(t, w.Body.String(), cookie.Value)
	assert.Equal(t, 1, sessions.Len())
}

func TestSessionMiddleware_BearerToken(t *testing.T) {
	router, _ := setupSessionMiddlewareTest()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+generateTestToken(t, 42))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":42`)
}

func TestSessionMiddleware_AccessTokenCookie(t *testing.T) {
	router, _ := setupSessionMiddlewareTest()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: generateTestToken(t, 7)})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), `"user_id":7`)
}

func TestSessionMiddleware_InvalidTokenContinuesUnauthenticated(t *testing.T) {
	router, _ := setupSessionMiddlewareTest()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":0`)
}

func TestSessionMiddleware_MalformedHeader(t *testing.T) {
	router, _ := setupSessionMiddlewareTest()

	for _, header := range []string{"Token abc", "Bearer", "Bearer a b"} {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.Contains(t, w.Body.String(), "AUTH_TOKEN_INVALID")
	}
}
