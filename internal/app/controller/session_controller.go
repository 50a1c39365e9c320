package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-bff/internal/app/service"
	"github.com/ikkim/storefront-bff/internal/middleware"
)

type SessionController struct {
	sessions     *service.SessionManager
	secureCookie bool
}

func NewSessionController(sessions *service.SessionManager, secureCookie bool) *SessionController {
	return &SessionController{sessions: sessions, secureCookie: secureCookie}
}

// GetSession reports who the session belongs to and the cart badge count
// GET /api/v1/session
func (ctrl *SessionController) GetSession(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}

	userID := sess.UserID()
	count := sess.Guest.Count()
	if userID != 0 {
		count = sess.Cart.Cart().Count()
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":      sess.ID,
		"authenticated":   userID != 0,
		"user_id":         userID,
		"cart_count":      count,
		"cart_loaded":     sess.Cart.Initialized(),
		"reconcile_state": sess.Cart.State(),
	})
}

// Logout drops the credential and the authenticated cart
// POST /api/v1/session/logout
func (ctrl *SessionController) Logout(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}

	ctrl.sessions.Logout(sess)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", ctrl.secureCookie, true)

	middleware.GetLoggerFromContext(c).Info("Session logged out", map[string]interface{}{
		"session_id": sess.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out",
	})
}
