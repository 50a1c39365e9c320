package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-bff/internal/app/service"
	"github.com/ikkim/storefront-bff/internal/errors"
	"github.com/ikkim/storefront-bff/pkg/util"
)

// Context keys for session information
const (
	SessionKey = "session"
	UserIDKey  = "user_id"

	AccessTokenCookie = "access_token"
)

type SessionMiddleware struct {
	sessions     *service.SessionManager
	cookieName   string
	secureCookie bool
}

func NewSessionMiddleware(sessions *service.SessionManager, cookieName string, secureCookie bool) *SessionMiddleware {
	return &SessionMiddleware{
		sessions:     sessions,
		cookieName:   cookieName,
		secureCookie: secureCookie,
	}
}

// Attach resolves the browser session and records its credential.
// - Missing or unknown session cookie: a new session is created and the cookie is set
// - Missing, invalid or expired token: continues unauthenticated; cart calls then ask for login
// - Malformed Authorization header: rejected
func (m *SessionMiddleware) Attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, ok := bearerToken(c)
		if !ok {
			log.Warn("Invalid authorization header format", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Malformed authorization header.")
			c.Abort()
			return
		}

		cookie, _ := c.Cookie(m.cookieName)
		sess, created := m.sessions.Acquire(c.Request.Context(), cookie)
		if created || cookie != sess.ID {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(m.cookieName, sess.ID, 0, "/", "", m.secureCookie, true)
		}

		userID, err := m.sessions.Authenticate(sess, token)
		if err != nil {
			// 토큰 만료/오류는 비로그인으로 처리
			log.Debug("Token rejected - continuing unauthenticated", map[string]interface{}{
				"session_id": sess.ID,
				"expired":    err == util.ErrExpiredToken,
				"error":      err.Error(),
			})
		}

		c.Set(SessionKey, sess)
		if userID != 0 {
			c.Set(UserIDKey, userID)
		}

		log.Debug("Session attached", map[string]interface{}{
			"session_id": sess.ID,
			"user_id":    userID,
			"created":    created,
		})

		c.Next()
	}
}

// bearerToken reads the token from the Authorization header, then the
// access_token cookie, then the token query parameter (WebSocket). ok is
// false only for a malformed header.
func bearerToken(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie, true
	}
	return c.Query("token"), true
}

// GetSession extracts the session from context
func GetSession(c *gin.Context) (*service.Session, bool) {
	v, exists := c.Get(SessionKey)
	if !exists {
		return nil, false
	}
	sess, ok := v.(*service.Session)
	return sess, ok
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}
