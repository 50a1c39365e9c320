package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/storefront-bff/internal/middleware"
	ws "github.com/ikkim/storefront-bff/internal/websocket"
)

// NotificationController streams cart notifications to the session's tabs.
type NotificationController struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

func NewNotificationController(hub *ws.Hub, allowedOrigins []string) *NotificationController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &NotificationController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Origin 헤더 없는 요청은 브라우저가 아님
				return origin == "" || allowed[origin]
			},
		},
	}
}

// HandleWebSocket upgrades the request and registers the tab
// GET /api/v1/ws
func (ctrl *NotificationController) HandleWebSocket(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sess, ok := mustSession(c)
	if !ok {
		return
	}

	// 세션 쿠키가 핸드셰이크 응답에 포함되도록 헤더 전달
	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, c.Writer.Header())
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err, map[string]interface{}{
			"session_id": sess.ID,
		})
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, sess.ID)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"session_id": sess.ID,
	})
}
