package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikkim/storefront-bff/internal/app/service"
	ws "github.com/ikkim/storefront-bff/internal/websocket"
)

func setupNotificationControllerTest(t *testing.T) (*ws.Hub, string) {
	t.Helper()
	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	router := newTestRouter(newTestSessions(newStubBackend()))
	ctrl := NewNotificationController(hub, []string{"http://localhost:5173"})
	router.GET("/ws", ctrl.HandleWebSocket)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return hub, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func TestNotificationController_DeliversToSession(t *testing.T) {
	hub, url := setupNotificationControllerTest(t)

	conn, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://localhost:5173"}})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var sessionID string
	for _, c := range resp.Cookies() {
		if c.Name == testCookieName {
			sessionID = c.Value
		}
	}
	require.NotEmpty(t, sessionID)
	require.Eventually(t, func() bool { return hub.IsSessionOnline(sessionID) }, time.Second, 10*time.Millisecond)

	hub.Notify(service.Notification{
		Type:      service.NotificationCartError,
		SessionID: sessionID,
		Operation: service.OpUpdate,
		Message:   "Only 2 left in stock",
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "Only 2 left in stock", got["message"])
}

func TestNotificationController_RejectsUnknownOrigin(t *testing.T) {
	_, url := setupNotificationControllerTest(t)

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
