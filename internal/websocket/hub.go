package websocket

import (
	"encoding/json"
	"sync"

	"github.com/ikkim/storefront-bff/internal/app/service"
	"github.com/ikkim/storefront-bff/pkg/logger"
)

// Client WebSocket 클라이언트 (브라우저 탭 하나)
type Client struct {
	Hub       *Hub
	Conn      *Conn
	SessionID string
	Send      chan []byte
}

// NewClient 클라이언트 생성
func NewClient(hub *Hub, conn *Conn, sessionID string) *Client {
	return &Client{
		Hub:       hub,
		Conn:      conn,
		SessionID: sessionID,
		Send:      make(chan []byte, 64),
	}
}

// sessionMessage 특정 세션으로 보낼 메시지
type sessionMessage struct {
	SessionID string
	Message   []byte
}

// Hub 세션별 알림 연결 관리자. service.Notifier 구현
type Hub struct {
	// 세션별 클라이언트들 (SessionID -> []*Client - 여러 탭 지원)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	deliver    chan sessionMessage
	done       chan struct{}
	stopOnce   sync.Once

	mu sync.RWMutex
}

// NewHub Hub 생성
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		deliver:    make(chan sessionMessage, 1024),
		done:       make(chan struct{}),
	}
}

// Run Hub 실행. Stop 호출 시 종료
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			total := len(h.clients[client.SessionID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"session_id": client.SessionID,
				"total_tabs": total,
			})

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.deliver:
			h.mu.RLock()
			clientList := append([]*Client(nil), h.clients[message.SessionID]...)
			h.mu.RUnlock()

			for _, client := range clientList {
				select {
				case client.Send <- message.Message:
				default:
					// Send 채널이 막혀있음 - 연결 정리
					h.remove(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"session_id": client.SessionID,
					})
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clientList, ok := h.clients[client.SessionID]
	if !ok {
		return
	}

	newList := make([]*Client, 0, len(clientList))
	found := false
	for _, c := range clientList {
		if c == client {
			found = true
			continue
		}
		newList = append(newList, c)
	}
	if !found {
		return
	}

	if len(newList) == 0 {
		delete(h.clients, client.SessionID)
	} else {
		h.clients[client.SessionID] = newList
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"session_id":     client.SessionID,
		"remaining_tabs": len(newList),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, clientList := range h.clients {
		for _, c := range clientList {
			close(c.Send)
		}
		delete(h.clients, id)
	}
}

// Stop Run 루프 종료, 모든 클라이언트 연결 종료
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Notify 장바구니 알림을 해당 세션의 모든 탭으로 전송
// 버퍼가 가득 차면 알림은 버려짐 (HTTP 응답에도 같은 결과가 포함됨)
func (h *Hub) Notify(n service.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		logger.Error("Failed to marshal notification", err)
		return
	}

	select {
	case h.deliver <- sessionMessage{SessionID: n.SessionID, Message: data}:
	default:
		logger.Warn("Notification channel full, message dropped", map[string]interface{}{
			"session_id": n.SessionID,
			"type":       n.Type,
		})
	}
}

// Register 클라이언트 등록
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister 클라이언트 등록 해제
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// IsSessionOnline 세션 연결 여부 확인
func (h *Hub) IsSessionOnline(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[sessionID]
	return ok
}
