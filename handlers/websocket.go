package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ramen-office/models"
)

const (
	clientSendBuffer = 256
	writeWait        = 10 * time.Second
)

// Client - 웹 클라이언트 연결
type Client struct {
	ID   string
	Conn *websocket.Conn
	send chan models.WebSocketMessage

	closed bool // manager.mutex로 보호
}

// closeSend - send 채널을 한 번만 닫는다 (manager.mutex 보유 상태에서 호출)
func (c *Client) closeSend() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		Conn: conn,
		send: make(chan models.WebSocketMessage, clientSendBuffer),
	}
}

// writePump - send 채널의 메시지를 순서대로 전송 (연결당 쓰기 고루틴 하나)
func (c *Client) writePump(logger *zap.Logger) {
	defer func() { _ = c.Conn.Close() }()
	for msg := range c.send {
		_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.Conn.WriteJSON(msg); err != nil {
			logger.Debug("websocket write failed", zap.String("client", c.ID), zap.Error(err))
			return
		}
	}
}

// ClientManager - 웹소켓 클라이언트 관리자
type ClientManager struct {
	clients    map[string]*Client
	broadcast  chan models.WebSocketMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *zap.Logger
}

// NewClientManager - 관리자 생성
func NewClientManager(logger *zap.Logger) *ClientManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientManager{
		clients:    make(map[string]*Client),
		broadcast:  make(chan models.WebSocketMessage, 1024),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run - 등록/해제/브로드캐스트 처리 (ctx 종료 시 모든 연결 해제)
func (manager *ClientManager) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			close(manager.done)
			manager.mutex.Lock()
			for id, client := range manager.clients {
				delete(manager.clients, id)
				client.closeSend()
			}
			manager.mutex.Unlock()
			return nil

		case client := <-manager.register:
			manager.mutex.Lock()
			manager.clients[client.ID] = client
			manager.mutex.Unlock()
			manager.logger.Info("client registered", zap.String("client", client.ID))

		case client := <-manager.unregister:
			manager.remove(client)

		case message := <-manager.broadcast:
			manager.handleBroadcast(message)
		}
	}
}

func (manager *ClientManager) remove(client *Client) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	if current, ok := manager.clients[client.ID]; ok && current == client {
		delete(manager.clients, client.ID)
		client.closeSend()
		manager.logger.Info("client unregistered", zap.String("client", client.ID))
	}
}

// Register - 클라이언트 등록 (관리자가 종료되었으면 false)
func (manager *ClientManager) Register(client *Client) bool {
	select {
	case manager.register <- client:
		return true
	case <-manager.done:
		manager.mutex.Lock()
		client.closeSend()
		manager.mutex.Unlock()
		return false
	}
}

// Unregister - 클라이언트 해제
func (manager *ClientManager) Unregister(client *Client) {
	select {
	case manager.unregister <- client:
	case <-manager.done:
	}
}

// handleBroadcast - 모든 클라이언트에 전달, 버퍼가 가득 찬 클라이언트는 끊는다
func (manager *ClientManager) handleBroadcast(message models.WebSocketMessage) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	for id, client := range manager.clients {
		select {
		case client.send <- message:
		default:
			manager.logger.Warn("slow client dropped", zap.String("client", id))
			delete(manager.clients, id)
			client.closeSend()
		}
	}
}

// BroadcastMessage - 브로드캐스트 큐에 추가 (가득 차면 버림, 호출자를 막지 않는다)
func (manager *ClientManager) BroadcastMessage(msg models.WebSocketMessage) {
	select {
	case manager.broadcast <- msg:
	default:
		manager.logger.Warn("broadcast queue full, message dropped", zap.String("type", msg.Type))
	}
}

// ClientCount - 연결된 클라이언트 수
func (manager *ClientManager) ClientCount() int {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()
	return len(manager.clients)
}

// sendTo - 특정 클라이언트에게만 전송 (등록 처리 전이어도 버퍼에 쌓인다)
func (manager *ClientManager) sendTo(client *Client, msg models.WebSocketMessage) bool {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()
	if client.closed {
		return false
	}
	select {
	case client.send <- msg:
		return true
	default:
		return false
	}
}

// HandleWebSocket - 웹 클라이언트 연결 처리
//
// 연결 직후와 request:state 수신 시 state:full을 보낸다.
func (h *Handler) HandleWebSocket(c *websocket.Conn) {
	client := newClient(c)
	if !h.Hub.Register(client) {
		return
	}
	defer h.Hub.Unregister(client)

	go client.writePump(h.Logger)

	h.sendFullState(client)

	for {
		var msg models.WebSocketMessage
		if err := c.ReadJSON(&msg); err != nil {
			h.Logger.Debug("websocket read ended", zap.String("client", client.ID), zap.Error(err))
			return
		}

		switch msg.Type {
		case models.MessageTypeRequestState:
			h.sendFullState(client)
		default:
			h.Logger.Debug("unknown message type", zap.String("client", client.ID), zap.String("type", msg.Type))
		}
	}
}

func (h *Handler) sendFullState(client *Client) {
	state, err := h.Presence.FullState()
	if err != nil {
		h.Logger.Error("build full state", zap.Error(err))
		return
	}
	h.Hub.sendTo(client, models.NewMessage(models.MessageTypeFullState, state))
}
