package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/acadia-lms/acadia/internal/broker"
	"github.com/acadia-lms/acadia/internal/models"
	"github.com/acadia-lms/acadia/internal/service"
	"github.com/acadia-lms/acadia/internal/utils"
	"github.com/acadia-lms/acadia/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second // Time allowed to write a message to the peer
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // 54 seconds
	maxMessageSize = 512 * 1024          // 512 KB
)

type WSMessageType string

const (
	WSMessageTypeSend     WSMessageType = "send_message"
	WSMessageTypeMarkRead WSMessageType = "mark_read"
)

type WSRequest struct {
	Type      WSMessageType `json:"type"`
	TempID    string        `json:"temp_id,omitempty"`
	RoomID    string        `json:"room_id,omitempty"`
	Body      string        `json:"body,omitempty"`       // For send_message
	MessageID string        `json:"message_id,omitempty"` // For mark_read
}

type WSResponse struct {
	Type      string `json:"type"` // "event", "ack", "error"
	Event     string `json:"event,omitempty"`
	RoomID    string `json:"room_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	SenderID  string `json:"sender_id,omitempty"`
	Body      string `json:"body,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Error     string `json:"error,omitempty"`

	// For ACK
	TempID string `json:"temp_id,omitempty"`
	Status string `json:"status,omitempty"`
}

// WebSocketHandler streams chat events to connected clients. Each client
// only receives events for rooms it was an active member of at connect time;
// the broker carries events across server nodes.
type WebSocketHandler struct {
	chatService *service.ChatService
	eventBroker broker.EventBroker
	clients     map[*websocket.Conn]*Client
	mu          sync.RWMutex
}

type Client struct {
	conn        *websocket.Conn
	userID      string
	name        string
	role        models.Role
	rooms       map[string]bool
	connectedAt time.Time
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // add origin check in production
	},
}

func NewWebSocketHandler(chatService *service.ChatService, eventBroker broker.EventBroker) *WebSocketHandler {
	return &WebSocketHandler{
		chatService: chatService,
		eventBroker: eventBroker,
		clients:     make(map[*websocket.Conn]*Client),
	}
}

// Start subscribes to the broker and fans events out to clients that are
// members of the event's room. Call once, before serving connections.
func (h *WebSocketHandler) Start() error {
	events, err := h.eventBroker.Subscribe()
	if err != nil {
		return err
	}

	go func() {
		for event := range events {
			h.broadcastEvent(event)
		}
	}()

	return nil
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	claimsInterface, exists := c.Get("claims")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	claims, ok := claimsInterface.(*utils.Claims)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid claims format"})
		return
	}

	rooms, err := h.chatService.ListRooms(claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rooms"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}

	client := &Client{
		conn:        conn,
		userID:      claims.UserID,
		name:        claims.Name,
		role:        claims.Role,
		rooms:       make(map[string]bool, len(rooms)),
		connectedAt: time.Now(),
	}
	for _, room := range rooms {
		client.rooms[room.ID] = true
	}

	h.mu.Lock()
	h.clients[conn] = client
	total := len(h.clients)
	h.mu.Unlock()

	logger.Log.Info("WebSocket client connected",
		zap.String("user_id", client.userID),
		zap.Int("total_clients", total),
	)

	defer h.removeClient(conn)

	h.handleClient(client)
}

// handleClient listens for requests from a specific client
func (h *WebSocketHandler) handleClient(client *Client) {
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetReadLimit(maxMessageSize)

	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	done := make(chan struct{})
	defer close(done)

	go h.pingClient(client, ticker, done)

	for {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))

		var req WSRequest
		err := client.conn.ReadJSON(&req)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}

		switch req.Type {
		case WSMessageTypeSend:
			h.handleSendMessage(client, req)

		case WSMessageTypeMarkRead:
			h.handleMarkRead(client, req)

		default:
			h.sendError(client, "unknown message type")
		}
	}
}

func (h *WebSocketHandler) handleSendMessage(client *Client, req WSRequest) {
	if req.RoomID == "" {
		h.sendAck(client, req.TempID, "", "error", "room_id is required")
		return
	}

	// The service gates on membership and validates the body; the broker
	// subscription delivers the resulting event back to every member.
	msg, err := h.chatService.SendMessage(req.RoomID, client.userID, req.Body)
	if err != nil {
		h.sendAck(client, req.TempID, "", "error", err.Error())
		return
	}

	h.sendAck(client, req.TempID, msg.ID, "success", "")
}

func (h *WebSocketHandler) handleMarkRead(client *Client, req WSRequest) {
	if req.MessageID == "" {
		h.sendError(client, "message_id is required")
		return
	}

	if _, _, err := h.chatService.MarkRead(req.MessageID, client.userID); err != nil {
		h.sendError(client, err.Error())
	}
}

func (h *WebSocketHandler) broadcastEvent(event broker.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	response := WSResponse{
		Type:      "event",
		Event:     event.Type,
		RoomID:    event.RoomID,
		MessageID: event.MessageID,
		SenderID:  event.SenderID,
		Body:      event.Body,
		Timestamp: event.Timestamp,
	}

	for conn, client := range h.clients {
		if !client.rooms[event.RoomID] {
			continue
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(response); err != nil {
			logger.Log.Debug("Failed to send event to client",
				zap.String("user_id", client.userID),
				zap.Error(err),
			)
			// Don't remove client here, handleClient will do cleanup
		}
	}
}

func (h *WebSocketHandler) pingClient(client *Client, ticker *time.Ticker, done <-chan struct{}) {
	for {
		select {
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			// handleClient exited, stop pinging
			return
		}
	}
}

func (h *WebSocketHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, exists := h.clients[conn]
	if exists {
		delete(h.clients, conn)
		conn.Close()

		logger.Log.Info("WebSocket client disconnected",
			zap.String("user_id", client.userID),
			zap.Duration("session_duration", time.Since(client.connectedAt).Round(time.Second)),
			zap.Int("remaining_clients", len(h.clients)),
		)
	}
}

func (h *WebSocketHandler) sendError(client *Client, errorMsg string) {
	client.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := client.conn.WriteJSON(WSResponse{
		Type:  "error",
		Error: errorMsg,
	}); err != nil {
		logger.Log.Debug("Failed to send error message", zap.Error(err))
	}
}

func (h *WebSocketHandler) sendAck(client *Client, tempID, messageID, status, errorMsg string) {
	client.conn.SetWriteDeadline(time.Now().Add(writeWait))

	ackResponse := WSResponse{
		Type:      "ack",
		TempID:    tempID,
		MessageID: messageID,
		Status:    status,
	}
	if status == "error" {
		ackResponse.Error = errorMsg
	}

	if err := client.conn.WriteJSON(ackResponse); err != nil {
		logger.Log.Debug("Failed to send ACK", zap.Error(err))
	}
}
