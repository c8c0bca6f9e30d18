package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/acadia-lms/acadia/internal/models"
	"github.com/acadia-lms/acadia/internal/service"
	"github.com/acadia-lms/acadia/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ChatHandler struct {
	chatService         *service.ChatService
	notificationService *service.NotificationService
}

func NewChatHandler(chatService *service.ChatService, notificationService *service.NotificationService) *ChatHandler {
	return &ChatHandler{
		chatService:         chatService,
		notificationService: notificationService,
	}
}

type CreateRoomRequest struct {
	Name     string  `json:"name" binding:"required"`
	Type     string  `json:"type" binding:"required"`
	CourseID *string `json:"course_id,omitempty"`
}

type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// chatErrorStatus maps chat service failures onto the error taxonomy:
// validation 400, authorization 403, not-found 404, everything else 500.
func chatErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrMessageTooLong),
		errors.Is(err, service.ErrInvalidRoomType):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotAMember),
		errors.Is(err, service.ErrDeleteForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrMessageNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// POST /api/rooms
func (h *ChatHandler) CreateRoom(c *gin.Context) {
	userID := c.GetString("user_id")

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	room, err := h.chatService.CreateRoom(req.Name, models.RoomType(req.Type), req.CourseID, userID)
	if err != nil {
		c.JSON(chatErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"room": room})
}

// GET /api/rooms
// Rooms are ordered by recency; unread counts are merged in for badges.
func (h *ChatHandler) ListRooms(c *gin.Context) {
	userID := c.GetString("user_id")

	rooms, err := h.chatService.ListRooms(userID)
	if err != nil {
		logger.Log.Error("Failed to list rooms",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rooms"})
		return
	}

	summary, err := h.notificationService.UnreadCounts(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch unread counts"})
		return
	}

	unreadByRoom := make(map[string]int64, len(summary.Rooms))
	for _, room := range summary.Rooms {
		unreadByRoom[room.RoomID] = room.UnreadCount
	}

	result := make([]gin.H, 0, len(rooms))
	for _, room := range rooms {
		result = append(result, gin.H{
			"room":         room,
			"unread_count": unreadByRoom[room.ID],
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"rooms":        result,
		"total_unread": summary.Total,
	})
}

// POST /api/rooms/:id/join
func (h *ChatHandler) JoinRoom(c *gin.Context) {
	userID := c.GetString("user_id")
	roomID := c.Param("id")

	member, err := h.chatService.JoinRoom(roomID, userID)
	if err != nil {
		c.JSON(chatErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"member": member})
}

// POST /api/rooms/:id/leave
func (h *ChatHandler) LeaveRoom(c *gin.Context) {
	userID := c.GetString("user_id")
	roomID := c.Param("id")

	if err := h.chatService.LeaveRoom(roomID, userID); err != nil {
		c.JSON(chatErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GET /api/rooms/:id/members
func (h *ChatHandler) ListMembers(c *gin.Context) {
	roomID := c.Param("id")

	members, err := h.chatService.ListMembers(roomID)
	if err != nil {
		c.JSON(chatErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// GET /api/rooms/:id/messages?limit=50&offset=0
// Returns the requested page oldest-first.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	roomID := c.Param("id")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	messages, err := h.chatService.ListMessages(roomID, limit, offset)
	if err != nil {
		c.JSON(chatErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"count":    len(messages),
	})
}

// POST /api/rooms/:id/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID := c.GetString("user_id")
	roomID := c.Param("id")

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	message, err := h.chatService.SendMessage(roomID, userID, req.Body)
	if err != nil {
		c.JSON(chatErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// DELETE /api/messages/:id
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	userID := c.GetString("user_id")
	messageID := c.Param("id")

	if err := h.chatService.DeleteMessage(messageID, userID); err != nil {
		c.JSON(chatErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// POST /api/messages/:id/read
func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID := c.GetString("user_id")
	messageID := c.Param("id")

	receipt, alreadyRead, err := h.chatService.MarkRead(messageID, userID)
	if err != nil {
		c.JSON(chatErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"receipt":      receipt,
		"already_read": alreadyRead,
	})
}

// GET /api/messages/:id/receipts
func (h *ChatHandler) ListReceipts(c *gin.Context) {
	messageID := c.Param("id")

	receipts, err := h.chatService.ListReceipts(messageID)
	if err != nil {
		c.JSON(chatErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"receipts": receipts})
}
