package handler

import (
	"net/http"

	"github.com/acadia-lms/acadia/internal/service"
	"github.com/acadia-lms/acadia/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// GET /api/notifications/unread
func (h *NotificationHandler) UnreadCounts(c *gin.Context) {
	userID := c.GetString("user_id")

	summary, err := h.notificationService.UnreadCounts(userID)
	if err != nil {
		logger.Log.Error("Failed to fetch unread summary",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch unread counts"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// POST /api/rooms/:id/read
// Marks every unread message in the room as read for the caller.
func (h *NotificationHandler) MarkRoomRead(c *gin.Context) {
	userID := c.GetString("user_id")
	roomID := c.Param("id")

	marked, err := h.notificationService.MarkRoomRead(roomID, userID)
	if err != nil {
		c.JSON(chatErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"marked":  marked,
	})
}
