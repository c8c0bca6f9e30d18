package handler

import (
	"net/http"

	"github.com/acadia-lms/acadia/internal/models"
	"github.com/acadia-lms/acadia/internal/service"
	"github.com/acadia-lms/acadia/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	authService *service.AuthService
}

func NewAdminHandler(authService *service.AuthService) *AdminHandler {
	return &AdminHandler{
		authService: authService,
	}
}

type UpdateRoleRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

// GetAllUsers returns all users
// GET /api/admin/users
func (h *AdminHandler) GetAllUsers(c *gin.Context) {
	logger.Log.Info("Admin fetching all users",
		zap.String("admin_id", c.GetString("user_id")),
	)

	users, err := h.authService.GetAllUsers()
	if err != nil {
		logger.Log.Error("Failed to fetch users",
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch users",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
	})
}

// UpdateRole changes a user's role
// POST /api/admin/role
func (h *AdminHandler) UpdateRole(c *gin.Context) {
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	adminID := c.GetString("user_id")
	logger.Log.Info("Admin updating user role",
		zap.String("admin_id", adminID),
		zap.String("target_user_id", req.UserID),
		zap.String("role", req.Role),
	)

	user, err := h.authService.UpdateUserRole(req.UserID, models.Role(req.Role))
	if err != nil {
		status := http.StatusBadRequest
		if err == service.ErrUserNotFound {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}
