package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/acadia-lms/acadia/internal/service"
	"github.com/gin-gonic/gin"
)

type AssignmentHandler struct {
	assignmentService *service.AssignmentService
}

func NewAssignmentHandler(assignmentService *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
	}
}

type CreateAssignmentRequest struct {
	Title        string     `json:"title" binding:"required"`
	Instructions string     `json:"instructions"`
	DueAt        *time.Time `json:"due_at"`
	MaxPoints    int        `json:"max_points"`
}

type UpdateAssignmentRequest struct {
	Title        string     `json:"title"`
	Instructions string     `json:"instructions"`
	DueAt        *time.Time `json:"due_at"`
	MaxPoints    int        `json:"max_points"`
}

type SubmitRequest struct {
	Body    string `json:"body"`
	FileURL string `json:"file_url"`
}

type GradeRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	Points    *int   `json:"points" binding:"required"`
	Feedback  string `json:"feedback"`
}

func assignmentErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCourseInput),
		errors.Is(err, service.ErrInvalidPoints),
		errors.Is(err, service.ErrAlreadyGraded):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotCourseTeacher),
		errors.Is(err, service.ErrNotEnrolled):
		return http.StatusForbidden
	case errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrAssignmentNotFound),
		errors.Is(err, service.ErrSubmissionNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// POST /api/courses/:id/assignments
func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	userID := c.GetString("user_id")

	var req CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	assignment, err := h.assignmentService.CreateAssignment(
		c.Param("id"), userID, callerRole(c),
		req.Title, req.Instructions, req.DueAt, req.MaxPoints,
	)
	if err != nil {
		c.JSON(assignmentErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"assignment": assignment})
}

// PUT /api/assignments/:id
func (h *AssignmentHandler) UpdateAssignment(c *gin.Context) {
	userID := c.GetString("user_id")

	var req UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	assignment, err := h.assignmentService.UpdateAssignment(
		c.Param("id"), userID, callerRole(c),
		req.Title, req.Instructions, req.DueAt, req.MaxPoints,
	)
	if err != nil {
		c.JSON(assignmentErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"assignment": assignment})
}

// GET /api/courses/:id/assignments
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	assignments, err := h.assignmentService.ListAssignments(c.Param("id"))
	if err != nil {
		c.JSON(assignmentErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

// GET /api/assignments/:id
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	assignment, err := h.assignmentService.GetAssignment(c.Param("id"))
	if err != nil {
		c.JSON(assignmentErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"assignment": assignment})
}

// POST /api/assignments/:id/submit
func (h *AssignmentHandler) Submit(c *gin.Context) {
	userID := c.GetString("user_id")

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	submission, err := h.assignmentService.Submit(c.Param("id"), userID, req.Body, req.FileURL)
	if err != nil {
		c.JSON(assignmentErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"submission": submission})
}

// POST /api/assignments/:id/grade
func (h *AssignmentHandler) Grade(c *gin.Context) {
	userID := c.GetString("user_id")

	var req GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Points == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	submission, err := h.assignmentService.Grade(
		c.Param("id"), req.StudentID, userID, callerRole(c),
		*req.Points, req.Feedback,
	)
	if err != nil {
		c.JSON(assignmentErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"submission": submission})
}

// GET /api/assignments/:id/submissions
func (h *AssignmentHandler) ListSubmissions(c *gin.Context) {
	userID := c.GetString("user_id")

	submissions, err := h.assignmentService.ListSubmissions(c.Param("id"), userID, callerRole(c))
	if err != nil {
		c.JSON(assignmentErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"submissions": submissions})
}

// GET /api/assignments/:id/submission
func (h *AssignmentHandler) MySubmission(c *gin.Context) {
	userID := c.GetString("user_id")

	submission, err := h.assignmentService.GetOwnSubmission(c.Param("id"), userID)
	if err != nil {
		c.JSON(assignmentErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"submission": submission})
}
