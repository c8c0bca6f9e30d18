package handler

import (
	"errors"
	"net/http"

	"github.com/acadia-lms/acadia/internal/models"
	"github.com/acadia-lms/acadia/internal/service"
	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	courseService *service.CourseService
}

func NewCourseHandler(courseService *service.CourseService) *CourseHandler {
	return &CourseHandler{
		courseService: courseService,
	}
}

type CreateCourseRequest struct {
	Code        string `json:"code" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity"`
}

type UpdateCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity"`
}

type CreateAnnouncementRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}

type AddMaterialRequest struct {
	Title       string `json:"title" binding:"required"`
	FileURL     string `json:"file_url" binding:"required"`
	ContentType string `json:"content_type"`
}

func courseErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCourseInput),
		errors.Is(err, service.ErrCourseCodeExists),
		errors.Is(err, service.ErrCourseInactive):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotCourseTeacher),
		errors.Is(err, service.ErrNotEnrolled):
		return http.StatusForbidden
	case errors.Is(err, service.ErrCourseFull):
		return http.StatusConflict
	case errors.Is(err, service.ErrCourseNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func callerRole(c *gin.Context) models.Role {
	if value, exists := c.Get("user_role"); exists {
		if role, ok := value.(models.Role); ok {
			return role
		}
	}
	return models.RoleStudent
}

// POST /api/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	userID := c.GetString("user_id")

	var req CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	course, err := h.courseService.CreateCourse(userID, req.Code, req.Title, req.Description, req.Capacity)
	if err != nil {
		c.JSON(courseErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"course": course})
}

// GET /api/courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	activeOnly := c.DefaultQuery("all", "false") != "true"

	courses, err := h.courseService.ListCourses(activeOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch courses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	course, err := h.courseService.GetCourse(c.Param("id"))
	if err != nil {
		c.JSON(courseErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"course": course})
}

// PUT /api/courses/:id
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	userID := c.GetString("user_id")

	var req UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	course, err := h.courseService.UpdateCourse(c.Param("id"), userID, callerRole(c), req.Title, req.Description, req.Capacity)
	if err != nil {
		c.JSON(courseErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"course": course})
}

// DELETE /api/courses/:id
func (h *CourseHandler) DeactivateCourse(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := h.courseService.DeactivateCourse(c.Param("id"), userID, callerRole(c)); err != nil {
		c.JSON(courseErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// POST /api/courses/:id/enroll
func (h *CourseHandler) Enroll(c *gin.Context) {
	userID := c.GetString("user_id")

	enrollment, err := h.courseService.Enroll(c.Param("id"), userID)
	if err != nil {
		c.JSON(courseErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"enrollment": enrollment})
}

// POST /api/courses/:id/drop
func (h *CourseHandler) Drop(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := h.courseService.Drop(c.Param("id"), userID); err != nil {
		c.JSON(courseErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GET /api/courses/:id/roster
func (h *CourseHandler) Roster(c *gin.Context) {
	userID := c.GetString("user_id")

	roster, err := h.courseService.Roster(c.Param("id"), userID, callerRole(c))
	if err != nil {
		c.JSON(courseErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"roster": roster})
}

// GET /api/enrollments
func (h *CourseHandler) MyEnrollments(c *gin.Context) {
	userID := c.GetString("user_id")

	enrollments, err := h.courseService.ListEnrollmentsForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch enrollments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"enrollments": enrollments})
}

// POST /api/courses/:id/announcements
func (h *CourseHandler) CreateAnnouncement(c *gin.Context) {
	userID := c.GetString("user_id")
	courseID := c.Param("id")

	var req CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	announcement, err := h.courseService.CreateAnnouncement(userID, callerRole(c), &courseID, req.Title, req.Body)
	if err != nil {
		c.JSON(courseErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"announcement": announcement})
}

// POST /api/announcements  (campus-wide, admin only)
func (h *CourseHandler) CreateCampusAnnouncement(c *gin.Context) {
	userID := c.GetString("user_id")

	var req CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	announcement, err := h.courseService.CreateAnnouncement(userID, callerRole(c), nil, req.Title, req.Body)
	if err != nil {
		c.JSON(courseErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"announcement": announcement})
}

// GET /api/courses/:id/announcements
func (h *CourseHandler) ListAnnouncements(c *gin.Context) {
	courseID := c.Param("id")

	announcements, err := h.courseService.ListAnnouncements(&courseID)
	if err != nil {
		c.JSON(courseErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"announcements": announcements})
}

// GET /api/announcements  (campus-wide)
func (h *CourseHandler) ListCampusAnnouncements(c *gin.Context) {
	announcements, err := h.courseService.ListAnnouncements(nil)
	if err != nil {
		c.JSON(courseErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"announcements": announcements})
}

// POST /api/courses/:id/materials
func (h *CourseHandler) AddMaterial(c *gin.Context) {
	userID := c.GetString("user_id")

	var req AddMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	material, err := h.courseService.AddMaterial(c.Param("id"), userID, callerRole(c), req.Title, req.FileURL, req.ContentType)
	if err != nil {
		c.JSON(courseErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"material": material})
}

// GET /api/courses/:id/materials
func (h *CourseHandler) ListMaterials(c *gin.Context) {
	materials, err := h.courseService.ListMaterials(c.Param("id"))
	if err != nil {
		c.JSON(courseErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"materials": materials})
}
