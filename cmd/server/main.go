package main

import (
	"log"

	"github.com/acadia-lms/acadia/internal/audit"
	"github.com/acadia-lms/acadia/internal/broker"
	"github.com/acadia-lms/acadia/internal/config"
	"github.com/acadia-lms/acadia/internal/database"
	"github.com/acadia-lms/acadia/internal/handler"
	"github.com/acadia-lms/acadia/internal/middleware"
	"github.com/acadia-lms/acadia/internal/models"
	"github.com/acadia-lms/acadia/internal/repository"
	"github.com/acadia-lms/acadia/internal/service"
	"github.com/acadia-lms/acadia/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	database.Connect(cfg)
	database.Migrate()

	auditLog, err := audit.NewLog(cfg.AuditPath)
	if err != nil {
		log.Fatalf("Failed to open moderation audit log: %v", err)
	}
	defer auditLog.Close()

	eventBroker, err := broker.NewRedisEventBroker(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to initialize Redis broker: %v", err)
	}
	defer eventBroker.Close()

	// Repositories
	userRepo := repository.NewUserRepository(database.DB)
	chatRepo := repository.NewChatRepository(database.DB)
	courseRepo := repository.NewCourseRepository(database.DB)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiry, cfg.Environment).
		WithFallbackAdmin(cfg.FallbackAdminEmail, cfg.FallbackAdminPassword)
	chatService := service.NewChatService(chatRepo, userRepo, eventBroker, auditLog)
	notificationService := service.NewNotificationService(chatRepo)
	courseService := service.NewCourseService(courseRepo)
	assignmentService := service.NewAssignmentService(courseRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	adminHandler := handler.NewAdminHandler(authService)
	chatHandler := handler.NewChatHandler(chatService, notificationService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	courseHandler := handler.NewCourseHandler(courseService)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService)

	wsHandler := handler.NewWebSocketHandler(chatService, eventBroker)
	if err := wsHandler.Start(); err != nil {
		log.Fatalf("Failed to start WebSocket event stream: %v", err)
	}

	rateLimiter := middleware.NewRateLimiter(eventBroker.Client(), middleware.RateLimiterConfig{
		MaxRequests: cfg.RateLimitMaxRequests,
		Window:      cfg.RateLimitWindow,
		BlockTime:   cfg.RateLimitBlockTime,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.HSTSMiddleware(cfg.IsProduction()))
	router.Use(rateLimiter.Middleware())

	// Public routes
	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)

	// Protected routes (require JWT)
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		api.GET("/me", authHandler.Me)

		// WebSocket event stream
		api.GET("/ws", wsHandler.HandleWebSocket)

		// Chat
		api.GET("/rooms", chatHandler.ListRooms)
		api.POST("/rooms", chatHandler.CreateRoom)
		api.POST("/rooms/:id/join", chatHandler.JoinRoom)
		api.POST("/rooms/:id/leave", chatHandler.LeaveRoom)
		api.GET("/rooms/:id/members", chatHandler.ListMembers)
		api.GET("/rooms/:id/messages", chatHandler.ListMessages)
		api.POST("/rooms/:id/messages", chatHandler.SendMessage)
		api.POST("/rooms/:id/read", notificationHandler.MarkRoomRead)
		api.DELETE("/messages/:id", chatHandler.DeleteMessage)
		api.POST("/messages/:id/read", chatHandler.MarkRead)
		api.GET("/messages/:id/receipts", chatHandler.ListReceipts)
		api.GET("/notifications/unread", notificationHandler.UnreadCounts)

		// Courses and enrollment
		api.GET("/courses", courseHandler.ListCourses)
		api.GET("/courses/:id", courseHandler.GetCourse)
		api.POST("/courses/:id/enroll", courseHandler.Enroll)
		api.POST("/courses/:id/drop", courseHandler.Drop)
		api.GET("/enrollments", courseHandler.MyEnrollments)

		// Course content
		api.GET("/courses/:id/assignments", assignmentHandler.ListAssignments)
		api.GET("/assignments/:id", assignmentHandler.GetAssignment)
		api.POST("/assignments/:id/submit", assignmentHandler.Submit)
		api.GET("/assignments/:id/submission", assignmentHandler.MySubmission)
		api.GET("/courses/:id/announcements", courseHandler.ListAnnouncements)
		api.GET("/announcements", courseHandler.ListCampusAnnouncements)
		api.GET("/courses/:id/materials", courseHandler.ListMaterials)

		// Teaching surface (owning teacher is checked in the services)
		staff := api.Group("")
		staff.Use(middleware.RequireRole(models.RoleTeacher, models.RoleAdmin))
		{
			staff.POST("/courses", courseHandler.CreateCourse)
			staff.PUT("/courses/:id", courseHandler.UpdateCourse)
			staff.DELETE("/courses/:id", courseHandler.DeactivateCourse)
			staff.GET("/courses/:id/roster", courseHandler.Roster)
			staff.POST("/courses/:id/assignments", assignmentHandler.CreateAssignment)
			staff.PUT("/assignments/:id", assignmentHandler.UpdateAssignment)
			staff.POST("/assignments/:id/grade", assignmentHandler.Grade)
			staff.GET("/assignments/:id/submissions", assignmentHandler.ListSubmissions)
			staff.POST("/courses/:id/announcements", courseHandler.CreateAnnouncement)
			staff.POST("/courses/:id/materials", courseHandler.AddMaterial)
		}

		// Admin surface
		admin := api.Group("/admin")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/users", adminHandler.GetAllUsers)
			admin.POST("/role", adminHandler.UpdateRole)
			admin.POST("/announcements", courseHandler.CreateCampusAnnouncement)
		}
	}

	log.Printf("Server starting on %s", cfg.ServerPort)
	if err := router.Run(cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
