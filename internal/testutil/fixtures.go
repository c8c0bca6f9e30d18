package testutil

import (
	"time"

	"github.com/acadia-lms/acadia/internal/models"
	"github.com/acadia-lms/acadia/internal/utils"
	"github.com/google/uuid"
)

// CreateTestUser creates a user with a hashed password
func CreateTestUser(name, email, password string, role models.Role) (*models.User, error) {
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	return &models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
	}, nil
}

// DefaultStudent returns a default student user
func DefaultStudent() (*models.User, error) {
	return CreateTestUser("Test Student", "student@example.com", "Student12345", models.RoleStudent)
}

// DefaultTeacher returns a default teacher user
func DefaultTeacher() (*models.User, error) {
	return CreateTestUser("Test Teacher", "teacher@example.com", "Teacher12345", models.RoleTeacher)
}

// DefaultAdmin returns a default admin user
func DefaultAdmin() (*models.User, error) {
	return CreateTestUser("Test Admin", "admin@example.com", "Admin12345", models.RoleAdmin)
}

// CreateTestRoom returns a group chat room
func CreateTestRoom(name string) *models.ChatRoom {
	return &models.ChatRoom{
		ID:   uuid.New().String(),
		Name: name,
		Type: models.RoomGroup,
	}
}

// CreateTestMember returns an active membership row
func CreateTestMember(roomID, userID string) *models.ChatMember {
	return &models.ChatMember{
		RoomID:   roomID,
		UserID:   userID,
		IsActive: true,
		JoinedAt: time.Now(),
	}
}

// CreateTestMessage returns a message with an explicit timestamp so tests
// can control ordering.
func CreateTestMessage(roomID, senderID, body string, createdAt time.Time) *models.Message {
	return &models.Message{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		SenderID:  senderID,
		Body:      body,
		CreatedAt: createdAt,
	}
}

// CreateTestCourse returns an active course owned by the given teacher
func CreateTestCourse(code, title, teacherID string, capacity int) *models.Course {
	return &models.Course{
		ID:        uuid.New().String(),
		Code:      code,
		Title:     title,
		TeacherID: teacherID,
		Capacity:  capacity,
		IsActive:  true,
	}
}
