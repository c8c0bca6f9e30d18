package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
	RoleAdmin   Role = "ADMIN"
)

// IsModerator reports whether the role carries chat moderation privileges.
func (r Role) IsModerator() bool {
	return r == RoleTeacher || r == RoleAdmin
}

type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(190);uniqueIndex;not null" json:"email"`
	Name         string    `gorm:"type:varchar(120);not null" json:"name"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"` // Never expose password hash in JSON
	Role         Role      `gorm:"type:varchar(20);not null;default:'STUDENT'" json:"role"`
	AvatarURL    string    `gorm:"type:varchar(255)" json:"avatar_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
