package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoomType string

const (
	RoomDirect RoomType = "DIRECT"
	RoomGroup  RoomType = "GROUP"
	RoomCourse RoomType = "COURSE"
)

// ChatRoom owns a set of memberships and an ordered sequence of messages.
// UpdatedAt is bumped on every new message so room lists can order by recency.
type ChatRoom struct {
	ID        string   `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string   `gorm:"type:varchar(120);not null" json:"name"`
	Type      RoomType `gorm:"type:varchar(10);not null;index" json:"type"`
	CourseID  *string  `gorm:"type:varchar(36);index" json:"course_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`

	Course  *Course      `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Members []ChatMember `gorm:"foreignKey:RoomID" json:"-"`
}

func (r *ChatRoom) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// ChatMember links a user to a room. The composite primary key enforces at
// most one membership row per (room, user) pair; leaving a room flips
// IsActive instead of deleting the row so history survives.
type ChatMember struct {
	RoomID   string    `gorm:"type:varchar(36);primaryKey" json:"room_id"`
	UserID   string    `gorm:"type:varchar(36);primaryKey" json:"user_id"`
	IsActive bool      `gorm:"not null;default:true;index" json:"is_active"`
	JoinedAt time.Time `json:"joined_at"`

	User User `gorm:"foreignKey:UserID" json:"user"`
}

// MaxMessageLength caps the message body after whitespace trimming.
const MaxMessageLength = 2000

// Message rows are never hard-deleted in normal flow. A non-null DeletedByID
// is the tombstone: such messages are excluded from listing but their rows
// (and read receipts) remain queryable.
type Message struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	RoomID      string    `gorm:"type:varchar(36);not null;index" json:"room_id"`
	SenderID    string    `gorm:"type:varchar(36);not null;index" json:"sender_id"`
	Body        string    `gorm:"type:text;not null" json:"body"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	DeletedByID *string   `gorm:"type:varchar(36)" json:"deleted_by_id,omitempty"`

	Sender   User          `gorm:"foreignKey:SenderID" json:"sender"`
	Receipts []ReadReceipt `gorm:"foreignKey:MessageID" json:"receipts"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// IsDeleted reports whether the message carries a soft-delete tombstone.
func (m *Message) IsDeleted() bool {
	return m.DeletedByID != nil
}

// ReadReceipt records that a user has read a message. The composite primary
// key makes a repeated read a no-op at the store layer.
type ReadReceipt struct {
	MessageID string    `gorm:"type:varchar(36);primaryKey" json:"message_id"`
	UserID    string    `gorm:"type:varchar(36);primaryKey" json:"user_id"`
	ReadAt    time.Time `gorm:"index" json:"read_at"`

	Reader User `gorm:"foreignKey:UserID" json:"reader"`
}
