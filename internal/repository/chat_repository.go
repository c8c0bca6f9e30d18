package repository

import (
	"errors"

	"github.com/acadia-lms/acadia/internal/models"
	"gorm.io/gorm"
)

// RoomUnread is one row of the per-room unread aggregation.
type RoomUnread struct {
	RoomID      string `json:"room_id"`
	UnreadCount int64  `json:"unread_count"`
}

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) CreateRoom(room *models.ChatRoom) error {
	return r.db.Create(room).Error
}

func (r *ChatRepository) GetRoomByID(id string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.First(&room, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

// ListRoomsForUser returns rooms the user is an active member of,
// most recently active first.
func (r *ChatRepository) ListRoomsForUser(userID string) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := r.db.
		Joins("JOIN chat_members ON chat_members.room_id = chat_rooms.id").
		Where("chat_members.user_id = ? AND chat_members.is_active = ?", userID, true).
		Order("chat_rooms.updated_at DESC").
		Find(&rooms).Error
	return rooms, err
}

// AddMember inserts a membership row. A concurrent duplicate insert on the
// (room, user) composite key is reported as already-existing, not an error.
func (r *ChatRepository) AddMember(member *models.ChatMember) (created bool, err error) {
	err = r.db.Create(member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetMember returns the membership row regardless of its active flag.
func (r *ChatRepository) GetMember(roomID, userID string) (*models.ChatMember, error) {
	var member models.ChatMember
	err := r.db.
		Preload("User").
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&member).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *ChatRepository) SetMemberActive(roomID, userID string, active bool) error {
	return r.db.Model(&models.ChatMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("is_active", active).Error
}

func (r *ChatRepository) ListMembers(roomID string) ([]models.ChatMember, error) {
	var members []models.ChatMember
	err := r.db.
		Preload("User").
		Where("room_id = ? AND is_active = ?", roomID, true).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

// CreateMessage persists the message and bumps the room's updated_at in the
// same transaction so room recency never lags behind its messages.
func (r *ChatRepository) CreateMessage(message *models.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&models.ChatRoom{}).
			Where("id = ?", message.RoomID).
			Update("updated_at", message.CreatedAt).Error
	})
}

func (r *ChatRepository) GetMessageByID(id string) (*models.Message, error) {
	var message models.Message
	err := r.db.Preload("Sender").First(&message, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

// ListMessages fetches the newest page of non-deleted messages in descending
// order. Callers reverse the slice when they need chronological display order.
func (r *ChatRepository) ListMessages(roomID string, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.
		Preload("Sender").
		Preload("Receipts").
		Preload("Receipts.Reader").
		Where("room_id = ? AND deleted_by_id IS NULL", roomID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, err
}

// SoftDeleteMessage stamps the tombstone. The row is retained so read
// receipts and audit queries keep working.
func (r *ChatRepository) SoftDeleteMessage(messageID, deletedBy string) error {
	return r.db.Model(&models.Message{}).
		Where("id = ?", messageID).
		Update("deleted_by_id", deletedBy).Error
}

// CreateReceipt inserts a read receipt. Duplicate inserts on the
// (message, user) composite key are reported as already-existing.
func (r *ChatRepository) CreateReceipt(receipt *models.ReadReceipt) (created bool, err error) {
	err = r.db.Create(receipt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *ChatRepository) GetReceipt(messageID, userID string) (*models.ReadReceipt, error) {
	var receipt models.ReadReceipt
	err := r.db.
		Where("message_id = ? AND user_id = ?", messageID, userID).
		First(&receipt).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &receipt, nil
}

func (r *ChatRepository) ListReceipts(messageID string) ([]models.ReadReceipt, error) {
	var receipts []models.ReadReceipt
	err := r.db.
		Preload("Reader").
		Where("message_id = ?", messageID).
		Order("read_at ASC").
		Find(&receipts).Error
	return receipts, err
}

// UnreadCounts aggregates, per room the user is an active member of, the
// messages that are not deleted, not authored by the user, and carry no
// receipt for the user.
func (r *ChatRepository) UnreadCounts(userID string) ([]RoomUnread, error) {
	var rows []RoomUnread
	err := r.db.Raw(`
		SELECT m.room_id AS room_id, COUNT(*) AS unread_count
		FROM messages m
		JOIN chat_members cm ON cm.room_id = m.room_id
		WHERE cm.user_id = ?
		  AND cm.is_active = ?
		  AND m.sender_id <> ?
		  AND m.deleted_by_id IS NULL
		  AND NOT EXISTS (
			SELECT 1 FROM read_receipts rr
			WHERE rr.message_id = m.id AND rr.user_id = ?
		  )
		GROUP BY m.room_id`,
		userID, true, userID, userID,
	).Scan(&rows).Error
	return rows, err
}

// ListUnreadMessageIDs returns the IDs feeding a bulk mark-as-read for one room.
func (r *ChatRepository) ListUnreadMessageIDs(roomID, userID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&models.Message{}).
		Where("room_id = ? AND sender_id <> ? AND deleted_by_id IS NULL", roomID, userID).
		Where("NOT EXISTS (SELECT 1 FROM read_receipts rr WHERE rr.message_id = messages.id AND rr.user_id = ?)", userID).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}
