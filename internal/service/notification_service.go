package service

import (
	"time"

	"github.com/acadia-lms/acadia/internal/models"
	"github.com/acadia-lms/acadia/internal/repository"
	"github.com/acadia-lms/acadia/pkg/logger"
	"go.uber.org/zap"
)

// UnreadSummary is the badge payload: per-room counts plus the total.
type UnreadSummary struct {
	Rooms []repository.RoomUnread `json:"rooms"`
	Total int64                   `json:"total"`
}

// NotificationService derives unread-message counts for badge display.
// It is a pure read-side computation except for MarkRoomRead, which is bulk
// idempotent receipt creation, not a separate state flag.
type NotificationService struct {
	chatRepo *repository.ChatRepository
}

func NewNotificationService(chatRepo *repository.ChatRepository) *NotificationService {
	return &NotificationService{chatRepo: chatRepo}
}

// UnreadCounts returns, for rooms the user is an active member of, the count
// of non-deleted messages not authored by the user and lacking a receipt for
// the user, plus the sum across rooms.
func (s *NotificationService) UnreadCounts(userID string) (*UnreadSummary, error) {
	rooms, err := s.chatRepo.UnreadCounts(userID)
	if err != nil {
		logger.Log.Error("Failed to compute unread counts",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}

	summary := &UnreadSummary{Rooms: rooms}
	for _, room := range rooms {
		summary.Total += room.UnreadCount
	}
	return summary, nil
}

// MarkRoomRead creates receipts for every unread message in the room, with
// the same idempotent semantics as marking a single message. Returns how many
// receipts were newly created.
func (s *NotificationService) MarkRoomRead(roomID, userID string) (int, error) {
	room, err := s.chatRepo.GetRoomByID(roomID)
	if err != nil {
		return 0, err
	}
	if room == nil {
		return 0, ErrRoomNotFound
	}

	member, err := s.chatRepo.GetMember(roomID, userID)
	if err != nil {
		return 0, err
	}
	if member == nil || !member.IsActive {
		return 0, ErrNotAMember
	}

	ids, err := s.chatRepo.ListUnreadMessageIDs(roomID, userID)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	marked := 0
	for _, id := range ids {
		created, err := s.chatRepo.CreateReceipt(&models.ReadReceipt{
			MessageID: id,
			UserID:    userID,
			ReadAt:    now,
		})
		if err != nil {
			return marked, err
		}
		if created {
			marked++
		}
	}

	logger.Log.Debug("Room marked as read",
		zap.String("room_id", roomID),
		zap.String("user_id", userID),
		zap.Int("marked", marked),
	)

	return marked, nil
}
