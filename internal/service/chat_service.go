package service

import (
	"errors"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/acadia-lms/acadia/internal/audit"
	"github.com/acadia-lms/acadia/internal/broker"
	"github.com/acadia-lms/acadia/internal/models"
	"github.com/acadia-lms/acadia/internal/repository"
	"github.com/acadia-lms/acadia/pkg/logger"
	"go.uber.org/zap"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotAMember      = errors.New("not an active member of this room")
	ErrEmptyMessage    = errors.New("message cannot be empty")
	ErrMessageTooLong  = errors.New("message too long")
	ErrDeleteForbidden = errors.New("not allowed to delete this message")
	ErrInvalidRoomType = errors.New("invalid room type")
)

const (
	defaultMessagePageSize = 50
	maxMessagePageSize     = 200
)

type ChatService struct {
	chatRepo *repository.ChatRepository
	userRepo *repository.UserRepository
	broker   broker.EventBroker
	audit    *audit.Log
}

func NewChatService(
	chatRepo *repository.ChatRepository,
	userRepo *repository.UserRepository,
	eventBroker broker.EventBroker,
	auditLog *audit.Log,
) *ChatService {
	return &ChatService{
		chatRepo: chatRepo,
		userRepo: userRepo,
		broker:   eventBroker,
		audit:    auditLog,
	}
}

// CreateRoom creates a room and joins the creator as its first member.
func (s *ChatService) CreateRoom(name string, roomType models.RoomType, courseID *string, creatorID string) (*models.ChatRoom, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyMessage
	}

	switch roomType {
	case models.RoomDirect, models.RoomGroup, models.RoomCourse:
	default:
		return nil, ErrInvalidRoomType
	}

	room := &models.ChatRoom{
		Name:     name,
		Type:     roomType,
		CourseID: courseID,
	}
	if err := s.chatRepo.CreateRoom(room); err != nil {
		logger.Log.Error("Failed to create chat room",
			zap.String("name", name),
			zap.Error(err),
		)
		return nil, err
	}

	if _, err := s.JoinRoom(room.ID, creatorID); err != nil {
		return nil, err
	}

	logger.Log.Info("Chat room created",
		zap.String("room_id", room.ID),
		zap.String("type", string(roomType)),
		zap.String("creator_id", creatorID),
	)

	return room, nil
}

// JoinRoom adds the user to the room, reactivating a previously left
// membership. Joining twice is success.
func (s *ChatService) JoinRoom(roomID, userID string) (*models.ChatMember, error) {
	room, err := s.chatRepo.GetRoomByID(roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	member, err := s.chatRepo.GetMember(roomID, userID)
	if err != nil {
		return nil, err
	}
	if member != nil {
		if !member.IsActive {
			if err := s.chatRepo.SetMemberActive(roomID, userID, true); err != nil {
				return nil, err
			}
			member.IsActive = true
		}
		return member, nil
	}

	member = &models.ChatMember{
		RoomID:   roomID,
		UserID:   userID,
		IsActive: true,
		JoinedAt: time.Now(),
	}
	created, err := s.chatRepo.AddMember(member)
	if err != nil {
		return nil, err
	}
	if !created {
		// Lost the insert race, the row exists now.
		return s.chatRepo.GetMember(roomID, userID)
	}
	return member, nil
}

// LeaveRoom deactivates the membership, keeping message history intact.
func (s *ChatService) LeaveRoom(roomID, userID string) error {
	member, err := s.chatRepo.GetMember(roomID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrNotAMember
	}
	return s.chatRepo.SetMemberActive(roomID, userID, false)
}

// ListRooms returns the user's active rooms, most recently active first.
func (s *ChatService) ListRooms(userID string) ([]models.ChatRoom, error) {
	return s.chatRepo.ListRoomsForUser(userID)
}

// ListMembers returns the active members of a room.
func (s *ChatService) ListMembers(roomID string) ([]models.ChatMember, error) {
	room, err := s.chatRepo.GetRoomByID(roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return s.chatRepo.ListMembers(roomID)
}

// SendMessage validates the body, gates on active membership, persists the
// message (bumping room recency in the same transaction) and publishes the
// event for live subscribers. Each call is a single atomic attempt.
func (s *ChatService) SendMessage(roomID, senderID, body string) (*models.Message, error) {
	room, err := s.chatRepo.GetRoomByID(roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	member, err := s.chatRepo.GetMember(roomID, senderID)
	if err != nil {
		return nil, err
	}
	if member == nil || !member.IsActive {
		logger.Log.Warn("Message rejected: sender not an active member",
			zap.String("room_id", roomID),
			zap.String("sender_id", senderID),
		)
		return nil, ErrNotAMember
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(body) > models.MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	message := &models.Message{
		RoomID:    roomID,
		SenderID:  senderID,
		Body:      html.EscapeString(body),
		CreatedAt: time.Now(),
	}
	if err := s.chatRepo.CreateMessage(message); err != nil {
		logger.Log.Error("Failed to persist message",
			zap.String("room_id", roomID),
			zap.String("sender_id", senderID),
			zap.Error(err),
		)
		return nil, err
	}

	message.Sender = member.User
	message.Receipts = []models.ReadReceipt{}

	// Fan-out is best effort, the message is already committed.
	if err := s.broker.Publish(broker.Event{
		Type:      broker.EventMessageCreated,
		RoomID:    roomID,
		MessageID: message.ID,
		SenderID:  senderID,
		Body:      message.Body,
		Timestamp: message.CreatedAt.Format(time.RFC3339),
	}); err != nil {
		logger.Log.Warn("Failed to publish message event",
			zap.String("message_id", message.ID),
			zap.Error(err),
		)
	}

	logger.Log.Info("Message sent",
		zap.String("message_id", message.ID),
		zap.String("room_id", roomID),
		zap.String("sender_id", senderID),
	)

	return message, nil
}

// DeleteMessage soft-deletes: allowed for the original sender, or for an
// active room member whose role is TEACHER or ADMIN. The transition is
// one-way; there is no undelete.
func (s *ChatService) DeleteMessage(messageID, requesterID string) error {
	message, err := s.chatRepo.GetMessageByID(messageID)
	if err != nil {
		return err
	}
	if message == nil || message.IsDeleted() {
		return ErrMessageNotFound
	}

	if message.SenderID != requesterID {
		member, err := s.chatRepo.GetMember(message.RoomID, requesterID)
		if err != nil {
			return err
		}
		if member == nil || !member.IsActive || !member.User.Role.IsModerator() {
			logger.Log.Warn("Message deletion rejected",
				zap.String("message_id", messageID),
				zap.String("requester_id", requesterID),
			)
			return ErrDeleteForbidden
		}
	}

	if err := s.chatRepo.SoftDeleteMessage(messageID, requesterID); err != nil {
		return err
	}

	if err := s.audit.Append(audit.Entry{
		MessageID: messageID,
		RoomID:    message.RoomID,
		SenderID:  message.SenderID,
		DeletedBy: requesterID,
		Timestamp: time.Now(),
	}); err != nil {
		logger.Log.Error("Failed to append moderation audit entry",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}

	if err := s.broker.Publish(broker.Event{
		Type:      broker.EventMessageDeleted,
		RoomID:    message.RoomID,
		MessageID: messageID,
		Timestamp: time.Now().Format(time.RFC3339),
	}); err != nil {
		logger.Log.Warn("Failed to publish deletion event",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}

	logger.Log.Info("Message soft-deleted",
		zap.String("message_id", messageID),
		zap.String("deleted_by", requesterID),
	)

	return nil
}

// ListMessages returns the most recent page of visible messages in
// chronological order. The fetch is newest-first for pagination, then
// reversed so the caller reads oldest-first.
func (s *ChatService) ListMessages(roomID string, limit, offset int) ([]models.Message, error) {
	room, err := s.chatRepo.GetRoomByID(roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	if limit <= 0 {
		limit = defaultMessagePageSize
	}
	if limit > maxMessagePageSize {
		limit = maxMessagePageSize
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := s.chatRepo.ListMessages(roomID, limit, offset)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// MarkRead records a read receipt. Repeated reads are idempotent: the
// existing receipt is returned with alreadyRead set.
func (s *ChatService) MarkRead(messageID, readerID string) (*models.ReadReceipt, bool, error) {
	message, err := s.chatRepo.GetMessageByID(messageID)
	if err != nil {
		return nil, false, err
	}
	if message == nil {
		return nil, false, ErrMessageNotFound
	}

	existing, err := s.chatRepo.GetReceipt(messageID, readerID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, true, nil
	}

	receipt := &models.ReadReceipt{
		MessageID: messageID,
		UserID:    readerID,
		ReadAt:    time.Now(),
	}
	created, err := s.chatRepo.CreateReceipt(receipt)
	if err != nil {
		return nil, false, err
	}
	if !created {
		// Concurrent reader won the insert, report already-read.
		existing, err := s.chatRepo.GetReceipt(messageID, readerID)
		if err != nil {
			return nil, false, err
		}
		return existing, true, nil
	}

	reader, err := s.userRepo.GetUserByID(readerID)
	if err != nil {
		logger.Log.Warn("Failed to load reader for receipt",
			zap.String("message_id", messageID),
			zap.String("reader_id", readerID),
			zap.Error(err),
		)
	} else if reader != nil {
		receipt.Reader = *reader
	}

	return receipt, false, nil
}

// ListReceipts returns a message's receipts, first reader first. Receipts on
// soft-deleted messages stay queryable.
func (s *ChatService) ListReceipts(messageID string) ([]models.ReadReceipt, error) {
	message, err := s.chatRepo.GetMessageByID(messageID)
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, ErrMessageNotFound
	}
	return s.chatRepo.ListReceipts(messageID)
}
