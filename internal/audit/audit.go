package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/acadia-lms/acadia/pkg/logger"
	"go.uber.org/zap"
)

// Entry records a single moderation action against a message.
type Entry struct {
	MessageID string    `json:"message_id"`
	RoomID    string    `json:"room_id"`
	SenderID  string    `json:"sender_id"`
	DeletedBy string    `json:"deleted_by"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is an append-only moderation audit trail. Entries are newline-delimited
// JSON, synced on every append so a crash never loses an acknowledged action.
type Log struct {
	filePath string
	file     *os.File
	mu       sync.Mutex
}

func NewLog(filePath string) (*Log, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &Log{
		filePath: filePath,
		file:     file,
	}, nil
}

// Append writes one entry and syncs it to disk.
func (l *Log) Append(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		logger.Log.Error("audit: failed to marshal entry",
			zap.String("message_id", entry.MessageID),
			zap.Error(err),
		)
		return err
	}

	if _, err := l.file.WriteString(string(data) + "\n"); err != nil {
		logger.Log.Error("audit: failed to write entry",
			zap.String("message_id", entry.MessageID),
			zap.Error(err),
		)
		return err
	}

	if err := l.file.Sync(); err != nil {
		logger.Log.Error("audit: failed to sync to disk",
			zap.String("message_id", entry.MessageID),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// ReadAll replays every entry in append order.
func (l *Log) ReadAll() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			// Skip torn or corrupt lines, the rest of the log is still usable.
			continue
		}
		entries = append(entries, entry)
	}

	return entries, scanner.Err()
}

// ForMessage returns the entries recorded for one message.
func (l *Log) ForMessage(messageID string) ([]Entry, error) {
	all, err := l.ReadAll()
	if err != nil {
		return nil, err
	}

	var matched []Entry
	for _, entry := range all {
		if entry.MessageID == messageID {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
