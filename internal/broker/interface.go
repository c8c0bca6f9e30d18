package broker

// Event types published on the chat channel.
const (
	EventMessageCreated = "message.created"
	EventMessageDeleted = "message.deleted"
)

// Event is the wire shape fanned out to live subscribers (WebSocket clients).
type Event struct {
	Type      string `json:"type"`
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
	SenderID  string `json:"sender_id,omitempty"`
	Body      string `json:"body,omitempty"`
	Timestamp string `json:"timestamp"`
}

// EventBroker fans chat events out across server nodes.
type EventBroker interface {
	Publish(event Event) error
	Subscribe() (<-chan Event, error)
	Close() error
}
