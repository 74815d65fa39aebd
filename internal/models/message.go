package models

import "time"

// MessageKind distinguishes text and image messages.
type MessageKind string

const (
	MessageText  MessageKind = "TEXT"
	MessageImage MessageKind = "IMAGE"
)

func (k MessageKind) Valid() bool {
	switch k {
	case MessageText, MessageImage:
		return true
	}
	return false
}

// ChatMessage is one durable message in a room. The id is the only total
// order: timestamps can collide at coarse clock resolution, ids cannot.
type ChatMessage struct {
	ID        int64       `db:"id" json:"id"`
	RoomID    int64       `db:"room_id" json:"room_id"`
	SenderID  int64       `db:"sender_id" json:"sender_id"`
	Kind      MessageKind `db:"kind" json:"kind"`
	Content   string      `db:"content" json:"content"`
	ImageURL  string      `db:"image_url" json:"image_url,omitempty"`
	Read      bool        `db:"read" json:"read"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// Preview is the short form shown in the room list.
func (m ChatMessage) Preview() string {
	if m.Kind == MessageImage {
		return "[image]"
	}
	return m.Content
}

// EnrichedMessage carries sender display data alongside the stored row.
type EnrichedMessage struct {
	ChatMessage
	SenderNickname string `json:"sender_nickname,omitempty"`
}

// Live channel event types.
const (
	RoomEventMessage = "message"
	RoomEventRead    = "read"
)

// RoomEvent is broadcast over the live channel to a room topic.
type RoomEvent struct {
	Type     string           `json:"type"`
	RoomID   int64            `json:"room_id"`
	Message  *EnrichedMessage `json:"message,omitempty"`
	ReaderID int64            `json:"reader_id,omitempty"`
}
