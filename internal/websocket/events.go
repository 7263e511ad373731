package chatws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Rafi653/vibe-project/internal/models"
)

const (
	EventMessage        = "message"
	EventMessageUpdated = "message_updated"
	EventMessageDeleted = "message_deleted"
	EventTyping         = "typing"
	EventReadReceipt    = "read_receipt"
	EventRead           = "read"
	EventUserStatus     = "user_status"
	EventOnlineUsers    = "online_users"
	EventError          = "error"
)

var (
	ErrUnrecognizedEvent = errors.New("unrecognized event")
	ErrMalformedEvent    = errors.New("malformed event")
)

// Event is the envelope of every frame written to a client.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type TypingData struct {
	ConversationID int64 `json:"conversation_id"`
	UserID         int64 `json:"user_id"`
	IsTyping       bool  `json:"is_typing"`
}

type ReadReceiptData struct {
	ConversationID int64  `json:"conversation_id"`
	MessageID      int64  `json:"message_id"`
	UserID         int64  `json:"user_id"`
	ReadAt         string `json:"read_at"`
}

type UserStatusData struct {
	UserID    int64  `json:"user_id"`
	IsOnline  bool   `json:"is_online"`
	Timestamp string `json:"timestamp"`
}

type OnlineUsersData struct {
	UserIDs []int64 `json:"user_ids"`
}

type MessageDeletedData struct {
	ID             int64 `json:"id"`
	ConversationID int64 `json:"conversation_id"`
	DeletedBy      int64 `json:"deleted_by"`
}

type ErrorData struct {
	Message string `json:"message"`
}

func encodeEvent(eventType string, data any) ([]byte, error) {
	return json.Marshal(Event{Type: eventType, Data: data})
}

func messageEvent(eventType string, message *models.ChatMessage) ([]byte, error) {
	return encodeEvent(eventType, message)
}

// Inbound events form a closed set: classify returns exactly one of the
// types below or an error.
type inboundEvent interface {
	eventType() string
}

type sendMessage struct {
	ConversationID int64
	Content        string
}

type typingNotice struct {
	ConversationID int64
	IsTyping       bool
}

type readReceipt struct {
	MessageID int64
}

func (sendMessage) eventType() string  { return EventMessage }
func (typingNotice) eventType() string { return EventTyping }
func (readReceipt) eventType() string  { return EventReadReceipt }

type inboundFields struct {
	ConversationID int64  `json:"conversation_id"`
	Content        string `json:"content"`
	MessageID      int64  `json:"message_id"`
	IsTyping       *bool  `json:"is_typing"`
}

type inboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
	inboundFields
}

// classify decodes a client frame. Fields may be sent at the top level or
// nested under "data".
func classify(raw []byte) (inboundEvent, error) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if len(frame.Data) > 0 && string(frame.Data) != "null" {
		if err := json.Unmarshal(frame.Data, &frame.inboundFields); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
	}

	switch frame.Type {
	case EventMessage:
		if frame.ConversationID <= 0 {
			return nil, fmt.Errorf("%w: conversation_id is required", ErrMalformedEvent)
		}
		return sendMessage{ConversationID: frame.ConversationID, Content: frame.Content}, nil
	case EventTyping:
		if frame.ConversationID <= 0 {
			return nil, fmt.Errorf("%w: conversation_id is required", ErrMalformedEvent)
		}
		isTyping := true
		if frame.IsTyping != nil {
			isTyping = *frame.IsTyping
		}
		return typingNotice{ConversationID: frame.ConversationID, IsTyping: isTyping}, nil
	case EventReadReceipt, EventRead:
		if frame.MessageID <= 0 {
			return nil, fmt.Errorf("%w: message_id is required", ErrMalformedEvent)
		}
		return readReceipt{MessageID: frame.MessageID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnrecognizedEvent, frame.Type)
	}
}
