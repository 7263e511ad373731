package models

import "time"

const (
	ConversationDirect = "direct"
	ConversationGroup  = "group"
)

const (
	MessageSent      = "sent"
	MessageDelivered = "delivered"
	MessageRead      = "read"
)

type Conversation struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Name        *string   `json:"name,omitempty"`
	CreatedByID int64     `json:"created_by_id"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Participant struct {
	ConversationID int64      `json:"conversation_id"`
	UserID         int64      `json:"user_id"`
	FullName       string     `json:"full_name"`
	Role           string     `json:"role"`
	IsAdmin        bool       `json:"is_admin"`
	LastReadAt     *time.Time `json:"last_read_at,omitempty"`
	JoinedAt       time.Time  `json:"joined_at"`
}

type ChatMessage struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	Content        string    `json:"content"`
	Status         string    `json:"status"`
	IsRead         bool      `json:"is_read"`
	IsEdited       bool      `json:"is_edited"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ConversationDetail struct {
	Conversation
	Participants []Participant `json:"participants"`
}

type ConversationSummary struct {
	ConversationDetail
	LastMessage *ChatMessage `json:"last_message,omitempty"`
	UnreadCount int          `json:"unread_count"`
}

type ConversationHistory struct {
	ConversationDetail
	Messages    []ChatMessage `json:"messages"`
	UnreadCount int           `json:"unread_count"`
}

type Presence struct {
	UserID   int64      `json:"user_id"`
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}
