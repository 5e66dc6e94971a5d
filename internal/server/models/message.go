package models

import "time"

// Message is one transcript entry. IsUser is false for agent replies.
type Message struct {
	ID             string    `json:"message_id"`
	ConversationID string    `json:"chat_id"`
	IsUser         bool      `json:"is_user"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"timestamp"`
}
