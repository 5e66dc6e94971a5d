// Package models defines server-side data models persisted in the database.
package models

import "time"

const (
	MaxUsernameLength = 100
	MinPasswordLength = 6
)

type User struct {
	ID             string    `json:"user_id"`
	UserName       string    `json:"username"`
	PasswordHash   []byte    `json:"-"`
	IsVerified     bool      `json:"is_verified"`
	CreatedAt      time.Time `json:"created_at"`
	ConversationID string    `json:"-"`
}

// Session is what a successful login returns.
type Session struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
	UserID      string `json:"user_id"`
}
