// internal/models/session.go
package models

import "time"

// Session represents a conversation session persisted in SQLite.
type Session struct {
	SessionID    string    `json:"sessionId" db:"session_id"`
	UserID       string    `json:"userId" db:"user_id"`
	State        State     `json:"state" db:"state"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
	LastActivity time.Time `json:"lastActivity" db:"last_activity"`
	IsActive     bool      `json:"isActive" db:"is_active"`
}

// State is the free-form per-session state blob carried between turns.
// The booking agent keeps its pending flight offer here.
type State map[string]interface{}

// Message is a single transcript entry.
type Message struct {
	MessageID string    `json:"messageId" db:"message_id"`
	SessionID string    `json:"sessionId" db:"session_id"`
	Role      string    `json:"role" db:"role"` // user | assistant
	Content   string    `json:"content" db:"content"`
	Agent     string    `json:"agent,omitempty" db:"agent"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
