// internal/session/store.go
package session

import (
	"context"
	"time"

	"tripwise/internal/models"
)

// Store persists sessions and their transcripts. SQLite is the authoritative
// backend; a cache may sit in front of it for hot state.
type Store interface {
	// GetOrCreate returns the session with the given id, creating it when it
	// does not exist. An empty sessionID gets a freshly generated one.
	GetOrCreate(ctx context.Context, sessionID, userID string) (*models.Session, error)

	// Get returns a session or a SESSION_NOT_FOUND error.
	Get(ctx context.Context, sessionID string) (*models.Session, error)

	// SaveState replaces the session's state blob and bumps last activity.
	SaveState(ctx context.Context, sessionID string, state models.State) error

	// AppendMessage adds a transcript entry.
	AppendMessage(ctx context.Context, msg *models.Message) error

	// RecentMessages returns the newest limit messages in chronological order.
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]models.Message, error)

	// Expire deactivates sessions idle for longer than ttl and reports how
	// many were touched.
	Expire(ctx context.Context, ttl time.Duration) (int64, error)

	Close() error
}
