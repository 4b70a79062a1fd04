// internal/session/sqlite.go
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"tripwise/internal/common/errors"
	"tripwise/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the session database at dsn.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			state TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_activity DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			is_active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			agent TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetOrCreate(ctx context.Context, sessionID, userID string) (*models.Session, error) {
	if sessionID != "" {
		session, err := s.Get(ctx, sessionID)
		if err == nil {
			return session, nil
		}
		var stdErr *errors.StandardError
		if !stderrors.As(err, &stdErr) || stdErr.Code != errors.ErrCodeSessionNotFound {
			return nil, err
		}
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if userID == "" {
		userID = "anonymous"
	}

	now := time.Now().UTC()
	session := &models.Session{
		SessionID:    sessionID,
		UserID:       userID,
		State:        models.State{},
		CreatedAt:    now,
		UpdatedAt:    now,
		LastActivity: now,
		IsActive:     true,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, user_id, state, created_at, updated_at, last_activity, is_active)
		 VALUES (?, ?, '{}', ?, ?, ?, 1)`,
		session.SessionID, session.UserID, now, now, now)
	if err != nil {
		return nil, errors.NewSessionSaveFailedError(err)
	}
	return session, nil
}

func (s *SQLiteStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	var stateJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, user_id, state, created_at, updated_at, last_activity, is_active
		 FROM sessions WHERE session_id = ?`, sessionID).
		Scan(&session.SessionID, &session.UserID, &stateJSON,
			&session.CreatedAt, &session.UpdatedAt, &session.LastActivity, &session.IsActive)
	if err == sql.ErrNoRows {
		return nil, errors.NewSessionNotFoundError(sessionID)
	}
	if err != nil {
		return nil, errors.NewSessionLoadFailedError(err)
	}

	if err := json.Unmarshal([]byte(stateJSON), &session.State); err != nil {
		return nil, errors.NewSessionLoadFailedError(err)
	}
	if session.State == nil {
		session.State = models.State{}
	}
	return &session, nil
}

func (s *SQLiteStore) SaveState(ctx context.Context, sessionID string, state models.State) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return errors.NewSessionSaveFailedError(err)
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET state = ?, updated_at = ?, last_activity = ? WHERE session_id = ?`,
		string(stateJSON), now, now, sessionID)
	if err != nil {
		return errors.NewSessionSaveFailedError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewSessionSaveFailedError(err)
	}
	if affected == 0 {
		return errors.NewSessionNotFoundError(sessionID)
	}
	return nil
}

func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	if msg.MessageID == "" {
		msg.MessageID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (message_id, session_id, role, content, agent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.MessageID, msg.SessionID, msg.Role, msg.Content, msg.Agent, msg.CreatedAt)
	if err != nil {
		return errors.NewSessionSaveFailedError(err)
	}

	// Every turn appends to the transcript, so this keeps read-only sessions
	// out of the expiry sweep even when no state is saved.
	_, err = s.db.ExecContext(ctx,
		`UPDATE sessions SET last_activity = ? WHERE session_id = ?`,
		time.Now().UTC(), msg.SessionID)
	if err != nil {
		return errors.NewSessionSaveFailedError(err)
	}
	return nil
}

func (s *SQLiteStore) RecentMessages(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, session_id, role, content, COALESCE(agent, ''), created_at
		 FROM messages WHERE session_id = ?
		 ORDER BY created_at DESC, message_id DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, errors.NewSessionLoadFailedError(err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.MessageID, &m.SessionID, &m.Role, &m.Content, &m.Agent, &m.CreatedAt); err != nil {
			return nil, errors.NewSessionLoadFailedError(err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewSessionLoadFailedError(err)
	}

	// Reverse into chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *SQLiteStore) Expire(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET is_active = 0 WHERE is_active = 1 AND last_activity < ?`, cutoff)
	if err != nil {
		return 0, errors.NewSessionSaveFailedError(err)
	}
	return result.RowsAffected()
}
