// internal/session/cache.go
package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"tripwise/internal/common/metrics"
	"tripwise/internal/models"
)

// Logger interface definition
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// CachedStore fronts a Store with a Redis write-through cache for session
// state. The cache is an optimization only: every cache error falls through
// to the underlying store and is logged, never returned.
type CachedStore struct {
	Store
	redis  *redis.Client
	ttl    time.Duration
	logger Logger
}

func NewCachedStore(store Store, rdb *redis.Client, ttl time.Duration, log Logger) *CachedStore {
	return &CachedStore{
		Store:  store,
		redis:  rdb,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "session-cache"}),
	}
}

func cacheKey(sessionID string) string {
	return "tripwise:session:" + sessionID
}

func (c *CachedStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	if session, ok := c.cachedGet(ctx, sessionID); ok {
		return session, nil
	}

	session, err := c.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.put(ctx, session)
	return session, nil
}

func (c *CachedStore) GetOrCreate(ctx context.Context, sessionID, userID string) (*models.Session, error) {
	if sessionID != "" {
		if session, ok := c.cachedGet(ctx, sessionID); ok {
			return session, nil
		}
	}

	session, err := c.Store.GetOrCreate(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	c.put(ctx, session)
	return session, nil
}

// cachedGet returns the cached session and whether it was a usable hit.
// Every failure mode counts as a miss so the caller falls through to the
// authoritative store.
func (c *CachedStore) cachedGet(ctx context.Context, sessionID string) (*models.Session, bool) {
	cached, err := c.redis.Get(ctx, cacheKey(sessionID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache read failed", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
		}
		metrics.SessionCacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}

	var session models.Session
	if err := json.Unmarshal([]byte(cached), &session); err != nil {
		c.logger.Warn("corrupt cache entry, falling back to store", map[string]interface{}{
			"sessionId": sessionID,
		})
		metrics.SessionCacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}

	metrics.SessionCacheHits.WithLabelValues("hit").Inc()
	return &session, true
}

func (c *CachedStore) SaveState(ctx context.Context, sessionID string, state models.State) error {
	if err := c.Store.SaveState(ctx, sessionID, state); err != nil {
		return err
	}

	// Write-through: refresh the cached copy from the authoritative store.
	session, err := c.Store.Get(ctx, sessionID)
	if err != nil {
		c.invalidate(ctx, sessionID)
		return nil
	}
	c.put(ctx, session)
	return nil
}

func (c *CachedStore) put(ctx context.Context, session *models.Session) {
	data, err := json.Marshal(session)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, cacheKey(session.SessionID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{
			"sessionId": session.SessionID,
			"error":     err.Error(),
		})
	}
}

func (c *CachedStore) invalidate(ctx context.Context, sessionID string) {
	if err := c.redis.Del(ctx, cacheKey(sessionID)).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
	}
}
