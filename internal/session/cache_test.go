// internal/session/cache_test.go
package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripwise/internal/models"
)

// cacheTestLogger satisfies the Logger interface for cache tests.
type cacheTestLogger struct {
	t *testing.T
}

func (l *cacheTestLogger) Debug(msg string, fields map[string]interface{}) {
	l.t.Logf("DEBUG: %s %v", msg, fields)
}

func (l *cacheTestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *cacheTestLogger) With(fields map[string]interface{}) Logger { return l }

func newCachedStore(t *testing.T) (*CachedStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	sqlite := newTestStore(t)
	return NewCachedStore(sqlite, rdb, 30*time.Minute, &cacheTestLogger{t: t}), mr
}

// countingStore counts reads reaching the underlying store.
type countingStore struct {
	Store
	getOrCreateCalls int
}

func (c *countingStore) GetOrCreate(ctx context.Context, sessionID, userID string) (*models.Session, error) {
	c.getOrCreateCalls++
	return c.Store.GetOrCreate(ctx, sessionID, userID)
}

func TestCachedStore_WriteThrough(t *testing.T) {
	store, mr := newCachedStore(t)
	ctx := context.Background()

	session, err := store.GetOrCreate(ctx, "sess-1", "user-1")
	require.NoError(t, err)

	// GetOrCreate primes the cache
	assert.True(t, mr.Exists(cacheKey(session.SessionID)))

	require.NoError(t, store.SaveState(ctx, session.SessionID, models.State{"step": "offered"}))

	// Cached copy reflects the save
	loaded, err := store.Get(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "offered", loaded.State["step"])
}

func TestCachedStore_CacheHitSkipsSQLite(t *testing.T) {
	store, _ := newCachedStore(t)
	ctx := context.Background()

	session, err := store.GetOrCreate(ctx, "sess-1", "user-1")
	require.NoError(t, err)

	// Remove the row underneath; a cache hit must still serve the session
	_, err = store.Store.(*SQLiteStore).db.Exec(`DELETE FROM sessions WHERE session_id = ?`, session.SessionID)
	require.NoError(t, err)

	loaded, err := store.Get(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.SessionID, loaded.SessionID)
}

func TestCachedStore_GetOrCreateServedFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	counting := &countingStore{Store: newTestStore(t)}
	store := NewCachedStore(counting, rdb, 30*time.Minute, &cacheTestLogger{t: t})
	ctx := context.Background()

	// First turn creates the session and primes the cache
	session, err := store.GetOrCreate(ctx, "sess-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, counting.getOrCreateCalls)

	// Repeat turns on a hot session must not reach SQLite
	for i := 0; i < 5; i++ {
		again, err := store.GetOrCreate(ctx, "sess-1", "user-1")
		require.NoError(t, err)
		assert.Equal(t, session.SessionID, again.SessionID)
	}
	assert.Equal(t, 1, counting.getOrCreateCalls)

	// A cold session still falls through and gets created
	mr.FlushAll()
	_, err = store.GetOrCreate(ctx, "sess-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, counting.getOrCreateCalls)
}

func TestCachedStore_GetOrCreateEmptyIDSkipsCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	counting := &countingStore{Store: newTestStore(t)}
	store := NewCachedStore(counting, rdb, 30*time.Minute, &cacheTestLogger{t: t})
	ctx := context.Background()

	first, err := store.GetOrCreate(ctx, "", "user-1")
	require.NoError(t, err)

	second, err := store.GetOrCreate(ctx, "", "user-1")
	require.NoError(t, err)

	// Each empty id is a fresh session, never a cache hit
	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, 2, counting.getOrCreateCalls)
}

func TestCachedStore_MissFallsThrough(t *testing.T) {
	store, mr := newCachedStore(t)
	ctx := context.Background()

	session, err := store.GetOrCreate(ctx, "sess-1", "user-1")
	require.NoError(t, err)

	mr.FlushAll()

	loaded, err := store.Get(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.SessionID, loaded.SessionID)

	// Miss repopulates the cache
	assert.True(t, mr.Exists(cacheKey(session.SessionID)))
}

func TestCachedStore_RedisDownIsNonFatal(t *testing.T) {
	store, mr := newCachedStore(t)
	ctx := context.Background()

	mr.Close()

	session, err := store.GetOrCreate(ctx, "sess-1", "user-1")
	require.NoError(t, err)

	require.NoError(t, store.SaveState(ctx, session.SessionID, models.State{"step": "offered"}))

	loaded, err := store.Get(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "offered", loaded.State["step"])
}

func TestCachedStore_CorruptEntryFallsThrough(t *testing.T) {
	store, mr := newCachedStore(t)
	ctx := context.Background()

	session, err := store.GetOrCreate(ctx, "sess-1", "user-1")
	require.NoError(t, err)

	require.NoError(t, mr.Set(cacheKey(session.SessionID), "not json"))

	loaded, err := store.Get(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.SessionID, loaded.SessionID)
}
