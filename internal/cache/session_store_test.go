package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/quiz"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisSessionStore(t *testing.T) (SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisSessionStore(client, time.Hour, testLogger()), mr
}

// touch rewrites the session through a second connection so a watching
// transaction fails.
func touch(t *testing.T, ctx context.Context, other *redis.Client, id string) {
	t.Helper()
	payload, err := other.Get(ctx, SessionKey(id)).Bytes()
	require.NoError(t, err)
	require.NoError(t, other.Set(ctx, SessionKey(id), payload, time.Hour).Err())
}

func TestRedisSessionStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisSessionStore(t)
	session := &StoredSession{ID: "abc", OwnerID: "u1", Email: "dana@example.com", Snapshot: quiz.Snapshot{State: quiz.StateViewing}}

	require.NoError(t, store.Create(ctx, session))
	assert.ErrorIs(t, store.Create(ctx, session), ErrSessionConflict)
	assert.Equal(t, time.Hour, mr.TTL(SessionKey("abc")))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", got.Email)
	assert.Equal(t, quiz.StateViewing, got.Snapshot.State)

	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "abc"), ErrSessionNotFound)
	_, err = store.Update(ctx, "abc", func(*StoredSession) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionStore_UpdateRetriesAfterConcurrentWrite(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisSessionStore(t)
	other := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer other.Close()
	require.NoError(t, store.Create(ctx, &StoredSession{ID: "abc", OwnerID: "u1"}))

	calls := 0
	updated, err := store.Update(ctx, "abc", func(s *StoredSession) error {
		calls++
		if calls <= 2 {
			touch(t, ctx, other, "abc")
		}
		s.UserName = "Dana"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "Dana", updated.UserName)

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Dana", got.UserName)
	assert.Equal(t, time.Hour, mr.TTL(SessionKey("abc")))
}

func TestRedisSessionStore_UpdateGivesUp(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisSessionStore(t)
	other := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer other.Close()
	require.NoError(t, store.Create(ctx, &StoredSession{ID: "abc", OwnerID: "u1"}))

	calls := 0
	_, err := store.Update(ctx, "abc", func(s *StoredSession) error {
		calls++
		touch(t, ctx, other, "abc")
		s.UserName = "lost"
		return nil
	})
	assert.ErrorIs(t, err, ErrSessionConflict)
	assert.Equal(t, maxUpdateRetries, calls)

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, got.UserName)
}

func TestRedisSessionStore_UpdateErrorIsNotRetried(t *testing.T) {
	ctx := context.Background()
	store, _ := setupRedisSessionStore(t)
	require.NoError(t, store.Create(ctx, &StoredSession{ID: "abc", OwnerID: "u1", UserName: "Dana"}))

	failing := errors.New("rejected")
	calls := 0
	_, err := store.Update(ctx, "abc", func(s *StoredSession) error {
		calls++
		s.UserName = "changed"
		return failing
	})
	assert.ErrorIs(t, err, failing)
	assert.Equal(t, 1, calls)

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Dana", got.UserName)
}
