package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseFlashStore(t *testing.T, store FlashStore) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "s1", Notice{Level: LevelSuccess, Message: "Quiz added!"}))
	require.NoError(t, store.Add(ctx, "s1", Notice{Level: LevelInfo, Message: "second"}))
	require.NoError(t, store.Add(ctx, "s2", Notice{Level: LevelError, Message: "other session"}))

	notices, err := store.Pop(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []Notice{
		{Level: LevelSuccess, Message: "Quiz added!"},
		{Level: LevelInfo, Message: "second"},
	}, notices)

	notices, err = store.Pop(ctx, "s1")
	require.NoError(t, err)
	assert.NotNil(t, notices)
	assert.Empty(t, notices, "notices are shown once")

	notices, err = store.Pop(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, notices, 1)
}

func TestMemoryFlashStore(t *testing.T) {
	exerciseFlashStore(t, NewMemoryFlashStore())
}

func TestMemoryFlashStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryFlashStore()
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	for i := 0; i < 100; i++ {
		require.NoError(t, store.Add(ctx, fmt.Sprintf("abandoned-%d", i), Notice{Level: LevelInfo, Message: "never read"}))
	}
	require.NoError(t, store.Add(ctx, "late", Notice{Level: LevelInfo, Message: "kept"}))
	assert.Len(t, store.sessions, 101)

	clock = clock.Add(59 * time.Minute)
	require.NoError(t, store.Add(ctx, "late", Notice{Level: LevelInfo, Message: "kept too"}))

	clock = clock.Add(2 * time.Minute)
	require.NoError(t, store.Add(ctx, "fresh", Notice{Level: LevelSuccess, Message: "new"}))
	assert.Len(t, store.sessions, 2, "expired sessions are swept")

	notices, err := store.Pop(ctx, "abandoned-0")
	require.NoError(t, err)
	assert.Empty(t, notices)

	notices, err = store.Pop(ctx, "late")
	require.NoError(t, err)
	assert.Len(t, notices, 2)

	clock = clock.Add(time.Hour)
	notices, err = store.Pop(ctx, "fresh")
	require.NoError(t, err)
	assert.Empty(t, notices, "expired notices are not shown")
}

func newRedisFlashStore(t *testing.T) (*RedisFlashStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisFlashStore(client, time.Hour), mr
}

func TestRedisFlashStore(t *testing.T) {
	store, _ := newRedisFlashStore(t)
	exerciseFlashStore(t, store)
}

func TestRedisFlashStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisFlashStore(t)

	require.NoError(t, store.Add(ctx, "s1", Notice{Level: LevelSuccess, Message: "Quiz added!"}))
	assert.Equal(t, time.Hour, mr.TTL(flashKey("s1")))

	_, err := store.Pop(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, mr.Exists(flashKey("s1")), "pop deletes the list")

	require.NoError(t, store.Add(ctx, "s2", Notice{Level: LevelInfo, Message: "stale"}))
	mr.FastForward(2 * time.Hour)
	notices, err := store.Pop(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, notices)
}

func TestRedisFlashStore_Unavailable(t *testing.T) {
	store, mr := newRedisFlashStore(t)
	mr.Close()

	assert.Error(t, store.Add(context.Background(), "s1", Notice{Level: LevelInfo, Message: "lost"}))
	_, err := store.Pop(context.Background(), "s1")
	assert.Error(t, err)
}
