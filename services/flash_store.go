package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelError   = "error"
)

// Notice is a one-shot message shown on the next page a session renders.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type FlashStore interface {
	Add(ctx context.Context, session string, notice Notice) error
	// Pop returns the pending notices of the session and forgets them.
	Pop(ctx context.Context, session string) ([]Notice, error)
}

type RedisFlashStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisFlashStore(client *redis.Client, ttl time.Duration) *RedisFlashStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisFlashStore{client: client, ttl: ttl}
}

func flashKey(session string) string {
	return "flash:" + session
}

func (s *RedisFlashStore) Add(ctx context.Context, session string, notice Notice) error {
	data, err := json.Marshal(notice)
	if err != nil {
		return err
	}
	key := flashKey(session)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store notice: %w", err)
	}
	return nil
}

func (s *RedisFlashStore) Pop(ctx context.Context, session string) ([]Notice, error) {
	key := flashKey(session)
	pipe := s.client.TxPipeline()
	items := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("pop notices: %w", err)
	}

	notices := make([]Notice, 0, len(items.Val()))
	for _, raw := range items.Val() {
		var n Notice
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			continue
		}
		notices = append(notices, n)
	}
	return notices, nil
}

// MemoryFlashStore keeps notices in process memory. Like the redis store,
// a session's notices expire an hour after the last one was added; expired
// sessions are swept at most once a minute, on Add.
type MemoryFlashStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
	sessions  map[string]*memorySession
}

type memorySession struct {
	notices []Notice
	expires time.Time
}

const memorySweepInterval = time.Minute

func NewMemoryFlashStore() *MemoryFlashStore {
	return &MemoryFlashStore{ttl: time.Hour, now: time.Now, sessions: make(map[string]*memorySession)}
}

func (s *MemoryFlashStore) Add(_ context.Context, session string, notice Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if now.Sub(s.lastSweep) >= memorySweepInterval {
		s.sweep(now)
	}
	entry, ok := s.sessions[session]
	if !ok {
		entry = &memorySession{}
		s.sessions[session] = entry
	}
	entry.notices = append(entry.notices, notice)
	entry.expires = now.Add(s.ttl)
	return nil
}

func (s *MemoryFlashStore) Pop(_ context.Context, session string) ([]Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[session]
	delete(s.sessions, session)
	if !ok || !s.now().Before(entry.expires) {
		return []Notice{}, nil
	}
	return entry.notices, nil
}

// sweep must be called with the mutex held.
func (s *MemoryFlashStore) sweep(now time.Time) {
	for id, entry := range s.sessions {
		if !now.Before(entry.expires) {
			delete(s.sessions, id)
		}
	}
	s.lastSweep = now
}
