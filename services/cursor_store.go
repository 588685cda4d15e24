package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const cursorKeyPrefix = "assignment:cursor:"

// RedisCursorStore keeps per-track round-robin cursors in Redis. INCRBY is
// atomic, so two submissions racing for the same track always receive
// disjoint cursor windows.
type RedisCursorStore struct {
	client *redis.Client
}

// NewRedisCursorStore wraps an existing Redis client.
func NewRedisCursorStore(client *redis.Client) *RedisCursorStore {
	return &RedisCursorStore{client: client}
}

func (s *RedisCursorStore) Advance(ctx context.Context, track string, by int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	next, err := s.client.IncrBy(ctx, cursorKeyPrefix+track, int64(by)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to advance cursor for track %s: %w", track, err)
	}
	return int(next) - by, nil
}

// MemoryCursorStore is the single-instance fallback used when Redis is not
// configured, and by tests.
type MemoryCursorStore struct {
	mu      sync.Mutex
	cursors map[string]int
}

func NewMemoryCursorStore() *MemoryCursorStore {
	return &MemoryCursorStore{cursors: make(map[string]int)}
}

func (s *MemoryCursorStore) Advance(_ context.Context, track string, by int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.cursors[track]
	s.cursors[track] = start + by
	return start, nil
}
