package dedup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"dealscout/internal/ports"
)

const keyPrefix = "dealscout:seen:"

// RedisLedger backs the dedup set with Redis so restarts and horizontal
// scaling neither lose nor duplicate state. Entries expire after the
// retention window, which keeps the ledger bounded.
type RedisLedger struct {
	client    *redis.Client
	retention time.Duration
}

var _ ports.SeenLedger = (*RedisLedger)(nil)

// NewRedisLedger wires a Redis client; retention defaults to 30 days.
func NewRedisLedger(client *redis.Client, retention time.Duration) *RedisLedger {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &RedisLedger{client: client, retention: retention}
}

// MarkSeen sets the key if absent. SetNX makes the first-sighting check and
// the insert one atomic step.
func (l *RedisLedger) MarkSeen(ctx context.Context, key string) (bool, error) {
	first, err := l.client.SetNX(ctx, keyPrefix+key, 1, l.retention).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", key, err)
	}
	return first, nil
}

// MemoryLedger is the process-lifetime fallback used when no Redis address
// is configured, and in tests.
type MemoryLedger struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

var _ ports.SeenLedger = (*MemoryLedger)(nil)

// NewMemoryLedger builds an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{seen: map[string]struct{}{}}
}

// MarkSeen records the key, reporting whether this was its first sighting.
func (l *MemoryLedger) MarkSeen(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[key]; ok {
		return false, nil
	}
	l.seen[key] = struct{}{}
	return true, nil
}

// Len reports how many keys the ledger holds.
func (l *MemoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}
