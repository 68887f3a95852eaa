package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateStore persists the quota state between requests.
type StateStore interface {
	// Load returns the last saved state, or nil if none exists.
	Load(ctx context.Context) (*State, error)

	// Save replaces the stored state.
	Save(ctx context.Context, state *State) error
}

// MemoryStore keeps the state in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	state *State
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements StateStore.
func (m *MemoryStore) Load(ctx context.Context) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, nil
	}
	state := *m.state
	return &state, nil
}

// Save implements StateStore.
func (m *MemoryStore) Save(ctx context.Context, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *state
	m.state = &copied
	return nil
}

// RedisStore shares the state between processes through Redis.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a Redis backed store.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{redis: redisClient}
}

// Load implements StateStore.
func (r *RedisStore) Load(ctx context.Context) (*State, error) {
	values, err := r.redis.MGet(ctx,
		RedisKeyRemaining,
		RedisKeyLimit,
		RedisKeyResetTimestamp,
		RedisKeyLastUpdate,
	).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	// No state yet
	if values[0] == nil {
		return nil, nil
	}

	remaining, err := parseRedisInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("parse remaining: %w", err)
	}
	limit, err := parseRedisInt(values[1])
	if err != nil {
		return nil, fmt.Errorf("parse limit: %w", err)
	}
	resetUnix, err := parseRedisInt(values[2])
	if err != nil {
		return nil, fmt.Errorf("parse reset timestamp: %w", err)
	}
	lastUpdateUnix, err := parseRedisInt(values[3])
	if err != nil {
		return nil, fmt.Errorf("parse last update: %w", err)
	}

	state := &State{
		Remaining:  int(remaining),
		Limit:      int(limit),
		ResetAt:    time.Unix(resetUnix, 0),
		LastUpdate: time.UnixMilli(lastUpdateUnix),
	}
	state.UpdateHealth()
	return state, nil
}

// Save implements StateStore.
// Keys expire shortly after the window resets so stale state disappears.
func (r *RedisStore) Save(ctx context.Context, state *State) error {
	ttl := state.TimeUntilReset() + time.Minute

	pipe := r.redis.Pipeline()
	pipe.Set(ctx, RedisKeyRemaining, state.Remaining, ttl)
	pipe.Set(ctx, RedisKeyLimit, state.Limit, ttl)
	pipe.Set(ctx, RedisKeyResetTimestamp, state.ResetAt.Unix(), ttl)
	pipe.Set(ctx, RedisKeyLastUpdate, state.LastUpdate.UnixMilli(), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}
	return nil
}

// parseRedisInt parses an MGET value; missing values parse as 0.
func parseRedisInt(v interface{}) (int64, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case string:
		return strconv.ParseInt(val, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
