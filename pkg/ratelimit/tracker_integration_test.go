//go:build integration

package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Sternrassler/cms-client/internal/testutil"
	"github.com/rs/zerolog"
)

func TestIntegration_RedisStore_RoundTrip(t *testing.T) {
	client := testutil.StartRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	state, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() on empty redis error = %v", err)
	}
	if state != nil {
		t.Fatalf("Load() on empty redis = %+v, want nil", state)
	}

	saved := &State{
		Remaining:  7,
		Limit:      100,
		ResetAt:    time.Now().Add(45 * time.Second).Truncate(time.Second),
		LastUpdate: time.Now().Truncate(time.Millisecond),
	}
	if err := store.Save(ctx, saved); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Remaining != 7 || loaded.Limit != 100 {
		t.Errorf("loaded = %+v, want remaining 7 limit 100", loaded)
	}
	if !loaded.ResetAt.Equal(saved.ResetAt) {
		t.Errorf("ResetAt = %v, want %v", loaded.ResetAt, saved.ResetAt)
	}
	if !loaded.LastUpdate.Equal(saved.LastUpdate) {
		t.Errorf("LastUpdate = %v, want %v", loaded.LastUpdate, saved.LastUpdate)
	}
	if loaded.IsHealthy {
		t.Error("remaining 7 should not be healthy")
	}

	ttl, err := client.TTL(ctx, RedisKeyRemaining).Result()
	if err != nil {
		t.Fatalf("TTL() error = %v", err)
	}
	if ttl <= 0 {
		t.Errorf("TTL = %v, want keys to expire", ttl)
	}
}

func TestIntegration_SharedStateAcrossTrackers(t *testing.T) {
	client := testutil.StartRedis(t)
	ctx := context.Background()

	first := NewTracker(NewRedisStore(client), Config{MaxWait: 10 * time.Millisecond}, zerolog.Nop())
	second := NewTracker(NewRedisStore(client), Config{MaxWait: 10 * time.Millisecond}, zerolog.Nop())

	headers := http.Header{}
	headers.Set(HeaderRemaining, "0")
	headers.Set(HeaderReset, "60")
	if err := first.UpdateFromHeaders(ctx, headers); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	// The second tracker sees the quota recorded by the first.
	if err := second.Wait(ctx); err == nil {
		t.Error("second tracker should block on the shared exhausted quota")
	}
}
