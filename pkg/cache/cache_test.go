package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestCache_SetAndGet(t *testing.T) {
	c := New()

	tests := []struct {
		name  string
		key   string
		value any
	}{
		{name: "string value", key: "cms:a", value: "hello"},
		{name: "int value", key: "cms:b", value: 42},
		{name: "struct pointer", key: "cms:c", value: &struct{ ID string }{ID: "x"}},
		{name: "slice value", key: "cms:d", value: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.Set(tt.key, tt.value, 5*time.Minute)

			got, ok := c.Get(tt.key)
			if !ok {
				t.Fatalf("Get(%q) reported miss", tt.key)
			}
			if tt.name == "slice value" {
				if len(got.([]string)) != 2 {
					t.Errorf("Get(%q) = %v, want %v", tt.key, got, tt.value)
				}
				return
			}
			if got != tt.value {
				t.Errorf("Get(%q) = %v, want %v", tt.key, got, tt.value)
			}
		})
	}
}

func TestCache_Get_Miss(t *testing.T) {
	c := New()

	if _, ok := c.Get("cms:missing"); ok {
		t.Error("Get on empty cache should report miss")
	}
}

func TestCache_Set_Overwrites(t *testing.T) {
	c := New()

	c.Set("cms:key", "first", time.Minute)
	c.Set("cms:key", "second", time.Minute)

	got, ok := c.Get("cms:key")
	if !ok || got != "second" {
		t.Errorf("Get() = %v, %v, want second, true", got, ok)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New()

	// 0.0001 minutes = 6ms
	ttl := time.Duration(0.0001 * float64(time.Minute))
	c.Set("cms:short", "value", ttl)

	if c.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", c.Size())
	}

	time.Sleep(ttl + 20*time.Millisecond)

	if _, ok := c.Get("cms:short"); ok {
		t.Error("Get() returned an expired entry")
	}
	if c.Size() != 0 {
		t.Errorf("Size() after Get = %d, want 0 (expired entry evicted)", c.Size())
	}
}

func TestCache_Expiry_FakeClock(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))

	c.Set("cms:key", "value", time.Minute)

	clock.Advance(time.Minute)
	if _, ok := c.Get("cms:key"); !ok {
		t.Error("entry should still be valid exactly at its expiry time")
	}

	clock.Advance(time.Nanosecond)
	if _, ok := c.Get("cms:key"); ok {
		t.Error("entry should be expired one nanosecond after its expiry time")
	}
}

func TestCache_NonPositiveTTL(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))

	c.Set("cms:zero", "value", 0)
	c.Set("cms:negative", "value", -time.Minute)

	clock.Advance(time.Nanosecond)

	if _, ok := c.Get("cms:zero"); ok {
		t.Error("zero TTL entry should be expired")
	}
	if _, ok := c.Get("cms:negative"); ok {
		t.Error("negative TTL entry should be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := New()
	c.Set("cms:key", "value", time.Minute)

	if !c.Delete("cms:key") {
		t.Error("Delete() = false, want true for existing key")
	}
	if c.Delete("cms:key") {
		t.Error("Delete() = true, want false for removed key")
	}
	if _, ok := c.Get("cms:key"); ok {
		t.Error("Get() after Delete should miss")
	}
}

func TestCache_DeletePrefix(t *testing.T) {
	c := New()
	c.Set(BuildKey("content.list", nil), 1, time.Minute)
	c.Set(BuildKey("content.list", map[string]any{"page": 2}), 2, time.Minute)
	c.Set(BuildKey("content.get", map[string]any{"id": "a"}), 3, time.Minute)
	c.Set(BuildKey("people.list", nil), 4, time.Minute)

	removed := c.DeletePrefix(Prefix("content."))
	if removed != 3 {
		t.Errorf("DeletePrefix() = %d, want 3", removed)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
	if _, ok := c.Get(BuildKey("people.list", nil)); !ok {
		t.Error("unrelated key should survive prefix invalidation")
	}
}

func TestCache_Clear(t *testing.T) {
	c := New()
	for _, key := range []string{"cms:a", "cms:b", "cms:c"} {
		c.Set(key, key, time.Minute)
	}

	c.Clear()

	if c.Size() != 0 {
		t.Errorf("Size() after Clear = %d, want 0", c.Size())
	}
}

func TestCache_Prune(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))

	c.Set("cms:short", 1, time.Second)
	c.Set("cms:long", 2, time.Hour)

	clock.Advance(time.Minute)

	if removed := c.Prune(); removed != 1 {
		t.Errorf("Prune() = %d, want 1", removed)
	}
	if _, ok := c.Entry("cms:long"); !ok {
		t.Error("unexpired entry should survive Prune")
	}
}

func TestCache_Entry_DoesNotEvict(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))
	c.Set("cms:key", "value", time.Second)

	clock.Advance(time.Minute)

	entry, ok := c.Entry("cms:key")
	if !ok {
		t.Fatal("Entry() should return expired entries")
	}
	if !entry.IsExpired(clock.Now()) {
		t.Error("entry should be expired")
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestCache_GetOrLoad(t *testing.T) {
	c := New()
	ctx := context.Background()

	loads := 0
	load := func(ctx context.Context) (any, error) {
		loads++
		return "loaded", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad(ctx, "cms:key", time.Minute, load)
		if err != nil {
			t.Fatalf("GetOrLoad() error = %v", err)
		}
		if v != "loaded" {
			t.Errorf("GetOrLoad() = %v, want loaded", v)
		}
	}

	if loads != 1 {
		t.Errorf("load called %d times, want 1", loads)
	}
}

func TestCache_GetOrLoad_Error(t *testing.T) {
	c := New()
	loadErr := errors.New("backend down")

	_, err := c.GetOrLoad(context.Background(), "cms:key", time.Minute, func(ctx context.Context) (any, error) {
		return nil, loadErr
	})
	if !errors.Is(err, loadErr) {
		t.Errorf("GetOrLoad() error = %v, want %v", err, loadErr)
	}
	if c.Size() != 0 {
		t.Errorf("failed load must not be cached, Size() = %d", c.Size())
	}
}

func TestCache_GetOrLoad_Concurrent(t *testing.T) {
	c := New()
	ctx := context.Background()

	var loads atomic.Int32
	release := make(chan struct{})
	load := func(ctx context.Context) (any, error) {
		loads.Add(1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrLoad(ctx, "cms:key", time.Minute, load)
			if err != nil {
				t.Errorf("GetOrLoad() error = %v", err)
			}
			results[i] = v
		}(i)
	}

	// Give the goroutines time to join the in-flight load.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := loads.Load(); n != 1 {
		t.Errorf("load called %d times, want 1", n)
	}
	for i, v := range results {
		if v != "shared" {
			t.Errorf("result[%d] = %v, want shared", i, v)
		}
	}
}

func TestCache_GetOrLoad_CallerCancelDoesNotFailOthers(t *testing.T) {
	c := New()

	started := make(chan struct{})
	release := make(chan struct{})
	var loads atomic.Int32
	load := func(ctx context.Context) (any, error) {
		if loads.Add(1) == 1 {
			close(started)
		}
		select {
		case <-release:
			return "shared", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.GetOrLoad(ctxA, "cms:key", time.Minute, load)
		errA <- err
	}()
	<-started

	type result struct {
		value any
		err   error
	}
	resB := make(chan result, 1)
	go func() {
		v, err := c.GetOrLoad(context.Background(), "cms:key", time.Minute, load)
		resB <- result{v, err}
	}()

	// Let B join the in-flight load before A gives up.
	time.Sleep(20 * time.Millisecond)
	cancelA()

	select {
	case err := <-errA:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("caller A error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("caller A kept waiting after its context was cancelled")
	}

	close(release)
	r := <-resB
	if r.err != nil {
		t.Fatalf("caller B error = %v, want nil", r.err)
	}
	if r.value != "shared" {
		t.Errorf("caller B value = %v, want shared", r.value)
	}
	if n := loads.Load(); n != 1 {
		t.Errorf("load called %d times, want 1", n)
	}
	if v, ok := c.Get("cms:key"); !ok || v != "shared" {
		t.Errorf("Get() = %v, %v, want shared, true", v, ok)
	}
}

func TestCache_GetOrLoad_LoadTimeout(t *testing.T) {
	c := New(WithLoadTimeout(20 * time.Millisecond))

	_, err := c.GetOrLoad(context.Background(), "cms:key", time.Minute, func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("GetOrLoad() error = %v, want context.DeadlineExceeded", err)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestCache_GetOrLoad_KeepsContextValues(t *testing.T) {
	type ctxKey struct{}
	c := New()
	ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")

	v, err := c.GetOrLoad(ctx, "cms:key", time.Minute, func(ctx context.Context) (any, error) {
		return ctx.Value(ctxKey{}), nil
	})
	if err != nil {
		t.Fatalf("GetOrLoad() error = %v", err)
	}
	if v != "req-1" {
		t.Errorf("GetOrLoad() = %v, want req-1", v)
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := BuildKey("concurrent", map[string]any{"n": i % 5})
			c.Set(key, i, time.Minute)
			c.Get(key)
			if i%7 == 0 {
				c.Delete(key)
			}
		}(i)
	}
	wg.Wait()

	if c.Size() > 5 {
		t.Errorf("Size() = %d, want at most 5", c.Size())
	}
}

func TestDefault(t *testing.T) {
	if Default() != Default() {
		t.Error("Default() should return the same instance")
	}
}
