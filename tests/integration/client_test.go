//go:build integration

package integration

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/cms-client/internal/testutil"
	"github.com/Sternrassler/cms-client/pkg/cache"
	"github.com/Sternrassler/cms-client/pkg/client"
	"github.com/Sternrassler/cms-client/pkg/cms"
	"github.com/Sternrassler/cms-client/pkg/pagination"
	"github.com/Sternrassler/cms-client/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
)

// newCMS creates a CMS client against mock that shares quota state through rdb
// and, when shared is non-nil, its read cache.
func newCMS(t *testing.T, mock *testutil.MockAPI, rdb *redis.Client, shared *cache.Cache) *cms.Client {
	t.Helper()

	cfg := cms.DefaultConfig(mock.URL())
	cfg.Client.Redis = rdb
	cfg.Client.Retries = 2
	cfg.Client.RetryDelay = time.Millisecond
	cfg.Client.MaxBackoff = 5 * time.Millisecond
	cfg.Client.RateLimit = ratelimit.Config{MaxWait: 10 * time.Millisecond}
	cfg.Cache = shared

	c, err := cms.New(cfg)
	if err != nil {
		t.Fatalf("cms.New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func contentPage(ids ...string) []map[string]string {
	items := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		items = append(items, map[string]string{"id": id, "title": "Item " + id})
	}
	return items
}

// TestFullRequestFlow covers quota check → cache miss → API → cache store → cache hit.
func TestFullRequestFlow(t *testing.T) {
	rdb := testutil.StartRedis(t)
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetResponse("GET /content", testutil.NewListResponse(contentPage("c1", "c2"), 2, 10, 0))

	c := newCMS(t, mock, rdb, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		page, err := c.Content.List(ctx, cms.ContentFilter{}, pagination.Request{})
		if err != nil {
			t.Fatalf("List() #%d error = %v", i+1, err)
		}
		if len(page.Data) != 2 {
			t.Errorf("List() #%d returned %d items, want 2", i+1, len(page.Data))
		}
	}

	if got := mock.PathCount("/content"); got != 1 {
		t.Errorf("upstream calls = %d, want 1 (second read cached)", got)
	}

	state, err := c.API().RateLimiter().GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Remaining != 1000 {
		t.Errorf("Remaining = %d, want 1000", state.Remaining)
	}

	remaining, err := rdb.Get(ctx, ratelimit.RedisKeyRemaining).Int()
	if err != nil {
		t.Fatalf("redis GET %s error = %v", ratelimit.RedisKeyRemaining, err)
	}
	if remaining != 1000 {
		t.Errorf("redis remaining = %d, want 1000", remaining)
	}
}

// TestSharedCacheAcrossClients verifies that clients sharing a cache see each
// other's reads and invalidations.
func TestSharedCacheAcrossClients(t *testing.T) {
	rdb := testutil.StartRedis(t)
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetResponse("GET /content", testutil.NewListResponse(contentPage("c1"), 1, 10, 0))
	mock.SetResponse("POST /content", testutil.NewJSONResponse(map[string]any{
		"data": map[string]string{"id": "c2", "title": "New"},
	}))

	shared := cache.New()
	writer := newCMS(t, mock, rdb, shared)
	reader := newCMS(t, mock, rdb, shared)
	ctx := context.Background()

	if _, err := writer.Content.List(ctx, cms.ContentFilter{}, pagination.Request{}); err != nil {
		t.Fatalf("writer List() error = %v", err)
	}
	if _, err := reader.Content.List(ctx, cms.ContentFilter{}, pagination.Request{}); err != nil {
		t.Fatalf("reader List() error = %v", err)
	}
	if got := mock.PathCount("/content"); got != 1 {
		t.Fatalf("upstream calls after shared read = %d, want 1", got)
	}

	if _, err := writer.Content.Create(ctx, cms.ContentInput{Title: "New"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := reader.Content.List(ctx, cms.ContentFilter{}, pagination.Request{}); err != nil {
		t.Fatalf("reader List() after create error = %v", err)
	}

	// list, create, list again
	if got := mock.PathCount("/content"); got != 3 {
		t.Errorf("upstream calls = %d, want 3", got)
	}
}

// TestQuotaSharedAcrossClients verifies that an exhausted quota observed by one
// client blocks the other without any request reaching the API.
func TestQuotaSharedAcrossClients(t *testing.T) {
	rdb := testutil.StartRedis(t)
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetResponse("GET /locations", testutil.NewQuotaExhaustedResponse(3600))

	first := newCMS(t, mock, rdb, nil)
	second := newCMS(t, mock, rdb, nil)
	ctx := context.Background()

	if _, err := first.Locations.List(ctx, pagination.Request{}); err != nil {
		t.Fatalf("first List() error = %v", err)
	}

	_, err := second.People.Get(ctx, "p1")
	if client.CodeOf(err) != client.CodeRateLimited {
		t.Errorf("CodeOf(err) = %s, want %s (err = %v)", client.CodeOf(err), client.CodeRateLimited, err)
	}
	if !errors.Is(err, ratelimit.ErrQuotaExhausted) {
		t.Errorf("error = %v, want ErrQuotaExhausted in chain", err)
	}
	if got := mock.RequestCount(); got != 1 {
		t.Errorf("RequestCount = %d, want 1", got)
	}
}

// TestRetryRecovers verifies transient failures are retried transparently.
func TestRetryRecovers(t *testing.T) {
	rdb := testutil.StartRedis(t)
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetSequence("GET /people/p1",
		testutil.NewServerErrorResponse(),
		testutil.NewRateLimitResponse(),
		testutil.NewJSONResponse(map[string]any{"data": map[string]any{"id": "p1", "firstName": "Ada"}}),
	)

	c := newCMS(t, mock, rdb, nil)

	person, err := c.People.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if person.FirstName != "Ada" {
		t.Errorf("FirstName = %q, want Ada", person.FirstName)
	}
	if got := mock.PathCount("/people/p1"); got != 3 {
		t.Errorf("upstream calls = %d, want 3", got)
	}
}

// TestRetryExhausted verifies the final error keeps the upstream status.
func TestRetryExhausted(t *testing.T) {
	rdb := testutil.StartRedis(t)
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetResponse("GET /files/f1", testutil.NewErrorResponse(http.StatusBadGateway, "storage offline"))

	c := newCMS(t, mock, rdb, nil)

	_, err := c.Files.Get(context.Background(), "f1")
	if !errors.Is(err, client.ErrRetryExhausted) {
		t.Fatalf("error = %v, want ErrRetryExhausted", err)
	}
	if got := client.StatusCode(err); got != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", got)
	}
	if got := mock.PathCount("/files/f1"); got != 3 {
		t.Errorf("upstream calls = %d, want 3", got)
	}
}

// TestFetchAllConcurrentPages walks a multi-page listing with a Redis-backed quota.
func TestFetchAllConcurrentPages(t *testing.T) {
	rdb := testutil.StartRedis(t)
	mock := testutil.NewMockAPI()
	defer mock.Close()

	var mu sync.Mutex
	offsets := map[string]int{}
	mock.SetHandler("GET /content", func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		mu.Lock()
		offsets[offset]++
		mu.Unlock()

		var resp testutil.MockResponse
		switch offset {
		case "0":
			resp = testutil.NewListResponse(contentPage("a", "b"), 5, 2, 0)
		case "2":
			resp = testutil.NewListResponse(contentPage("c", "d"), 5, 2, 2)
		default:
			resp = testutil.NewListResponse(contentPage("e"), 5, 2, 4)
		}
		testutil.Serve(w, r, resp)
	})

	c := newCMS(t, mock, rdb, nil)
	cfg := pagination.DefaultConfig()
	cfg.PageSize = 2

	items, err := c.Content.FetchAll(context.Background(), cms.ContentFilter{Status: cms.StatusPublished}, cfg)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(items) != 5 {
		t.Errorf("FetchAll() returned %d items, want 5", len(items))
	}

	mu.Lock()
	defer mu.Unlock()
	for _, offset := range []string{"0", "2", "4"} {
		if offsets[offset] != 1 {
			t.Errorf("offset %s fetched %d times, want 1", offset, offsets[offset])
		}
	}
}
