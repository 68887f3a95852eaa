// Package cms provides typed access to the CMS REST API.
//
// Every service is a thin caller of the request executor (pkg/client) and the
// TTL cache (pkg/cache): reads are cached under "cms:<resource>.<operation>"
// keys, mutations invalidate their resource family and sync jobs clear the
// whole cache. Cached values are shared between callers and must be treated
// as read-only.
package cms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Sternrassler/cms-client/pkg/cache"
	"github.com/Sternrassler/cms-client/pkg/client"
	"github.com/Sternrassler/cms-client/pkg/logging"
	"github.com/Sternrassler/cms-client/pkg/pagination"
	"github.com/rs/zerolog"
)

// DefaultCacheDuration is the TTL of cached reads.
const DefaultCacheDuration = 5 * time.Minute

// Config holds the CMS client configuration.
type Config struct {
	// Client configures the request executor.
	Client client.Config

	// CacheEnabled turns read caching on.
	CacheEnabled bool

	// CacheDuration is the TTL of cached reads. Zero or negative disables caching.
	CacheDuration time.Duration

	// Cache to store reads in (default: a private cache).
	Cache *cache.Cache
}

// DefaultConfig returns a default configuration for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		Client:        client.DefaultConfig(baseURL),
		CacheEnabled:  true,
		CacheDuration: DefaultCacheDuration,
	}
}

// Client is the CMS API client. Resources are exposed as services.
type Client struct {
	api    *client.Client
	cache  *cache.Cache
	config Config
	logger zerolog.Logger

	Content      *ContentService
	Publications *PublicationService
	Locations    *LocationService
	People       *PeopleService
	Deployments  *DeploymentService
	Sync         *SyncService
	AFAS         *AFASService
	TimeEntries  *TimeEntryService
	Files        *FileService
	Scheduler    *SchedulerService
}

// New creates a new CMS client.
func New(cfg Config) (*Client, error) {
	api, err := client.New(cfg.Client)
	if err != nil {
		return nil, err
	}

	c := cfg.Cache
	if c == nil {
		c = cache.New()
	}

	cms := &Client{
		api:    api,
		cache:  c,
		config: cfg,
		logger: logging.NewLogger("cms"),
	}
	cms.Content = &ContentService{cms}
	cms.Publications = &PublicationService{cms}
	cms.Locations = &LocationService{cms}
	cms.People = &PeopleService{cms}
	cms.Deployments = &DeploymentService{cms}
	cms.Sync = &SyncService{cms}
	cms.AFAS = &AFASService{cms}
	cms.TimeEntries = &TimeEntryService{cms}
	cms.Files = &FileService{cms}
	cms.Scheduler = &SchedulerService{cms}

	return cms, nil
}

// API returns the underlying request executor.
func (c *Client) API() *client.Client {
	return c.api
}

// Cache returns the read cache.
func (c *Client) Cache() *cache.Cache {
	return c.cache
}

// Close releases the client's resources.
func (c *Client) Close() error {
	return c.api.Close()
}

func (c *Client) cacheEnabled() bool {
	return c.config.CacheEnabled && c.config.CacheDuration > 0
}

// invalidate drops every cached read of the given resource families.
func (c *Client) invalidate(resources ...string) {
	for _, resource := range resources {
		n := c.cache.DeletePrefix(cache.Prefix(resource + "."))
		c.logger.Debug().
			Str("resource", resource).
			Int("entries", n).
			Msg("Invalidated cached reads")
	}
}

// invalidateAll clears the cache after operations with a broad blast radius.
func (c *Client) invalidateAll(reason string) {
	size := c.cache.Size()
	c.cache.Clear()
	c.logger.Debug().
		Str("reason", reason).
		Int("entries", size).
		Msg("Cleared cache")
}

// get performs a GET and decodes the response into out.
func (c *Client) get(ctx context.Context, operation, path string, query url.Values, out any) error {
	return c.api.DoJSON(ctx, &client.Request{
		Method:    http.MethodGet,
		Path:      path,
		Query:     query,
		Operation: operation,
	}, out)
}

// send performs a write. Idempotent writes (PUT, DELETE) may be retried.
func (c *Client) send(ctx context.Context, operation, method, path string, body, out any) error {
	return c.api.DoJSON(ctx, &client.Request{
		Method:     method,
		Path:       path,
		Body:       body,
		Operation:  operation,
		AllowRetry: method == http.MethodPut || method == http.MethodDelete,
	}, out)
}

// cached returns the cached value for key or loads and caches it.
func cached[T any](ctx context.Context, c *Client, key string, load func(ctx context.Context) (T, error)) (T, error) {
	if !c.cacheEnabled() {
		return load(ctx)
	}

	v, err := c.cache.GetOrLoad(ctx, key, c.config.CacheDuration, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		var zero T
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return zero, fmt.Errorf("%w: %w", client.ErrContextCancelled, err)
		}
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		// Key collision with a value of another type.
		c.logger.Warn().Str("key", key).Msg("Cached value has unexpected type, reloading")
		return load(ctx)
	}
	return typed, nil
}

// envelope is the API's single-resource response shape.
type envelope[T any] struct {
	Data T `json:"data"`
}

// getOne fetches and caches a single resource.
func getOne[T any](ctx context.Context, c *Client, operation, path string, params map[string]any) (*T, error) {
	key := cache.BuildKey(operation, params)
	return cached(ctx, c, key, func(ctx context.Context) (*T, error) {
		var resp envelope[T]
		if err := c.get(ctx, operation, path, nil, &resp); err != nil {
			return nil, err
		}
		return &resp.Data, nil
	})
}

// list fetches and caches one page of a list endpoint.
func list[T any](ctx context.Context, c *Client, operation, path string, filter map[string]any, page pagination.Request) (*pagination.Response[T], error) {
	n := pagination.Normalize(page)
	key := cache.BuildKey(operation, mergeParams(filter, n.Params()))

	return cached(ctx, c, key, func(ctx context.Context) (*pagination.Response[T], error) {
		query := toQuery(filter)
		for name, values := range n.Values() {
			query[name] = values
		}

		var resp pagination.Response[T]
		if err := c.get(ctx, operation, path, query, &resp); err != nil {
			return nil, err
		}
		resp.Enrich(n.Limit, page.Page)
		return &resp, nil
	})
}
