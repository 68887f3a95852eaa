package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel page requests
	MaxConcurrency int
	// Timeout per page fetch
	Timeout time.Duration
	// PageSize is the limit sent with every page request
	PageSize int
	// AllowPartial returns the pages that succeeded together with an
	// aggregated error instead of failing on the first page error
	AllowPartial bool
}

// DefaultConfig returns a configuration that stays gentle on the API
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
		PageSize:       100,
	}
}

// PageFunc fetches a single page of a list endpoint.
type PageFunc[T any] func(ctx context.Context, req Request) (*Response[T], error)

// BatchFetcher handles parallel fetching of every page of a list endpoint
type BatchFetcher[T any] struct {
	fetch  PageFunc[T]
	config Config
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher[T any](fetch PageFunc[T], config Config) *BatchFetcher[T] {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.PageSize <= 0 {
		config.PageSize = 100
	}

	return &BatchFetcher[T]{
		fetch:  fetch,
		config: config,
	}
}

// FetchAll is shorthand for NewBatchFetcher(fetch, config).FetchAll(ctx).
func FetchAll[T any](ctx context.Context, fetch PageFunc[T], config Config) ([]T, error) {
	return NewBatchFetcher(fetch, config).FetchAll(ctx)
}

// FetchAll fetches all pages and returns their items in page order.
func (bf *BatchFetcher[T]) FetchAll(ctx context.Context) ([]T, error) {
	start := time.Now()
	limit := bf.config.PageSize

	// Fetch first page to get total page count
	first, err := bf.fetchPage(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first page: %w", err)
	}

	// Enrich a copy; pages may be shared with a cache.
	var meta Meta
	if first.Pagination != nil {
		meta = *first.Pagination
		Enrich(&meta, limit, 1)
	}
	if meta.TotalPages <= 1 {
		log.Debug().
			Int("items", len(first.Data)).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return first.Data, nil
	}

	totalPages := meta.TotalPages
	log.Info().
		Int("total_pages", totalPages).
		Int("page_size", limit).
		Msg("Starting parallel page fetch")

	pages := make([][]T, totalPages)
	pages[0] = first.Data

	var (
		mu     sync.Mutex
		failed *multierror.Error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bf.config.MaxConcurrency)

	for page := 2; page <= totalPages; page++ {
		page := page
		g.Go(func() error {
			resp, err := bf.fetchPage(gctx, page)
			if err != nil {
				log.Warn().
					Err(err).
					Int("page", page).
					Msg("Page fetch failed")

				err = fmt.Errorf("page %d: %w", page, err)
				if bf.config.AllowPartial {
					mu.Lock()
					failed = multierror.Append(failed, err)
					mu.Unlock()
					return nil
				}
				return err
			}
			pages[page-1] = resp.Data
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]T, 0, len(first.Data)*totalPages)
	fetched := 0
	for _, data := range pages {
		if data != nil {
			fetched++
		}
		items = append(items, data...)
	}

	if err := failed.ErrorOrNil(); err != nil {
		log.Warn().
			Int("fetched_pages", fetched).
			Int("total_pages", totalPages).
			Msg("Returning partial results")
		return items, fmt.Errorf("partial data (%d/%d pages): %w", fetched, totalPages, err)
	}

	log.Info().
		Int("pages", totalPages).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return items, nil
}

// fetchPage fetches one page bounded by the per-page timeout.
func (bf *BatchFetcher[T]) fetchPage(ctx context.Context, page int) (*Response[T], error) {
	pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()

	resp, err := bf.fetch(pageCtx, Request{Limit: bf.config.PageSize, Page: page})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return &Response[T]{}, nil
	}
	return resp, nil
}
