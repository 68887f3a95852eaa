package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for quota tracking.
var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cms_rate_limit_remaining",
		Help: "Number of requests remaining in the current API quota window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cms_rate_limit_blocks_total",
		Help: "Total number of requests rejected because the quota wait exceeded the maximum",
	})

	rateLimitWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cms_rate_limit_waits_total",
		Help: "Total number of requests that waited for a quota window reset",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cms_rate_limit_throttles_total",
		Help: "Total number of requests throttled due to a low quota",
	})
)

// Response headers carrying the quota.
const (
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderReset     = "X-RateLimit-Reset"
)

// ErrQuotaExhausted is returned by Wait when the quota window resets too late.
var ErrQuotaExhausted = errors.New("rate limit quota exhausted")

// Config holds tracker configuration.
type Config struct {
	// MaxWait is the longest Wait blocks for a window reset before failing.
	MaxWait time.Duration `yaml:"max_wait"`

	// ThrottleDelay is slept before a request while the quota is low.
	ThrottleDelay time.Duration `yaml:"throttle_delay"`
}

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{
		MaxWait:       30 * time.Second,
		ThrottleDelay: 250 * time.Millisecond,
	}
}

// Tracker monitors the API quota and gates requests.
type Tracker struct {
	store  StateStore
	config Config
	logger zerolog.Logger
}

// NewTracker creates a new quota tracker. A nil store keeps state in memory.
func NewTracker(store StateStore, cfg Config, logger zerolog.Logger) *Tracker {
	if store == nil {
		store = NewMemoryStore()
	}
	if cfg.MaxWait < 0 {
		cfg.MaxWait = 0
	}
	if cfg.ThrottleDelay < 0 {
		cfg.ThrottleDelay = 0
	}
	return &Tracker{
		store:  store,
		config: cfg,
		logger: logger,
	}
}

// GetState retrieves the current quota state.
// Returns a healthy state if nothing has been recorded yet.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	state, err := t.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rate limit state: %w", err)
	}

	if state == nil {
		t.logger.Debug().Msg("No rate limit state recorded, assuming healthy")
		return &State{
			Remaining:  ThresholdWarning,
			LastUpdate: time.Now(),
			IsHealthy:  true,
		}, nil
	}

	return state, nil
}

// UpdateFromHeaders parses the quota headers and stores the new state.
// Responses without quota headers are ignored.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetStr := headers.Get(HeaderReset)
	if resetStr == "" {
		return fmt.Errorf("%s header missing", HeaderReset)
	}

	resetSeconds, err := strconv.Atoi(resetStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderReset, err)
	}

	limit := 0
	if limitStr := headers.Get(HeaderLimit); limitStr != "" {
		if limit, err = strconv.Atoi(limitStr); err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderLimit, err)
		}
	}

	now := time.Now()
	state := &State{
		Remaining:  remain,
		Limit:      limit,
		ResetAt:    now.Add(time.Duration(resetSeconds) * time.Second),
		LastUpdate: now,
	}
	state.UpdateHealth()

	if err := t.store.Save(ctx, state); err != nil {
		return err
	}

	rateLimitRemaining.Set(float64(remain))

	switch {
	case state.NeedsBlock():
		t.logger.Warn().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("API quota exhausted - requests will wait for reset")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", remain).
			Msg("API quota low - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("API quota state updated")
	}

	return nil
}

// Wait blocks until a request may be sent.
// It waits for the window reset when the quota is exhausted, as long as
// that takes no longer than MaxWait, and sleeps ThrottleDelay while the
// quota is low. Returns ErrQuotaExhausted or the context error otherwise.
func (t *Tracker) Wait(ctx context.Context) error {
	state, err := t.GetState(ctx)
	if err != nil {
		return err
	}

	if state.NeedsBlock() {
		wait := state.TimeUntilReset()
		if wait > t.config.MaxWait {
			t.logger.Error().
				Int("remaining", state.Remaining).
				Dur("wait_duration", wait).
				Msg("API quota exhausted - blocking request")
			rateLimitBlocksTotal.Inc()
			return fmt.Errorf("%w: resets in %v", ErrQuotaExhausted, wait.Round(time.Second))
		}

		t.logger.Warn().
			Dur("wait_duration", wait).
			Msg("API quota exhausted - waiting for reset")
		rateLimitWaitsTotal.Inc()
		return sleep(ctx, wait)
	}

	if state.NeedsThrottling() && t.config.ThrottleDelay > 0 {
		t.logger.Debug().
			Int("remaining", state.Remaining).
			Msg("API quota low - throttling request")
		rateLimitThrottlesTotal.Inc()
		return sleep(ctx, t.config.ThrottleDelay)
	}

	return nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
