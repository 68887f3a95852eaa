package client

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	cmsRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cms_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	cmsRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cms_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"error_class"})

	cmsRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cms_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// BackoffPolicy selects how the delay between attempts grows.
type BackoffPolicy string

const (
	// BackoffExponential doubles the delay after every failed attempt.
	BackoffExponential BackoffPolicy = "exponential"

	// BackoffConstant waits the same delay before every retry.
	BackoffConstant BackoffPolicy = "constant"
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// Retries is the number of additional attempts after the first one.
	Retries int

	// Delay is the wait before the first retry.
	Delay time.Duration

	// MaxBackoff caps exponential delays.
	MaxBackoff time.Duration

	// Policy is the backoff policy (default: exponential).
	Policy BackoffPolicy

	// Jitter randomizes each delay by ±Jitter (0 disables, 0.2 means ±20%).
	Jitter float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Retries:    3,
		Delay:      1 * time.Second,
		MaxBackoff: 30 * time.Second,
		Policy:     BackoffExponential,
	}
}

// MaxAttempts returns the total number of attempts including the first one.
func (rc RetryConfig) MaxAttempts() int {
	if rc.Retries < 0 {
		return 1
	}
	return rc.Retries + 1
}

// newBackOff builds the delay sequence for one logical request.
func (rc RetryConfig) newBackOff() backoff.BackOff {
	delay := rc.Delay
	if delay < 0 {
		delay = 0
	}

	if rc.Policy == BackoffConstant {
		return backoff.NewConstantBackOff(delay)
	}

	maxBackoff := rc.MaxBackoff
	if maxBackoff < delay {
		maxBackoff = delay
	}

	b := &backoff.ExponentialBackOff{
		InitialInterval:     delay,
		RandomizationFactor: rc.Jitter,
		Multiplier:          2,
		MaxInterval:         maxBackoff,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return b
}

// attemptFunc performs one attempt and reports how a failure is classified.
type attemptFunc func(attempt int) (ErrorClass, error)

// retryWithBackoff runs fn until it succeeds, fails with a non-retryable
// class or runs out of attempts. The caller's ctx ends the loop at any point,
// including during a backoff wait.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, logger zerolog.Logger, fn attemptFunc) error {
	maxAttempts := cfg.MaxAttempts()
	delays := cfg.newBackOff()

	var (
		lastErr   error
		lastClass ErrorClass
	)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		errorClass, err := fn(attempt)
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr, lastClass = err, errorClass

		// An attempt aborted by the caller is not a transient failure.
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		}

		if !shouldRetry(errorClass) {
			return lastErr
		}

		if attempt >= maxAttempts {
			break
		}

		wait := delays.NextBackOff()
		cmsRetriesTotal.WithLabelValues(string(errorClass)).Inc()
		cmsRetryBackoffSeconds.WithLabelValues(string(errorClass)).Observe(wait.Seconds())

		logger.Warn().
			Err(err).
			Str("error_class", string(errorClass)).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Retrying request after backoff")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Warn().
				Str("error_class", string(errorClass)).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}
	}

	if maxAttempts > 1 {
		cmsRetryExhaustedTotal.WithLabelValues(string(lastClass)).Inc()
		logger.Error().
			Err(lastErr).
			Str("error_class", string(lastClass)).
			Int("max_attempts", maxAttempts).
			Msg("Retry attempts exhausted")
		return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, maxAttempts, lastErr)
	}

	return lastErr
}
