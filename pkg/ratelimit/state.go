// Package ratelimit tracks the API request quota announced in response
// headers and gates requests when the quota runs out.
// It reads the X-RateLimit-Remaining and X-RateLimit-Reset headers so the
// client waits for the window reset instead of burning requests on 429s.
package ratelimit

import (
	"time"
)

// Redis keys for quota state storage.
const (
	RedisKeyRemaining      = "cms:rate_limit:remaining"
	RedisKeyLimit          = "cms:rate_limit:limit"
	RedisKeyResetTimestamp = "cms:rate_limit:reset_timestamp"
	RedisKeyLastUpdate     = "cms:rate_limit:last_update"
)

// Thresholds for quota decisions.
const (
	// ThresholdCritical blocks requests when remaining falls below this value
	// and the window has not reset yet.
	ThresholdCritical = 1

	// ThresholdWarning applies throttling when remaining falls below this value.
	ThresholdWarning = 10
)

// State represents the current request quota.
// With a Redis store this state is shared across all client instances.
type State struct {
	// Remaining is the number of requests left in the current window.
	// Extracted from the X-RateLimit-Remaining header.
	Remaining int `json:"remaining"`

	// Limit is the window size, if the API announces it (X-RateLimit-Limit).
	Limit int `json:"limit,omitempty"`

	// ResetAt is when the quota window resets.
	// Calculated from the X-RateLimit-Reset header (seconds until reset).
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last updated.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= ThresholdWarning.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state is older than maxAge.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsBlock returns true if requests must wait for the window reset.
func (s *State) NeedsBlock() bool {
	return s.Remaining < ThresholdCritical && s.TimeUntilReset() > 0
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *State) NeedsThrottling() bool {
	return s.Remaining < ThresholdWarning && !s.NeedsBlock() && s.TimeUntilReset() > 0
}

// TimeUntilReset returns the duration until the quota resets.
// Returns 0 if the reset time has already passed.
func (s *State) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates IsHealthy based on Remaining.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.Remaining >= ThresholdWarning
}
