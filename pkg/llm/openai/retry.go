package openai

import (
	"math"
	"time"
)

// RetryPolicy controls how requests that fail with transient HTTP status
// codes are retried with exponential backoff. The policy applies only to the
// verb the client uses (POST); all other failures propagate immediately.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Statuses     []int
}

// DefaultRetryPolicy returns a RetryPolicy with sensible defaults:
// 3 attempts, 1s initial delay, 2x multiplier, 30s max delay, retrying on
// 429, 500, 502, 503 and 504.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		Multiplier:   2.0,
		MaxDelay:     30 * time.Second,
		Statuses:     []int{429, 500, 502, 503, 504},
	}
}

// ShouldRetry returns true if the status code is retryable and the attempt
// count has not exhausted MaxAttempts.
func (p *RetryPolicy) ShouldRetry(status, attempt int) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	for _, s := range p.Statuses {
		if status == s {
			return true
		}
	}
	return false
}

// NextDelay returns the backoff delay for the given attempt number (1-indexed).
// The delay is InitialDelay * Multiplier^(attempt-1), capped at MaxDelay.
func (p *RetryPolicy) NextDelay(attempt int) time.Duration {
	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}
