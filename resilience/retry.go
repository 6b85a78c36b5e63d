package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryConfig defines configuration for the Retry helper
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt
	MaxRetries int

	// InitialBackoff is the delay before the first retry
	InitialBackoff time.Duration

	// MaxBackoff caps the delay between retries
	MaxBackoff time.Duration

	// BackoffMultiplier is the factor applied to the delay after each attempt
	BackoffMultiplier float64

	// Jitter randomizes the delay slightly to avoid thundering herds
	Jitter bool

	// RetryableErrors decides whether an error is worth retrying
	RetryableErrors func(error) bool
}

// DefaultRetryConfig returns a default configuration: 4 retries starting at
// 100ms, doubling, capped at 2 seconds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        4,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        2 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
		RetryableErrors:   DefaultRetryableErrors,
	}
}

// DefaultRetryableErrors treats every error as retryable except nil and
// context cancellation/expiry.
func DefaultRetryableErrors(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// RetryStats reports what happened during a RetryWithStats call
type RetryStats struct {
	TotalAttempts   int
	SuccessfulCalls int
	TotalRetries    int
	AverageBackoff  time.Duration
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	backoff := float64(config.InitialBackoff) * math.Pow(config.BackoffMultiplier, float64(attempt))
	if backoff > float64(config.MaxBackoff) {
		backoff = float64(config.MaxBackoff)
	}
	if config.Jitter {
		// randomize within [90%, 120%) of the computed delay
		backoff = backoff * (0.9 + rand.Float64()*0.3)
	}
	return time.Duration(backoff)
}

// Retry runs fn until it succeeds, a non-retryable error occurs, the retry
// budget is exhausted, or the context is done. The last error is returned.
func Retry(ctx context.Context, config RetryConfig, fn func() error) error {
	_, err := RetryWithStats(ctx, config, fn)
	return err
}

// RetryWithStats is Retry plus counters for observability.
func RetryWithStats(ctx context.Context, config RetryConfig, fn func() error) (RetryStats, error) {
	var stats RetryStats
	var totalBackoff time.Duration

	retryable := config.RetryableErrors
	if retryable == nil {
		retryable = DefaultRetryableErrors
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return stats, lastErr
			}
			return stats, err
		}

		stats.TotalAttempts++
		lastErr = fn()
		if lastErr == nil {
			stats.SuccessfulCalls++
			if stats.TotalRetries > 0 {
				stats.AverageBackoff = totalBackoff / time.Duration(stats.TotalRetries)
			}
			return stats, nil
		}

		if !retryable(lastErr) || attempt >= config.MaxRetries {
			if stats.TotalRetries > 0 {
				stats.AverageBackoff = totalBackoff / time.Duration(stats.TotalRetries)
			}
			return stats, lastErr
		}

		delay := calculateBackoff(attempt, config)
		totalBackoff += delay
		stats.TotalRetries++

		select {
		case <-ctx.Done():
			return stats, lastErr
		case <-time.After(delay):
		}
	}
}

// ExponentialBackoff is a convenience wrapper around Retry using the default
// doubling policy with the given initial delay.
func ExponentialBackoff(ctx context.Context, maxRetries int, initial time.Duration, fn func() error) error {
	return Retry(ctx, RetryConfig{
		MaxRetries:        maxRetries,
		InitialBackoff:    initial,
		MaxBackoff:        2 * time.Second,
		BackoffMultiplier: 2.0,
		RetryableErrors:   DefaultRetryableErrors,
	}, fn)
}
