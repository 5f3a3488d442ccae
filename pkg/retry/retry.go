// Package retry provides exponential backoff for backend adapter calls.
// Callers above the adapters (the query orchestrator) never retry; a failure
// that survives the adapter's policy is surfaced to the request.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "query_retries_total",
		Help: "Total number of backend retry attempts by operation",
	}, []string{"operation"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "query_retry_backoff_seconds",
		Help:    "Backoff duration before a backend retry by operation",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
	}, []string{"operation"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "query_retry_exhausted_total",
		Help: "Total number of backend operations that exhausted their retry attempts",
	}, []string{"operation"})
)

// ErrExhausted is returned when all attempts failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Config holds the configuration for retry logic.
type Config struct {
	// MaxAttempts is the maximum number of attempts (including the first one).
	// Values below 1 are treated as 1.
	MaxAttempts int

	// InitialBackoff is the wait before the second attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential growth.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultConfig returns a short backoff suitable for cache and database calls
// that sit on a request path.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       3,
		InitialBackoff:    50 * time.Millisecond,
		MaxBackoff:        500 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

// NoRetry returns a configuration that performs exactly one attempt.
func NoRetry() Config {
	return Config{MaxAttempts: 1}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs fn until it succeeds, returns a permanent error, the context ends,
// or the attempts are used up. Context cancellation and deadline errors are
// never retried.
func Do(ctx context.Context, cfg Config, operation string, fn func(ctx context.Context) error) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	multiplier := cfg.BackoffMultiplier
	if multiplier < 1 {
		multiplier = 1
	}

	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				log.Debug().
					Str("operation", operation).
					Int("attempt", attempt).
					Msg("Backend call succeeded after retry")
			}
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return err
		}

		lastErr = err
		if attempt >= attempts {
			break
		}

		retriesTotal.WithLabelValues(operation).Inc()

		// ±20% jitter
		wait := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		retryBackoffSeconds.WithLabelValues(operation).Observe(wait.Seconds())

		log.Warn().
			Err(err).
			Str("operation", operation).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Retrying backend call")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: %w", operation, ctx.Err())
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * multiplier)
		if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	if attempts == 1 {
		return lastErr
	}

	retryExhaustedTotal.WithLabelValues(operation).Inc()
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, lastErr)
}
