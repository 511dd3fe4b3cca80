// Package retry wraps provider calls in an explicit retry policy value:
// bounded attempts, exponential backoff, and a retryable-error predicate.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/contract"
)

const defaultMaxAttempts = 2

// Policy describes how a provider call is retried. The zero value is not
// usable; build one with NewPolicy and adjust fields as needed.
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(error) bool
	Progress    contractx.ProgressFunc

	// Sleep suspends between attempts; cooperative so backoff waits can be
	// canceled. Replaced in tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewPolicy returns the default policy: 2 attempts, 2^attempt seconds of
// backoff, retrying only the recoverable error class.
func NewPolicy() Policy {
	return Policy{
		MaxAttempts: defaultMaxAttempts,
		Backoff:     expBackoff,
		Retryable:   IsRecoverable,
		Progress:    contractx.NopProgress,
		Sleep:       sleepContext,
	}
}

// expBackoff waits 2^attempt seconds: attempt 0 -> 1s, attempt 1 -> 2s.
func expBackoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

// IsRecoverable reports whether err belongs to the designated retryable
// class: explicit recoverable wraps and transport/network errors.
func IsRecoverable(err error) bool {
	if errors.Is(err, contractx.ErrRecoverable) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Do invokes fn up to MaxAttempts times, waiting between attempts. Errors
// outside the retryable class propagate immediately; after exhausting all
// attempts the last retryable error is returned unchanged.
func Do[T any](ctx context.Context, p Policy, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !p.Retryable(err) {
			p.Progress("UNEXPECTED_ERROR", fmt.Sprintf("Unexpected error in %s: %v", name, err))
			log.Error().Err(err).Str("call", name).Msg("non-retryable provider failure")
			return zero, err
		}

		lastErr = err
		p.Progress("RETRY_ATTEMPT", fmt.Sprintf("Attempt %d for %s failed. Error: %v", attempt+1, name, err))
		log.Warn().Err(err).Str("call", name).Int("attempt", attempt+1).Msg("provider call failed")

		if attempt == p.MaxAttempts-1 {
			break
		}

		wait := p.Backoff(attempt)
		p.Progress("RETRY_WAIT", fmt.Sprintf("Retrying in %s...", wait))
		if err := p.Sleep(ctx, wait); err != nil {
			return zero, err
		}
	}

	p.Progress("RETRY_FAILURE", fmt.Sprintf("All %d attempts for %s failed.", p.MaxAttempts, name))
	log.Error().Err(lastErr).Str("call", name).Int("attempts", p.MaxAttempts).Msg("provider call exhausted retries")
	return zero, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
