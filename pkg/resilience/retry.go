package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig bounds Retry. Only idempotent work may be retried.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	// RetryableErrors stops retrying when it returns false. Nil retries everything.
	RetryableErrors func(error) bool
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2,
	}
}

func (c *RetryConfig) policy(ctx context.Context) backoff.BackOffContext {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.InitialDelay
	exp.Multiplier = c.BackoffFactor
	exp.RandomizationFactor = 0.2
	exp.MaxElapsedTime = 0
	if c.MaxDelay > 0 {
		exp.MaxInterval = c.MaxDelay
	}

	retries := 0
	if c.MaxAttempts > 1 {
		retries = c.MaxAttempts - 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// Retry calls fn until it succeeds, returns a non-retryable error, runs out
// of attempts or ctx ends.
func Retry(ctx context.Context, config *RetryConfig, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		err := fn(ctx)
		if err != nil && config.RetryableErrors != nil && !config.RetryableErrors(err) {
			return backoff.Permanent(err)
		}
		return err
	}, config.policy(ctx))

	if err == nil || err == ctx.Err() {
		return err
	}
	return fmt.Errorf("after %d attempts: %w", attempts, err)
}
