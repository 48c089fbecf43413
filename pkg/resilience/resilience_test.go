package resilience

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
)

var errBoom = errors.New("boom")

func TestCircuitBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("carrier")
	cfg.FailureThreshold = 3
	cfg.Timeout = time.Hour

	var transitions []gobreaker.State
	cfg.OnStateChange = func(_ string, _, to gobreaker.State) { transitions = append(transitions, to) }

	cb := NewCircuitBreaker(cfg, logging.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := cb.Execute(ctx, func(context.Context) error { return errBoom })
		assert.ErrorIs(t, err, errBoom)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)

	called := false
	err := cb.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_StateChangeLogNamesBreaker(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&logging.Config{Level: slog.LevelInfo, ServiceName: "shipping", Output: &buf})

	cfg := DefaultCircuitBreakerConfig("carrier-shiplogic")
	cfg.FailureThreshold = 1
	cfg.Timeout = time.Hour
	cb := NewCircuitBreaker(cfg, logger)

	_ = cb.Execute(context.Background(), func(context.Context) error { return errBoom })
	require.Equal(t, gobreaker.StateOpen, cb.State())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "Circuit breaker state changed", entry["msg"])
	assert.Equal(t, "circuit-breaker", entry["component"])
	assert.Equal(t, "carrier-shiplogic", entry["breaker"])
	assert.Equal(t, "open", entry["to"])
}

func TestCircuitBreaker_IgnoredErrorsDoNotTrip(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("carrier")
	cfg.FailureThreshold = 2
	rejected := errors.New("address rejected")
	cfg.IsFailure = func(err error) bool { return !errors.Is(err, rejected) }

	cb := NewCircuitBreaker(cfg, logging.NewNop())
	for i := 0; i < 5; i++ {
		err := cb.Execute(context.Background(), func(context.Context) error { return rejected })
		assert.ErrorIs(t, err, rejected)
	}

	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Zero(t, cb.Counts().TotalFailures)
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("carrier")
	cfg.FailureThreshold = 1
	cfg.MaxRequests = 1
	cfg.Timeout = 20 * time.Millisecond

	cb := NewCircuitBreaker(cfg, logging.NewNop())
	ctx := context.Background()

	_ = cb.Execute(ctx, func(context.Context) error { return errBoom })
	require.Equal(t, gobreaker.StateOpen, cb.State())

	time.Sleep(40 * time.Millisecond)
	require.NoError(t, cb.Execute(ctx, func(context.Context) error { return nil }))
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestRetry(t *testing.T) {
	cfg := &RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		attempts := 0
		err := Retry(context.Background(), cfg, func(context.Context) error {
			attempts++
			if attempts < 3 {
				return errBoom
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		attempts := 0
		err := Retry(context.Background(), cfg, func(context.Context) error { attempts++; return errBoom })
		assert.ErrorIs(t, err, errBoom)
		assert.EqualError(t, err, "after 3 attempts: boom")
		assert.Equal(t, 3, attempts)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		permanent := errors.New("permanent")
		c := *cfg
		c.RetryableErrors = func(err error) bool { return !errors.Is(err, permanent) }
		attempts := 0
		err := Retry(context.Background(), &c, func(context.Context) error { attempts++; return permanent })
		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, attempts)
	})

	t.Run("single attempt when max attempts is one", func(t *testing.T) {
		attempts := 0
		err := Retry(context.Background(), &RetryConfig{MaxAttempts: 1, InitialDelay: time.Millisecond, BackoffFactor: 2},
			func(context.Context) error { attempts++; return errBoom })
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, 1, attempts)
	})

	t.Run("honours cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := Retry(ctx, cfg, func(context.Context) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}
