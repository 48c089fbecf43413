package locking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
	sharedtesting "github.com/KyleYagher/Jits-Apparel-sub000/pkg/testing"
)

func setupRedisLocker(t *testing.T) *RedisLocker {
	url := sharedtesting.StartRedis(t)
	ctx := context.Background()

	config := DefaultRedisConfig(url)
	config.TTL = 2 * time.Second
	config.RetryInterval = 10 * time.Millisecond

	locker, err := NewRedisLocker(ctx, config, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = locker.Close() })
	return locker
}

func TestRedisLocker_ExclusiveUntilReleased(t *testing.T) {
	locker := setupRedisLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "ord-1")
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "ord-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()

	unlockAgain, err := locker.Lock(ctx, "ord-1")
	require.NoError(t, err)
	unlockAgain()
}

func TestRedisLocker_ExpiredLockCanBeTaken(t *testing.T) {
	locker := setupRedisLocker(t)
	ctx := context.Background()

	staleUnlock, err := locker.Lock(ctx, "ord-2")
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	unlock, err := locker.Lock(waitCtx, "ord-2")
	require.NoError(t, err, "lock is acquirable after TTL expiry")

	// The stale holder's release must not delete the new holder's key.
	staleUnlock()
	probeCtx, probeCancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer probeCancel()
	_, err = locker.Lock(probeCtx, "ord-2")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
}
