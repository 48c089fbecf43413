package locking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig configures the distributed order lock
type RedisConfig struct {
	URL       string
	KeyPrefix string
	// TTL caps how long a crashed holder can block an order.
	TTL time.Duration
	// RetryInterval is the poll interval while waiting for a held lock.
	RetryInterval time.Duration
}

// DefaultRedisConfig returns defaults for the given URL
func DefaultRedisConfig(url string) RedisConfig {
	return RedisConfig{
		URL:           url,
		KeyPrefix:     "shipping:order-lock:",
		TTL:           60 * time.Second,
		RetryInterval: 50 * time.Millisecond,
	}
}

// RedisLocker is a domain.OrderLocker shared by every API and worker instance.
type RedisLocker struct {
	rdb    *redis.Client
	config RedisConfig
	logger *logging.Logger
}

// NewRedisLocker connects to Redis and verifies the connection
func NewRedisLocker(ctx context.Context, config RedisConfig, logger *logging.Logger) (*RedisLocker, error) {
	opt, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedisLockerWithClient(rdb, config, logger), nil
}

// NewRedisLockerWithClient wraps an existing client
func NewRedisLockerWithClient(rdb *redis.Client, config RedisConfig, logger *logging.Logger) *RedisLocker {
	if config.TTL <= 0 {
		config.TTL = 60 * time.Second
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = 50 * time.Millisecond
	}
	return &RedisLocker{rdb: rdb, config: config, logger: logger.WithComponent("redis-locker")}
}

// Lock acquires the order lock with SET NX PX, polling until ctx is done
func (l *RedisLocker) Lock(ctx context.Context, orderID string) (func(), error) {
	key := l.config.KeyPrefix + orderID
	token := uuid.NewString()

	ticker := time.NewTicker(l.config.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.config.TTL).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("failed to acquire lock for order %s: %w", orderID, err)
		}
		if ok {
			return l.unlockFunc(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) unlockFunc(key, token string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			l.logger.WithError(err).Warn("Failed to release order lock; it will expire", "key", key)
		}
	}
}

// Close closes the redis client
func (l *RedisLocker) Close() error {
	return l.rdb.Close()
}

// HealthCheck pings redis
func (l *RedisLocker) HealthCheck(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}
