package drivers

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// StoreOption is a functional option for configuring a session store.
type StoreOption func(*storeConfig)

// storeConfig holds configuration for session stores.
type storeConfig struct {
	redisClient   *redis.Client
	ttl           time.Duration
	keyPrefix     string
	sweepInterval time.Duration
}

// WithRedisClient sets the Redis client for the Redis store.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithTTL sets the inactivity timeout after which a session expires.
func WithTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.ttl = ttl
	}
}

// WithKeyPrefix sets the Redis key prefix for sessions.
func WithKeyPrefix(prefix string) StoreOption {
	return func(c *storeConfig) {
		c.keyPrefix = prefix
	}
}

// WithSweepInterval sets how often the memory store drops expired sessions.
func WithSweepInterval(interval time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.sweepInterval = interval
	}
}
