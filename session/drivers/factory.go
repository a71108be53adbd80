package drivers

import (
	"time"

	"github.com/creastat/booking/session"
)

// StoreType represents the type of session store.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

const (
	// DefaultTTL is the inactivity timeout of a session (15 minutes)
	DefaultTTL = 15 * time.Minute
	// Redis key prefix for sessions
	defaultKeyPrefix = "session:"
)

// NewStore creates a new session.Store based on the given type.
// Supports "memory" and "redis" driver types.
// For Redis, requires WithRedisClient option.
func NewStore(storeType StoreType, opts ...StoreOption) (session.Store, error) {
	config := &storeConfig{}

	// Apply options
	for _, opt := range opts {
		opt(config)
	}

	ttl := config.ttl
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	switch storeType {
	case StoreTypeMemory:
		return NewInMemoryStore(ttl, config.sweepInterval), nil

	case StoreTypeRedis:
		if config.redisClient == nil {
			return nil, session.ErrInvalidConfig
		}
		store := NewRedisStore(config.redisClient, ttl)
		if config.keyPrefix != "" {
			store.prefix = config.keyPrefix
		}
		return store, nil

	default:
		return nil, session.ErrInvalidStoreType
	}
}
