package drivers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/creastat/booking/session"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements session.Store using Redis with optimistic locking.
// Keys expire after the configured inactivity TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore creates a new Redis-based session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
		prefix: defaultKeyPrefix,
	}
}

// Create implements session.Store.
// Creates a new session with Version set to 1 and sets TTL.
func (s *RedisStore) Create(ctx context.Context, data *session.SessionData) error {
	now := time.Now()
	data.CreatedAt = now
	data.UpdatedAt = now
	data.Version = 1

	val, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}

	return s.client.Set(ctx, s.key(data.ID), val, s.ttl).Err()
}

// Get implements session.Store.
// Returns nil if the session is not found (not an error).
// Refreshes TTL on every read.
func (s *RedisStore) Get(ctx context.Context, id string) (*session.SessionData, error) {
	key := s.key(id)
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	var data session.SessionData
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return nil, fmt.Errorf("session: failed to unmarshal: %w", err)
	}

	// Refresh TTL on read; a failure only shortens the session
	_ = s.client.Expire(ctx, key, s.ttl).Err()

	return &data, nil
}

// Update implements session.Store.
// Implements optimistic locking using Redis WATCH/MULTI/EXEC.
// Returns ErrVersionConflict if the version does not match or the key
// changed between WATCH and EXEC.
// Returns ErrNotFound if the session does not exist.
func (s *RedisStore) Update(ctx context.Context, data *session.SessionData) error {
	key := s.key(data.ID)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return session.ErrNotFound
		}
		if err != nil {
			return err
		}

		var stored session.SessionData
		if err := json.Unmarshal([]byte(val), &stored); err != nil {
			return err
		}

		if stored.Version != data.Version {
			return session.ErrVersionConflict
		}

		next := *data
		next.Version++
		next.UpdatedAt = time.Now()

		newVal, err := json.Marshal(&next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newVal, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		data.Version = next.Version
		data.UpdatedAt = next.UpdatedAt
		return nil
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return session.ErrVersionConflict
	}
	return err
}

// Delete implements session.Store.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

// Ping implements session.Store.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close implements session.Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// key constructs the Redis key for a session ID.
func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Compile-time checks that the drivers implement session.Store
var (
	_ session.Store = (*InMemoryStore)(nil)
	_ session.Store = (*RedisStore)(nil)
)
