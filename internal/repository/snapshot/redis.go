package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key holding the snapshot when none is configured
const DefaultRedisKey = "spaces:snapshot"

// RedisStore persists the snapshot under a single Redis key. A Save is one
// SET, so readers never observe a partial snapshot.
type RedisStore struct {
	client *redis.Client
	key    string
}

var _ domain.SnapshotStore = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(redisURL, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, key), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// Load reads the snapshot, returning an empty one if the key is missing
func (s *RedisStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot from redis: %w", err)
	}
	return Decode(data)
}

// Save replaces the snapshot value
func (s *RedisStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save snapshot to redis: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
