package snapshot

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/conduit-lang/attributes/internal/orm/attribute"
)

// RedisStore keeps snapshots as Redis strings
type RedisStore struct {
	client *redis.Client
	config Config
}

// NewRedisStore creates a store with an existing client
func NewRedisStore(client *redis.Client, config Config) *RedisStore {
	config.normalize()
	return &RedisStore{
		client: client,
		config: config,
	}
}

// Save stores the snapshot for key with the configured TTL
func (r *RedisStore) Save(ctx context.Context, key string, set *attribute.Set) error {
	payload, err := encode(set, r.config.Format)
	if err != nil {
		return err
	}

	r.config.Logger.Debug("saving snapshot", zap.String("key", key), zap.Int("attributes", set.Len()))
	return r.client.Set(ctx, r.config.Prefix+key, payload, r.config.TTL).Err()
}

// Load restores the snapshot for key
func (r *RedisStore) Load(ctx context.Context, key string) (*attribute.Set, error) {
	payload, err := r.client.Get(ctx, r.config.Prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound{Key: key}
		}
		return nil, err
	}

	return decode(payload, r.config.Format, r.config.Resolver)
}

// Delete removes the snapshot for key
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.config.Prefix+key).Err()
}

// Keys lists the stored snapshot keys, without the prefix
func (r *RedisStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.config.Prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[len(r.config.Prefix):])
	}
	return keys, iter.Err()
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
