package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/smartbill-auth/cache"
	"github.com/redis/go-redis/v9"
)

var _ cache.MarkStore = (*MarkStore)(nil)

// MarkStore implements cache.MarkStore using Redis SET NX, so a code claimed on one
// instance is rejected on every other.
type MarkStore struct {
	client *redis.Client
	prefix string // Optional prefix for keys
}

// NewMarkStore creates a new [MarkStore] instance
func NewMarkStore(client *redis.Client, prefix string) *MarkStore {
	return &MarkStore{
		client: client,
		prefix: prefix,
	}
}

// NewFromURL parses a redis:// URL and returns a store bound to a fresh client
func NewFromURL(rawURL, prefix string) (*MarkStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("[redis NewFromURL] invalid url: %w", err)
	}
	return NewMarkStore(redis.NewClient(opts), prefix), nil
}

func (r *MarkStore) redisKey(key string) string {
	if r.prefix == "" {
		return "mark:" + key
	}
	return fmt.Sprintf("%s:mark:%s", r.prefix, key)
}

func (r *MarkStore) Mark(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.redisKey(key), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("[redis MarkStore.Mark] %w", err)
	}
	return ok, nil
}

func (r *MarkStore) IsMarked(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.redisKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("[redis MarkStore.IsMarked] %w", err)
	}
	return n > 0, nil
}

// Ping checks connectivity at startup
func (r *MarkStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *MarkStore) Close() error {
	return r.client.Close()
}
