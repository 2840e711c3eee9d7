package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a shared Redis instance, for deployments running
// more than one backend process. Keys are namespaced under "encodingdb:".
type Redis struct {
	rdb *redis.Client
}

func NewRedis(opts *redis.Options) *Redis {
	return &Redis{rdb: redis.NewClient(opts)}
}

// Ping verifies connectivity. Useful at startup and for health checks.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

func nsKey(key string) string {
	return "encodingdb:" + key
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, nsKey(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kvstore get %s: %w", key, err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, nsKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("kvstore set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, nsKey(key), value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("kvstore setnx %s: %w", key, err)
	}
	return ok, nil
}

func (r *Redis) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := r.rdb.Incr(ctx, nsKey(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("kvstore incr %s: %w", key, err)
	}
	if n == 1 {
		// First touch sets the window expiry.
		if err := r.rdb.Expire(ctx, nsKey(key), ttl).Err(); err != nil {
			return n, fmt.Errorf("kvstore expire %s: %w", key, err)
		}
	}
	return n, nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, nsKey(key)).Err(); err != nil {
		return fmt.Errorf("kvstore del %s: %w", key, err)
	}
	return nil
}
