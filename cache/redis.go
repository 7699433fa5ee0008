package cache

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

type redisCache struct {
	client *redis.Client
	cfg    config
}

var _ Cache = (*redisCache)(nil)

// NewRedis returns a new Cache backed by Redis.
// The caller owns the redis.Client lifecycle; Close does not close the client.
func NewRedis(client *redis.Client, opts ...Option) Cache {
	return &redisCache{
		client: client,
		cfg:    applyOptions(opts),
	}
}

func (c *redisCache) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, c.cfg.queryTimeout)
}

func (c *redisCache) prefixKey(key string) string {
	if c.cfg.prefix == "" {
		return key
	}
	return c.cfg.prefix + ":" + key
}

func (c *redisCache) Get(ctx context.Context, key string) (bool, any, error) {
	qctx, cancel := c.queryCtx(ctx)
	defer cancel()
	data, err := c.client.Get(qctx, c.prefixKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, errors.Wrapf(err, "cache: redis get %q", key)
	}
	return true, data, nil
}

func (c *redisCache) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	qctx, cancel := c.queryCtx(ctx)
	defer cancel()
	k := c.prefixKey(key)
	if ttl <= 0 {
		// redis treats a zero expiration as "keep forever"
		if err := c.client.Del(qctx, k).Err(); err != nil {
			return errors.Wrapf(err, "cache: redis del %q", key)
		}
		return nil
	}
	data, err := msgpack.Marshal(val)
	if err != nil {
		return errors.Wrapf(err, "cache: failed to marshal value for %q", key)
	}
	if err := c.client.Set(qctx, k, data, ttl).Err(); err != nil {
		return errors.Wrapf(err, "cache: redis set %q", key)
	}
	return nil
}

func (c *redisCache) Expire(ctx context.Context, key string) (bool, error) {
	qctx, cancel := c.queryCtx(ctx)
	defer cancel()
	result, err := c.client.Del(qctx, c.prefixKey(key)).Result()
	if err != nil {
		return false, errors.Wrapf(err, "cache: redis del %q", key)
	}
	return result > 0, nil
}

// Close is a no-op: the caller owns the redis.Client lifecycle.
func (c *redisCache) Close() error {
	return nil
}
