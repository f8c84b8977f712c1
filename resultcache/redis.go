package resultcache

import (
	"context"
	"errors"
	"time"

	"github.com/brimdata/iql/rowio"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

const redisPrefix = "iql:result:"

// RedisCache keeps results in redis so they are shared between processes.
type RedisCache struct {
	metrics
	expiry time.Duration
	client *redis.Client
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client, expiry time.Duration, registerer prometheus.Registerer) *RedisCache {
	return &RedisCache{
		metrics: newMetrics(registerer),
		expiry:  expiry,
		client:  client,
	}
}

func (c *RedisCache) IsCached(ctx context.Context, key Key) (bool, error) {
	n, err := c.client.Exists(ctx, redisPrefix+string(key)).Result()
	if err != nil {
		return false, err
	}
	c.observe(KindRedis, n > 0)
	return n > 0, nil
}

func (c *RedisCache) Read(ctx context.Context, key Key) (rowio.Reader, error) {
	b, err := c.client.Get(ctx, redisPrefix+string(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return readBlob(b)
}

func (c *RedisCache) Write(ctx context.Context, key Key) (Writer, error) {
	return newBlobWriter(func(b []byte) error {
		return c.client.Set(ctx, redisPrefix+string(key), b, c.expiry).Err()
	}), nil
}
