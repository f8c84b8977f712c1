package resultcache

import (
	"context"

	"github.com/brimdata/iql/rowio"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// LocalCache keeps results in an in-process LRU cache.
type LocalCache struct {
	metrics
	lru      *lru.Cache[Key, []byte]
	maxBytes int64
}

var _ Cache = (*LocalCache)(nil)

// NewLocalCache returns a cache of up to entries results, each at most
// maxBytes compressed.  A non-positive maxBytes means no limit.
func NewLocalCache(entries int, maxBytes int64, registerer prometheus.Registerer) (*LocalCache, error) {
	cache, err := lru.New[Key, []byte](entries)
	if err != nil {
		return nil, err
	}
	return &LocalCache{
		metrics:  newMetrics(registerer),
		lru:      cache,
		maxBytes: maxBytes,
	}, nil
}

func (c *LocalCache) IsCached(_ context.Context, key Key) (bool, error) {
	ok := c.lru.Contains(key)
	c.observe(KindLocal, ok)
	return ok, nil
}

func (c *LocalCache) Read(_ context.Context, key Key) (rowio.Reader, error) {
	b, ok := c.lru.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return readBlob(b)
}

func (c *LocalCache) Write(_ context.Context, key Key) (Writer, error) {
	return newBlobWriter(func(b []byte) error {
		if c.maxBytes > 0 && int64(len(b)) > c.maxBytes {
			return nil
		}
		c.lru.Add(key, b)
		return nil
	}), nil
}
