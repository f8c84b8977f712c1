// Package config holds the engine configuration read from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
	_ "time/tzdata" // time_zone must resolve without system zone files

	"github.com/brimdata/iql/resultcache"
	"github.com/brimdata/iql/service/logger"
	"github.com/go-redis/redis/v8"
	"github.com/pbnjay/memory"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Logger logger.Config `yaml:"logger"`
	Query  Query         `yaml:"query"`
	Cache  Cache         `yaml:"result_cache"`
}

type Query struct {
	// Timeout bounds the run time of a query.  Zero means no bound.
	Timeout time.Duration `yaml:"timeout"`
	// RowLimit bounds the rows a query emits.  Zero means no limit.
	RowLimit int `yaml:"row_limit"`
	// TimeZone is the IANA name of the zone time buckets are computed in.
	TimeZone string `yaml:"time_zone"`
}

type Cache struct {
	Kind resultcache.Kind `yaml:"kind"`
	// LocalEntries is the number of results kept by the local cache.
	LocalEntries int `yaml:"local_entries"`
	// LocalMaxEntrySize bounds the compressed size of one local entry.
	LocalMaxEntrySize ByteSize `yaml:"local_max_entry_size"`
	RedisAddr         string   `yaml:"redis_addr"`
	// RedisKeyExpiration is the expiration of cached results in redis.
	// Zero should only be used when redis is configured with an eviction
	// policy.
	RedisKeyExpiration time.Duration `yaml:"redis_key_expiration"`
}

const (
	minEntrySize      = 1 << 20
	maxEntrySize      = 64 << 20
	fallbackEntrySize = 16 << 20
)

// DefaultEntrySize is the default LocalMaxEntrySize: a thousandth of
// physical memory, within 1MiB and 64MiB.
func DefaultEntrySize() ByteSize {
	total := memory.TotalMemory()
	if total == 0 {
		return fallbackEntrySize
	}
	n := total / 1000
	if n < minEntrySize {
		n = minEntrySize
	}
	if n > maxEntrySize {
		n = maxEntrySize
	}
	return ByteSize(n)
}

func Default() Config {
	return Config{
		Logger: logger.Config{
			Path:  "stderr",
			Mode:     logger.ModeAppend,
			Rotation: logger.DefaultRotation(),
			Level:    zap.InfoLevel,
		},
		Query: Query{
			TimeZone: "UTC",
		},
		Cache: Cache{
			Kind:               resultcache.KindNone,
			LocalEntries:       128,
			LocalMaxEntrySize:  DefaultEntrySize(),
			RedisKeyExpiration: 24 * time.Hour,
		},
	}
}

// Load reads the file at path over the values already in c.
func (c *Config) Load(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := c.Parse(b); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Parse decodes a YAML document over the values already in c.  Fields
// absent from the document keep their values; unknown fields are errors.
func (c *Config) Parse(b []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return err
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	if c.Query.Timeout < 0 {
		return errors.New("query timeout must not be negative")
	}
	if c.Query.RowLimit < 0 {
		return errors.New("row limit must not be negative")
	}
	if _, err := c.Query.Location(); err != nil {
		return err
	}
	switch c.Cache.Kind {
	case resultcache.KindLocal:
		if c.Cache.LocalEntries <= 0 {
			return errors.New("local result cache needs a positive entry count")
		}
	case resultcache.KindRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New("redis result cache needs an address")
		}
	}
	return nil
}

func (q Query) Location() (*time.Location, error) {
	if q.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(q.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("time zone %q: %w", q.TimeZone, err)
	}
	return loc, nil
}

func (c Cache) Options() resultcache.Options {
	return resultcache.Options{
		Kind:               c.Kind,
		LocalEntries:       c.LocalEntries,
		LocalMaxEntryBytes: int64(c.LocalMaxEntrySize),
		RedisKeyExpiration: c.RedisKeyExpiration,
	}
}

// Open returns the configured result cache or nil when caching is off.
func (c Cache) Open(reg prometheus.Registerer) (resultcache.Cache, error) {
	var client *redis.Client
	if c.Kind == resultcache.KindRedis {
		client = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	}
	return resultcache.New(c.Options(), client, reg)
}
