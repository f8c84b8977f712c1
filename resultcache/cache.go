// Package resultcache stores the rows of completed queries keyed by a hash
// of everything that determines them.
package resultcache

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/brimdata/iql/command"
	"github.com/brimdata/iql/rowio"
	"github.com/dchest/siphash"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

var ErrNotFound = errors.New("result not cached")

// Key identifies a query result.
type Key string

const (
	k0 = 0x6c1f3e8a9d04b27f
	k1 = 0xa3d95e017cb84f62
)

// NewKey hashes the canonical encoding of cmds, the row limit and the
// shards each dataset was opened on.  Shard lists are sorted, so the key
// does not depend on the order shards were listed in.
func NewKey(cmds []command.Command, rowLimit int, shards map[string][]string) (Key, error) {
	var buf bytes.Buffer
	b, err := command.Canonical(cmds)
	if err != nil {
		return "", err
	}
	buf.Write(b)
	buf.WriteString("\x00limit=")
	buf.WriteString(strconv.Itoa(rowLimit))
	datasets := make([]string, 0, len(shards))
	for name := range shards {
		datasets = append(datasets, name)
	}
	sort.Strings(datasets)
	for _, name := range datasets {
		ids := append([]string(nil), shards[name]...)
		sort.Strings(ids)
		fmt.Fprintf(&buf, "\x00%s=%q", name, ids)
	}
	lo, hi := siphash.Hash128(k0, k1, buf.Bytes())
	var sum [16]byte
	binary.LittleEndian.PutUint64(sum[:8], lo)
	binary.LittleEndian.PutUint64(sum[8:], hi)
	return Key(hex.EncodeToString(sum[:])), nil
}

// Writer accumulates the rows of one result.  Close commits them; Abort
// discards them.
type Writer interface {
	rowio.WriteCloser
	rowio.Aborter
}

type Cache interface {
	IsCached(context.Context, Key) (bool, error)
	// Read returns the rows stored under key or ErrNotFound.
	Read(context.Context, Key) (rowio.Reader, error)
	Write(context.Context, Key) (Writer, error)
}

// Kind names where results are cached: nowhere, in process memory or in
// redis.  It also labels the cache metrics.
type Kind string

const (
	KindNone  Kind = "none"
	KindLocal Kind = "local"
	KindRedis Kind = "redis"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case "":
		return KindNone, nil
	case KindNone, KindLocal, KindRedis:
		return k, nil
	}
	return "", fmt.Errorf("result cache kind %q: want none, local or redis", s)
}

func (k *Kind) Set(s string) error {
	kind, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

func (k Kind) String() string {
	return string(k)
}

func (k *Kind) UnmarshalText(b []byte) error {
	return k.Set(string(b))
}

// Options configure the cache returned by New.
type Options struct {
	Kind Kind
	// LocalEntries is the number of results the local cache keeps.
	LocalEntries int
	// LocalMaxEntryBytes bounds the compressed size of one local entry.
	// Larger results are not cached.
	LocalMaxEntryBytes int64
	// RedisKeyExpiration is the expiration of keys written to redis.  Zero
	// means no expiration and should be used only when redis is
	// configured with an eviction policy.
	RedisKeyExpiration time.Duration
}

// New returns the cache described by opts or nil for KindNone.
func New(opts Options, client *redis.Client, registerer prometheus.Registerer) (Cache, error) {
	switch opts.Kind {
	case KindLocal:
		return NewLocalCache(opts.LocalEntries, opts.LocalMaxEntryBytes, registerer)
	case KindRedis:
		if client == nil {
			return nil, errors.New("redis result cache requires a redis client")
		}
		return NewRedisCache(client, opts.RedisKeyExpiration, registerer), nil
	case KindNone, "":
		return nil, nil
	}
	_, err := ParseKind(string(opts.Kind))
	return nil, err
}
