package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brimdata/iql/resultcache"
	"github.com/brimdata/iql/service/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParse(t *testing.T) {
	c := Default()
	err := c.Parse([]byte(`
logger:
  path: /var/log/iql.log
  mode: rotate
  rotation: {max_backups: 7}
  names: [runtime]
  level: debug
query:
  timeout: 30s
  row_limit: 1000
  time_zone: America/New_York
result_cache:
  kind: local
  local_max_entry_size: 4MiB
`))
	require.NoError(t, err)
	assert.Equal(t, logger.ModeRotate, c.Logger.Mode)
	assert.Equal(t, zap.DebugLevel, c.Logger.Level)
	assert.Equal(t, logger.Names{"runtime"}, c.Logger.Names)
	assert.Equal(t, 7, c.Logger.Rotation.MaxBackups)
	assert.Equal(t, logger.DefaultRotation().MaxSizeMB, c.Logger.Rotation.MaxSizeMB)
	assert.Equal(t, 30*time.Second, c.Query.Timeout)
	assert.Equal(t, 1000, c.Query.RowLimit)
	loc, err := c.Query.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())
	assert.Equal(t, resultcache.KindLocal, c.Cache.Kind)
	// Untouched fields keep their defaults.
	assert.Equal(t, 128, c.Cache.LocalEntries)
	assert.Equal(t, 24*time.Hour, c.Cache.RedisKeyExpiration)
	opts := c.Cache.Options()
	assert.EqualValues(t, 4<<20, opts.LocalMaxEntryBytes)

	cache, err := c.Cache.Open(nil)
	require.NoError(t, err)
	assert.IsType(t, &resultcache.LocalCache{}, cache)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"unknown field", "query: {rowlimit: 3}"},
		{"bad kind", "result_cache: {kind: disk}"},
		{"bad size", "result_cache: {local_max_entry_size: lots}"},
		{"bad zone", "query: {time_zone: Mars/Olympus}"},
		{"negative limit", "query: {row_limit: -1}"},
		{"redis without address", "result_cache: {kind: redis}"},
		{"bad mode", "logger: {mode: sideways}"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			conf := Default()
			assert.Error(t, conf.Parse([]byte(c.doc)))
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iql.yaml")
	require.NoError(t, os.WriteFile(path, []byte("query: {row_limit: 7}\n"), 0644))
	c := Default()
	require.NoError(t, c.Load(path))
	assert.Equal(t, 7, c.Query.RowLimit)

	c = Default()
	require.NoError(t, c.Parse(nil))
	assert.Equal(t, Default().Query, c.Query)

	assert.Error(t, c.Load(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestByteSize(t *testing.T) {
	b, err := ParseByteSize("16MiB")
	require.NoError(t, err)
	assert.EqualValues(t, 16<<20, b)
	b, err = ParseByteSize("1024")
	require.NoError(t, err)
	assert.EqualValues(t, 1024, b)
	_, err = ParseByteSize("many")
	assert.Error(t, err)

	d := DefaultEntrySize()
	assert.GreaterOrEqual(t, int64(d), int64(minEntrySize))
	assert.LessOrEqual(t, int64(d), int64(maxEntrySize))
}
