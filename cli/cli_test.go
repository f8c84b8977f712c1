package cli

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brimdata/iql/resultcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConfigLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
query: {row_limit: 3, timeout: 5s}
result_cache: {kind: local, local_entries: 4}
logger: {level: warn}
`), 0644))
	var f Flags
	fs := flag.NewFlagSet("iql", flag.ContinueOnError)
	f.SetFlags(fs)
	require.NoError(t, fs.Parse([]string{"-config", path, "-query.limit", "9", "-log.level", "debug"}))
	ctx, cleanup, err := f.Init()
	require.NoError(t, err)
	defer cleanup()
	require.NoError(t, ctx.Err())

	c := f.Config()
	assert.Equal(t, 9, c.Query.RowLimit)
	assert.Equal(t, 5*time.Second, c.Query.Timeout)
	assert.Equal(t, resultcache.KindLocal, c.Cache.Kind)
	assert.Equal(t, 4, c.Cache.LocalEntries)
	assert.Equal(t, zap.DebugLevel, c.Logger.Level)
	assert.Equal(t, "UTC", c.Query.TimeZone)
}

func TestFlagsWithoutConfig(t *testing.T) {
	var f Flags
	fs := flag.NewFlagSet("iql", flag.ContinueOnError)
	f.SetFlags(fs)
	require.NoError(t, fs.Parse([]string{"-resultcache.kind", "redis"}))
	_, _, err := f.Init()
	assert.ErrorContains(t, err, "redis result cache needs an address")

	f = Flags{}
	fs = flag.NewFlagSet("iql", flag.ContinueOnError)
	f.SetFlags(fs)
	require.NoError(t, fs.Parse([]string{"-query.tz", "Europe/Paris", "-resultcache.local.maxentry", "2MiB"}))
	_, cleanup, err := f.Init()
	require.NoError(t, err)
	cleanup()
	assert.Equal(t, "Europe/Paris", f.Config().Query.TimeZone)
	assert.EqualValues(t, 2<<20, f.Config().Cache.LocalMaxEntrySize)
}
