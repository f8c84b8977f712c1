package inputflags

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `
datasets:
  - name: jobs
    int_fields: [unixtime]
    time_field: unixtime
    docs:
      - {ints: {unixtime: 1704067200}}
      - {ints: {unixtime: 1704153600}}
  - name: tags
    string_fields: [tag]
    docs:
      - {strings: {tag: a}}
`

func newFlags(t *testing.T, args ...string) *Flags {
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0644))
	var f Flags
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	f.SetFlags(fs)
	require.NoError(t, fs.Parse(append([]string{"-fixture", path}, args...)))
	return &f
}

func TestOpen(t *testing.T) {
	f := newFlags(t, "-from", "2024-01-01", "-to", "2024-01-02 00:00:00")
	sess, err := f.Open(time.UTC)
	require.NoError(t, err)
	defer sess.Close()
	assert.Equal(t, map[string][]string{
		"jobs": {"jobs/1704067200-1704153600"},
		"tags": {"tags/1704067200-1704153600"},
	}, sess.Shards())
}

func TestRange(t *testing.T) {
	f := newFlags(t)
	from, to, err := f.Range(time.UTC)
	require.NoError(t, err)
	assert.True(t, from.IsZero())
	assert.True(t, to.IsZero())

	f = newFlags(t, "-from", "2024-01-02", "-to", "2024-01-01")
	_, _, err = f.Range(time.UTC)
	assert.EqualError(t, err, "-from must be before -to")

	f = newFlags(t, "-from", "yesterday-ish")
	_, err = f.Open(time.UTC)
	assert.ErrorContains(t, err, "-from")

	var empty Flags
	_, err = empty.Open(time.UTC)
	assert.Error(t, err)
}
