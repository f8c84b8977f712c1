package resultcache

import (
	"context"
	"math"
	"testing"

	"github.com/brimdata/iql/command"
	"github.com/brimdata/iql/rowio"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey(t *testing.T) {
	cmds := []command.Command{&command.ExplodeAndRegroup{Field: "country"}}
	shards := map[string][]string{"jobs": {"b", "a"}, "clicks": {"c"}}
	k1, err := NewKey(cmds, 100, shards)
	require.NoError(t, err)
	assert.Len(t, k1, 32)

	k2, err := NewKey(cmds, 100, map[string][]string{"clicks": {"c"}, "jobs": {"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	k3, err := NewKey(cmds, 101, shards)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	k4, err := NewKey([]command.Command{&command.ExplodeAndRegroup{Field: "oji"}}, 100, shards)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k4)

	k5, err := NewKey(cmds, 100, map[string][]string{"jobs": {"a"}, "clicks": {"c"}})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k5)
}

func readAll(t *testing.T, r rowio.Reader) []*rowio.Row {
	var rows []*rowio.Row
	for {
		row, err := r.Read()
		require.NoError(t, err)
		if row == nil {
			return rows
		}
		rows = append(rows, row)
	}
}

func TestLocalCache(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	c, err := NewLocalCache(2, 0, reg)
	require.NoError(t, err)

	ok, err := c.IsCached(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = c.Read(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	w, err := c.Write(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, w.Write(&rowio.Row{Keys: []string{"us"}, Values: []float64{3, math.NaN()}}))
	require.NoError(t, w.Write(&rowio.Row{Keys: []string{"gb"}, Values: []float64{0.5, 1}}))
	require.NoError(t, w.Close())

	ok, err = c.IsCached(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	r, err := c.Read(ctx, "k")
	require.NoError(t, err)
	rows := readAll(t, r)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"us"}, rows[0].Keys)
	assert.Equal(t, 3.0, rows[0].Values[0])
	assert.True(t, math.IsNaN(rows[0].Values[1]))
	assert.Equal(t, &rowio.Row{Keys: []string{"gb"}, Values: []float64{0.5, 1}}, rows[1])

	assert.Equal(t, 1.0, testutil.ToFloat64(c.hits.WithLabelValues("local")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.misses.WithLabelValues("local")))
}

func TestLocalCacheAbortAndLimit(t *testing.T) {
	ctx := context.Background()
	c, err := NewLocalCache(2, 0, nil)
	require.NoError(t, err)
	w, err := c.Write(ctx, "aborted")
	require.NoError(t, err)
	require.NoError(t, w.Write(&rowio.Row{Values: []float64{1}}))
	w.Abort()
	ok, err := c.IsCached(ctx, "aborted")
	require.NoError(t, err)
	assert.False(t, ok)

	small, err := NewLocalCache(2, 1, nil)
	require.NoError(t, err)
	w, err = small.Write(ctx, "big")
	require.NoError(t, err)
	require.NoError(t, w.Write(&rowio.Row{Keys: []string{"too", "big"}, Values: []float64{1, 2, 3}}))
	require.NoError(t, w.Close())
	ok, err = small.IsCached(ctx, "big")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	c, err := New(Options{Kind: KindNone}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = New(Options{Kind: KindLocal, LocalEntries: 4}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &LocalCache{}, c)

	_, err = New(Options{Kind: KindRedis}, nil, nil)
	assert.Error(t, err)

	var k Kind
	require.NoError(t, k.Set("redis"))
	assert.Equal(t, KindRedis, k)
	assert.EqualError(t, k.Set("disk"), `result cache kind "disk": want none, local or redis`)
	require.NoError(t, k.UnmarshalText(nil))
	assert.Equal(t, KindNone, k)

	_, err = New(Options{Kind: "disk"}, nil, nil)
	assert.Error(t, err)
}
