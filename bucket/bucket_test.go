package bucket

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/brimdata/iql/backend"
	"github.com/brimdata/iql/backend/mem"
	"github.com/brimdata/iql/group"
	"github.com/brimdata/iql/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopK(t *testing.T) {
	top := NewTopK(2)
	row := []int64{1}
	top.Offer(2, Entry{Term: term.String("a"), Score: 1, Row: row})
	top.Offer(2, Entry{Term: term.String("b"), Score: 3, Row: row})
	top.Offer(2, Entry{Term: term.String("c"), Score: 3, Row: row})
	top.Offer(2, Entry{Term: term.String("d"), Score: 3, Row: row})
	top.Offer(1, Entry{Term: term.String("e"), Score: math.NaN(), Row: row})
	top.Offer(1, Entry{Term: term.String("f"), Score: -5, Row: row})
	row[0] = 99

	assert.Equal(t, []int{1, 2}, top.Groups())
	got := top.Drain(2)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Term.Str)
	assert.Equal(t, "c", got[1].Term.Str)
	assert.Equal(t, []int64{1}, got[0].Row)

	got = top.Drain(1)
	require.Len(t, got, 2)
	assert.Equal(t, "f", got[0].Term.Str)
	assert.Equal(t, "e", got[1].Term.Str)
	assert.Empty(t, top.Groups())
}

func TestRanges(t *testing.T) {
	r := Ranges{Min: 0, Max: 25, Interval: 10}
	require.NoError(t, r.Validate())
	assert.Equal(t, 3, r.NumRanges())
	assert.Equal(t, 5, r.NumBuckets())
	assert.Equal(t, 0, r.Bucket(0))
	assert.Equal(t, 2, r.Bucket(24))
	assert.Equal(t, 3, r.Bucket(-1))
	assert.Equal(t, 4, r.Bucket(25))
	assert.Equal(t, group.RangeKey{Lo: 20, Hi: 25}, r.Key(2))
	assert.Equal(t, "[-infinity, 0)", r.Key(3).String())
	assert.Equal(t, "[25, infinity)", r.Key(4).String())

	x := Ranges{Min: 0, Max: 25, Interval: 10, ExcludeGutters: true}
	assert.Equal(t, 3, x.NumBuckets())
	assert.Equal(t, -1, x.Bucket(-1))
	assert.Equal(t, -1, x.Bucket(30))

	assert.Error(t, Ranges{Min: 5, Max: 5, Interval: 1}.Validate())
	assert.Error(t, Ranges{Min: 0, Max: 5}.Validate())
}

func TestRangesWide(t *testing.T) {
	w := Ranges{Min: 0, Max: 100, Interval: math.MaxInt64 - 50, ExcludeGutters: true}
	require.NoError(t, w.Validate())
	assert.Equal(t, 1, w.NumRanges())
	assert.Equal(t, 1, w.NumBuckets())
	assert.Equal(t, 0, w.Bucket(99))
	assert.Equal(t, group.RangeKey{Lo: 0, Hi: 100}, w.Key(0))

	e := Ranges{Min: math.MinInt64 + 1, Max: math.MaxInt64, Interval: math.MaxInt64}
	require.NoError(t, e.Validate())
	assert.Equal(t, 2, e.NumRanges())
	assert.Equal(t, 4, e.NumBuckets())
	assert.Equal(t, 0, e.Bucket(-1))
	assert.Equal(t, 1, e.Bucket(0))
	assert.Equal(t, 2, e.Bucket(math.MinInt64))
	assert.Equal(t, 3, e.Bucket(math.MaxInt64))
	assert.Equal(t, group.RangeKey{Lo: math.MinInt64 + 1, Hi: 0}, e.Key(0))
	assert.Equal(t, group.RangeKey{Lo: 0, Hi: math.MaxInt64}, e.Key(1))

	all := Ranges{Min: math.MinInt64, Max: math.MaxInt64, Interval: 1}
	assert.Equal(t, math.MaxInt32, all.NumRanges())
}

func TestRangesLocateInvertsGroup(t *testing.T) {
	for i := 0; i < 200; i++ {
		r := Ranges{Min: rand.Int63n(100) - 50, Interval: 1 + rand.Int63n(20), ExcludeGutters: rand.Intn(2) == 0}
		r.Max = r.Min + 1 + rand.Int63n(200)
		p := 1 + rand.Intn(10)
		v := rand.Int63n(400) - 200
		b := r.Bucket(v)
		if b < 0 {
			continue
		}
		gp, gb := r.Locate(r.Group(p, b))
		assert.Equal(t, p, gp)
		assert.Equal(t, b, gb)
	}
}

const fixture = `
datasets:
  - name: d
    int_fields: [v]
    docs:
      - {ints: {v: -7}}
      - {ints: {v: 0}}
      - {ints: {v: 3}}
      - {ints: {v: 9}}
      - {ints: {v: 10}}
      - {ints: {v: 19}}
      - {ints: {v: 25}}
      - {ints: {v: 40}}
`

// The bucket arithmetic must agree with the backend's metric regroup.
func TestRangesAgreeWithBackend(t *testing.T) {
	ctx := context.Background()
	datasets, err := mem.LoadFixture(strings.NewReader(fixture))
	require.NoError(t, err)
	ds := datasets[0]
	for _, r := range []Ranges{
		{Min: 0, Max: 25, Interval: 10},
		{Min: 0, Max: 25, Interval: 10, ExcludeGutters: true},
		{Min: -10, Max: 11, Interval: 3},
		{Min: 0, Max: 100, Interval: math.MaxInt64 - 50, ExcludeGutters: true},
		{Min: math.MinInt64 + 1, Max: math.MaxInt64, Interval: math.MaxInt64},
	} {
		s := mem.NewSession(mem.Shard{Dataset: ds})
		_, err := s.PushStat(ctx, backend.Push{"v"})
		require.NoError(t, err)
		_, err = s.PushStat(ctx, backend.Push{"count()"})
		require.NoError(t, err)
		n, err := s.MetricRegroup(ctx, 0, r.Min, r.Max, r.Interval, r.ExcludeGutters)
		require.NoError(t, err)
		require.Equal(t, r.NumBuckets(), n)
		got, err := s.GroupStats(ctx, 1)
		require.NoError(t, err)
		exp := make([]int64, n+1)
		for _, doc := range ds.Docs {
			if b := r.Bucket(doc.Ints["v"]); b >= 0 {
				exp[r.Group(1, b)]++
			}
		}
		assert.Equal(t, exp, got)
	}
}

func TestCutoffs(t *testing.T) {
	// Group 1 holds values 1..10 once each; group 2 is empty.
	c := NewCutoffs([]int64{0, 10, 0}, EqualFractions(4))
	for v := int64(1); v <= 10; v++ {
		c.Observe(1, v, 1)
	}
	assert.Equal(t, []int64{3, 5, 8, 10}, c.Group(1))
	top := int64(math.MaxInt64)
	assert.Equal(t, []int64{top, top, top, top}, c.Group(2))
	assert.Nil(t, c.Group(3))

	// A single heavy term reaches several fractions at once.
	c = NewCutoffs([]int64{0, 10}, EqualFractions(2))
	c.Observe(1, 4, 1)
	c.Observe(1, 7, 9)
	assert.Equal(t, []int64{7, 7}, c.Group(1))

	c = NewCutoffs([]int64{0, 1000}, []Fraction{Percent(99.9)})
	c.Observe(1, 1, 998)
	assert.Equal(t, []int64{top}, c.Group(1))
	c.Observe(1, 2, 1)
	assert.Equal(t, []int64{2}, c.Group(1))
}

func TestTimeBoundaries(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("no tz database")
	}
	start := time.Date(2020, 1, 30, 15, 0, 0, 0, ny)
	end := time.Date(2020, 4, 1, 0, 0, 0, 0, ny)
	b, err := TimeBoundaries(start, end, Month, ny)
	require.NoError(t, err)
	require.Len(t, b, 4)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, ny), b[0])
	assert.Equal(t, time.Date(2020, 4, 1, 0, 0, 0, 0, ny), b[3])

	// 2020-03-08 is a DST transition in New York: days stay calendar days.
	b, err = TimeBoundaries(time.Date(2020, 3, 7, 12, 0, 0, 0, ny), time.Date(2020, 3, 9, 1, 0, 0, 0, ny), Day, ny)
	require.NoError(t, err)
	require.Len(t, b, 4)
	assert.Equal(t, 23*time.Hour, b[2].Sub(b[1]))

	// 2020-01-01 is a Wednesday.
	b, err = TimeBoundaries(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC), Week, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2019, 12, 30, 0, 0, 0, 0, time.UTC), b[0])
	assert.Len(t, b, 2)

	_, err = TimeBoundaries(end, start, Day, ny)
	assert.Error(t, err)
	_, err = ParseUnit("fortnight")
	assert.Error(t, err)
}
