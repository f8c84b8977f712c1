package command

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/brimdata/iql/backend"
	"github.com/brimdata/iql/backend/mem"
	"github.com/brimdata/iql/backend/mock"
	iqe "github.com/brimdata/iql/errors"
	"github.com/brimdata/iql/expr/aggregate"
	"github.com/brimdata/iql/expr/docmetric"
	"github.com/brimdata/iql/rowio"
	"github.com/brimdata/iql/session"
	"github.com/brimdata/iql/term"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const fixture = `
datasets:
  - name: jobs
    int_fields: [oji, unixtime]
    string_fields: [country]
    time_field: unixtime
    docs:
      - {ints: {oji: 10, unixtime: 100}, strings: {country: us}}
      - {ints: {oji: 100, unixtime: 200}, strings: {country: gb}}
      - {ints: {oji: 10, unixtime: 300}, strings: {country: us}}
      - {ints: {oji: 1000, unixtime: 400}}
  - name: clicks
    int_fields: [unixtime]
    string_fields: [country]
    time_field: unixtime
    docs:
      - {ints: {unixtime: 150}, strings: {country: us}}
      - {ints: {unixtime: 250}, strings: {country: fr}}
`

type harness struct {
	t     *testing.T
	exec  *Executor
	sess  *session.Session
	rows  *rowio.Array
	state session.State
}

func newHarness(t *testing.T) *harness {
	return newHarnessFrom(t, fixture)
}

func newHarnessFrom(t *testing.T, fixture string) *harness {
	datasets, err := mem.LoadFixture(strings.NewReader(fixture))
	require.NoError(t, err)
	var ds []*session.Dataset
	for _, d := range datasets {
		shard := mem.Shard{Dataset: d}
		ds = append(ds, &session.Dataset{
			Session: mem.NewSession(shard),
			Schema:  d.Schema(),
			Shards:  []string{shard.ID()},
		})
	}
	sess, err := session.New(ds, time.UTC)
	require.NoError(t, err)
	rows := rowio.NewArray(nil)
	return &harness{
		t:     t,
		exec:  NewExecutor(sess, rows, zaptest.NewLogger(t)),
		sess:  sess,
		rows:  rows,
		state: session.NewState(),
	}
}

func (h *harness) run(cmds ...Command) {
	h.t.Helper()
	for _, c := range cmds {
		next, err := h.exec.Run(context.Background(), h.state, c)
		require.NoError(h.t, err)
		h.state = next
	}
}

// counts runs a count-only GetGroupStats and returns the emitted rows.
func (h *harness) counts() []*rowio.Row {
	h.t.Helper()
	before := len(h.rows.Rows())
	h.run(&GetGroupStats{Metrics: []aggregate.Metric{aggregate.Count()}})
	return h.rows.Rows()[before:]
}

func row(value float64, keys ...string) *rowio.Row {
	if keys == nil {
		keys = []string{}
	}
	return &rowio.Row{Keys: keys, Values: []float64{value}}
}

func strp(s string) *string {
	return &s
}

func TestExplodeAndRegroup(t *testing.T) {
	t.Run("all-terms", func(t *testing.T) {
		h := newHarness(t)
		h.run(&ExplodeAndRegroup{Field: "country"})
		assert.Equal(t, 1, h.state.Depth())
		assert.Equal(t, 3, h.state.NumGroups())
		assert.Equal(t, []*rowio.Row{row(1, "fr"), row(1, "gb"), row(3, "us")}, h.counts())
	})
	t.Run("default", func(t *testing.T) {
		h := newHarness(t)
		h.run(&ExplodeAndRegroup{Field: "country", Default: strp("other")})
		assert.Equal(t, 4, h.state.NumGroups())
		assert.Equal(t, []*rowio.Row{row(1, "fr"), row(1, "gb"), row(3, "us"), row(1, "other")}, h.counts())
	})
	t.Run("top-k", func(t *testing.T) {
		h := newHarness(t)
		h.run(&ExplodeAndRegroup{Field: "country", Limit: &TopK{K: 1}, Default: strp("other")})
		assert.Equal(t, []*rowio.Row{row(3, "us"), row(3, "other")}, h.counts())
	})
	t.Run("term-filter", func(t *testing.T) {
		h := newHarness(t)
		h.run(&ExplodeAndRegroup{
			Field:  "country",
			Filter: &aggregate.Not{Operand: &aggregate.TermIs{Term: term.String("gb")}},
		})
		assert.Equal(t, []*rowio.Row{row(1, "fr"), row(3, "us")}, h.counts())
	})
	t.Run("unknown-field", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.exec.Run(context.Background(), h.state, &ExplodeAndRegroup{Field: "contry"})
		require.Error(t, err)
		assert.True(t, iqe.IsValidation(err))
		assert.Contains(t, err.Error(), "explode_and_regroup")
		assert.Contains(t, err.Error(), `did you mean "country"`)
		assert.Equal(t, 0, h.state.Depth())
	})
}

func TestIterateAndExplodeSavesLookups(t *testing.T) {
	h := newHarness(t)
	h.run(&IterateAndExplode{
		Field:   "country",
		Default: strp("other"),
		Lookups: []NamedMetric{{Name: "n", Metric: aggregate.Count()}},
	})
	saved, ok := h.state.Saved("n")
	require.True(t, ok)
	assert.Equal(t, 1, saved.Depth)
	require.Len(t, saved.Values, 5)
	assert.Equal(t, []float64{0, 1, 1, 3}, saved.Values[:4])
	assert.True(t, math.IsNaN(saved.Values[4]))
}

func TestExplodeFieldIn(t *testing.T) {
	h := newHarness(t)
	h.run(&ExplodeFieldIn{
		Field:   "country",
		Terms:   []term.Term{term.String("us"), term.String("xx"), term.String("us")},
		Default: strp("rest"),
	})
	assert.Equal(t, 3, h.state.NumGroups())
	assert.Equal(t, []*rowio.Row{row(3, "us"), row(3, "rest")}, h.counts())

	h = newHarness(t)
	_, err := h.exec.Run(context.Background(), h.state, &ExplodeFieldIn{
		Field: "oji",
		Terms: []term.Term{term.String("ten")},
	})
	assert.True(t, iqe.IsValidation(err))
}

func TestExplodeMetric(t *testing.T) {
	h := newHarness(t)
	h.run(&ExplodeMetric{
		Metric:   &docmetric.Field{Name: "oji"},
		Min:      0,
		Max:      200,
		Interval: 100,
		Datasets: []string{"jobs"},
	})
	assert.Equal(t, 4, h.state.NumGroups())
	expected := []*rowio.Row{
		row(2, "[0, 100)"),
		row(1, "[100, 200)"),
		row(1, "[200, infinity)"),
	}
	assert.Equal(t, expected, h.counts())
}

func TestTimeRegroup(t *testing.T) {
	h := newHarness(t)
	h.run(&TimeRegroup{
		Interval: 200 * time.Second,
		Start:    time.Unix(0, 0),
		End:      time.Unix(400, 0),
	})
	expected := []*rowio.Row{
		row(2, "[1970-01-01 00:00:00, 1970-01-01 00:03:20)"),
		row(3, "[1970-01-01 00:03:20, 1970-01-01 00:06:40)"),
	}
	assert.Equal(t, expected, h.counts())

	_, err := h.exec.Run(context.Background(), h.state, &TimeRegroup{
		Interval: 1500 * time.Millisecond,
		Start:    time.Unix(0, 0),
		End:      time.Unix(400, 0),
	})
	assert.True(t, iqe.IsValidation(err))
}

func TestFilterDocs(t *testing.T) {
	h := newHarness(t)
	h.run(&FilterDocs{Filter: &docmetric.FieldIs{Field: "country", Term: term.String("us")}})
	assert.Equal(t, []*rowio.Row{row(3)}, h.counts())

	h = newHarness(t)
	h.run(&FilterDocs{
		Filter: &docmetric.Always{},
		Filters: map[string]docmetric.Filter{
			"jobs": &docmetric.Compare{Op: ">", LHS: &docmetric.Field{Name: "oji"}, RHS: &docmetric.Constant{Value: 50}},
		},
	})
	assert.Equal(t, []*rowio.Row{row(4)}, h.counts())

	_, err := h.exec.Run(context.Background(), h.state, &FilterDocs{
		Filters: map[string]docmetric.Filter{"jbos": &docmetric.Always{}},
	})
	assert.True(t, iqe.IsValidation(err))
}

func TestFilterGroups(t *testing.T) {
	h := newHarness(t)
	h.run(
		&ExplodeAndRegroup{Field: "country"},
		&FilterGroups{Filter: &aggregate.Compare{Op: ">", LHS: aggregate.Count(), RHS: &aggregate.Constant{Value: 1}}},
	)
	assert.Equal(t, 3, h.state.NumGroups())
	assert.Equal(t, []*rowio.Row{row(3, "us")}, h.counts())
}

func TestSimpleIterate(t *testing.T) {
	h := newHarness(t)
	h.run(&SimpleIterate{Field: "country", Metrics: []aggregate.Metric{aggregate.Count()}})
	assert.Equal(t, []*rowio.Row{row(1, "fr"), row(1, "gb"), row(3, "us")}, h.rows.Rows())

	h = newHarness(t)
	h.run(&SimpleIterate{Field: "country", Metrics: []aggregate.Metric{aggregate.Count()}, Limit: &TopK{K: 2}})
	// Ties keep the term seen first.
	assert.Equal(t, []*rowio.Row{row(3, "us"), row(1, "fr")}, h.rows.Rows())
}

func TestSavedStats(t *testing.T) {
	h := newHarness(t)
	h.run(
		&ExplodeAndRegroup{Field: "country"},
		&ComputeAndCreateGroupStatsLookup{Name: "n", Metric: aggregate.Count()},
		&SumAcross{Field: "unixtime", Metric: &aggregate.TermValue{}, Name: "t"},
		&ComputeGroupDistincts{Field: "unixtime", Name: "d"},
	)
	saved, ok := h.state.Saved("n")
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1, 1, 3}, saved.Values)
	saved, ok = h.state.Saved("t")
	require.True(t, ok)
	assert.Equal(t, []float64{0, 250, 200, 550}, saved.Values)
	saved, ok = h.state.Saved("d")
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1, 1, 3}, saved.Values)

	h.run(&RegroupIntoParent{Policy: "sum_all"})
	assert.Equal(t, 0, h.state.Depth())
	saved, ok = h.state.Saved("n")
	require.True(t, ok)
	assert.Equal(t, 0, saved.Depth)
	assert.Equal(t, []float64{0, 5}, saved.Values)
	// The document without a country stays filtered out.
	assert.Equal(t, []*rowio.Row{row(5)}, h.counts())
}

func TestRegroupIntoParentPolicies(t *testing.T) {
	h := newHarness(t)
	h.run(
		&ExplodeAndRegroup{Field: "country"},
		&ComputeAndCreateGroupStatsLookup{Name: "n", Metric: aggregate.Count()},
	)
	state := h.state
	_, err := h.exec.Run(context.Background(), state, &RegroupIntoParent{Policy: "take_the_one_unique_value"})
	assert.True(t, iqe.IsConsistency(err))
	_, err = h.exec.Run(context.Background(), state, &RegroupIntoParent{Policy: "fail_if_present"})
	assert.True(t, iqe.IsConsistency(err))
	// Failed merges leave the backends alone.
	assert.Equal(t, []*rowio.Row{row(1, "fr"), row(1, "gb"), row(3, "us")}, h.counts())

	_, err = h.exec.Run(context.Background(), session.NewState(), &RegroupIntoParent{})
	assert.True(t, iqe.IsConsistency(err))
}

func TestRegroupIntoLastSiblingWhere(t *testing.T) {
	h := newHarness(t)
	jobs := &aggregate.DocStats{Metric: &docmetric.QualifiedMetric{
		Datasets: []string{"jobs"},
		Metric:   &docmetric.Count{},
	}}
	h.run(
		&ExplodeAndRegroup{Field: "country"},
		&RegroupIntoLastSiblingWhere{
			Filter: &aggregate.Compare{Op: "=", LHS: jobs, RHS: &aggregate.Constant{Value: 1}},
		},
	)
	// gb matches, so it and every later sibling merge into us.
	assert.Equal(t, 1, h.state.Depth())
	assert.Equal(t, []*rowio.Row{row(1, "fr"), row(4, "us")}, h.counts())
}

func TestPercentiles(t *testing.T) {
	h := newHarness(t)
	h.run(&ComputeGroupPercentile{Field: "oji", Percentile: 50, Name: "p"})
	saved, ok := h.state.Saved("p")
	require.True(t, ok)
	assert.Equal(t, []float64{0, 10}, saved.Values)

	h.run(&ExplodePerDocPercentile{Field: "oji", NumBuckets: 2})
	assert.Equal(t, []*rowio.Row{row(2, "(-infinity, 10]"), row(2, "(10, 1000]")}, h.counts())

	_, err := h.exec.Run(context.Background(), h.state, &ComputeGroupPercentile{Field: "oji", Percentile: 0, Name: "p"})
	assert.True(t, iqe.IsValidation(err))
}

func TestGroupStatsReturnsValues(t *testing.T) {
	h := newHarness(t)
	h.run(&ExplodeAndRegroup{Field: "country"})
	values, err := h.exec.GroupStats(context.Background(), h.state, []aggregate.Metric{
		aggregate.Count(),
		&aggregate.Binary{Op: "/", LHS: aggregate.Count(), RHS: &aggregate.Constant{}},
	})
	require.NoError(t, err)
	require.Len(t, values, 4)
	assert.Equal(t, 3.0, values[3][0])
	assert.True(t, math.IsInf(values[3][1], 1))
	assert.Empty(t, h.rows.Rows())
}

func TestPushesReleasedOnFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	sess := mock.NewMockSession(ctrl)
	schema := backend.Schema{Dataset: "jobs", StringFields: []string{"country"}}
	s, err := session.New([]*session.Dataset{{Session: sess, Schema: schema}}, nil)
	require.NoError(t, err)
	gomock.InOrder(
		sess.EXPECT().PushStat(gomock.Any(), backend.Push{"count()"}).Return(0, nil),
		sess.EXPECT().GroupStats(gomock.Any(), 0).Return(nil, errors.New("backend down")),
		sess.EXPECT().PopStat(gomock.Any()).Return(0, nil),
	)
	e := NewExecutor(s, nil, nil)
	_, err = e.Run(context.Background(), session.NewState(), &GetGroupStats{})
	require.Error(t, err)
	assert.True(t, iqe.IsResource(err))
	assert.Contains(t, err.Error(), "backend down")
}

func TestFilterDocsWaitsForEveryDataset(t *testing.T) {
	ctrl := gomock.NewController(t)
	var datasets []*session.Dataset
	for _, name := range []string{"jobs", "tags"} {
		sess := mock.NewMockSession(ctrl)
		filterErr := error(nil)
		if name == "jobs" {
			filterErr = errors.New("shard lost")
		}
		gomock.InOrder(
			sess.EXPECT().PushStat(gomock.Any(), gomock.Any()).Return(0, nil),
			sess.EXPECT().MetricFilter(gomock.Any(), 0, int64(1), int64(1), false).Return(1, filterErr),
			sess.EXPECT().PopStat(gomock.Any()).Return(0, nil),
		)
		schema := backend.Schema{Dataset: name, StringFields: []string{"country"}}
		datasets = append(datasets, &session.Dataset{Session: sess, Schema: schema})
	}
	s, err := session.New(datasets, nil)
	require.NoError(t, err)
	e := NewExecutor(s, nil, nil)
	_, err = e.Run(context.Background(), session.NewState(), &FilterDocs{
		Filter: &docmetric.FieldIs{Field: "country", Term: term.String("us")},
	})
	require.Error(t, err)
	assert.True(t, iqe.IsResource(err))
	assert.Contains(t, err.Error(), "shard lost")
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	_, err := h.exec.Run(context.Background(), h.state, nil)
	assert.True(t, iqe.IsConsistency(err))
}
