package command

import (
	"context"
	"fmt"
	"math"

	"github.com/brimdata/iql/bucket"
	iqe "github.com/brimdata/iql/errors"
	"github.com/brimdata/iql/expr/aggregate"
	"github.com/brimdata/iql/session"
	"github.com/brimdata/iql/term"
)

// GroupStats evaluates metrics for every group of state.  The result is
// indexed by group and then by metric; index 0 is unused.
func (e *Executor) GroupStats(ctx context.Context, state session.State, metrics []aggregate.Metric) (out [][]float64, err error) {
	s, err := e.newStep(state, e.session.Names())
	if err != nil {
		return nil, err
	}
	defer s.done(&err)
	columns, _, err := e.groupColumns(ctx, s, metrics)
	if err != nil {
		return nil, err
	}
	numGroups := state.NumGroups()
	out = make([][]float64, numGroups+1)
	for g := 1; g <= numGroups; g++ {
		values := make([]float64, len(columns))
		for k, col := range columns {
			values[k] = col[g]
		}
		out[g] = values
	}
	return out, nil
}

// groupColumns binds metrics and a document count on s, applies s and
// returns each metric's values per group followed by the counts.
func (e *Executor) groupColumns(ctx context.Context, s *step, metrics []aggregate.Metric) ([][]float64, []float64, error) {
	bound := make([]*aggregate.Bound, len(metrics))
	for k, m := range metrics {
		b, err := s.bind(m)
		if err != nil {
			return nil, nil, fmt.Errorf("metric %d: %w", k, err)
		}
		bound[k] = b
	}
	count, err := s.bind(aggregate.Count())
	if err != nil {
		return nil, nil, err
	}
	if err := s.apply(ctx); err != nil {
		return nil, nil, err
	}
	table, err := s.table(ctx)
	if err != nil {
		return nil, nil, err
	}
	numGroups := s.state.NumGroups()
	columns := make([][]float64, len(bound))
	for k, b := range bound {
		columns[k] = b.GroupStats(table, numGroups)
	}
	return columns, count.GroupStats(table, numGroups), nil
}

func (e *Executor) getGroupStats(ctx context.Context, state session.State, c *GetGroupStats) (next session.State, err error) {
	s, err := e.newStep(state, e.session.Names())
	if err != nil {
		return state, err
	}
	defer s.done(&err)
	columns, counts, err := e.groupColumns(ctx, s, c.Metrics)
	if err != nil {
		return state, err
	}
	for g := 1; g <= state.NumGroups(); g++ {
		if counts[g] <= 0 {
			continue
		}
		values := make([]float64, len(columns))
		for k, col := range columns {
			values[k] = col[g]
		}
		if err := e.emit(state.Keys.GroupKeyStrings(g), values); err != nil {
			return state, err
		}
	}
	return state, nil
}

func (e *Executor) simpleIterate(ctx context.Context, state session.State, c *SimpleIterate) (next session.State, err error) {
	names, err := e.session.Resolve(c.Datasets)
	if err != nil {
		return state, err
	}
	iterated, err := e.withField(names, len(c.Datasets) > 0, c.Field)
	if err != nil {
		return state, err
	}
	if c.Limit != nil && c.Limit.K <= 0 {
		return state, iqe.E(iqe.Validation, "top-k limit must be positive, got %d", c.Limit.K)
	}
	s, err := e.newStep(state, iterated)
	if err != nil {
		return state, err
	}
	defer s.done(&err)
	metrics := make([]*aggregate.Bound, len(c.Metrics))
	for k, m := range c.Metrics {
		if metrics[k], err = s.bind(m); err != nil {
			return state, fmt.Errorf("metric %d: %w", k, err)
		}
	}
	filter, err := s.bindFilter(c.Filter)
	if err != nil {
		return state, err
	}
	var rank *aggregate.Bound
	if c.Limit != nil {
		m := c.Limit.Metric
		if m == nil {
			m = aggregate.Count()
		}
		if rank, err = s.bind(m); err != nil {
			return state, err
		}
	}
	if err := s.apply(ctx); err != nil {
		return state, err
	}
	m, err := s.merger(ctx, c.Field, iterated)
	if err != nil {
		return state, err
	}
	emit := func(t term.Term, g int, row []int64) error {
		keys := append(state.Keys.GroupKeyStrings(g), t.String())
		values := make([]float64, len(metrics))
		for k, b := range metrics {
			values[k] = b.Apply(t, row, g)
		}
		return e.emit(keys, values)
	}
	var top *bucket.TopK
	if rank != nil {
		top = bucket.NewTopK(c.Limit.K)
	}
	err = m.Iterate(ctx, func(t term.Term, g int, row []int64) error {
		if filter != nil && !filter.Allow(t, row, g) {
			return nil
		}
		if top != nil {
			top.Offer(g, bucket.Entry{Term: t, Score: rank.Apply(t, row, g), Row: row})
			return nil
		}
		return emit(t, g, row)
	})
	if err != nil || top == nil {
		return state, err
	}
	for _, g := range top.Groups() {
		for _, entry := range top.Drain(g) {
			if err := emit(entry.Term, g, entry.Row); err != nil {
				return state, err
			}
		}
	}
	return state, nil
}

func checkName(name string) error {
	if name == "" {
		return iqe.E(iqe.Validation, "no name to save stats under")
	}
	return nil
}

// save returns state with values saved under name at the current depth.
func save(state session.State, name string, values []float64) session.State {
	return state.WithSaved(name, session.SavedStats{Depth: state.Depth(), Values: values})
}

func (e *Executor) sumAcross(ctx context.Context, state session.State, c *SumAcross) (next session.State, err error) {
	if err := checkName(c.Name); err != nil {
		return state, err
	}
	names, err := e.session.Resolve(c.Datasets)
	if err != nil {
		return state, err
	}
	iterated, err := e.withField(names, len(c.Datasets) > 0, c.Field)
	if err != nil {
		return state, err
	}
	s, err := e.newStep(state, iterated)
	if err != nil {
		return state, err
	}
	defer s.done(&err)
	metric, err := s.bind(c.Metric)
	if err != nil {
		return state, err
	}
	filter, err := s.bindFilter(c.Filter)
	if err != nil {
		return state, err
	}
	if err := s.apply(ctx); err != nil {
		return state, err
	}
	m, err := s.merger(ctx, c.Field, iterated)
	if err != nil {
		return state, err
	}
	sums := make([]float64, state.NumGroups()+1)
	err = m.Iterate(ctx, func(t term.Term, g int, row []int64) error {
		if g >= len(sums) {
			return iqe.E(iqe.Consistency, "field %q: group %d beyond %d groups", c.Field, g, len(sums)-1)
		}
		if filter == nil || filter.Allow(t, row, g) {
			sums[g] += metric.Apply(t, row, g)
		}
		return nil
	})
	if err != nil {
		return state, err
	}
	return save(state, c.Name, sums), nil
}

func (e *Executor) computeLookup(ctx context.Context, state session.State, c *ComputeAndCreateGroupStatsLookup) (next session.State, err error) {
	if err := checkName(c.Name); err != nil {
		return state, err
	}
	s, err := e.newStep(state, e.session.Names())
	if err != nil {
		return state, err
	}
	defer s.done(&err)
	metric, err := s.bind(c.Metric)
	if err != nil {
		return state, err
	}
	if err := s.apply(ctx); err != nil {
		return state, err
	}
	table, err := s.table(ctx)
	if err != nil {
		return state, err
	}
	return save(state, c.Name, metric.GroupStats(table, state.NumGroups())), nil
}

func (e *Executor) computeDistincts(ctx context.Context, state session.State, c *ComputeGroupDistincts) (next session.State, err error) {
	if err := checkName(c.Name); err != nil {
		return state, err
	}
	names, err := e.session.Resolve(c.Datasets)
	if err != nil {
		return state, err
	}
	iterated, err := e.withField(names, len(c.Datasets) > 0, c.Field)
	if err != nil {
		return state, err
	}
	s, err := e.newStep(state, iterated)
	if err != nil {
		return state, err
	}
	defer s.done(&err)
	filter, err := s.bindFilter(c.Filter)
	if err != nil {
		return state, err
	}
	if err := s.apply(ctx); err != nil {
		return state, err
	}
	m, err := s.merger(ctx, c.Field, iterated)
	if err != nil {
		return state, err
	}
	counts := make([]float64, state.NumGroups()+1)
	// The merge reports each (term, group) once.
	err = m.Iterate(ctx, func(t term.Term, g int, row []int64) error {
		if g >= len(counts) {
			return iqe.E(iqe.Consistency, "field %q: group %d beyond %d groups", c.Field, g, len(counts)-1)
		}
		if filter == nil || filter.Allow(t, row, g) {
			counts[g]++
		}
		return nil
	})
	if err != nil {
		return state, err
	}
	return save(state, c.Name, counts), nil
}

func (e *Executor) computePercentile(ctx context.Context, state session.State, c *ComputeGroupPercentile) (next session.State, err error) {
	if err := checkName(c.Name); err != nil {
		return state, err
	}
	if !(c.Percentile > 0 && c.Percentile <= 100) {
		return state, iqe.E(iqe.Validation, "percentile %g is not in (0, 100]", c.Percentile)
	}
	names, err := e.session.Resolve(c.Datasets)
	if err != nil {
		return state, err
	}
	withField, err := e.withIntField(names, len(c.Datasets) > 0, c.Field)
	if err != nil {
		return state, err
	}
	s, err := e.newStep(state, withField)
	if err != nil {
		return state, err
	}
	defer s.done(&err)
	cutoffs, err := e.cutoffs(ctx, s, c.Field, withField, []bucket.Fraction{bucket.Percent(c.Percentile)})
	if err != nil {
		return state, err
	}
	values := make([]float64, state.NumGroups()+1)
	for g := 1; g < len(values); g++ {
		v := cutoffs.Group(g)[0]
		if v == math.MaxInt64 {
			values[g] = math.NaN()
		} else {
			values[g] = float64(v)
		}
	}
	return save(state, c.Name, values), nil
}
