package command

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/brimdata/iql/backend"
	"github.com/brimdata/iql/bucket"
	iqe "github.com/brimdata/iql/errors"
	"github.com/brimdata/iql/expr/aggregate"
	"github.com/brimdata/iql/expr/docmetric"
	"github.com/brimdata/iql/group"
	"github.com/brimdata/iql/session"
	"github.com/brimdata/iql/term"
	"golang.org/x/exp/slices"
)

type termExplode struct {
	field    string
	datasets []string
	filter   aggregate.Filter
	limit    *TopK
	deflt    *string
	lookups  []NamedMetric
}

// termGroup is a new group made from a term of its parent.
type termGroup struct {
	term  term.Term
	group int
}

// termRules returns, for each parent group, the rule sending documents
// holding one of targets[p] to its group and the rest to defaults[p].
// Datasets without field get only the defaults.
func termRules(field string, targets [][]termGroup, defaults []int) func(d *session.Dataset) []backend.Rule {
	return func(d *session.Dataset) []backend.Rule {
		hasField := d.Schema.HasField(field)
		isInt := d.Schema.IsIntField(field)
		var rules []backend.Rule
		for p := 1; p < len(targets); p++ {
			if len(targets[p]) == 0 && defaults[p] == 0 {
				continue
			}
			rule := backend.Rule{Group: p, Default: defaults[p]}
			if hasField {
				for _, t := range targets[p] {
					cond := backend.Condition{Field: field, IntType: isInt}
					if isInt {
						cond.IntTerm = t.term.Int
					} else {
						cond.StrTerm = t.term.Str
					}
					rule.Targets = append(rule.Targets, backend.Target{Cond: cond, Group: t.group})
				}
			}
			rules = append(rules, rule)
		}
		return rules
	}
}

func (e *Executor) explodeTerms(ctx context.Context, state session.State, x termExplode) (next session.State, err error) {
	names, err := e.session.Resolve(x.datasets)
	if err != nil {
		return state, err
	}
	iterated, err := e.withField(names, len(x.datasets) > 0, x.field)
	if err != nil {
		return state, err
	}
	if x.limit != nil && x.limit.K <= 0 {
		return state, iqe.E(iqe.Validation, "top-k limit must be positive, got %d", x.limit.K)
	}
	for _, l := range x.lookups {
		if l.Name == "" {
			return state, iqe.E(iqe.Validation, "lookup with no name")
		}
	}
	s, err := e.newStep(state, names)
	if err != nil {
		return state, err
	}
	defer s.done(&err)
	var rank *aggregate.Bound
	if x.limit != nil {
		m := x.limit.Metric
		if m == nil {
			m = aggregate.Count()
		}
		if rank, err = s.bind(m); err != nil {
			return state, err
		}
	}
	filter, err := s.bindFilter(x.filter)
	if err != nil {
		return state, err
	}
	lookups := make([]*aggregate.Bound, len(x.lookups))
	for k, l := range x.lookups {
		if lookups[k], err = s.bind(l.Metric); err != nil {
			return state, fmt.Errorf("lookup %q: %w", l.Name, err)
		}
	}
	if err := s.apply(ctx); err != nil {
		return state, err
	}
	m, err := s.merger(ctx, x.field, iterated)
	if err != nil {
		return state, err
	}
	type pick struct {
		term term.Term
		row  []int64
	}
	numGroups := state.NumGroups()
	picks := make([][]pick, numGroups+1)
	var top *bucket.TopK
	if rank != nil {
		top = bucket.NewTopK(x.limit.K)
	}
	keepRows := len(lookups) > 0
	err = m.Iterate(ctx, func(t term.Term, g int, row []int64) error {
		if g > numGroups {
			return iqe.E(iqe.Consistency, "field %q: group %d beyond %d groups", x.field, g, numGroups)
		}
		if filter != nil && !filter.Allow(t, row, g) {
			return nil
		}
		if top != nil {
			entry := bucket.Entry{Term: t, Score: rank.Apply(t, row, g)}
			if keepRows {
				entry.Row = row
			}
			top.Offer(g, entry)
			return nil
		}
		p := pick{term: t}
		if keepRows {
			p.row = slices.Clone(row)
		}
		picks[g] = append(picks[g], p)
		return nil
	})
	if err != nil {
		return state, err
	}
	if top != nil {
		for _, g := range top.Groups() {
			for _, entry := range top.Drain(g) {
				picks[g] = append(picks[g], pick{term: entry.Term, row: entry.Row})
			}
		}
	}
	b := group.NewBuilder(state.Keys)
	targets := make([][]termGroup, numGroups+1)
	defaults := make([]int, numGroups+1)
	values := make([][]float64, len(lookups))
	for k := range values {
		values[k] = []float64{0}
	}
	for p := 1; p <= numGroups; p++ {
		for _, pk := range picks[p] {
			g, err := b.Add(p, group.TermKey{Term: pk.term})
			if err != nil {
				return state, err
			}
			targets[p] = append(targets[p], termGroup{term: pk.term, group: g})
			for k, l := range lookups {
				values[k] = append(values[k], l.Apply(pk.term, pk.row, p))
			}
		}
		if x.deflt != nil {
			g, err := b.Add(p, group.DefaultKey{Name: *x.deflt})
			if err != nil {
				return state, err
			}
			defaults[p] = g
			for k := range lookups {
				values[k] = append(values[k], math.NaN())
			}
		}
	}
	if b.NumGroups() > maxGroups {
		return state, iqe.E(iqe.Validation, "explode of field %q creates %d groups, more than %d", x.field, b.NumGroups(), maxGroups)
	}
	keys := b.Build()
	if err := e.regroup(ctx, keys.NumGroups(), termRules(x.field, targets, defaults)); err != nil {
		return state, err
	}
	next = state.WithKeys(keys)
	for k, l := range x.lookups {
		next = next.WithSaved(l.Name, session.SavedStats{Depth: keys.Depth(), Values: values[k]})
	}
	return next, nil
}

func (e *Executor) explodeFieldIn(ctx context.Context, state session.State, c *ExplodeFieldIn) (session.State, error) {
	names, err := e.session.Resolve(c.Datasets)
	if err != nil {
		return state, err
	}
	withField, err := e.withField(names, len(c.Datasets) > 0, c.Field)
	if err != nil {
		return state, err
	}
	if len(c.Terms) == 0 && c.Default == nil {
		return state, iqe.E(iqe.Validation, "field %q: no terms to explode by", c.Field)
	}
	var terms []term.Term
	for _, t := range c.Terms {
		if slices.IndexFunc(terms, t.Equal) < 0 {
			terms = append(terms, t)
		}
	}
	// Terms are coerced to the kind of the field in each dataset.
	coerced := make(map[string][]term.Term)
	for _, name := range withField {
		d, _ := e.session.Dataset(name)
		isInt := d.Schema.IsIntField(c.Field)
		out := make([]term.Term, len(terms))
		for k, t := range terms {
			switch {
			case isInt && !t.IsInt:
				v, err := strconv.ParseInt(t.Str, 10, 64)
				if err != nil {
					return state, iqe.E(iqe.Validation, "dataset %q: term %q of int field %q is not an integer", name, t.Str, c.Field)
				}
				out[k] = term.Int(v)
			case !isInt && t.IsInt:
				out[k] = term.String(t.String())
			default:
				out[k] = t
			}
		}
		coerced[name] = out
	}
	numGroups := state.NumGroups()
	fanout := len(terms)
	if c.Default != nil {
		fanout++
	}
	if err := checkGroups(numGroups, fanout); err != nil {
		return state, err
	}
	b := group.NewBuilder(state.Keys)
	groups := make([][]int, numGroups+1)
	defaults := make([]int, numGroups+1)
	for p := 1; p <= numGroups; p++ {
		for _, t := range terms {
			g, err := b.Add(p, group.TermKey{Term: t})
			if err != nil {
				return state, err
			}
			groups[p] = append(groups[p], g)
		}
		if c.Default != nil {
			g, err := b.Add(p, group.DefaultKey{Name: *c.Default})
			if err != nil {
				return state, err
			}
			defaults[p] = g
		}
	}
	keys := b.Build()
	rules := func(d *session.Dataset) []backend.Rule {
		ts, ok := coerced[d.Name()]
		targets := make([][]termGroup, numGroups+1)
		if ok {
			for p := 1; p <= numGroups; p++ {
				for k, g := range groups[p] {
					targets[p] = append(targets[p], termGroup{term: ts[k], group: g})
				}
			}
		}
		return termRules(c.Field, targets, defaults)(d)
	}
	if err := e.regroup(ctx, keys.NumGroups(), rules); err != nil {
		return state, err
	}
	return state.WithKeys(keys), nil
}

// explodeRanges builds the keys of a bucketed explode: every group is
// split into the buckets of r, in bucket order.
func explodeRanges(keys *group.KeySet, numBuckets int, key func(b int) group.Key) (*group.KeySet, error) {
	b := group.NewBuilder(keys)
	for p := 1; p <= keys.NumGroups(); p++ {
		for i := 0; i < numBuckets; i++ {
			if _, err := b.Add(p, key(i)); err != nil {
				return nil, err
			}
		}
	}
	return b.Build(), nil
}

// metricRegroup buckets every dataset in pushes by the statistic computing
// its push.  Every other dataset loses all its documents.
func (e *Executor) metricRegroup(ctx context.Context, s *step, pushes map[string]backend.Push, r bucket.Ranges, numGroups int) error {
	return e.forEachDataset(func(d *session.Dataset) error {
		p, ok := pushes[d.Name()]
		if !ok {
			n, err := d.Session.Regroup(ctx, numGroups, nil)
			if err != nil {
				return iqe.E(iqe.Resource, fmt.Errorf("dataset %q: regroup: %w", d.Name(), err))
			}
			if n != numGroups {
				return iqe.E(iqe.Consistency, "dataset %q: regroup left %d groups, expected %d", d.Name(), n, numGroups)
			}
			return nil
		}
		stat, err := s.stat(d.Name(), p)
		if err != nil {
			return err
		}
		n, err := d.Session.MetricRegroup(ctx, stat, r.Min, r.Max, r.Interval, r.ExcludeGutters)
		if err != nil {
			return iqe.E(iqe.Resource, fmt.Errorf("dataset %q: metric regroup: %w", d.Name(), err))
		}
		if n != numGroups {
			return iqe.E(iqe.Consistency, "dataset %q: metric regroup left %d groups, expected %d", d.Name(), n, numGroups)
		}
		return nil
	})
}

func (e *Executor) explodeMetric(ctx context.Context, state session.State, c *ExplodeMetric) (next session.State, err error) {
	r := bucket.Ranges{Min: c.Min, Max: c.Max, Interval: c.Interval, ExcludeGutters: c.ExcludeGutters}
	if err := r.Validate(); err != nil {
		return state, err
	}
	if c.Metric == nil {
		return state, iqe.E(iqe.Validation, "missing metric")
	}
	if err := checkGroups(state.NumGroups(), r.NumBuckets()); err != nil {
		return state, err
	}
	names, err := e.session.Resolve(c.Datasets)
	if err != nil {
		return state, err
	}
	s, err := e.newStep(state, names)
	if err != nil {
		return state, err
	}
	defer s.done(&err)
	pushes := make(map[string]backend.Push)
	for _, name := range names {
		if !docmetric.Applies(c.Metric, name) {
			continue
		}
		d, _ := e.session.Dataset(name)
		p, err := docmetric.Compile(c.Metric, d.Schema)
		if err != nil {
			return state, err
		}
		if err := s.addPush(name, p); err != nil {
			return state, err
		}
		pushes[name] = p
	}
	if len(pushes) == 0 {
		return state, iqe.E(iqe.Validation, "metric applies to none of the datasets %v", names)
	}
	keys, err := explodeRanges(state.Keys, r.NumBuckets(), r.Key)
	if err != nil {
		return state, err
	}
	if err := s.apply(ctx); err != nil {
		return state, err
	}
	if err := e.metricRegroup(ctx, s, pushes, r, keys.NumGroups()); err != nil {
		return state, err
	}
	return state.WithKeys(keys), nil
}

func (e *Executor) timeRegroup(ctx context.Context, state session.State, c *TimeRegroup) (next session.State, err error) {
	if c.Interval < time.Second || c.Interval%time.Second != 0 {
		return state, iqe.E(iqe.Validation, "time interval %s is not a positive whole number of seconds", c.Interval)
	}
	loc, err := e.location(c.Location)
	if err != nil {
		return state, err
	}
	r := bucket.Ranges{
		Min:            c.Start.Unix(),
		Max:            c.End.Unix(),
		Interval:       int64(c.Interval / time.Second),
		ExcludeGutters: true,
	}
	if err := r.Validate(); err != nil {
		return state, err
	}
	if err := checkGroups(state.NumGroups(), r.NumBuckets()); err != nil {
		return state, err
	}
	names, err := e.session.Resolve(c.Datasets)
	if err != nil {
		return state, err
	}
	timed, err := e.withTimeField(names, len(c.Datasets) > 0)
	if err != nil {
		return state, err
	}
	s, err := e.newStep(state, timed)
	if err != nil {
		return state, err
	}
	defer s.done(&err)
	pushes := make(map[string]backend.Push)
	for _, name := range timed {
		d, _ := e.session.Dataset(name)
		p, err := docmetric.Compile(&docmetric.Field{Name: d.Schema.TimeField}, d.Schema)
		if err != nil {
			return state, err
		}
		if err := s.addPush(name, p); err != nil {
			return state, err
		}
		pushes[name] = p
	}
	keys, err := explodeRanges(state.Keys, r.NumBuckets(), func(b int) group.Key {
		lo, hi := r.Bounds(b)
		return group.TimeKey{Start: time.Unix(lo, 0).In(loc), End: time.Unix(hi, 0).In(loc), Format: c.Format}
	})
	if err != nil {
		return state, err
	}
	if err := s.apply(ctx); err != nil {
		return state, err
	}
	if err := e.metricRegroup(ctx, s, pushes, r, keys.NumGroups()); err != nil {
		return state, err
	}
	return state.WithKeys(keys), nil
}

func (e *Executor) timePeriodRegroup(ctx context.Context, state session.State, c *TimePeriodRegroup) (session.State, error) {
	unit, err := bucket.ParseUnit(c.Unit)
	if err != nil {
		return state, err
	}
	loc, err := e.location(c.Location)
	if err != nil {
		return state, err
	}
	bounds, err := bucket.TimeBoundaries(c.Start, c.End, unit, loc)
	if err != nil {
		return state, err
	}
	n := len(bounds) - 1
	if err := checkGroups(state.NumGroups(), n); err != nil {
		return state, err
	}
	names, err := e.session.Resolve(c.Datasets)
	if err != nil {
		return state, err
	}
	timed, err := e.withTimeField(names, len(c.Datasets) > 0)
	if err != nil {
		return state, err
	}
	keys, err := explodeRanges(state.Keys, n, func(i int) group.Key {
		return group.TimeKey{Start: bounds[i], End: bounds[i+1], Format: c.Format}
	})
	if err != nil {
		return state, err
	}
	numGroups := state.NumGroups()
	rules := func(d *session.Dataset) []backend.Rule {
		if !slices.Contains(timed, d.Name()) {
			return nil
		}
		field := d.Schema.TimeField
		cond := func(bound time.Time) backend.Condition {
			// Times are whole seconds, so t < bound is t <= bound-1.
			return backend.Condition{Field: field, IntType: true, IntTerm: bound.Unix() - 1, Inequality: true}
		}
		rules := make([]backend.Rule, 0, numGroups)
		for p := 1; p <= numGroups; p++ {
			rule := backend.Rule{Group: p}
			rule.Targets = append(rule.Targets, backend.Target{Cond: cond(bounds[0]), Group: 0})
			for i := 0; i < n; i++ {
				rule.Targets = append(rule.Targets, backend.Target{Cond: cond(bounds[i+1]), Group: (p-1)*n + i + 1})
			}
			rules = append(rules, rule)
		}
		return rules
	}
	if err := e.regroup(ctx, keys.NumGroups(), rules); err != nil {
		return state, err
	}
	return state.WithKeys(keys), nil
}

func (e *Executor) explodePercentile(ctx context.Context, state session.State, c *ExplodePerDocPercentile) (next session.State, err error) {
	if c.NumBuckets <= 0 {
		return state, iqe.E(iqe.Validation, "number of buckets must be positive, got %d", c.NumBuckets)
	}
	if err := checkGroups(state.NumGroups(), c.NumBuckets); err != nil {
		return state, err
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
	cutoffs, err := e.cutoffs(ctx, s, c.Field, withField, bucket.EqualFractions(c.NumBuckets))
	if err != nil {
		return state, err
	}
	numGroups := state.NumGroups()
	b := group.NewBuilder(state.Keys)
	targets := make([][]backend.Target, numGroups+1)
	for p := 1; p <= numGroups; p++ {
		lo := int64(math.MinInt64)
		for _, hi := range cutoffs.Group(p) {
			g, err := b.Add(p, group.PercentileKey{Lo: lo, Hi: hi})
			if err != nil {
				return state, err
			}
			cond := backend.Condition{Field: c.Field, IntType: true, IntTerm: hi, Inequality: true}
			targets[p] = append(targets[p], backend.Target{Cond: cond, Group: g})
			lo = hi
		}
	}
	keys := b.Build()
	rules := func(d *session.Dataset) []backend.Rule {
		if !slices.Contains(withField, d.Name()) {
			return nil
		}
		var rules []backend.Rule
		for p := 1; p <= numGroups; p++ {
			rules = append(rules, backend.Rule{Group: p, Targets: targets[p]})
		}
		return rules
	}
	if err := e.regroup(ctx, keys.NumGroups(), rules); err != nil {
		return state, err
	}
	return state.WithKeys(keys), nil
}

// cutoffs runs the two passes of a percentile computation over int field:
// group totals of the documents holding field, then a merge of field
// accumulating running counts.
func (e *Executor) cutoffs(ctx context.Context, s *step, field string, names []string, fractions []bucket.Fraction) (*bucket.Cutoffs, error) {
	count, err := s.bind(&aggregate.DocStats{Metric: &docmetric.QualifiedMetric{
		Datasets: names,
		Metric:   &docmetric.HasIntField{Field: field},
	}})
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx); err != nil {
		return nil, err
	}
	table, err := s.table(ctx)
	if err != nil {
		return nil, err
	}
	numGroups := s.state.NumGroups()
	totals := make([]int64, numGroups+1)
	for g, v := range count.GroupStats(table, numGroups) {
		totals[g] = int64(v)
	}
	cut := bucket.NewCutoffs(totals, fractions)
	m, err := s.merger(ctx, field, names)
	if err != nil {
		return nil, err
	}
	err = m.Iterate(ctx, func(t term.Term, g int, row []int64) error {
		cut.Observe(g, t.Int, int64(count.Apply(t, row, g)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cut, nil
}
