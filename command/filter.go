package command

import (
	"context"
	"fmt"

	iqe "github.com/brimdata/iql/errors"
	"github.com/brimdata/iql/expr/docmetric"
	"github.com/brimdata/iql/session"
	"github.com/brimdata/iql/term"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

func (e *Executor) filterDocs(ctx context.Context, state session.State, c *FilterDocs) (next session.State, err error) {
	if c.Filter == nil && len(c.Filters) == 0 {
		return state, iqe.E(iqe.Validation, "no filter given")
	}
	named := maps.Keys(c.Filters)
	slices.Sort(named)
	for _, name := range named {
		if _, err := e.session.Dataset(name); err != nil {
			return state, err
		}
		if c.Filters[name] == nil {
			return state, iqe.E(iqe.Validation, "dataset %q: empty filter", name)
		}
	}
	filters := make(map[string]docmetric.Filter)
	for _, name := range e.session.Names() {
		f, ok := c.Filters[name]
		if !ok {
			f = c.Filter
		}
		if f != nil && docmetric.FilterApplies(f, name) {
			filters[name] = f
		}
	}
	if len(filters) == 0 {
		return state, iqe.E(iqe.Validation, "filter applies to none of the datasets %v", e.session.Names())
	}
	names := maps.Keys(filters)
	slices.Sort(names)
	s, err := e.newStep(state, names)
	if err != nil {
		return state, err
	}
	defer s.done(&err)
	for _, name := range names {
		d := s.datasets[name]
		p, err := docmetric.CompileFilter(filters[name], d.Schema)
		if err != nil {
			return state, err
		}
		if err := s.addPush(name, p); err != nil {
			return state, err
		}
	}
	if err := s.apply(ctx); err != nil {
		return state, err
	}
	stats := make(map[string]int, len(names))
	for _, name := range names {
		stat, err := s.stat(name, s.registry.Pushes(name)[0])
		if err != nil {
			return state, err
		}
		stats[name] = stat
	}
	numGroups := state.NumGroups()
	err = e.forEachDataset(func(d *session.Dataset) error {
		stat, ok := stats[d.Name()]
		if !ok {
			return nil
		}
		n, err := d.Session.MetricFilter(ctx, stat, 1, 1, false)
		if err != nil {
			return iqe.E(iqe.Resource, fmt.Errorf("dataset %q: metric filter: %w", d.Name(), err))
		}
		if n != numGroups {
			return iqe.E(iqe.Consistency, "dataset %q: metric filter left %d groups, expected %d", d.Name(), n, numGroups)
		}
		return nil
	})
	return state, err
}

func (e *Executor) filterGroups(ctx context.Context, state session.State, c *FilterGroups) (next session.State, err error) {
	if c.Filter == nil {
		return state, iqe.E(iqe.Validation, "no filter given")
	}
	s, err := e.newStep(state, e.session.Names())
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
	table, err := s.table(ctx)
	if err != nil {
		return state, err
	}
	numGroups := state.NumGroups()
	mapping := make([]int, numGroups+1)
	var buf []int64
	var dropped int
	for g := 1; g <= numGroups; g++ {
		buf = groupRow(table, g, buf)
		if filter.Allow(term.Term{}, buf, g) {
			mapping[g] = g
		} else {
			dropped++
		}
	}
	if dropped == 0 {
		return state, nil
	}
	if err := e.mapGroups(ctx, numGroups, mapping); err != nil {
		return state, err
	}
	return state, nil
}
