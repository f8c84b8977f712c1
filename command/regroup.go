package command

import (
	"context"

	iqe "github.com/brimdata/iql/errors"
	"github.com/brimdata/iql/session"
	"github.com/brimdata/iql/term"
)

func (e *Executor) regroupIntoParent(ctx context.Context, state session.State, c *RegroupIntoParent) (session.State, error) {
	policy, err := session.ParsePolicy(c.Policy)
	if err != nil {
		return state, err
	}
	prev, err := state.Keys.Previous()
	if err != nil {
		return state, err
	}
	numGroups := state.NumGroups()
	mapping := make([]int, numGroups+1)
	for g := 1; g <= numGroups; g++ {
		mapping[g] = state.Keys.ParentGroup(g)
	}
	// Merge saved stats first so a policy failure leaves the backends
	// untouched.
	next, err := state.Regroup(policy, prev, mapping)
	if err != nil {
		return state, err
	}
	if err := e.mapGroups(ctx, prev.NumGroups(), mapping); err != nil {
		return state, err
	}
	return next, nil
}

func (e *Executor) regroupIntoLastSibling(ctx context.Context, state session.State, c *RegroupIntoLastSiblingWhere) (next session.State, err error) {
	policy, err := session.ParsePolicy(c.Policy)
	if err != nil {
		return state, err
	}
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
	siblings := make(map[int][]int)
	var parents []int
	for g := 1; g <= numGroups; g++ {
		p := state.Keys.ParentGroup(g)
		if _, ok := siblings[p]; !ok {
			parents = append(parents, p)
		}
		siblings[p] = append(siblings[p], g)
	}
	mapping := make([]int, numGroups+1)
	for g := range mapping {
		mapping[g] = g
	}
	var merged int
	var buf []int64
	for _, p := range parents {
		children := siblings[p]
		last := children[len(children)-1]
		for k, g := range children {
			buf = groupRow(table, g, buf)
			if !filter.Allow(term.Term{}, buf, g) {
				continue
			}
			// The first match carries every later sibling with it.
			for _, sib := range children[k:] {
				if mapping[sib] != last {
					mapping[sib] = last
					merged++
				}
			}
			break
		}
	}
	if merged == 0 {
		return state, nil
	}
	next, err = state.Regroup(policy, state.Keys, mapping)
	if err != nil {
		return state, err
	}
	if err := e.mapGroups(ctx, numGroups, mapping); err != nil {
		return state, err
	}
	return next, nil
}
