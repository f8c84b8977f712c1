// Package group maintains the partition of documents into numbered groups.
//
// A KeySet records, for every depth of explosion, the parent of each group
// and the key fragment that labels it.  The levels live in an arena indexed
// by depth so that looking up a parent is an array index and a KeySet may be
// shared freely: levels are immutable once built and every explode or pop
// yields a new KeySet value.
package group

import (
	iqe "github.com/brimdata/iql/errors"
)

type level struct {
	// parents and keys are indexed by group number; slot 0 is the
	// filtered-out group and is never used.
	parents []int
	keys    []Key
}

func (l *level) numGroups() int {
	return len(l.parents) - 1
}

type KeySet struct {
	levels []*level
}

// New returns the KeySet at depth 0, which has exactly one group covering
// all documents.
func New() *KeySet {
	root := &level{
		parents: []int{0, 0},
		keys:    []Key{nil, nil},
	}
	return &KeySet{levels: []*level{root}}
}

func (k *KeySet) top() *level {
	return k.levels[len(k.levels)-1]
}

// Depth returns the number of explodes applied since the ungrouped root.
func (k *KeySet) Depth() int {
	return len(k.levels) - 1
}

func (k *KeySet) NumGroups() int {
	return k.top().numGroups()
}

// ParentGroup returns the group at depth-1 containing group g.  At depth 0
// every group's parent is 0.
func (k *KeySet) ParentGroup(g int) int {
	l := k.top()
	if g <= 0 || g >= len(l.parents) {
		return 0
	}
	return l.parents[g]
}

// Ancestor returns the group at depth containing group g of the current
// depth, or 0 if depth is out of range.
func (k *KeySet) Ancestor(g, depth int) int {
	if depth < 0 || depth > k.Depth() {
		return 0
	}
	for d := k.Depth(); d > depth; d-- {
		l := k.levels[d]
		if g <= 0 || g >= len(l.parents) {
			return 0
		}
		g = l.parents[g]
	}
	return g
}

// Key returns the key fragment that labels group g at the current depth.
func (k *KeySet) Key(g int) Key {
	l := k.top()
	if g <= 0 || g >= len(l.keys) {
		return nil
	}
	return l.keys[g]
}

// GroupKey returns the ordered key fragments from the root to group g.
func (k *KeySet) GroupKey(g int) []Key {
	depth := k.Depth()
	if depth == 0 {
		return nil
	}
	keys := make([]Key, depth)
	for d := depth; d > 0; d-- {
		l := k.levels[d]
		if g <= 0 || g >= len(l.keys) {
			return nil
		}
		keys[d-1] = l.keys[g]
		g = l.parents[g]
	}
	return keys
}

// GroupKeyStrings is GroupKey rendered as strings.
func (k *KeySet) GroupKeyStrings(g int) []string {
	keys := k.GroupKey(g)
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = key.String()
	}
	return out
}

// Previous returns the KeySet one depth up.  Calling Previous at depth 0 is
// a programming error reported as a consistency error.
func (k *KeySet) Previous() (*KeySet, error) {
	if k.Depth() == 0 {
		return nil, iqe.E(iqe.Consistency, "cannot pop group key set at depth 0")
	}
	return &KeySet{levels: k.levels[:len(k.levels)-1:len(k.levels)-1]}, nil
}

// Children returns the groups at the current depth whose parent is p, in
// ascending group order.
func (k *KeySet) Children(p int) []int {
	var out []int
	l := k.top()
	for g := 1; g < len(l.parents); g++ {
		if l.parents[g] == p {
			out = append(out, g)
		}
	}
	return out
}

// Builder allocates the groups of a new level below an existing KeySet.
type Builder struct {
	parent  *KeySet
	parents []int
	keys    []Key
}

func NewBuilder(parent *KeySet) *Builder {
	return &Builder{
		parent:  parent,
		parents: []int{0},
		keys:    []Key{nil},
	}
}

// Add allocates the next group number as a child of parentGroup labeled
// with key.  Group numbers are allocated contiguously starting at 1.
func (b *Builder) Add(parentGroup int, key Key) (int, error) {
	if parentGroup < 1 || parentGroup > b.parent.NumGroups() {
		return 0, iqe.E(iqe.Consistency, "parent group %d out of range [1, %d]", parentGroup, b.parent.NumGroups())
	}
	b.parents = append(b.parents, parentGroup)
	b.keys = append(b.keys, key)
	return len(b.parents) - 1, nil
}

func (b *Builder) NumGroups() int {
	return len(b.parents) - 1
}

// Build returns the KeySet one level deeper than the builder's parent.
// The parent's levels are copied, not aliased, so building several children
// of the same KeySet is safe.
func (b *Builder) Build() *KeySet {
	levels := make([]*level, len(b.parent.levels), len(b.parent.levels)+1)
	copy(levels, b.parent.levels)
	levels = append(levels, &level{parents: b.parents, keys: b.keys})
	return &KeySet{levels: levels}
}

// Replace returns a KeySet at the same depth whose top level is rebuilt by
// the builder.  The builder's parent must be the KeySet one level up.
func Replace(k *KeySet, b *Builder) (*KeySet, error) {
	prev, err := k.Previous()
	if err != nil {
		return nil, err
	}
	if prev.Depth() != b.parent.Depth() {
		return nil, iqe.E(iqe.Consistency, "replace: builder depth %d does not match %d", b.parent.Depth()+1, k.Depth())
	}
	return b.Build(), nil
}
