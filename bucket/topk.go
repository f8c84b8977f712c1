// Package bucket holds the bookkeeping used by explodes that derive new
// groups from values: per-group top-K selection, numeric range buckets,
// percentile cutoffs and calendar time boundaries.
package bucket

import (
	"math"

	"github.com/brimdata/iql/pkg/heap"
	"github.com/brimdata/iql/term"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Entry is one candidate term of a group, ranked by Score.
type Entry struct {
	Term  term.Term
	Score float64
	// Row is a private copy of the statistics row the term was seen with.
	Row []int64
}

func compareEntries(a, b Entry) int {
	return compareScores(a.Score, b.Score)
}

// compareScores orders NaN below every other score.
func compareScores(a, b float64) int {
	switch an, bn := math.IsNaN(a), math.IsNaN(b); {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// TopK keeps the K highest-scoring entries of every group.  Among equal
// scores the entry offered first is kept.
type TopK struct {
	k     int
	heaps map[int]*heap.Bounded[Entry]
}

func NewTopK(k int) *TopK {
	return &TopK{k: k, heaps: make(map[int]*heap.Bounded[Entry])}
}

// Offer considers e for group.  The row is copied only if e is kept.
func (t *TopK) Offer(group int, e Entry) {
	h, ok := t.heaps[group]
	if !ok {
		h = heap.NewBounded(t.k, compareEntries)
		t.heaps[group] = h
	}
	if h.Len() == t.k {
		if min, ok := h.Min(); ok && compareEntries(e, min) <= 0 {
			return
		}
	}
	e.Row = slices.Clone(e.Row)
	h.Offer(e)
}

// Groups returns the groups with at least one entry in ascending order.
func (t *TopK) Groups() []int {
	groups := maps.Keys(t.heaps)
	slices.Sort(groups)
	return groups
}

// Drain returns the entries kept for group in descending score order and
// forgets them.
func (t *TopK) Drain(group int) []Entry {
	h, ok := t.heaps[group]
	if !ok {
		return nil
	}
	delete(t.heaps, group)
	return h.Drain()
}
