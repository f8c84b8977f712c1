package bucket

import (
	"math"
)

// Fraction is the exact ratio Num/Den.
type Fraction struct {
	Num, Den int64
}

// EqualFractions returns 1/n, 2/n, ..., n/n.
func EqualFractions(n int) []Fraction {
	out := make([]Fraction, n)
	for i := range out {
		out[i] = Fraction{Num: int64(i + 1), Den: int64(n)}
	}
	return out
}

// Percent returns p/100 with a resolution of a thousandth of a percent.
func Percent(p float64) Fraction {
	return Fraction{Num: int64(math.Round(p * 1000)), Den: 100000}
}

// Cutoffs finds, for every group, the first term at which the running
// document count reaches each fraction of the group's total.  Terms must be
// observed in ascending order within each group, as the merge iterator
// delivers them.
type Cutoffs struct {
	totals    []int64
	fractions []Fraction
	running   []int64
	next      []int
	cutoffs   [][]int64
}

// NewCutoffs starts the second pass given the per-group document totals
// from the first, indexed by group.
func NewCutoffs(totals []int64, fractions []Fraction) *Cutoffs {
	n := len(totals)
	c := &Cutoffs{
		totals:    totals,
		fractions: fractions,
		running:   make([]int64, n),
		next:      make([]int, n),
		cutoffs:   make([][]int64, n),
	}
	for g := range c.cutoffs {
		cut := make([]int64, len(fractions))
		for i := range cut {
			cut[i] = math.MaxInt64
		}
		c.cutoffs[g] = cut
	}
	return c
}

func (c *Cutoffs) reached(g, i int) bool {
	f := c.fractions[i]
	return c.running[g]*f.Den >= f.Num*c.totals[g]
}

// Observe adds count documents holding value v to group g.
func (c *Cutoffs) Observe(g int, v, count int64) {
	if g <= 0 || g >= len(c.totals) || c.totals[g] <= 0 {
		return
	}
	c.running[g] += count
	for c.next[g] < len(c.fractions) && c.reached(g, c.next[g]) {
		c.cutoffs[g][c.next[g]] = v
		c.next[g]++
	}
}

// Group returns the cutoffs of g, one per fraction.  Fractions never
// reached are math.MaxInt64.
func (c *Cutoffs) Group(g int) []int64 {
	if g <= 0 || g >= len(c.cutoffs) {
		return nil
	}
	return c.cutoffs[g]
}
