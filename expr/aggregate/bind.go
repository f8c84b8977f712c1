package aggregate

import (
	"math"
	"regexp"
	"strconv"

	iqe "github.com/brimdata/iql/errors"
	"github.com/brimdata/iql/expr/docmetric"
	"github.com/brimdata/iql/group"
	"github.com/brimdata/iql/term"
)

// Binding supplies what a tree refers to outside itself.
type Binding interface {
	// Stats returns the slots of the combined statistics row holding m,
	// one per dataset m applies to.
	Stats(m docmetric.Metric) ([]int, error)
	// Lookup returns the values saved under name, indexed by group, and
	// the depth at which they were saved.
	Lookup(name string) ([]float64, int, error)
	Groups() *group.KeySet
}

// Bound nodes replace the leaves that refer outside the tree.
type (
	boundStats struct {
		slots []int
	}
	boundLookup struct {
		name   string
		values []float64
		depth  int
	}
	boundParent struct {
		metric Metric
	}
	boundRegex struct {
		re *regexp.Regexp
	}
)

func (*boundStats) metricNode()  {}
func (*boundLookup) metricNode() {}
func (*boundParent) metricNode() {}
func (*boundRegex) filterNode()  {}

var binaryOps = map[string]func(a, b float64) float64{
	"+":   func(a, b float64) float64 { return a + b },
	"-":   func(a, b float64) float64 { return a - b },
	"*":   func(a, b float64) float64 { return a * b },
	"/":   func(a, b float64) float64 { return a / b },
	"%":   math.Mod,
	"min": math.Min,
	"max": math.Max,
	"pow": math.Pow,
}

var compareOps = map[string]func(a, b float64) bool{
	"=":  func(a, b float64) bool { return a == b },
	"!=": func(a, b float64) bool { return a != b },
	"<":  func(a, b float64) bool { return a < b },
	"<=": func(a, b float64) bool { return a <= b },
	">":  func(a, b float64) bool { return a > b },
	">=": func(a, b float64) bool { return a >= b },
}

type needs struct {
	stats bool
	group bool
	term  bool
}

// NeedStats reports whether evaluation reads the statistics row.
func (n needs) NeedStats() bool { return n.stats }

// NeedGroup reports whether evaluation depends on the group beyond its
// statistics, i.e., reads saved lookups.
func (n needs) NeedGroup() bool { return n.group }

// NeedTerm reports whether evaluation reads the current term, which is
// only meaningful while iterating a field.
func (n needs) NeedTerm() bool { return n.term }

type binder struct {
	binding Binding
	depth   int
	needs
	err error
}

func (b *binder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *binder) metric(m Metric) Metric {
	switch m := m.(type) {
	case *DocStats:
		slots, err := b.binding.Stats(m.Metric)
		if err != nil {
			b.fail(err)
			return m
		}
		b.stats = true
		return &boundStats{slots: slots}
	case *Lookup:
		values, depth, err := b.binding.Lookup(m.Name)
		if err != nil {
			b.fail(err)
			return m
		}
		if depth > b.depth {
			b.fail(iqe.E(iqe.Validation, "lookup %q was saved at depth %d, deeper than the current depth %d", m.Name, depth, b.depth))
			return m
		}
		b.group = true
		return &boundLookup{name: m.Name, values: values, depth: depth}
	case *Parent:
		if b.depth == 0 {
			b.fail(iqe.E(iqe.Validation, "parent() used at depth 0"))
			return m
		}
		if refersToStats(m.Metric) {
			b.fail(iqe.E(iqe.Validation, "parent() may refer only to saved lookups"))
			return m
		}
		b.group = true
		return &boundParent{metric: m.Metric}
	case *Binary:
		if _, ok := binaryOps[m.Op]; !ok {
			b.fail(iqe.E(iqe.Validation, "unknown aggregate operator %q", m.Op))
		}
	case *TermValue:
		b.term = true
	}
	return m
}

func (b *binder) filter(f Filter) Filter {
	switch f := f.(type) {
	case *Compare:
		if _, ok := compareOps[f.Op]; !ok {
			b.fail(iqe.E(iqe.Validation, "unknown aggregate comparison %q", f.Op))
		}
	case *TermIs:
		b.term = true
	case *TermRegex:
		re, err := regexp.Compile("^(?:" + f.Pattern + ")$")
		if err != nil {
			b.fail(iqe.E(iqe.Validation, "term regex %q: %w", f.Pattern, err))
			return f
		}
		b.term = true
		return &boundRegex{re: re}
	}
	return f
}

func refersToStats(m Metric) bool {
	var found bool
	Transform(m, func(m Metric) Metric {
		if _, ok := m.(*boundStats); ok {
			found = true
		}
		return m
	}, nil)
	return found
}

// Bound evaluates a metric bound to the statistics and lookups of one step.
type Bound struct {
	needs
	root Metric
	keys *group.KeySet
}

func Bind(m Metric, binding Binding) (*Bound, error) {
	keys := binding.Groups()
	b := &binder{binding: binding, depth: keys.Depth()}
	root := Transform(m, b.metric, b.filter)
	if b.err != nil {
		return nil, b.err
	}
	return &Bound{needs: b.needs, root: root, keys: keys}, nil
}

// Apply evaluates the metric for group g given the combined statistics row
// of (t, g).  Callers that are not iterating pass the zero term.
func (b *Bound) Apply(t term.Term, row []int64, g int) float64 {
	e := env{keys: b.keys, term: t, row: row}
	return e.metric(b.root, g, b.keys.Depth())
}

// GroupStats evaluates the metric for every group.  table holds, per slot
// of the combined row, the per-group sums indexed by group.  The result is
// indexed by group; index 0 is unused.
func (b *Bound) GroupStats(table [][]int64, numGroups int) []float64 {
	out := make([]float64, numGroups+1)
	row := make([]int64, len(table))
	for g := 1; g <= numGroups; g++ {
		for slot, stats := range table {
			if g < len(stats) {
				row[slot] = stats[g]
			} else {
				row[slot] = 0
			}
		}
		out[g] = b.Apply(term.Term{}, row, g)
	}
	return out
}

// BoundFilter is the filter counterpart of Bound.
type BoundFilter struct {
	needs
	root Filter
	keys *group.KeySet
}

func BindFilter(f Filter, binding Binding) (*BoundFilter, error) {
	keys := binding.Groups()
	b := &binder{binding: binding, depth: keys.Depth()}
	root := TransformFilter(f, b.metric, b.filter)
	if b.err != nil {
		return nil, b.err
	}
	return &BoundFilter{needs: b.needs, root: root, keys: keys}, nil
}

func (b *BoundFilter) Allow(t term.Term, row []int64, g int) bool {
	e := env{keys: b.keys, term: t, row: row}
	return e.filter(b.root, g, b.keys.Depth())
}

// env is the evaluation context of one Apply or Allow.  Groups are always
// numbered at the current depth; depth is the level whose values are being
// read, which Parent lowers by one.
type env struct {
	keys *group.KeySet
	term term.Term
	row  []int64
}

func (e *env) metric(m Metric, g, depth int) float64 {
	switch m := m.(type) {
	case *boundStats:
		var sum int64
		for _, slot := range m.slots {
			if slot < len(e.row) {
				sum += e.row[slot]
			}
		}
		return float64(sum)
	case *boundLookup:
		if m.depth > depth {
			return math.NaN()
		}
		a := e.keys.Ancestor(g, m.depth)
		if a <= 0 || a >= len(m.values) {
			return math.NaN()
		}
		return m.values[a]
	case *boundParent:
		return e.metric(m.metric, g, depth-1)
	case *Constant:
		return m.Value
	case *Binary:
		return binaryOps[m.Op](e.metric(m.LHS, g, depth), e.metric(m.RHS, g, depth))
	case *Negate:
		return -e.metric(m.Operand, g, depth)
	case *Abs:
		return math.Abs(e.metric(m.Operand, g, depth))
	case *Log:
		return math.Log(e.metric(m.Operand, g, depth))
	case *IfThenElse:
		if e.filter(m.Cond, g, depth) {
			return e.metric(m.Then, g, depth)
		}
		return e.metric(m.Else, g, depth)
	case *TermValue:
		if e.term.IsInt {
			return float64(e.term.Int)
		}
		v, err := strconv.ParseFloat(e.term.Str, 64)
		if err != nil {
			return math.NaN()
		}
		return v
	}
	return math.NaN()
}

func (e *env) filter(f Filter, g, depth int) bool {
	switch f := f.(type) {
	case *Always:
		return true
	case *Never:
		return false
	case *Compare:
		return compareOps[f.Op](e.metric(f.LHS, g, depth), e.metric(f.RHS, g, depth))
	case *And:
		return e.filter(f.LHS, g, depth) && e.filter(f.RHS, g, depth)
	case *Or:
		return e.filter(f.LHS, g, depth) || e.filter(f.RHS, g, depth)
	case *Not:
		return !e.filter(f.Operand, g, depth)
	case *TermIs:
		return e.term.Equal(f.Term)
	case *boundRegex:
		return f.re.MatchString(e.term.String())
	}
	return false
}
