package aggregate

import (
	"errors"
	"fmt"
	"math"
	"testing"

	iqe "github.com/brimdata/iql/errors"
	"github.com/brimdata/iql/expr/docmetric"
	"github.com/brimdata/iql/group"
	"github.com/brimdata/iql/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saved struct {
	values []float64
	depth  int
}

type testBinding struct {
	keys    *group.KeySet
	lookups map[string]saved
}

// Count lives in slot 0 of the row; oji is pushed on two datasets and
// lives in slots 1 and 2.
func (b *testBinding) Stats(m docmetric.Metric) ([]int, error) {
	switch m := m.(type) {
	case *docmetric.Count:
		return []int{0}, nil
	case *docmetric.Field:
		if m.Name == "oji" {
			return []int{1, 2}, nil
		}
	}
	return nil, errors.New("no such stat")
}

func (b *testBinding) Lookup(name string) ([]float64, int, error) {
	s, ok := b.lookups[name]
	if !ok {
		return nil, 0, iqe.E(iqe.Validation, "no lookup %q", name)
	}
	return s.values, s.depth, nil
}

func (b *testBinding) Groups() *group.KeySet {
	return b.keys
}

// twoLevels returns a KeySet of depth 2 where groups 1,2 are children of
// group 1 and groups 3,4 are children of group 2.
func twoLevels(t *testing.T) *group.KeySet {
	k := group.New()
	for depth := 0; depth < 2; depth++ {
		b := group.NewBuilder(k)
		for p := 1; p <= k.NumGroups(); p++ {
			for i := 0; i < 2; i++ {
				_, err := b.Add(p, &group.DefaultKey{Name: fmt.Sprint(p, i)})
				require.NoError(t, err)
			}
		}
		k = b.Build()
	}
	return k
}

var (
	count = Count()
	oji   = &DocStats{Metric: &docmetric.Field{Name: "oji"}}
)

func constant(v float64) Metric {
	return &Constant{Value: v}
}

func TestApplyArithmetic(t *testing.T) {
	binding := &testBinding{keys: group.New()}
	row := []int64{2, 30, 10}
	cases := []struct {
		metric Metric
		exp    float64
	}{
		{count, 2},
		{oji, 40},
		{&Binary{Op: "/", LHS: oji, RHS: count}, 20},
		{&Binary{Op: "%", LHS: oji, RHS: constant(7)}, 5},
		{&Binary{Op: "pow", LHS: count, RHS: constant(10)}, 1024},
		{&Binary{Op: "min", LHS: oji, RHS: count}, 2},
		{&Negate{Operand: oji}, -40},
		{&Abs{Operand: &Negate{Operand: oji}}, 40},
		{&Log{Operand: constant(math.E)}, 1},
		{&IfThenElse{Cond: &Compare{Op: ">", LHS: oji, RHS: constant(100)}, Then: constant(1), Else: constant(2)}, 2},
	}
	for k, c := range cases {
		t.Run(fmt.Sprint(k), func(t *testing.T) {
			b, err := Bind(c.metric, binding)
			require.NoError(t, err)
			assert.InDelta(t, c.exp, b.Apply(term.Term{}, row, 1), 1e-9)
		})
	}
}

func TestDivisionIsIEEE(t *testing.T) {
	binding := &testBinding{keys: group.New()}
	apply := func(m Metric) float64 {
		b, err := Bind(m, binding)
		require.NoError(t, err)
		return b.Apply(term.Term{}, nil, 1)
	}
	assert.True(t, math.IsInf(apply(&Binary{Op: "/", LHS: constant(1), RHS: constant(0)}), 1))
	assert.True(t, math.IsInf(apply(&Binary{Op: "/", LHS: constant(-1), RHS: constant(0)}), -1))
	assert.True(t, math.IsNaN(apply(&Binary{Op: "/", LHS: constant(0), RHS: constant(0)})))
	assert.True(t, math.IsNaN(apply(&Binary{Op: "%", LHS: constant(3), RHS: constant(0)})))
	// Absent stats are zero.
	assert.True(t, math.IsInf(apply(&Binary{Op: "/", LHS: constant(1), RHS: count}), 1))
}

func TestNeeds(t *testing.T) {
	binding := &testBinding{
		keys:    twoLevels(t),
		lookups: map[string]saved{"x": {values: []float64{0, 1, 2}, depth: 1}},
	}
	b, err := Bind(oji, binding)
	require.NoError(t, err)
	assert.True(t, b.NeedStats())
	assert.False(t, b.NeedGroup())
	assert.False(t, b.NeedTerm())

	b, err = Bind(&Binary{Op: "+", LHS: &Lookup{Name: "x"}, RHS: &TermValue{}}, binding)
	require.NoError(t, err)
	assert.False(t, b.NeedStats())
	assert.True(t, b.NeedGroup())
	assert.True(t, b.NeedTerm())

	f, err := BindFilter(&TermRegex{Pattern: "a.*"}, binding)
	require.NoError(t, err)
	assert.True(t, f.NeedTerm())
}

func TestGroupStats(t *testing.T) {
	binding := &testBinding{keys: group.New()}
	b, err := Bind(&Binary{Op: "/", LHS: oji, RHS: count}, binding)
	require.NoError(t, err)
	table := [][]int64{
		{0, 2, 4, 0},
		{0, 10, 20, 0},
		{0, 10},
	}
	out := b.GroupStats(table, 3)
	require.Len(t, out, 4)
	assert.Equal(t, 10.0, out[1])
	assert.Equal(t, 5.0, out[2])
	assert.True(t, math.IsNaN(out[3]))
}

func TestLookupAncestors(t *testing.T) {
	binding := &testBinding{
		keys: twoLevels(t),
		lookups: map[string]saved{
			"top":   {values: []float64{0, 100}, depth: 0},
			"mid":   {values: []float64{0, 10, 20}, depth: 1},
			"leaf":  {values: []float64{0, 1, 2, 3, 4}, depth: 2},
			"short": {values: []float64{0, 1}, depth: 2},
		},
	}
	eval := func(m Metric, g int) float64 {
		b, err := Bind(m, binding)
		require.NoError(t, err)
		return b.Apply(term.Term{}, nil, g)
	}
	assert.Equal(t, 100.0, eval(&Lookup{Name: "top"}, 3))
	assert.Equal(t, 20.0, eval(&Lookup{Name: "mid"}, 3))
	assert.Equal(t, 10.0, eval(&Lookup{Name: "mid"}, 2))
	assert.Equal(t, 3.0, eval(&Lookup{Name: "leaf"}, 3))
	assert.True(t, math.IsNaN(eval(&Lookup{Name: "short"}, 3)))

	assert.Equal(t, 20.0, eval(&Parent{Metric: &Lookup{Name: "mid"}}, 4))
	// A value saved at the current depth has no parent-level reading.
	assert.True(t, math.IsNaN(eval(&Parent{Metric: &Lookup{Name: "leaf"}}, 4)))
	assert.Equal(t, 100.0, eval(&Parent{Metric: &Parent{Metric: &Lookup{Name: "top"}}}, 4))
}

func TestBindErrors(t *testing.T) {
	root := &testBinding{
		keys:    group.New(),
		lookups: map[string]saved{"deep": {values: []float64{0, 1}, depth: 1}},
	}
	cases := []struct {
		name   string
		metric Metric
	}{
		{"unknown stat", &DocStats{Metric: &docmetric.Field{Name: "nope"}}},
		{"unknown lookup", &Lookup{Name: "nope"}},
		{"deeper lookup", &Lookup{Name: "deep"}},
		{"parent at root", &Parent{Metric: constant(1)}},
		{"bad op", &Binary{Op: "^", LHS: count, RHS: count}},
		{"bad compare", &IfThenElse{Cond: &Compare{Op: "<>", LHS: count, RHS: count}, Then: count, Else: count}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Bind(c.metric, root)
			assert.Error(t, err)
		})
	}

	deep := &testBinding{keys: twoLevels(t)}
	_, err := Bind(&Parent{Metric: count}, deep)
	require.Error(t, err)
	assert.True(t, iqe.IsValidation(err))

	_, err = BindFilter(&TermRegex{Pattern: "("}, deep)
	require.Error(t, err)
	assert.True(t, iqe.IsValidation(err))
}

func TestFilters(t *testing.T) {
	binding := &testBinding{keys: group.New()}
	allow := func(f Filter, tm term.Term) bool {
		b, err := BindFilter(f, binding)
		require.NoError(t, err)
		return b.Allow(tm, []int64{3, 1, 1}, 1)
	}
	assert.True(t, allow(&Always{}, term.Int(1)))
	assert.False(t, allow(&Never{}, term.Int(1)))
	assert.True(t, allow(&TermIs{Term: term.String("us")}, term.String("us")))
	assert.False(t, allow(&TermIs{Term: term.Int(5)}, term.String("5")))
	assert.True(t, allow(&TermRegex{Pattern: "u."}, term.String("us")))
	assert.False(t, allow(&TermRegex{Pattern: "u"}, term.String("us")))
	assert.True(t, allow(&TermRegex{Pattern: "1[0-9]"}, term.Int(12)))
	assert.True(t, allow(&And{
		LHS: &Compare{Op: "=", LHS: count, RHS: constant(3)},
		RHS: &Not{Operand: &Compare{Op: "<", LHS: oji, RHS: constant(2)}},
	}, term.Int(0)))
	assert.True(t, allow(&Or{LHS: &Never{}, RHS: &Compare{Op: ">=", LHS: &TermValue{}, RHS: constant(7)}}, term.String("7.5")))
	// NaN compares false.
	nan := &Binary{Op: "/", LHS: constant(0), RHS: constant(0)}
	assert.False(t, allow(&Compare{Op: "=", LHS: nan, RHS: nan}, term.Int(0)))
	assert.True(t, allow(&Compare{Op: "!=", LHS: nan, RHS: nan}, term.Int(0)))
}

func TestBindLeavesTreeUnchanged(t *testing.T) {
	m := &Binary{Op: "+", LHS: oji, RHS: &Lookup{Name: "x"}}
	binding := &testBinding{
		keys:    group.New(),
		lookups: map[string]saved{"x": {values: []float64{0, 5}, depth: 0}},
	}
	b1, err := Bind(m, binding)
	require.NoError(t, err)
	b2, err := Bind(m, binding)
	require.NoError(t, err)
	assert.Equal(t, oji, m.LHS)
	assert.Equal(t, &Lookup{Name: "x"}, m.RHS)
	assert.Equal(t, b1.Apply(term.Term{}, []int64{0, 1, 1}, 1), b2.Apply(term.Term{}, []int64{0, 1, 1}, 1))
}

func TestRequires(t *testing.T) {
	m := &Binary{Op: "/", LHS: oji, RHS: &IfThenElse{
		Cond: &Compare{Op: ">", LHS: count, RHS: constant(0)},
		Then: count,
		Else: constant(1),
	}}
	req := Requires(m)
	require.Len(t, req, 3)
	assert.Equal(t, &docmetric.Field{Name: "oji"}, req[0])
	assert.Equal(t, &docmetric.Count{}, req[1])
	assert.Len(t, RequiresFilter(&Not{Operand: &Compare{Op: "=", LHS: oji, RHS: count}}), 2)
}
