package aggregate

import (
	"math"
	"testing"

	"github.com/brimdata/iql/expr/docmetric"
	"github.com/brimdata/iql/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalMetric(t *testing.T) {
	m, err := UnmarshalMetric([]byte(`
kind: binary
op: /
lhs: oji
rhs:
  kind: binary
  op: max
  lhs: count()
  rhs: 0.5
`))
	require.NoError(t, err)
	assert.Equal(t, &Binary{
		Op:  "/",
		LHS: &DocStats{Metric: &docmetric.Field{Name: "oji"}},
		RHS: &Binary{Op: "max", LHS: Count(), RHS: &Constant{Value: 0.5}},
	}, m)

	m, err = UnmarshalMetric([]byte(`{kind: doc_stats, metric: {kind: has_string, field: country, term: us}}`))
	require.NoError(t, err)
	assert.Equal(t, &DocStats{Metric: &docmetric.HasString{Field: "country", Term: "us"}}, m)

	m, err = UnmarshalMetric([]byte(`{kind: parent, metric: {kind: lookup, name: total}}`))
	require.NoError(t, err)
	assert.Equal(t, &Parent{Metric: &Lookup{Name: "total"}}, m)

	m, err = UnmarshalMetric([]byte(`.nan`))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(m.(*Constant).Value))
}

func TestUnmarshalFilter(t *testing.T) {
	f, err := UnmarshalFilter([]byte(`
kind: or
lhs: {kind: term_is, term: 7}
rhs: {kind: term_regex, pattern: "u.*"}
`))
	require.NoError(t, err)
	assert.Equal(t, &Or{
		LHS: &TermIs{Term: term.Int(7)},
		RHS: &TermRegex{Pattern: "u.*"},
	}, f)

	_, err = UnmarshalFilter([]byte(`{kind: compare, op: ">", lhs: count(), rhs: 1, extra: 2}`))
	assert.ErrorContains(t, err, `unknown field "extra"`)
}
