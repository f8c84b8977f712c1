package command

import (
	"testing"
	"time"

	iqe "github.com/brimdata/iql/errors"
	"github.com/brimdata/iql/expr/aggregate"
	"github.com/brimdata/iql/expr/docmetric"
	"github.com/brimdata/iql/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const query = `
commands:
  - kind: filter_docs
    filters:
      jobs: {kind: field_in, field: country, terms: [us, gb]}
  - kind: explode_and_regroup
    field: country
    limit: {k: 2, metric: count()}
    default: other
  - kind: time_regroup
    interval: 1h
    start: 2024-01-01T00:00:00Z
    end: 2024-01-02T00:00:00Z
  - kind: get_group_stats
    metrics: [count(), oji]
  - kind: regroup_into_parent
    policy: sum_all
`

func TestDecode(t *testing.T) {
	cmds, err := Decode([]byte(query))
	require.NoError(t, err)
	require.Len(t, cmds, 5)
	assert.Equal(t, &FilterDocs{
		Filters: map[string]docmetric.Filter{
			"jobs": &docmetric.FieldIn{Field: "country", Terms: []term.Term{term.String("us"), term.String("gb")}},
		},
	}, cmds[0])
	assert.Equal(t, &ExplodeAndRegroup{
		Field:   "country",
		Limit:   &TopK{K: 2, Metric: aggregate.Count()},
		Default: strp("other"),
	}, cmds[1])
	tr, ok := cmds[2].(*TimeRegroup)
	require.True(t, ok)
	assert.Equal(t, time.Hour, tr.Interval)
	assert.True(t, tr.Start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, &GetGroupStats{Metrics: []aggregate.Metric{
		aggregate.Count(),
		&aggregate.DocStats{Metric: &docmetric.Field{Name: "oji"}},
	}}, cmds[3])
	assert.Equal(t, "regroup_into_parent", Kind(cmds[4]))
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`commands: [{kind: explode_and_regrup, field: country}]`))
	require.Error(t, err)
	assert.True(t, iqe.IsValidation(err))
	assert.Contains(t, err.Error(), `did you mean "explode_and_regroup"`)

	_, err = Decode([]byte(`commands: [{kind: get_group_stats, metrcs: []}]`))
	assert.ErrorContains(t, err, `unknown field "metrcs"`)

	_, err = Decode([]byte(`commands: [null]`))
	assert.True(t, iqe.IsValidation(err))
}

func TestCanonical(t *testing.T) {
	cmds, err := Decode([]byte(query))
	require.NoError(t, err)
	b1, err := Canonical(cmds)
	require.NoError(t, err)
	again, err := Decode(b1)
	require.NoError(t, err)
	b2, err := Canonical(again)
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2))

	other, err := Canonical(cmds[:4])
	require.NoError(t, err)
	assert.NotEqual(t, string(b1), string(other))
}
