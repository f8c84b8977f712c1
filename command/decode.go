package command

import (
	iqe "github.com/brimdata/iql/errors"
	"github.com/brimdata/iql/expr/aggregate"
	"github.com/brimdata/iql/pkg/unpack"
)

var reflector = aggregate.Register(unpack.New()).
	Add((*Command)(nil), "explode_and_regroup", ExplodeAndRegroup{}).
	Add((*Command)(nil), "iterate_and_explode", IterateAndExplode{}).
	Add((*Command)(nil), "explode_metric", ExplodeMetric{}).
	Add((*Command)(nil), "explode_field_in", ExplodeFieldIn{}).
	Add((*Command)(nil), "time_regroup", TimeRegroup{}).
	Add((*Command)(nil), "time_period_regroup", TimePeriodRegroup{}).
	Add((*Command)(nil), "filter_docs", FilterDocs{}).
	Add((*Command)(nil), "filter_groups", FilterGroups{}).
	Add((*Command)(nil), "get_group_stats", GetGroupStats{}).
	Add((*Command)(nil), "simple_iterate", SimpleIterate{}).
	Add((*Command)(nil), "sum_across", SumAcross{}).
	Add((*Command)(nil), "compute_and_create_group_stats_lookup", ComputeAndCreateGroupStatsLookup{}).
	Add((*Command)(nil), "compute_group_distincts", ComputeGroupDistincts{}).
	Add((*Command)(nil), "compute_group_percentile", ComputeGroupPercentile{}).
	Add((*Command)(nil), "explode_per_doc_percentile", ExplodePerDocPercentile{}).
	Add((*Command)(nil), "regroup_into_parent", RegroupIntoParent{}).
	Add((*Command)(nil), "regroup_into_last_sibling_where", RegroupIntoLastSiblingWhere{})

// Query is the document form of a compiled query.
type Query struct {
	Commands []Command `yaml:"commands"`
}

// Decode reads a compiled query from YAML or JSON.
func Decode(b []byte) ([]Command, error) {
	var q Query
	if err := reflector.Unmarshal(b, &q); err != nil {
		return nil, iqe.E(iqe.Validation, err)
	}
	for k, c := range q.Commands {
		if c == nil {
			return nil, iqe.E(iqe.Validation, "command %d is empty", k)
		}
	}
	return q.Commands, nil
}

// Canonical encodes cmds so that equal command lists, and only those,
// have equal encodings.  Result cache keys hash it.
func Canonical(cmds []Command) ([]byte, error) {
	return reflector.Marshal(Query{Commands: cmds})
}

// Kind returns the name of c's kind as written in a query document.
func Kind(c Command) string {
	if kind, ok := reflector.Kind(c); ok {
		return kind
	}
	return "unknown"
}
