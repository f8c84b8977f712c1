// Package command defines the commands of a compiled query and the
// executor that runs them, one after another, against the backend sessions
// of a query.
package command

import (
	"time"

	"github.com/brimdata/iql/expr/aggregate"
	"github.com/brimdata/iql/expr/docmetric"
	"github.com/brimdata/iql/term"
)

type Command interface {
	commandNode()
}

// TopK keeps, for every group, the K terms with the highest Metric.  A nil
// Metric ranks by document count.
type TopK struct {
	K      int              `yaml:"k"`
	Metric aggregate.Metric `yaml:"metric"`
}

// NamedMetric is an aggregate metric saved under Name.
type NamedMetric struct {
	Name   string           `yaml:"name"`
	Metric aggregate.Metric `yaml:"metric"`
}

type (
	// ExplodeAndRegroup splits every group by the terms of Field.  Terms
	// failing Filter are dropped, Limit keeps the top terms of each group
	// and, when Default is set, documents matching none of the kept terms
	// go to an extra group labeled *Default.
	ExplodeAndRegroup struct {
		Field    string           `yaml:"field"`
		Datasets []string         `yaml:"datasets"`
		Filter   aggregate.Filter `yaml:"filter"`
		Limit    *TopK            `yaml:"limit"`
		Default  *string          `yaml:"default"`
	}
	// IterateAndExplode is ExplodeAndRegroup that also saves, for every
	// new group, the value of each of Lookups computed from the term the
	// group was made from.
	IterateAndExplode struct {
		Field    string           `yaml:"field"`
		Datasets []string         `yaml:"datasets"`
		Filter   aggregate.Filter `yaml:"filter"`
		Limit    *TopK            `yaml:"limit"`
		Default  *string          `yaml:"default"`
		Lookups  []NamedMetric    `yaml:"lookups"`
	}
	// ExplodeMetric splits every group into buckets of Interval over
	// [Min, Max) of a document metric, plus a below-Min and an above-Max
	// bucket unless ExcludeGutters is set.
	ExplodeMetric struct {
		Metric         docmetric.Metric `yaml:"metric"`
		Min            int64            `yaml:"min"`
		Max            int64            `yaml:"max"`
		Interval       int64            `yaml:"interval"`
		ExcludeGutters bool             `yaml:"exclude_gutters"`
		Datasets       []string         `yaml:"datasets"`
	}
	// ExplodeFieldIn splits every group by an explicit list of terms.
	ExplodeFieldIn struct {
		Field    string      `yaml:"field"`
		Datasets []string    `yaml:"datasets"`
		Terms    []term.Term `yaml:"terms"`
		Default  *string     `yaml:"default"`
	}
	// TimeRegroup splits every group into fixed Interval buckets of the
	// time field over [Start, End).
	TimeRegroup struct {
		Interval time.Duration `yaml:"interval"`
		Start    time.Time     `yaml:"start"`
		End      time.Time     `yaml:"end"`
		Location string        `yaml:"location"`
		Format   string        `yaml:"format"`
		Datasets []string      `yaml:"datasets"`
	}
	// TimePeriodRegroup splits every group into the calendar periods of
	// Unit covering [Start, End).
	TimePeriodRegroup struct {
		Unit     string    `yaml:"unit"`
		Start    time.Time `yaml:"start"`
		End      time.Time `yaml:"end"`
		Location string    `yaml:"location"`
		Format   string    `yaml:"format"`
		Datasets []string  `yaml:"datasets"`
	}
	// FilterDocs moves the documents failing a filter to group 0.  Filters
	// holds per-dataset filters; Filter applies to the datasets without
	// one.
	FilterDocs struct {
		Filter  docmetric.Filter            `yaml:"filter"`
		Filters map[string]docmetric.Filter `yaml:"filters"`
	}
	// FilterGroups drops the groups failing Filter.
	FilterGroups struct {
		Filter aggregate.Filter `yaml:"filter"`
	}
	// GetGroupStats emits one row per non-empty group.
	GetGroupStats struct {
		Metrics []aggregate.Metric `yaml:"metrics"`
	}
	// SimpleIterate emits one row per (group, term) of Field.
	SimpleIterate struct {
		Field    string             `yaml:"field"`
		Datasets []string           `yaml:"datasets"`
		Metrics  []aggregate.Metric `yaml:"metrics"`
		Filter   aggregate.Filter   `yaml:"filter"`
		Limit    *TopK              `yaml:"limit"`
	}
	// SumAcross saves under Name the per-group sum of Metric over the
	// terms of Field passing Filter.
	SumAcross struct {
		Field    string           `yaml:"field"`
		Datasets []string         `yaml:"datasets"`
		Metric   aggregate.Metric `yaml:"metric"`
		Filter   aggregate.Filter `yaml:"filter"`
		Name     string           `yaml:"name"`
	}
	ComputeAndCreateGroupStatsLookup struct {
		Name   string           `yaml:"name"`
		Metric aggregate.Metric `yaml:"metric"`
	}
	// ComputeGroupDistincts saves under Name the number of distinct terms
	// of Field, passing Filter, in each group.
	ComputeGroupDistincts struct {
		Field    string           `yaml:"field"`
		Datasets []string         `yaml:"datasets"`
		Filter   aggregate.Filter `yaml:"filter"`
		Name     string           `yaml:"name"`
	}
	// ComputeGroupPercentile saves under Name the Percentile of the values
	// of int Field in each group.
	ComputeGroupPercentile struct {
		Field      string   `yaml:"field"`
		Datasets   []string `yaml:"datasets"`
		Percentile float64  `yaml:"percentile"`
		Name       string   `yaml:"name"`
	}
	// ExplodePerDocPercentile splits every group into NumBuckets buckets
	// holding equal shares of its documents by the value of int Field.
	ExplodePerDocPercentile struct {
		Field      string   `yaml:"field"`
		Datasets   []string `yaml:"datasets"`
		NumBuckets int      `yaml:"num_buckets"`
	}
	// RegroupIntoParent undoes the last explode.
	RegroupIntoParent struct {
		Policy string `yaml:"policy"`
	}
	// RegroupIntoLastSiblingWhere merges, under each parent, the first
	// group passing Filter and every later sibling into the last sibling.
	RegroupIntoLastSiblingWhere struct {
		Filter aggregate.Filter `yaml:"filter"`
		Policy string           `yaml:"policy"`
	}
)

func (*ExplodeAndRegroup) commandNode()                {}
func (*IterateAndExplode) commandNode()                {}
func (*ExplodeMetric) commandNode()                    {}
func (*ExplodeFieldIn) commandNode()                   {}
func (*TimeRegroup) commandNode()                      {}
func (*TimePeriodRegroup) commandNode()                {}
func (*FilterDocs) commandNode()                       {}
func (*FilterGroups) commandNode()                     {}
func (*GetGroupStats) commandNode()                    {}
func (*SimpleIterate) commandNode()                    {}
func (*SumAcross) commandNode()                        {}
func (*ComputeAndCreateGroupStatsLookup) commandNode() {}
func (*ComputeGroupDistincts) commandNode()            {}
func (*ComputeGroupPercentile) commandNode()           {}
func (*ExplodePerDocPercentile) commandNode()          {}
func (*RegroupIntoParent) commandNode()                {}
func (*RegroupIntoLastSiblingWhere) commandNode()      {}
