// Package aggregate declares the metric and filter trees evaluated per
// group or per (term, group) once the per-document statistics they depend
// on have been pushed and aggregated by the backends.
//
// Trees are immutable.  Bind resolves a tree against the statistics
// registered for a step and returns a separate evaluator, so a tree can be
// bound any number of times and is never modified by evaluation.
package aggregate

import (
	"github.com/brimdata/iql/expr/docmetric"
	"github.com/brimdata/iql/term"
)

type Metric interface {
	metricNode()
}

type Filter interface {
	filterNode()
}

type (
	// DocStats is the sum of a document metric over the documents of the
	// group (and term, when iterating), across every dataset the metric
	// applies to.
	DocStats struct {
		Metric docmetric.Metric `yaml:"metric"`
	}
	Constant struct {
		Value float64 `yaml:"value"`
	}
	// Binary applies one of + - * / % min max pow using float64
	// arithmetic.  Division by zero follows IEEE 754.
	Binary struct {
		Op  string `yaml:"op"`
		LHS Metric `yaml:"lhs"`
		RHS Metric `yaml:"rhs"`
	}
	Negate struct {
		Operand Metric `yaml:"operand"`
	}
	Abs struct {
		Operand Metric `yaml:"operand"`
	}
	// Log is the natural logarithm.
	Log struct {
		Operand Metric `yaml:"operand"`
	}
	IfThenElse struct {
		Cond Filter `yaml:"cond"`
		Then Metric `yaml:"then"`
		Else Metric `yaml:"else"`
	}
	// Lookup is the value saved under Name by an earlier command.  A value
	// saved at a shallower depth is read from the ancestor group.
	Lookup struct {
		Name string `yaml:"name"`
	}
	// Parent evaluates Metric for the parent of the current group.  Metric
	// may reference only lookups and constants.
	Parent struct {
		Metric Metric `yaml:"metric"`
	}
	// TermValue is the current term as a number: the value of an int term,
	// or a string term parsed as a float, NaN if it does not parse.
	TermValue struct{}
)

func (*DocStats) metricNode()   {}
func (*Constant) metricNode()   {}
func (*Binary) metricNode()     {}
func (*Negate) metricNode()     {}
func (*Abs) metricNode()        {}
func (*Log) metricNode()        {}
func (*IfThenElse) metricNode() {}
func (*Lookup) metricNode()     {}
func (*Parent) metricNode()     {}
func (*TermValue) metricNode()  {}

type (
	Always  struct{}
	Never   struct{}
	Compare struct {
		Op  string `yaml:"op"`
		LHS Metric `yaml:"lhs"`
		RHS Metric `yaml:"rhs"`
	}
	And struct {
		LHS Filter `yaml:"lhs"`
		RHS Filter `yaml:"rhs"`
	}
	Or struct {
		LHS Filter `yaml:"lhs"`
		RHS Filter `yaml:"rhs"`
	}
	Not struct {
		Operand Filter `yaml:"operand"`
	}
	TermIs struct {
		Term term.Term `yaml:"term"`
	}
	// TermRegex matches terms whose string form fully matches Pattern.
	TermRegex struct {
		Pattern string `yaml:"pattern"`
	}
)

func (*Always) filterNode()    {}
func (*Never) filterNode()     {}
func (*Compare) filterNode()   {}
func (*And) filterNode()       {}
func (*Or) filterNode()        {}
func (*Not) filterNode()       {}
func (*TermIs) filterNode()    {}
func (*TermRegex) filterNode() {}

// Count is the number of documents, the default ranking metric.
func Count() Metric {
	return &DocStats{Metric: &docmetric.Count{}}
}

// Requires returns the document metrics m depends on, in tree order.
func Requires(m Metric) []docmetric.Metric {
	var out []docmetric.Metric
	Transform(m, func(m Metric) Metric {
		if d, ok := m.(*DocStats); ok {
			out = append(out, d.Metric)
		}
		return m
	}, nil)
	return out
}

// RequiresFilter is Requires for a filter.
func RequiresFilter(f Filter) []docmetric.Metric {
	var out []docmetric.Metric
	TransformFilter(f, func(m Metric) Metric {
		if d, ok := m.(*DocStats); ok {
			out = append(out, d.Metric)
		}
		return m
	}, nil)
	return out
}
