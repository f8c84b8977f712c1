// Package docmetric declares the per-document metric and filter trees.
// A document metric computes one int64 per document and is never evaluated
// by the engine itself: it is compiled into a push that a backend session
// evaluates.  A document filter is a document metric taking the values 0
// and 1.
package docmetric

import (
	"github.com/brimdata/iql/term"
)

// This module follows the go/ast design of closed node families: every
// node type implements exactly one marker method and consumers switch over
// the concrete types.

type Metric interface {
	metricNode()
}

type Filter interface {
	filterNode()
}

// Metrics

type (
	// Field is the value of an int field, 0 where absent.
	Field struct {
		Name string `yaml:"name"`
	}
	// Count is 1 for every document.
	Count struct{}
	Constant struct {
		Value int64 `yaml:"value"`
	}
	// Binary applies one of + - * / % min max.  Integer division or
	// modulus by zero yields 0 in the backend.
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
	Signum struct {
		Operand Metric `yaml:"operand"`
	}
	// Log is Scale*ln(Operand), 0 for non-positive operands.
	Log struct {
		Operand Metric `yaml:"operand"`
		Scale   int64  `yaml:"scale"`
	}
	// Exp is Scale*exp(Operand/Scale).
	Exp struct {
		Operand Metric `yaml:"operand"`
		Scale   int64  `yaml:"scale"`
	}
	HasInt struct {
		Field string `yaml:"field"`
		Term  int64  `yaml:"term"`
	}
	HasString struct {
		Field string `yaml:"field"`
		Term  string `yaml:"term"`
	}
	HasIntField struct {
		Field string `yaml:"field"`
	}
	HasStringField struct {
		Field string `yaml:"field"`
	}
	IfThenElse struct {
		Cond Filter `yaml:"cond"`
		Then Metric `yaml:"then"`
		Else Metric `yaml:"else"`
	}
	// FromFilter is 1 for documents matching Filter and 0 otherwise.
	FromFilter struct {
		Filter Filter `yaml:"filter"`
	}
	// QualifiedMetric restricts Metric to the named datasets.  On any
	// other dataset it is the constant 0.
	QualifiedMetric struct {
		Datasets []string `yaml:"datasets"`
		Metric   Metric   `yaml:"metric"`
	}
)

func (*Field) metricNode()           {}
func (*Count) metricNode()           {}
func (*Constant) metricNode()        {}
func (*Binary) metricNode()          {}
func (*Negate) metricNode()          {}
func (*Abs) metricNode()             {}
func (*Signum) metricNode()          {}
func (*Log) metricNode()             {}
func (*Exp) metricNode()             {}
func (*HasInt) metricNode()          {}
func (*HasString) metricNode()       {}
func (*HasIntField) metricNode()     {}
func (*HasStringField) metricNode()  {}
func (*IfThenElse) metricNode()      {}
func (*FromFilter) metricNode()      {}
func (*QualifiedMetric) metricNode() {}

// Filters

type (
	Always struct{}
	Never  struct{}
	// Compare applies one of = != < <= > >= to two metrics.
	Compare struct {
		Op  string `yaml:"op"`
		LHS Metric `yaml:"lhs"`
		RHS Metric `yaml:"rhs"`
	}
	// Between matches Lo <= Metric < Hi.
	Between struct {
		Metric Metric `yaml:"metric"`
		Lo     int64  `yaml:"lo"`
		Hi     int64  `yaml:"hi"`
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
	// FieldIs matches documents whose field equals Term.
	FieldIs struct {
		Field string    `yaml:"field"`
		Term  term.Term `yaml:"term"`
	}
	FieldIn struct {
		Field string      `yaml:"field"`
		Terms []term.Term `yaml:"terms"`
	}
	// Regex matches documents whose field fully matches Pattern.
	Regex struct {
		Field   string `yaml:"field"`
		Pattern string `yaml:"pattern"`
	}
	QualifiedFilter struct {
		Datasets []string `yaml:"datasets"`
		Filter   Filter   `yaml:"filter"`
	}
)

func (*Always) filterNode()          {}
func (*Never) filterNode()           {}
func (*Compare) filterNode()         {}
func (*Between) filterNode()         {}
func (*And) filterNode()             {}
func (*Or) filterNode()              {}
func (*Not) filterNode()             {}
func (*FieldIs) filterNode()         {}
func (*FieldIn) filterNode()         {}
func (*Regex) filterNode()           {}
func (*QualifiedFilter) filterNode() {}

var (
	binaryOps  = map[string]string{"+": "+", "-": "-", "*": "*", "/": "/", "%": "%", "min": "min()", "max": "max()"}
	compareOps = map[string]bool{"=": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}
)

func IsBinaryOp(op string) bool {
	_, ok := binaryOps[op]
	return ok
}

func IsCompareOp(op string) bool {
	return compareOps[op]
}
