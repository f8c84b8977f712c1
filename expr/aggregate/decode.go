package aggregate

import (
	"strconv"

	"github.com/brimdata/iql/expr/docmetric"
	"github.com/brimdata/iql/pkg/unpack"
	"gopkg.in/yaml.v3"
)

// Register adds the aggregate metric and filter kinds, and the document
// kinds they embed, to r.  A number in place of a metric is a Constant,
// count() is Count and any other name is the sum of that field.
func Register(r *unpack.Reflector) *unpack.Reflector {
	m, f := (*Metric)(nil), (*Filter)(nil)
	return docmetric.Register(r).
		Add(m, "doc_stats", DocStats{}).
		Add(m, "constant", Constant{}).
		Add(m, "binary", Binary{}).
		Add(m, "negate", Negate{}).
		Add(m, "abs", Abs{}).
		Add(m, "log", Log{}).
		Add(m, "if_then_else", IfThenElse{}).
		Add(m, "lookup", Lookup{}).
		Add(m, "parent", Parent{}).
		Add(m, "term_value", TermValue{}).
		Scalar(m, metricScalar).
		Add(f, "always", Always{}).
		Add(f, "never", Never{}).
		Add(f, "compare", Compare{}).
		Add(f, "and", And{}).
		Add(f, "or", Or{}).
		Add(f, "not", Not{}).
		Add(f, "term_is", TermIs{}).
		Add(f, "term_regex", TermRegex{}).
		Scalar(f, filterScalar)
}

func metricScalar(n *yaml.Node) (interface{}, error) {
	switch n.Tag {
	case "!!int", "!!float":
		var v float64
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return &Constant{Value: v}, nil
	}
	if n.Value == "count()" {
		return Count(), nil
	}
	return &DocStats{Metric: &docmetric.Field{Name: n.Value}}, nil
}

func filterScalar(n *yaml.Node) (interface{}, error) {
	b, err := strconv.ParseBool(n.Value)
	if err != nil {
		return nil, err
	}
	if b {
		return &Always{}, nil
	}
	return &Never{}, nil
}

var reflector = Register(unpack.New())

func UnmarshalMetric(b []byte) (Metric, error) {
	var m Metric
	err := reflector.Unmarshal(b, &m)
	return m, err
}

func UnmarshalFilter(b []byte) (Filter, error) {
	var f Filter
	err := reflector.Unmarshal(b, &f)
	return f, err
}
