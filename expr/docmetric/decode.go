package docmetric

import (
	"strconv"

	"github.com/brimdata/iql/pkg/unpack"
	"gopkg.in/yaml.v3"
)

// Register adds the metric and filter kinds to r.  A scalar in place of a
// metric is shorthand: count() for Count, an integer for Constant and any
// other name for Field.  A boolean in place of a filter is Always or Never.
func Register(r *unpack.Reflector) *unpack.Reflector {
	m, f := (*Metric)(nil), (*Filter)(nil)
	return r.
		Add(m, "field", Field{}).
		Add(m, "count", Count{}).
		Add(m, "constant", Constant{}).
		Add(m, "binary", Binary{}).
		Add(m, "negate", Negate{}).
		Add(m, "abs", Abs{}).
		Add(m, "signum", Signum{}).
		Add(m, "log", Log{}).
		Add(m, "exp", Exp{}).
		Add(m, "has_int", HasInt{}).
		Add(m, "has_string", HasString{}).
		Add(m, "has_int_field", HasIntField{}).
		Add(m, "has_string_field", HasStringField{}).
		Add(m, "if_then_else", IfThenElse{}).
		Add(m, "from_filter", FromFilter{}).
		Add(m, "qualified", QualifiedMetric{}).
		Scalar(m, metricScalar).
		Add(f, "always", Always{}).
		Add(f, "never", Never{}).
		Add(f, "compare", Compare{}).
		Add(f, "between", Between{}).
		Add(f, "and", And{}).
		Add(f, "or", Or{}).
		Add(f, "not", Not{}).
		Add(f, "field_is", FieldIs{}).
		Add(f, "field_in", FieldIn{}).
		Add(f, "regex", Regex{}).
		Add(f, "qualified", QualifiedFilter{}).
		Scalar(f, filterScalar)
}

func metricScalar(n *yaml.Node) (interface{}, error) {
	if n.Tag == "!!int" {
		v, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return nil, err
		}
		return &Constant{Value: v}, nil
	}
	if n.Value == "count()" {
		return &Count{}, nil
	}
	return &Field{Name: n.Value}, nil
}

func filterScalar(n *yaml.Node) (interface{}, error) {
	var b bool
	if err := n.Decode(&b); err != nil {
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
