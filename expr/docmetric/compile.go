package docmetric

import (
	"fmt"
	"strconv"

	"github.com/brimdata/iql/backend"
	iqe "github.com/brimdata/iql/errors"
	"golang.org/x/exp/slices"
)

// Compile translates m into the push that computes it on the dataset
// described by schema.  Fields are checked against schema so that a bad
// field is reported before any backend is touched.
func Compile(m Metric, schema backend.Schema) (backend.Push, error) {
	c := compiler{schema: schema}
	if err := c.metric(m); err != nil {
		return nil, err
	}
	return c.push, nil
}

// CompileFilter translates f into a push yielding 1 for matching documents
// and 0 otherwise.
func CompileFilter(f Filter, schema backend.Schema) (backend.Push, error) {
	c := compiler{schema: schema}
	if err := c.filter(f); err != nil {
		return nil, err
	}
	return c.push, nil
}

// Applies reports whether m computes anything on dataset, i.e., whether it
// is not a qualified metric restricted to other datasets.
func Applies(m Metric, dataset string) bool {
	if q, ok := m.(*QualifiedMetric); ok {
		return slices.Contains(q.Datasets, dataset)
	}
	return true
}

// FilterApplies is Applies for a filter.
func FilterApplies(f Filter, dataset string) bool {
	if q, ok := f.(*QualifiedFilter); ok {
		return slices.Contains(q.Datasets, dataset)
	}
	return true
}

type compiler struct {
	schema backend.Schema
	push   backend.Push
}

func (c *compiler) emit(toks ...string) {
	c.push = append(c.push, toks...)
}

func (c *compiler) metric(m Metric) error {
	switch m := m.(type) {
	case *Field:
		if err := c.schema.CheckIntField(m.Name); err != nil {
			return err
		}
		c.emit(m.Name)
	case *Count:
		c.emit("count()")
	case *Constant:
		c.emit(strconv.FormatInt(m.Value, 10))
	case *Binary:
		tok, ok := binaryOps[m.Op]
		if !ok {
			return iqe.E(iqe.Validation, "unknown document metric operator %q", m.Op)
		}
		if err := c.metric(m.LHS); err != nil {
			return err
		}
		if err := c.metric(m.RHS); err != nil {
			return err
		}
		c.emit(tok)
	case *Negate:
		c.emit("0")
		if err := c.metric(m.Operand); err != nil {
			return err
		}
		c.emit("-")
	case *Signum:
		return c.signum(m.Operand)
	case *Abs:
		if err := c.metric(m.Operand); err != nil {
			return err
		}
		if err := c.signum(m.Operand); err != nil {
			return err
		}
		c.emit("*")
	case *Log:
		if err := c.metric(m.Operand); err != nil {
			return err
		}
		c.emit(fmt.Sprintf("log %d", scale(m.Scale)))
	case *Exp:
		if err := c.metric(m.Operand); err != nil {
			return err
		}
		c.emit(fmt.Sprintf("exp %d", scale(m.Scale)))
	case *HasInt:
		if err := c.schema.CheckIntField(m.Field); err != nil {
			return err
		}
		c.emit(fmt.Sprintf("hasint %s:%d", m.Field, m.Term))
	case *HasString:
		if err := c.schema.CheckStringField(m.Field); err != nil {
			return err
		}
		c.emit(fmt.Sprintf("hasstr %s:%s", m.Field, m.Term))
	case *HasIntField:
		if err := c.schema.CheckIntField(m.Field); err != nil {
			return err
		}
		c.emit("hasintfield " + m.Field)
	case *HasStringField:
		if err := c.schema.CheckStringField(m.Field); err != nil {
			return err
		}
		c.emit("hasstrfield " + m.Field)
	case *IfThenElse:
		// cond*then + (1-cond)*else
		if err := c.filter(m.Cond); err != nil {
			return err
		}
		if err := c.metric(m.Then); err != nil {
			return err
		}
		c.emit("*", "1")
		if err := c.filter(m.Cond); err != nil {
			return err
		}
		c.emit("-")
		if err := c.metric(m.Else); err != nil {
			return err
		}
		c.emit("*", "+")
	case *FromFilter:
		return c.filter(m.Filter)
	case *QualifiedMetric:
		if !slices.Contains(m.Datasets, c.schema.Dataset) {
			c.emit("0")
			return nil
		}
		return c.metric(m.Metric)
	case nil:
		return iqe.E(iqe.Validation, "missing document metric")
	default:
		return iqe.E(iqe.Consistency, "unknown document metric type %T", m)
	}
	return nil
}

func (c *compiler) signum(m Metric) error {
	if err := c.metric(m); err != nil {
		return err
	}
	c.emit("0", ">")
	if err := c.metric(m); err != nil {
		return err
	}
	c.emit("0", "<", "-")
	return nil
}

func scale(s int64) int64 {
	if s == 0 {
		return 1
	}
	return s
}

func (c *compiler) filter(f Filter) error {
	switch f := f.(type) {
	case *Always:
		c.emit("1")
	case *Never:
		c.emit("0")
	case *Compare:
		if !compareOps[f.Op] {
			return iqe.E(iqe.Validation, "unknown document filter comparison %q", f.Op)
		}
		if err := c.metric(f.LHS); err != nil {
			return err
		}
		if err := c.metric(f.RHS); err != nil {
			return err
		}
		c.emit(f.Op)
	case *Between:
		if err := c.metric(f.Metric); err != nil {
			return err
		}
		c.emit(strconv.FormatInt(f.Lo, 10), ">=")
		if err := c.metric(f.Metric); err != nil {
			return err
		}
		c.emit(strconv.FormatInt(f.Hi, 10), "<", "min()")
	case *And:
		if err := c.filter(f.LHS); err != nil {
			return err
		}
		if err := c.filter(f.RHS); err != nil {
			return err
		}
		c.emit("min()")
	case *Or:
		if err := c.filter(f.LHS); err != nil {
			return err
		}
		if err := c.filter(f.RHS); err != nil {
			return err
		}
		c.emit("max()")
	case *Not:
		c.emit("1")
		if err := c.filter(f.Operand); err != nil {
			return err
		}
		c.emit("-")
	case *FieldIs:
		tok, err := c.termTest(f.Field, f.Term.IsInt, f.Term.Int, f.Term.Str)
		if err != nil {
			return err
		}
		c.emit(tok)
	case *FieldIn:
		if err := c.schema.CheckField(f.Field); err != nil {
			return err
		}
		if len(f.Terms) == 0 {
			c.emit("0")
			return nil
		}
		for k, t := range f.Terms {
			tok, err := c.termTest(f.Field, t.IsInt, t.Int, t.Str)
			if err != nil {
				return err
			}
			c.emit(tok)
			if k > 0 {
				c.emit("max()")
			}
		}
	case *Regex:
		if err := c.schema.CheckField(f.Field); err != nil {
			return err
		}
		c.emit(fmt.Sprintf("regex %s:%s", f.Field, f.Pattern))
	case *QualifiedFilter:
		if !slices.Contains(f.Datasets, c.schema.Dataset) {
			c.emit("1")
			return nil
		}
		return c.filter(f.Filter)
	case nil:
		return iqe.E(iqe.Validation, "missing document filter")
	default:
		return iqe.E(iqe.Consistency, "unknown document filter type %T", f)
	}
	return nil
}

func (c *compiler) termTest(field string, isInt bool, i int64, s string) (string, error) {
	switch {
	case c.schema.IsIntField(field):
		if !isInt {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return "", iqe.E(iqe.Validation, "dataset %q: int field %q compared with string term %q", c.schema.Dataset, field, s)
			}
			i = v
		}
		return fmt.Sprintf("hasint %s:%d", field, i), nil
	case c.schema.IsStringField(field):
		if isInt {
			s = strconv.FormatInt(i, 10)
		}
		return fmt.Sprintf("hasstr %s:%s", field, s), nil
	}
	return "", c.schema.CheckField(field)
}
