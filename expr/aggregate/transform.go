package aggregate

// Transform rebuilds m bottom-up, applying fm to every metric node and ff to
// every filter node after their children have been transformed.  Nil
// functions leave their family unchanged.
func Transform(m Metric, fm func(Metric) Metric, ff func(Filter) Filter) Metric {
	return transformer{fm, ff}.metric(m)
}

func TransformFilter(f Filter, fm func(Metric) Metric, ff func(Filter) Filter) Filter {
	return transformer{fm, ff}.filter(f)
}

type transformer struct {
	fm func(Metric) Metric
	ff func(Filter) Filter
}

func (t transformer) metric(m Metric) Metric {
	var out Metric
	switch m := m.(type) {
	case *Binary:
		out = &Binary{Op: m.Op, LHS: t.metric(m.LHS), RHS: t.metric(m.RHS)}
	case *Negate:
		out = &Negate{Operand: t.metric(m.Operand)}
	case *Abs:
		out = &Abs{Operand: t.metric(m.Operand)}
	case *Log:
		out = &Log{Operand: t.metric(m.Operand)}
	case *IfThenElse:
		out = &IfThenElse{Cond: t.filter(m.Cond), Then: t.metric(m.Then), Else: t.metric(m.Else)}
	case *Parent:
		out = &Parent{Metric: t.metric(m.Metric)}
	case *boundParent:
		out = &boundParent{metric: t.metric(m.metric)}
	default:
		out = m
	}
	if t.fm != nil {
		out = t.fm(out)
	}
	return out
}

func (t transformer) filter(f Filter) Filter {
	var out Filter
	switch f := f.(type) {
	case *Compare:
		out = &Compare{Op: f.Op, LHS: t.metric(f.LHS), RHS: t.metric(f.RHS)}
	case *And:
		out = &And{LHS: t.filter(f.LHS), RHS: t.filter(f.RHS)}
	case *Or:
		out = &Or{LHS: t.filter(f.LHS), RHS: t.filter(f.RHS)}
	case *Not:
		out = &Not{Operand: t.filter(f.Operand)}
	default:
		out = f
	}
	if t.ff != nil {
		out = t.ff(out)
	}
	return out
}
