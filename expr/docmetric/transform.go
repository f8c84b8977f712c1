package docmetric

// Transform rebuilds m bottom-up: the children of every node are
// transformed first and fm (for metrics) or ff (for filters) is then applied
// to the node holding the transformed children.  Either function may be nil
// to leave that family as is.  The input tree is never modified.
func Transform(m Metric, fm func(Metric) Metric, ff func(Filter) Filter) Metric {
	t := transformer{fm, ff}
	return t.metric(m)
}

// TransformFilter is Transform for a filter root.
func TransformFilter(f Filter, fm func(Metric) Metric, ff func(Filter) Filter) Filter {
	t := transformer{fm, ff}
	return t.filter(f)
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
	case *Signum:
		out = &Signum{Operand: t.metric(m.Operand)}
	case *Log:
		out = &Log{Operand: t.metric(m.Operand), Scale: m.Scale}
	case *Exp:
		out = &Exp{Operand: t.metric(m.Operand), Scale: m.Scale}
	case *IfThenElse:
		out = &IfThenElse{Cond: t.filter(m.Cond), Then: t.metric(m.Then), Else: t.metric(m.Else)}
	case *FromFilter:
		out = &FromFilter{Filter: t.filter(m.Filter)}
	case *QualifiedMetric:
		out = &QualifiedMetric{Datasets: m.Datasets, Metric: t.metric(m.Metric)}
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
	case *Between:
		out = &Between{Metric: t.metric(f.Metric), Lo: f.Lo, Hi: f.Hi}
	case *And:
		out = &And{LHS: t.filter(f.LHS), RHS: t.filter(f.RHS)}
	case *Or:
		out = &Or{LHS: t.filter(f.LHS), RHS: t.filter(f.RHS)}
	case *Not:
		out = &Not{Operand: t.filter(f.Operand)}
	case *QualifiedFilter:
		out = &QualifiedFilter{Datasets: f.Datasets, Filter: t.filter(f.Filter)}
	default:
		out = f
	}
	if t.ff != nil {
		out = t.ff(out)
	}
	return out
}
