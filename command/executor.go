package command

import (
	"context"
	"fmt"
	"time"

	"github.com/brimdata/iql/backend"
	iqe "github.com/brimdata/iql/errors"
	"github.com/brimdata/iql/rowio"
	"github.com/brimdata/iql/session"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxGroups bounds the number of groups a single explode may create.
const maxGroups = 1 << 24

// Executor runs commands against the backend sessions of one query.
// Commands run one at a time; an Executor is not safe for concurrent use.
type Executor struct {
	session *session.Session
	sink    rowio.Writer
	logger  *zap.Logger
}

// NewExecutor returns an Executor emitting rows to sink.  A nil sink
// discards rows.
func NewExecutor(sess *session.Session, sink rowio.Writer, logger *zap.Logger) *Executor {
	if sink == nil {
		sink = discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{session: sess, sink: sink, logger: logger}
}

type discard struct{}

func (discard) Write(*rowio.Row) error { return nil }

// Run executes c on state and returns the state that follows it.  On error
// the returned state is state itself.
func (e *Executor) Run(ctx context.Context, state session.State, c Command) (session.State, error) {
	var next session.State
	var err error
	switch c := c.(type) {
	case *ExplodeAndRegroup:
		next, err = e.explodeTerms(ctx, state, termExplode{
			field:    c.Field,
			datasets: c.Datasets,
			filter:   c.Filter,
			limit:    c.Limit,
			deflt:    c.Default,
		})
	case *IterateAndExplode:
		next, err = e.explodeTerms(ctx, state, termExplode{
			field:    c.Field,
			datasets: c.Datasets,
			filter:   c.Filter,
			limit:    c.Limit,
			deflt:    c.Default,
			lookups:  c.Lookups,
		})
	case *ExplodeMetric:
		next, err = e.explodeMetric(ctx, state, c)
	case *ExplodeFieldIn:
		next, err = e.explodeFieldIn(ctx, state, c)
	case *TimeRegroup:
		next, err = e.timeRegroup(ctx, state, c)
	case *TimePeriodRegroup:
		next, err = e.timePeriodRegroup(ctx, state, c)
	case *FilterDocs:
		next, err = e.filterDocs(ctx, state, c)
	case *FilterGroups:
		next, err = e.filterGroups(ctx, state, c)
	case *GetGroupStats:
		next, err = e.getGroupStats(ctx, state, c)
	case *SimpleIterate:
		next, err = e.simpleIterate(ctx, state, c)
	case *SumAcross:
		next, err = e.sumAcross(ctx, state, c)
	case *ComputeAndCreateGroupStatsLookup:
		next, err = e.computeLookup(ctx, state, c)
	case *ComputeGroupDistincts:
		next, err = e.computeDistincts(ctx, state, c)
	case *ComputeGroupPercentile:
		next, err = e.computePercentile(ctx, state, c)
	case *ExplodePerDocPercentile:
		next, err = e.explodePercentile(ctx, state, c)
	case *RegroupIntoParent:
		next, err = e.regroupIntoParent(ctx, state, c)
	case *RegroupIntoLastSiblingWhere:
		next, err = e.regroupIntoLastSibling(ctx, state, c)
	default:
		return state, iqe.E(iqe.Consistency, "unknown command type %T", c)
	}
	if err != nil {
		return state, fmt.Errorf("%s: %w", Kind(c), err)
	}
	return next, nil
}

func (e *Executor) emit(keys []string, values []float64) error {
	return e.sink.Write(&rowio.Row{Keys: keys, Values: values})
}

// withField returns those of names whose datasets have field.  When the
// datasets were named explicitly each must have it; otherwise the ones
// without it are skipped, but at least one must have it.
func (e *Executor) withField(names []string, explicit bool, field string) ([]string, error) {
	if field == "" {
		return nil, iqe.E(iqe.Validation, "no field given")
	}
	var out []string
	var first error
	for _, name := range names {
		d, err := e.session.Dataset(name)
		if err != nil {
			return nil, err
		}
		if err := d.Schema.CheckField(field); err != nil {
			if explicit {
				return nil, err
			}
			if first == nil {
				first = err
			}
			continue
		}
		out = append(out, name)
	}
	if len(out) == 0 {
		if first == nil {
			first = iqe.E(iqe.Validation, "no dataset has field %q", field)
		}
		return nil, first
	}
	return out, nil
}

// withIntField is withField for a field that must be an int field
// wherever it appears.
func (e *Executor) withIntField(names []string, explicit bool, field string) ([]string, error) {
	out, err := e.withField(names, explicit, field)
	if err != nil {
		return nil, err
	}
	for _, name := range out {
		d, _ := e.session.Dataset(name)
		if err := d.Schema.CheckIntField(field); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// withTimeField returns those of names whose datasets have a time field,
// with the same rules as withField.
func (e *Executor) withTimeField(names []string, explicit bool) ([]string, error) {
	var out []string
	for _, name := range names {
		d, err := e.session.Dataset(name)
		if err != nil {
			return nil, err
		}
		if d.Schema.TimeField == "" {
			if explicit {
				return nil, iqe.E(iqe.Validation, "dataset %q has no time field", name)
			}
			continue
		}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, iqe.E(iqe.Validation, "no dataset has a time field")
	}
	return out, nil
}

func (e *Executor) location(name string) (*time.Location, error) {
	if name == "" {
		return e.session.Location(), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, iqe.E(iqe.Validation, "time zone %q: %w", name, err)
	}
	return loc, nil
}

func checkGroups(numGroups, fanout int) error {
	if fanout < 0 || int64(numGroups)*int64(fanout) > maxGroups {
		return iqe.E(iqe.Validation, "explode of %d groups into %d each exceeds %d groups", numGroups, fanout, maxGroups)
	}
	return nil
}

// forEachDataset runs fn concurrently for every dataset of the query and
// waits for all of them.
func (e *Executor) forEachDataset(fn func(d *session.Dataset) error) error {
	var g errgroup.Group
	for _, name := range e.session.Names() {
		d, err := e.session.Dataset(name)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return fn(d)
		})
	}
	return g.Wait()
}

// regroup applies to every dataset the rules returned for it, leaving
// numGroups groups everywhere.
func (e *Executor) regroup(ctx context.Context, numGroups int, rules func(d *session.Dataset) []backend.Rule) error {
	return e.forEachDataset(func(d *session.Dataset) error {
		n, err := d.Session.Regroup(ctx, numGroups, rules(d))
		if err != nil {
			return iqe.E(iqe.Resource, fmt.Errorf("dataset %q: regroup: %w", d.Name(), err))
		}
		if n != numGroups {
			return iqe.E(iqe.Consistency, "dataset %q: regroup left %d groups, expected %d", d.Name(), n, numGroups)
		}
		return nil
	})
}

// mapGroups moves every group g with mapping[g] > 0 to mapping[g] on
// every dataset.
func (e *Executor) mapGroups(ctx context.Context, numGroups int, mapping []int) error {
	var rules []backend.Rule
	for g := 1; g < len(mapping); g++ {
		if mapping[g] > 0 {
			rules = append(rules, backend.Rule{Group: g, Default: mapping[g]})
		}
	}
	return e.regroup(ctx, numGroups, func(*session.Dataset) []backend.Rule {
		return rules
	})
}
