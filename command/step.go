package command

import (
	"context"
	"fmt"

	"github.com/brimdata/iql/backend"
	iqe "github.com/brimdata/iql/errors"
	"github.com/brimdata/iql/expr/aggregate"
	"github.com/brimdata/iql/expr/docmetric"
	"github.com/brimdata/iql/expr/push"
	"github.com/brimdata/iql/ftgs"
	"github.com/brimdata/iql/group"
	"github.com/brimdata/iql/session"
	"go.uber.org/multierr"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

// A step collects the statistics one command needs on the sessions of its
// datasets, pushes them and pops them again when the command is done.
// It is also the Binding its aggregate expressions are bound against.
type step struct {
	state    session.State
	datasets map[string]*session.Dataset
	registry *push.Registry
	release  func() error
}

var _ aggregate.Binding = (*step)(nil)

func (e *Executor) newStep(state session.State, names []string) (*step, error) {
	datasets := make(map[string]*session.Dataset, len(names))
	for _, name := range names {
		d, err := e.session.Dataset(name)
		if err != nil {
			return nil, err
		}
		datasets[name] = d
	}
	return &step{
		state:    state,
		datasets: datasets,
		registry: push.NewRegistry(names),
	}, nil
}

func (s *step) addPush(dataset string, p backend.Push) error {
	return s.registry.Add(dataset, p)
}

// addDoc registers the push computing m on every dataset m applies to.
func (s *step) addDoc(m docmetric.Metric) error {
	var n int
	for _, name := range s.registry.Datasets() {
		if !docmetric.Applies(m, name) {
			continue
		}
		p, err := docmetric.Compile(m, s.datasets[name].Schema)
		if err != nil {
			return err
		}
		if err := s.addPush(name, p); err != nil {
			return err
		}
		n++
	}
	if n == 0 {
		return iqe.E(iqe.Validation, "metric applies to none of the datasets %v", s.registry.Datasets())
	}
	return nil
}

func (s *step) addMetric(m aggregate.Metric) error {
	if m == nil {
		return iqe.E(iqe.Validation, "missing metric")
	}
	for _, d := range aggregate.Requires(m) {
		if err := s.addDoc(d); err != nil {
			return err
		}
	}
	return nil
}

func (s *step) addFilter(f aggregate.Filter) error {
	if f == nil {
		return nil
	}
	for _, d := range aggregate.RequiresFilter(f) {
		if err := s.addDoc(d); err != nil {
			return err
		}
	}
	return nil
}

// bind registers the pushes of m and binds it.
func (s *step) bind(m aggregate.Metric) (*aggregate.Bound, error) {
	if err := s.addMetric(m); err != nil {
		return nil, err
	}
	return aggregate.Bind(m, s)
}

// bindFilter registers the pushes of f and binds it.  A nil filter binds
// to nil, which callers treat as allowing everything.
func (s *step) bindFilter(f aggregate.Filter) (*aggregate.BoundFilter, error) {
	if f == nil {
		return nil, nil
	}
	if err := s.addFilter(f); err != nil {
		return nil, err
	}
	return aggregate.BindFilter(f, s)
}

func (s *step) Stats(m docmetric.Metric) ([]int, error) {
	var slots []int
	for _, name := range s.registry.Datasets() {
		if !docmetric.Applies(m, name) {
			continue
		}
		p, err := docmetric.Compile(m, s.datasets[name].Schema)
		if err != nil {
			return nil, err
		}
		slot, ok := s.registry.Index(name, p)
		if !ok {
			return nil, iqe.E(iqe.Consistency, "dataset %q: push %q was never registered", name, p)
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (s *step) Lookup(name string) ([]float64, int, error) {
	saved, ok := s.state.Saved(name)
	if !ok {
		if alt := backend.Suggest(name, s.state.SavedNames()); alt != "" {
			return nil, 0, iqe.E(iqe.Validation, "no saved stats named %q (did you mean %q?)", name, alt)
		}
		return nil, 0, iqe.E(iqe.Validation, "no saved stats named %q", name)
	}
	return saved.Values, saved.Depth, nil
}

func (s *step) Groups() *group.KeySet {
	return s.state.Keys
}

// stat returns the backend statistic computing p on dataset.  It is valid
// only after apply.
func (s *step) stat(dataset string, p backend.Push) (int, error) {
	index, ok := s.registry.Index(dataset, p)
	if !ok {
		return 0, iqe.E(iqe.Consistency, "dataset %q: push %q was never registered", dataset, p)
	}
	slot, _ := s.registry.Slot(index)
	return slot.Stat, nil
}

func (s *step) sessions() map[string]backend.Session {
	out := make(map[string]backend.Session, len(s.datasets))
	for name, d := range s.datasets {
		out[name] = d.Session
	}
	return out
}

// apply pushes the registered statistics.  The caller must defer done
// before calling apply.
func (s *step) apply(ctx context.Context) error {
	release, err := s.registry.Apply(ctx, s.sessions())
	s.release = release
	return err
}

// done pops whatever apply pushed and folds any error into *err.
func (s *step) done(err *error) {
	if s.release != nil {
		*err = multierr.Append(*err, s.release())
		s.release = nil
	}
}

// table fetches the per-group sums of every registered statistic,
// concurrently across datasets.  table[slot][g] is the sum of the
// statistic in slot of the combined row over group g.
func (s *step) table(ctx context.Context) ([][]int64, error) {
	table := make([][]int64, s.registry.Width())
	var g errgroup.Group
	for _, name := range s.registry.Datasets() {
		name := name
		sess := s.datasets[name].Session
		offset, base := s.registry.Offset(name), s.registry.Base(name)
		n := s.registry.Count(name)
		if n == 0 {
			continue
		}
		g.Go(func() error {
			for i := 0; i < n; i++ {
				stats, err := sess.GroupStats(ctx, base+i)
				if err != nil {
					return iqe.E(iqe.Resource, fmt.Errorf("dataset %q: group stats: %w", name, err))
				}
				table[offset+i] = stats
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return table, nil
}

// groupRow gathers the statistics of group g from table into buf.
func groupRow(table [][]int64, g int, buf []int64) []int64 {
	buf = buf[:0]
	for _, stats := range table {
		var v int64
		if g < len(stats) {
			v = stats[g]
		}
		buf = append(buf, v)
	}
	return buf
}

// merger opens a merge of field over the named datasets, which must be
// among the step's.
func (s *step) merger(ctx context.Context, field string, names []string) (*ftgs.Merger, error) {
	var inputs []ftgs.Dataset
	for _, name := range s.registry.Datasets() {
		if !slices.Contains(names, name) {
			continue
		}
		inputs = append(inputs, ftgs.Dataset{
			Session: s.datasets[name].Session,
			Schema:  s.datasets[name].Schema,
			Base:    s.registry.Base(name),
			Offset:  s.registry.Offset(name),
			Count:   s.registry.Count(name),
		})
	}
	if len(inputs) == 0 {
		return nil, iqe.E(iqe.Validation, "no dataset to iterate field %q over", field)
	}
	return ftgs.Open(ctx, field, s.registry.Width(), inputs)
}
