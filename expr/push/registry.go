// Package push collects the per-document statistics required by the
// expressions of one pipeline step, deduplicates them, assigns each a stable
// index and pushes them onto the backend sessions of the step's datasets.
package push

import (
	"context"
	"fmt"
	"sync"

	"github.com/brimdata/iql/backend"
	iqe "github.com/brimdata/iql/errors"
	"go.uber.org/multierr"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

// Registry assigns every distinct push of every dataset a slot in the
// combined statistics row of the step.  Dataset d owns the contiguous slots
// [Offset(d), Offset(d)+Count(d)), in sorted dataset order, so the slices
// of different datasets never overlap.
type Registry struct {
	datasets []string
	pushes   map[string][]backend.Push
	local    map[string]map[string]int
	// base is the backend stat index of each dataset's first push once
	// the registry has been applied.
	base    map[string]int
	applied bool
}

func NewRegistry(datasets []string) *Registry {
	sorted := slices.Clone(datasets)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	r := &Registry{
		datasets: sorted,
		pushes:   make(map[string][]backend.Push),
		local:    make(map[string]map[string]int),
		base:     make(map[string]int),
	}
	for _, d := range sorted {
		r.local[d] = make(map[string]int)
	}
	return r
}

func (r *Registry) Datasets() []string {
	return r.datasets
}

// Add records that p must be computed on dataset.  Adding a push equal to
// one already recorded for the dataset is a no-op.
func (r *Registry) Add(dataset string, p backend.Push) error {
	if r.applied {
		return iqe.E(iqe.Consistency, "push registry: add after apply")
	}
	local, ok := r.local[dataset]
	if !ok {
		return iqe.E(iqe.Validation, "push registry: dataset %q is not part of this step", dataset)
	}
	key := p.Key()
	if _, ok := local[key]; ok {
		return nil
	}
	local[key] = len(r.pushes[dataset])
	r.pushes[dataset] = append(r.pushes[dataset], slices.Clone(p))
	return nil
}

func (r *Registry) Count(dataset string) int {
	return len(r.pushes[dataset])
}

func (r *Registry) Offset(dataset string) int {
	var off int
	for _, d := range r.datasets {
		if d == dataset {
			return off
		}
		off += len(r.pushes[d])
	}
	return -1
}

// Width is the length of a combined statistics row.
func (r *Registry) Width() int {
	var n int
	for _, d := range r.datasets {
		n += len(r.pushes[d])
	}
	return n
}

// Index returns the combined-row slot of push p on dataset.
func (r *Registry) Index(dataset string, p backend.Push) (int, bool) {
	local, ok := r.local[dataset]
	if !ok {
		return 0, false
	}
	i, ok := local[p.Key()]
	if !ok {
		return 0, false
	}
	return r.Offset(dataset) + i, true
}

// Slot identifies one statistic on one backend session.
type Slot struct {
	Dataset string
	Stat    int
}

// Slot maps a combined-row index back to its dataset and backend
// statistic.  It is valid only after Apply.
func (r *Registry) Slot(index int) (Slot, bool) {
	for _, d := range r.datasets {
		n := len(r.pushes[d])
		if index < n {
			return Slot{Dataset: d, Stat: r.base[d] + index}, true
		}
		index -= n
	}
	return Slot{}, false
}

// Base returns the backend stat index of dataset's first push.
func (r *Registry) Base(dataset string) int {
	return r.base[dataset]
}

func (r *Registry) Pushes(dataset string) []backend.Push {
	return r.pushes[dataset]
}

// Apply pushes each dataset's distinct pushes once onto its session.
// Datasets are pushed concurrently.  The returned release function pops
// every statistic that was pushed and must always be called, typically
// deferred, even when Apply itself fails.
func (r *Registry) Apply(ctx context.Context, sessions map[string]backend.Session) (func() error, error) {
	if r.applied {
		return nil, iqe.E(iqe.Consistency, "push registry applied twice")
	}
	r.applied = true
	for _, d := range r.datasets {
		if _, ok := sessions[d]; !ok && len(r.pushes[d]) > 0 {
			return func() error { return nil }, iqe.E(iqe.Validation, "no backend session for dataset %q", d)
		}
	}
	pushed := make([]int, len(r.datasets))
	bases := make([]int, len(r.datasets))
	var group errgroup.Group
	for k, d := range r.datasets {
		k, d := k, d
		pushes := r.pushes[d]
		if len(pushes) == 0 {
			continue
		}
		sess := sessions[d]
		group.Go(func() error {
			for i, p := range pushes {
				stat, err := sess.PushStat(ctx, p)
				if err != nil {
					return iqe.E(iqe.Resource, fmt.Errorf("dataset %q: push %q: %w", d, p, err))
				}
				if i == 0 {
					bases[k] = stat
				} else if stat != bases[k]+i {
					// Count the stat we just pushed so release pops it.
					pushed[k]++
					return iqe.E(iqe.Consistency, "dataset %q: push returned stat %d, expected %d", d, stat, bases[k]+i)
				}
				pushed[k]++
			}
			return nil
		})
	}
	err := group.Wait()
	for k, d := range r.datasets {
		r.base[d] = bases[k]
	}
	release := func() error {
		return r.release(sessions, pushed)
	}
	return release, err
}

func (r *Registry) release(sessions map[string]backend.Session, pushed []int) error {
	// Pops use a fresh context so they still run after the query context
	// is canceled.
	ctx := context.Background()
	errs := make([]error, len(r.datasets))
	var wg sync.WaitGroup
	for k, d := range r.datasets {
		if pushed[k] == 0 {
			continue
		}
		k, d := k, d
		sess := sessions[d]
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < pushed[k]; i++ {
				if _, err := sess.PopStat(ctx); err != nil {
					errs[k] = multierr.Append(errs[k], iqe.E(iqe.Resource, fmt.Errorf("dataset %q: pop: %w", d, err)))
				}
			}
		}()
	}
	wg.Wait()
	return multierr.Combine(errs...)
}
