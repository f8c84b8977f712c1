package session

import (
	"math"

	iqe "github.com/brimdata/iql/errors"
	"github.com/brimdata/iql/group"
)

// Policy decides what happens to the saved stats of groups that are merged
// together by a regroup.
type Policy int

const (
	// SumAll adds the values of merged groups.
	SumAll Policy = iota
	// TakeTheOneUniqueValue keeps the value common to all merged groups
	// and fails if they disagree.
	TakeTheOneUniqueValue
	// FailIfPresent refuses to merge when any stat is saved at the
	// merged depth.
	FailIfPresent
)

func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "sum_all":
		return SumAll, nil
	case "take_the_one_unique_value":
		return TakeTheOneUniqueValue, nil
	case "fail_if_present":
		return FailIfPresent, nil
	}
	return 0, iqe.E(iqe.Validation, "unknown merge policy %q", s)
}

func (p Policy) String() string {
	switch p {
	case SumAll:
		return "sum_all"
	case TakeTheOneUniqueValue:
		return "take_the_one_unique_value"
	case FailIfPresent:
		return "fail_if_present"
	}
	return "unknown"
}

// Merge folds values, indexed by old group, into numGroups new groups as
// directed by mapping: old group g goes to mapping[g], and 0 drops it.
func (p Policy) Merge(name string, values []float64, mapping []int, numGroups int) ([]float64, error) {
	if p == FailIfPresent {
		return nil, iqe.E(iqe.Consistency, "saved stat %q would be merged (merge policy %s)", name, p)
	}
	out := make([]float64, numGroups+1)
	seen := make([]bool, numGroups+1)
	for g, v := range values {
		if g == 0 || g >= len(mapping) {
			continue
		}
		to := mapping[g]
		if to <= 0 {
			continue
		}
		if to > numGroups {
			return nil, iqe.E(iqe.Consistency, "saved stat %q: group %d merged into %d, beyond %d groups", name, g, to, numGroups)
		}
		switch {
		case !seen[to]:
			out[to] = v
			seen[to] = true
		case p == SumAll:
			out[to] += v
		case !sameValue(out[to], v):
			return nil, iqe.E(iqe.Consistency, "saved stat %q: merged groups disagree (%g and %g) into group %d", name, out[to], v, to)
		}
	}
	return out, nil
}

func sameValue(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

// Regroup returns the state whose KeySet is keys, derived from s by
// merging the groups of s's current depth as directed by mapping.  Stats
// saved at the current depth are merged with p and saved at the depth of
// keys; stats saved at shallower depths are kept.
func (s State) Regroup(p Policy, keys *group.KeySet, mapping []int) (State, error) {
	out := s.WithKeys(keys)
	depth := s.Depth()
	for _, name := range s.SavedNames() {
		saved := s.saved[name]
		if saved.Depth != depth {
			if saved.Depth > keys.Depth() {
				out = out.WithoutSaved(name)
			}
			continue
		}
		values, err := p.Merge(name, saved.Values, mapping, keys.NumGroups())
		if err != nil {
			return State{}, err
		}
		out = out.WithSaved(name, SavedStats{Depth: keys.Depth(), Values: values})
	}
	return out, nil
}
