package session

import (
	"github.com/brimdata/iql/group"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// SavedStats are per-group values saved by a command for later lookup.
// Values is indexed by group number at Depth.
type SavedStats struct {
	Depth  int
	Values []float64
}

// State is the query state between commands.  It is a value: commands
// derive a new State and never modify the one they were given, so a failed
// command leaves its input intact.
type State struct {
	Keys  *group.KeySet
	saved map[string]SavedStats
}

func NewState() State {
	return State{Keys: group.New()}
}

func (s State) NumGroups() int {
	return s.Keys.NumGroups()
}

func (s State) Depth() int {
	return s.Keys.Depth()
}

func (s State) Saved(name string) (SavedStats, bool) {
	v, ok := s.saved[name]
	return v, ok
}

// SavedNames returns the names of all saved stats in sorted order.
func (s State) SavedNames() []string {
	names := maps.Keys(s.saved)
	slices.Sort(names)
	return names
}

// WithKeys returns s with its KeySet replaced.
func (s State) WithKeys(k *group.KeySet) State {
	s.Keys = k
	return s
}

// WithSaved returns s with name bound to v.  The saved map of s is copied,
// not modified.
func (s State) WithSaved(name string, v SavedStats) State {
	saved := maps.Clone(s.saved)
	if saved == nil {
		saved = make(map[string]SavedStats)
	}
	saved[name] = v
	s.saved = saved
	return s
}

// WithoutSaved returns s with the named stats removed.
func (s State) WithoutSaved(names ...string) State {
	saved := maps.Clone(s.saved)
	for _, name := range names {
		delete(saved, name)
	}
	s.saved = saved
	return s
}
