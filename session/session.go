// Package session holds the backend sessions a query runs against and the
// query state threaded from command to command.
package session

import (
	"sort"
	"time"

	"github.com/brimdata/iql/backend"
	iqe "github.com/brimdata/iql/errors"
	"go.uber.org/multierr"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Dataset is one dataset of a query: its open backend session, its
// fields and the identity of the shards the session covers.
type Dataset struct {
	Session backend.Session
	Schema  backend.Schema
	// Shards identifies the data the session was opened on for result
	// cache keys.
	Shards []string
}

func (d *Dataset) Name() string {
	return d.Schema.Dataset
}

// Session owns the backend sessions of a query.  Each backend session is
// used by at most one goroutine at a time.
type Session struct {
	datasets map[string]*Dataset
	names    []string
	location *time.Location
}

func New(datasets []*Dataset, loc *time.Location) (*Session, error) {
	if len(datasets) == 0 {
		return nil, iqe.E(iqe.Validation, "query has no datasets")
	}
	if loc == nil {
		loc = time.UTC
	}
	s := &Session{datasets: make(map[string]*Dataset), location: loc}
	for _, d := range datasets {
		name := d.Name()
		if name == "" {
			return nil, iqe.E(iqe.Validation, "dataset with no name")
		}
		if _, ok := s.datasets[name]; ok {
			return nil, iqe.E(iqe.Validation, "dataset %q appears twice", name)
		}
		s.datasets[name] = d
	}
	s.names = maps.Keys(s.datasets)
	sort.Strings(s.names)
	return s, nil
}

// Location is the time zone used to compute calendar buckets and to
// format time keys.
func (s *Session) Location() *time.Location {
	return s.location
}

// Names returns the dataset names in sorted order.
func (s *Session) Names() []string {
	return s.names
}

func (s *Session) Dataset(name string) (*Dataset, error) {
	d, ok := s.datasets[name]
	if !ok {
		if alt := backend.Suggest(name, s.names); alt != "" {
			return nil, iqe.E(iqe.Validation, "no such dataset %q (did you mean %q?)", name, alt)
		}
		return nil, iqe.E(iqe.Validation, "no such dataset %q", name)
	}
	return d, nil
}

// Resolve validates names and returns them sorted and deduplicated.  An
// empty list means every dataset.
func (s *Session) Resolve(names []string) ([]string, error) {
	if len(names) == 0 {
		return s.names, nil
	}
	out := slices.Clone(names)
	for _, name := range out {
		if _, err := s.Dataset(name); err != nil {
			return nil, err
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// Sessions returns the backend sessions of the named datasets keyed by
// name.
func (s *Session) Sessions(names []string) map[string]backend.Session {
	out := make(map[string]backend.Session, len(names))
	for _, name := range names {
		if d, ok := s.datasets[name]; ok {
			out[name] = d.Session
		}
	}
	return out
}

// Shards returns the sorted shard identities of every dataset.
func (s *Session) Shards() map[string][]string {
	out := make(map[string][]string, len(s.names))
	for _, name := range s.names {
		shards := slices.Clone(s.datasets[name].Shards)
		slices.Sort(shards)
		out[name] = shards
	}
	return out
}

// Close closes every backend session and combines their errors.
func (s *Session) Close() error {
	var err error
	for _, name := range s.names {
		err = multierr.Append(err, s.datasets[name].Session.Close())
	}
	return err
}
