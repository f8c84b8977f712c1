package mem

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/brimdata/iql/backend"
)

var ErrClosed = errors.New("session closed")

// Session is an in-memory backend.Session over one shard.  Each document
// carries its current group and one value per pushed statistic.
type Session struct {
	mu        sync.Mutex
	dataset   *Dataset
	docs      []Document
	groups    []int
	stats     [][]int64
	numGroups int
	closed    bool
}

var _ backend.Session = (*Session)(nil)

func NewSession(shard Shard) *Session {
	docs := shard.docs()
	groups := make([]int, len(docs))
	for k := range groups {
		groups[k] = 1
	}
	return &Session{
		dataset:   shard.Dataset,
		docs:      docs,
		groups:    groups,
		numGroups: 1,
	}
}

func (s *Session) Dataset() *Dataset {
	return s.dataset
}

func (s *Session) check(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	return ctx.Err()
}

func (s *Session) PushStat(ctx context.Context, push backend.Push) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	prog, err := compile(s.dataset, push)
	if err != nil {
		return 0, err
	}
	vals := make([]int64, len(s.docs))
	for k := range s.docs {
		if vals[k], err = prog.eval(&s.docs[k]); err != nil {
			return 0, fmt.Errorf("dataset %q: push %q: %w", s.dataset.Name, push, err)
		}
	}
	s.stats = append(s.stats, vals)
	return len(s.stats) - 1, nil
}

func (s *Session) PopStat(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if len(s.stats) == 0 {
		return 0, fmt.Errorf("dataset %q: pop of empty statistic stack", s.dataset.Name)
	}
	s.stats = s.stats[:len(s.stats)-1]
	return len(s.stats), nil
}

func (s *Session) NumStats() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stats)
}

func (s *Session) NumGroups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.numGroups
}

func (s *Session) matches(doc *Document, cond backend.Condition) bool {
	if cond.IntType {
		v, ok := doc.Ints[cond.Field]
		if !ok {
			return false
		}
		if cond.Inequality {
			return v <= cond.IntTerm
		}
		return v == cond.IntTerm
	}
	v, ok := doc.Strings[cond.Field]
	return ok && v == cond.StrTerm
}

func (s *Session) Regroup(ctx context.Context, numGroups int, rules []backend.Rule) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	if numGroups < 0 {
		return 0, fmt.Errorf("dataset %q: regroup into %d groups", s.dataset.Name, numGroups)
	}
	byGroup := make(map[int]*backend.Rule, len(rules))
	for k := range rules {
		r := &rules[k]
		if r.Group <= 0 {
			return 0, fmt.Errorf("dataset %q: regroup rule for group %d", s.dataset.Name, r.Group)
		}
		for _, t := range r.Targets {
			if t.Cond.IntType && !s.dataset.IsIntField(t.Cond.Field) {
				return 0, fmt.Errorf("dataset %q: regroup on unknown int field %q", s.dataset.Name, t.Cond.Field)
			}
			if !t.Cond.IntType && !s.dataset.IsStringField(t.Cond.Field) {
				return 0, fmt.Errorf("dataset %q: regroup on unknown string field %q", s.dataset.Name, t.Cond.Field)
			}
			if t.Cond.Inequality && !t.Cond.IntType {
				return 0, fmt.Errorf("dataset %q: inequality regroup on string field %q", s.dataset.Name, t.Cond.Field)
			}
			if t.Group < 0 || t.Group > numGroups {
				return 0, fmt.Errorf("dataset %q: regroup target %d out of range [0, %d]", s.dataset.Name, t.Group, numGroups)
			}
		}
		if r.Default < 0 || r.Default > numGroups {
			return 0, fmt.Errorf("dataset %q: regroup default %d out of range [0, %d]", s.dataset.Name, r.Default, numGroups)
		}
		byGroup[r.Group] = r
	}
	for k := range s.docs {
		g := s.groups[k]
		if g == 0 {
			continue
		}
		r, ok := byGroup[g]
		if !ok {
			s.groups[k] = 0
			continue
		}
		next := r.Default
		for _, t := range r.Targets {
			if s.matches(&s.docs[k], t.Cond) {
				next = t.Group
				break
			}
		}
		s.groups[k] = next
	}
	s.numGroups = numGroups
	return numGroups, nil
}

func (s *Session) stat(stat int) ([]int64, error) {
	if stat < 0 || stat >= len(s.stats) {
		return nil, fmt.Errorf("dataset %q: no statistic %d (have %d)", s.dataset.Name, stat, len(s.stats))
	}
	return s.stats[stat], nil
}

func (s *Session) MetricRegroup(ctx context.Context, stat int, min, max, interval int64, excludeGutters bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	if interval <= 0 || max <= min {
		return 0, fmt.Errorf("dataset %q: bad metric regroup range [%d, %d) interval %d", s.dataset.Name, min, max, interval)
	}
	vals, err := s.stat(stat)
	if err != nil {
		return 0, err
	}
	width := uint64(max) - uint64(min)
	ranges := width / uint64(interval)
	if width%uint64(interval) != 0 {
		ranges++
	}
	if ranges > math.MaxInt32 {
		return 0, fmt.Errorf("dataset %q: metric regroup range [%d, %d) interval %d has too many buckets", s.dataset.Name, min, max, interval)
	}
	n := int(ranges)
	if !excludeGutters {
		n += 2
	}
	for k, g := range s.groups {
		if g == 0 {
			continue
		}
		v := vals[k]
		var bucket int
		switch {
		case v < min:
			if excludeGutters {
				s.groups[k] = 0
				continue
			}
			bucket = n - 2
		case v >= max:
			if excludeGutters {
				s.groups[k] = 0
				continue
			}
			bucket = n - 1
		default:
			bucket = int((uint64(v) - uint64(min)) / uint64(interval))
		}
		s.groups[k] = (g-1)*n + bucket + 1
	}
	s.numGroups *= n
	return s.numGroups, nil
}

func (s *Session) MetricFilter(ctx context.Context, stat int, min, max int64, negate bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	vals, err := s.stat(stat)
	if err != nil {
		return 0, err
	}
	for k, g := range s.groups {
		if g == 0 {
			continue
		}
		in := vals[k] >= min && vals[k] <= max
		if in == negate {
			s.groups[k] = 0
		}
	}
	return s.numGroups, nil
}

func (s *Session) GroupStats(ctx context.Context, stat int) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	vals, err := s.stat(stat)
	if err != nil {
		return nil, err
	}
	out := make([]int64, s.numGroups+1)
	for k, g := range s.groups {
		if g != 0 {
			out[g] += vals[k]
		}
	}
	out[0] = 0
	return out, nil
}

func (s *Session) OpenFieldIterator(ctx context.Context, intFields, stringFields []string) (backend.FieldIterator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	for _, f := range intFields {
		if !s.dataset.IsIntField(f) {
			return nil, fmt.Errorf("dataset %q: no int field %q", s.dataset.Name, f)
		}
	}
	for _, f := range stringFields {
		if !s.dataset.IsStringField(f) {
			return nil, fmt.Errorf("dataset %q: no string field %q", s.dataset.Name, f)
		}
	}
	return newIterator(s, intFields, stringFields), nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stats = nil
	return nil
}
