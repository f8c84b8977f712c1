// Package ftgs merges the field-term-group-stats streams of several
// datasets into one stream ordered by term, then group.
package ftgs

import (
	"context"
	"fmt"

	"github.com/brimdata/iql/backend"
	iqe "github.com/brimdata/iql/errors"
	"github.com/brimdata/iql/pkg/heap"
	"github.com/brimdata/iql/term"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Dataset describes one input of a merge: the session to iterate and where
// its statistics go in the combined row.
type Dataset struct {
	Session backend.Session
	Schema  backend.Schema
	// Base is the backend index of the first statistic to copy and Count
	// the number of statistics copied to [Offset, Offset+Count) of the
	// combined row.
	Base   int
	Offset int
	Count  int
}

type cursor struct {
	Dataset
	index  int
	iter   backend.FieldIterator
	buf    []int64
	isInt  bool
	active bool
	inTerm bool
	term   term.Term
	group  int
}

// next advances to the next group of the current term, moving to the next
// term only once the current one is exhausted.
func (c *cursor) next() bool {
	for {
		if c.inTerm && c.iter.NextGroup() {
			c.group = c.iter.Group()
			return true
		}
		if !c.iter.NextTerm() {
			c.inTerm = false
			return false
		}
		c.inTerm = true
		if c.isInt {
			c.term = term.Int(c.iter.TermInt())
		} else {
			c.term = term.String(c.iter.TermString())
		}
	}
}

func less(a, b *cursor) bool {
	if c := term.Compare(a.term, b.term); c != 0 {
		return c < 0
	}
	if a.group != b.group {
		return a.group < b.group
	}
	return a.index < b.index
}

// Merger is a pull iterator over the merged stream of one field.  It is
// not safe for concurrent use and cannot be rewound.
type Merger struct {
	field    string
	cursors  []*cursor
	heap     []*cursor
	consumed []*cursor
	started  bool
	closed   bool
	err      error

	term  term.Term
	group int
	row   []int64
}

// Open opens a field iterator on every dataset, concurrently, and returns
// a Merger over field.  width is the length of the combined row.  The
// order of datasets breaks ties and must be the order the combined row
// was laid out in.
func Open(ctx context.Context, field string, width int, datasets []Dataset) (*Merger, error) {
	var isInt bool
	for k, d := range datasets {
		if err := d.Schema.CheckField(field); err != nil {
			return nil, err
		}
		i := d.Schema.IsIntField(field)
		if k > 0 && i != isInt {
			return nil, iqe.E(iqe.Validation, "field %q is an int field in some datasets and a string field in others", field)
		}
		isInt = i
		if d.Offset < 0 || d.Offset+d.Count > width {
			return nil, iqe.E(iqe.Consistency, "dataset %q: stats [%d, %d) exceed row width %d", d.Schema.Dataset, d.Offset, d.Offset+d.Count, width)
		}
	}
	iters := make([]backend.FieldIterator, len(datasets))
	var g errgroup.Group
	for k, d := range datasets {
		k, d := k, d
		g.Go(func() error {
			var ints, strs []string
			if isInt {
				ints = []string{field}
			} else {
				strs = []string{field}
			}
			it, err := d.Session.OpenFieldIterator(ctx, ints, strs)
			if err != nil {
				return iqe.E(iqe.Resource, fmt.Errorf("dataset %q: open field iterator on %q: %w", d.Schema.Dataset, field, err))
			}
			iters[k] = it
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, it := range iters {
			if it != nil {
				err = multierr.Append(err, it.Close())
			}
		}
		return nil, err
	}
	m := &Merger{field: field, row: make([]int64, width)}
	for k, d := range datasets {
		if n := d.Session.NumStats(); d.Base < 0 || d.Base+d.Count > n {
			err := iqe.E(iqe.Consistency, "dataset %q: stats [%d, %d) exceed the %d stats of its session", d.Schema.Dataset, d.Base, d.Base+d.Count, n)
			for _, it := range iters {
				err = multierr.Append(err, it.Close())
			}
			return nil, err
		}
		m.cursors = append(m.cursors, &cursor{
			Dataset: d,
			index:   k,
			iter:    iters[k],
			buf:     make([]int64, d.Session.NumStats()),
			isInt:   isInt,
		})
	}
	return m, nil
}

func (m *Merger) start() error {
	m.started = true
	for _, c := range m.cursors {
		if !c.iter.NextField() {
			if err := c.iter.Err(); err != nil {
				return iqe.E(iqe.Resource, fmt.Errorf("dataset %q: %w", c.Schema.Dataset, err))
			}
			// A dataset with no documents for the field yields no field.
			continue
		}
		c.active = true
		if name := c.iter.FieldName(); name != m.field {
			return iqe.E(iqe.Consistency, "dataset %q: iterator positioned on field %q, expected %q", c.Schema.Dataset, name, m.field)
		}
		m.consumed = append(m.consumed, c)
	}
	return nil
}

// Next advances to the next (term, group) present in any dataset and
// reports whether there was one.  Entries for the same term and group in
// several datasets are combined into one row; datasets lacking the entry
// contribute zeros.
func (m *Merger) Next() bool {
	if m.closed || m.err != nil {
		return false
	}
	if !m.started {
		if err := m.start(); err != nil {
			m.err = err
			return false
		}
	}
	for _, c := range m.consumed {
		if c.next() {
			heap.Push(&m.heap, c, less)
			continue
		}
		if err := c.iter.Err(); err != nil {
			m.err = iqe.E(iqe.Resource, fmt.Errorf("dataset %q: %w", c.Schema.Dataset, err))
			return false
		}
	}
	m.consumed = m.consumed[:0]
	if len(m.heap) == 0 {
		return false
	}
	for i := range m.row {
		m.row[i] = 0
	}
	top := heap.Pop(&m.heap, less)
	m.term, m.group = top.term, top.group
	m.take(top)
	for len(m.heap) > 0 {
		c := m.heap[0]
		if c.group != m.group || term.Compare(c.term, m.term) != 0 {
			break
		}
		m.take(heap.Pop(&m.heap, less))
	}
	return true
}

func (m *Merger) take(c *cursor) {
	c.iter.GroupStats(c.buf)
	copy(m.row[c.Offset:c.Offset+c.Count], c.buf[c.Base:])
	m.consumed = append(m.consumed, c)
}

func (m *Merger) Term() term.Term {
	return m.term
}

func (m *Merger) Group() int {
	return m.group
}

// Row returns the combined statistics of the current entry.  It is
// overwritten by the next call to Next.
func (m *Merger) Row() []int64 {
	return m.row
}

func (m *Merger) Err() error {
	return m.err
}

// Close drains every cursor and then closes it.  Errors from all cursors
// are combined.
func (m *Merger) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	var err error
	for _, c := range m.cursors {
		if m.started {
			for c.active && c.next() {
			}
		} else {
			for c.iter.NextField() {
				for c.next() {
				}
			}
		}
		err = multierr.Append(err, c.iter.Err())
		err = multierr.Append(err, c.iter.Close())
	}
	return err
}

// Iterate calls fn for every merged entry and closes m.  It stops at the
// first error returned by fn or when ctx is done.
func (m *Merger) Iterate(ctx context.Context, fn func(t term.Term, group int, row []int64) error) (err error) {
	defer func() {
		err = multierr.Append(err, m.Close())
	}()
	for n := 0; m.Next(); n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := fn(m.term, m.group, m.row); err != nil {
			return err
		}
	}
	return m.err
}
