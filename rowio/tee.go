package rowio

import (
	"sync"
)

// Aborter is implemented by writers that can discard what was written to
// them instead of committing it on Close.
type Aborter interface {
	Abort()
}

// Tee writes every row to a primary writer synchronously and to a side
// writer through an ordered channel drained by one goroutine, so both see
// the identical row sequence.  A failing side writer is detached without
// disturbing the primary.
type Tee struct {
	primary Writer
	side    WriteCloser
	ch      chan *Row
	wg      sync.WaitGroup
	once    sync.Once
	err     error
}

func NewTee(primary Writer, side WriteCloser) *Tee {
	t := &Tee{
		primary: primary,
		side:    side,
		ch:      make(chan *Row, 256),
	}
	t.wg.Add(1)
	go t.run()
	return t
}

func (t *Tee) run() {
	defer t.wg.Done()
	for r := range t.ch {
		if t.err != nil {
			continue
		}
		t.err = t.side.Write(r)
	}
}

func (t *Tee) Write(r *Row) error {
	if err := t.primary.Write(r); err != nil {
		return err
	}
	t.ch <- r
	return nil
}

func (t *Tee) finish() {
	t.once.Do(func() {
		close(t.ch)
		t.wg.Wait()
	})
}

// Close waits for the side writer to catch up and closes it, returning the
// first error the side writer reported.
func (t *Tee) Close() error {
	t.finish()
	if t.err != nil {
		abort(t.side)
		return t.err
	}
	return t.side.Close()
}

// Abort waits for the side writer to catch up and then discards it.
func (t *Tee) Abort() {
	t.finish()
	abort(t.side)
}

func abort(w WriteCloser) {
	if a, ok := w.(Aborter); ok {
		a.Abort()
		return
	}
	w.Close()
}
