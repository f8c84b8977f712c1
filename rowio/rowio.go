// Package rowio defines the rows a query emits and the readers and writers
// that move them between the pipeline, the caller and the result cache.
package rowio

import (
	"context"
	"errors"
	"io"

	"golang.org/x/exp/slices"
)

// Row is one output row: the group key columns followed by the metric
// columns.
type Row struct {
	Keys   []string
	Values []float64
}

func (r *Row) Copy() *Row {
	return &Row{Keys: slices.Clone(r.Keys), Values: slices.Clone(r.Values)}
}

// Reader wraps the Read method.
//
// Read returns the next row and a nil error, a nil row and the next error,
// or a nil row and nil error to indicate that no rows remain.
type Reader interface {
	Read() (*Row, error)
}

// Writer wraps the Write method.  Sinks are append-only: a written row is
// never revisited.  Writers may retain r, so callers must not modify a row
// after writing it.
type Writer interface {
	Write(r *Row) error
}

type ReadCloser interface {
	Reader
	io.Closer
}

type WriteCloser interface {
	Writer
	io.Closer
}

type nopCloser struct {
	Writer
}

func (nopCloser) Close() error { return nil }

// NopCloser returns a WriteCloser with a no-op Close method wrapping w.
func NopCloser(w Writer) WriteCloser {
	return nopCloser{w}
}

func MultiWriter(writers ...Writer) Writer {
	return &multiWriter{slices.Clone(writers)}
}

type multiWriter struct {
	writers []Writer
}

func (m *multiWriter) Write(r *Row) error {
	for _, w := range m.writers {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Array is an in-memory Reader and Writer.
type Array struct {
	rows []*Row
	next int
}

func NewArray(rows []*Row) *Array {
	return &Array{rows: rows}
}

func (a *Array) Write(r *Row) error {
	a.rows = append(a.rows, r)
	return nil
}

func (a *Array) Read() (*Row, error) {
	if a.next >= len(a.rows) {
		return nil, nil
	}
	r := a.rows[a.next]
	a.next++
	return r, nil
}

func (a *Array) Rows() []*Row {
	return a.rows
}

// Limit returns a Writer that passes at most n rows to w and then fails
// with ErrLimit.
func Limit(w Writer, n int) Writer {
	return &limitWriter{w: w, n: n}
}

// ErrLimit is returned by a Limit writer once its limit is reached.
var ErrLimit = errors.New("row limit exceeded")

type limitWriter struct {
	w Writer
	n int
}

func (l *limitWriter) Write(r *Row) error {
	if l.n <= 0 {
		return ErrLimit
	}
	l.n--
	return l.w.Write(r)
}

// Counter counts the rows written through it.
type Counter struct {
	Writer
	n int64
}

func NewCounter(w Writer) *Counter {
	return &Counter{Writer: w}
}

func (c *Counter) Write(r *Row) error {
	if err := c.Writer.Write(r); err != nil {
		return err
	}
	c.n++
	return nil
}

func (c *Counter) Count() int64 {
	return c.n
}

// Copy copies src to dst a la io.Copy.
func Copy(dst Writer, src Reader) error {
	return CopyWithContext(context.Background(), dst, src)
}

func CopyWithContext(ctx context.Context, dst Writer, src Reader) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := src.Read()
		if err != nil || r == nil {
			return err
		}
		if err := dst.Write(r); err != nil {
			return err
		}
	}
}
