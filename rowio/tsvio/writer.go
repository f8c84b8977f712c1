// Package tsvio reads and writes rows as tab-separated lines.
package tsvio

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/brimdata/iql/rowio"
)

type WriterOpts struct {
	// KeyCount prefixes every line with the number of key columns so that
	// a Reader can split keys from values.  The result cache stores rows
	// this way.
	KeyCount bool
}

type Writer struct {
	writer io.WriteCloser
	buf    *bufio.Writer
	opts   WriterOpts
	line   []byte
}

func NewWriter(w io.WriteCloser, opts WriterOpts) *Writer {
	return &Writer{
		writer: w,
		buf:    bufio.NewWriter(w),
		opts:   opts,
	}
}

func (w *Writer) Write(r *rowio.Row) error {
	line := w.line[:0]
	first := true
	sep := func() {
		if !first {
			line = append(line, '\t')
		}
		first = false
	}
	if w.opts.KeyCount {
		line = strconv.AppendInt(line, int64(len(r.Keys)), 10)
		first = false
	}
	for _, k := range r.Keys {
		sep()
		line = AppendKey(line, k)
	}
	for _, v := range r.Values {
		sep()
		line = AppendValue(line, v)
	}
	line = append(line, '\n')
	w.line = line
	_, err := w.buf.Write(line)
	return err
}

func (w *Writer) Flush() error {
	return w.buf.Flush()
}

func (w *Writer) Close() error {
	err := w.buf.Flush()
	if closeErr := w.writer.Close(); err == nil {
		err = closeErr
	}
	return err
}

// AppendKey appends k with every control character, tab and newline
// included, replaced by U+FFFD.
func AppendKey(dst []byte, k string) []byte {
	if strings.IndexFunc(k, isControl) < 0 {
		return append(dst, k...)
	}
	for _, r := range k {
		if isControl(r) {
			r = '�'
		}
		dst = append(dst, string(r)...)
	}
	return dst
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}

// AppendValue formats v: integral values without a decimal point, others
// in the shortest form that parses back to v, and NaN and infinities as
// NaN, Infinity and -Infinity.
func AppendValue(dst []byte, v float64) []byte {
	switch {
	case math.IsNaN(v):
		return append(dst, "NaN"...)
	case math.IsInf(v, 1):
		return append(dst, "Infinity"...)
	case math.IsInf(v, -1):
		return append(dst, "-Infinity"...)
	case v == 0:
		return append(dst, '0')
	}
	return strconv.AppendFloat(dst, v, 'f', -1, 64)
}
