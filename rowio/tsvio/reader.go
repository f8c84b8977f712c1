package tsvio

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/brimdata/iql/rowio"
)

type ReaderOpts struct {
	// KeyCount expects the line prefix written with WriterOpts.KeyCount.
	// Otherwise every line has Keys key columns.
	KeyCount bool
	Keys     int
}

type Reader struct {
	scanner *bufio.Scanner
	opts    ReaderOpts
	line    int
}

func NewReader(r io.Reader, opts ReaderOpts) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Reader{scanner: s, opts: opts}
}

func (r *Reader) Read() (*rowio.Row, error) {
	if !r.scanner.Scan() {
		return nil, r.scanner.Err()
	}
	r.line++
	cols := strings.Split(r.scanner.Text(), "\t")
	nkeys := r.opts.Keys
	if r.opts.KeyCount {
		n, err := strconv.Atoi(cols[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad key count %q", r.line, cols[0])
		}
		nkeys = n
		cols = cols[1:]
	}
	if nkeys < 0 || nkeys > len(cols) {
		return nil, fmt.Errorf("line %d: %d key columns but %d columns", r.line, nkeys, len(cols))
	}
	row := &rowio.Row{Keys: cols[:nkeys:nkeys]}
	// A row with neither keys nor values is written as an empty line.
	if len(cols) == 1 && cols[0] == "" && nkeys == 0 {
		return row, nil
	}
	for _, c := range cols[nkeys:] {
		v, err := ParseValue(c)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		row.Values = append(row.Values, v)
	}
	return row, nil
}

// ParseValue inverts AppendValue.
func ParseValue(s string) (float64, error) {
	switch s {
	case "NaN":
		return math.NaN(), nil
	case "Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad value %q", s)
	}
	return v, nil
}
