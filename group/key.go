package group

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/brimdata/iql/term"
)

// A Key is one fragment of the human-readable path to a group.  Keys are
// used only to format output and never participate in correctness.
type Key interface {
	fmt.Stringer
	keyNode()
}

type (
	// TermKey labels a group exploded from a field term.
	TermKey struct {
		Term term.Term
	}
	// RangeKey labels a numeric bucket [Lo, Hi).
	RangeKey struct {
		Lo, Hi int64
	}
	// GutterKey labels the below-minimum or above-maximum bucket of a
	// metric explode.
	GutterKey struct {
		Below bool
		Bound int64
	}
	// TimeKey labels a time bucket [Start, End) rendered in Location.
	TimeKey struct {
		Start, End time.Time
		Format     string
	}
	// DefaultKey labels the group receiving documents that matched none
	// of the terms of an explode.
	DefaultKey struct {
		Name string
	}
	// PercentileKey labels one quantile bucket (Lo, Hi] of a per-document
	// percentile explode.
	PercentileKey struct {
		Lo, Hi int64
	}
)

func (TermKey) keyNode()       {}
func (RangeKey) keyNode()      {}
func (GutterKey) keyNode()     {}
func (TimeKey) keyNode()       {}
func (DefaultKey) keyNode()    {}
func (PercentileKey) keyNode() {}

func (k TermKey) String() string {
	return k.Term.String()
}

func (k RangeKey) String() string {
	return "[" + strconv.FormatInt(k.Lo, 10) + ", " + strconv.FormatInt(k.Hi, 10) + ")"
}

func (k GutterKey) String() string {
	if k.Below {
		return "[-infinity, " + strconv.FormatInt(k.Bound, 10) + ")"
	}
	return "[" + strconv.FormatInt(k.Bound, 10) + ", infinity)"
}

const DefaultTimeFormat = "2006-01-02 15:04:05"

func (k TimeKey) String() string {
	format := k.Format
	if format == "" {
		format = DefaultTimeFormat
	}
	return "[" + k.Start.Format(format) + ", " + k.End.Format(format) + ")"
}

func (k DefaultKey) String() string {
	if k.Name == "" {
		return "DEFAULT"
	}
	return k.Name
}

func (k PercentileKey) String() string {
	hi := "infinity"
	if k.Hi != math.MaxInt64 {
		hi = strconv.FormatInt(k.Hi, 10)
	}
	lo := "-infinity"
	if k.Lo != math.MinInt64 {
		lo = strconv.FormatInt(k.Lo, 10)
	}
	return "(" + lo + ", " + hi + "]"
}
