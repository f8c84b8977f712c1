//go:generate mockgen -destination=./mock/mock_backend.go -package=mock github.com/brimdata/iql/backend Session,FieldIterator

// Package backend declares the call contract of a remote columnar analytics
// session.  The engine consumes only this contract; it never reaches into a
// backend's storage.
package backend

import (
	"context"
	"strings"
)

// A Push is a postfix instruction list understood by PushStat.  Two pushes
// are the same computation exactly when their tokens are equal.
type Push []string

func (p Push) Key() string {
	return strings.Join(p, "\x00")
}

func (p Push) String() string {
	return strings.Join(p, " ")
}

// Session is one backend session over the shards of one dataset.  Group 0
// holds documents that are filtered out.  Statistics form a stack: every
// PushStat must be balanced by a PopStat.
type Session interface {
	// PushStat pushes a per-document statistic and returns its index.
	PushStat(context.Context, Push) (int, error)
	// PopStat pops the most recently pushed statistic and returns the
	// number of statistics remaining.
	PopStat(context.Context) (int, error)
	NumStats() int
	NumGroups() int
	// Regroup remaps documents according to rules into numGroups groups
	// and returns numGroups.  Documents in groups without a rule move to
	// group 0.  Targets and defaults must not exceed numGroups.
	Regroup(ctx context.Context, numGroups int, rules []Rule) (int, error)
	// MetricRegroup splits every group into buckets of width interval over
	// [min, max) of statistic stat.  Unless excludeGutters is set, each
	// group also gets a below-min and above-max bucket as its last two
	// buckets.  Group g's bucket b becomes group (g-1)*numBuckets+b+1.
	MetricRegroup(ctx context.Context, stat int, min, max, interval int64, excludeGutters bool) (int, error)
	// MetricFilter moves documents whose statistic lies outside [min, max]
	// (inside, when negate is set) to group 0.
	MetricFilter(ctx context.Context, stat int, min, max int64, negate bool) (int, error)
	// OpenFieldIterator returns a cursor over the field-term-group-stats
	// of the given fields, ints first, each in the order given.
	OpenFieldIterator(ctx context.Context, intFields, stringFields []string) (FieldIterator, error)
	// GroupStats returns the sum of statistic stat per group, indexed by
	// group number.
	GroupStats(ctx context.Context, stat int) ([]int64, error)
	Close() error
}

// FieldIterator walks, field by field, the terms of a field in ascending
// order and, within a term, the groups containing documents with that term
// in ascending order.  Group 0 is never reported.
type FieldIterator interface {
	NextField() bool
	FieldName() string
	FieldIsInt() bool
	NextTerm() bool
	TermInt() int64
	TermString() string
	// TermDocFreq is the number of documents holding the current term.
	TermDocFreq() int64
	NextGroup() bool
	Group() int
	// GroupStats copies the statistics of the current group and term into
	// buf, which must have length NumStats of the session.
	GroupStats(buf []int64)
	Err() error
	Close() error
}

// A Condition tests one field of a document.  For int fields it is either
// term equality or, when Inequality is set, value <= IntTerm.
type Condition struct {
	Field      string
	IntType    bool
	IntTerm    int64
	StrTerm    string
	Inequality bool
}

// A Target sends documents matching Cond to Group.
type Target struct {
	Cond  Condition
	Group int
}

// A Rule remaps the documents of Group.  The first matching target wins;
// documents matching no target go to Default, with 0 meaning dropped.
type Rule struct {
	Group   int
	Targets []Target
	Default int
}
