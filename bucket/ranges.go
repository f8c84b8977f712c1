package bucket

import (
	"math"

	iqe "github.com/brimdata/iql/errors"
	"github.com/brimdata/iql/group"
)

// Ranges describes the buckets of a metric explode: contiguous intervals
// [Min+i*Interval, Min+(i+1)*Interval) clipped to Max, followed, unless
// ExcludeGutters is set, by a below-Min bucket and an above-Max bucket.
type Ranges struct {
	Min, Max, Interval int64
	ExcludeGutters     bool
}

func (r Ranges) Validate() error {
	if r.Interval <= 0 {
		return iqe.E(iqe.Validation, "bucket interval must be positive, got %d", r.Interval)
	}
	if r.Max <= r.Min {
		return iqe.E(iqe.Validation, "bucket range [%d, %d) is empty", r.Min, r.Max)
	}
	return nil
}

// maxRanges caps NumRanges so that bucket counts stay within int.
const maxRanges = math.MaxInt32

// NumRanges is the number of in-range buckets, capped at math.MaxInt32.
func (r Ranges) NumRanges() int {
	n := span(r.Min, r.Max) / uint64(r.Interval)
	if span(r.Min, r.Max)%uint64(r.Interval) != 0 {
		n++
	}
	if n > maxRanges {
		return maxRanges
	}
	return int(n)
}

// span is max-min for max > min without overflowing int64.
func span(min, max int64) uint64 {
	return uint64(max) - uint64(min)
}

// NumBuckets is the number of buckets each group is split into.
func (r Ranges) NumBuckets() int {
	n := r.NumRanges()
	if !r.ExcludeGutters {
		n += 2
	}
	return n
}

// Below and Above are the indexes of the gutter buckets, or -1 when
// gutters are excluded.
func (r Ranges) Below() int {
	if r.ExcludeGutters {
		return -1
	}
	return r.NumBuckets() - 2
}

func (r Ranges) Above() int {
	if r.ExcludeGutters {
		return -1
	}
	return r.NumBuckets() - 1
}

// Bucket returns the bucket index of v or -1 if v falls in an excluded
// gutter.
func (r Ranges) Bucket(v int64) int {
	switch {
	case v < r.Min:
		return r.Below()
	case v >= r.Max:
		return r.Above()
	}
	return int(span(r.Min, v) / uint64(r.Interval))
}

// Group returns the group a metric regroup assigns to bucket b of parent
// group p.
func (r Ranges) Group(p, b int) int {
	return (p-1)*r.NumBuckets() + b + 1
}

// Locate inverts Group.
func (r Ranges) Locate(g int) (parent, bucket int) {
	n := r.NumBuckets()
	return 1 + (g-1)/n, (g - 1) % n
}

// Bounds returns the interval covered by in-range bucket b.
func (r Ranges) Bounds(b int) (lo, hi int64) {
	lo = int64(uint64(r.Min) + uint64(b)*uint64(r.Interval))
	if span(lo, r.Max) <= uint64(r.Interval) {
		return lo, r.Max
	}
	return lo, lo + r.Interval
}

// Key labels bucket b.
func (r Ranges) Key(b int) group.Key {
	switch {
	case b == r.Below():
		return group.GutterKey{Below: true, Bound: r.Min}
	case b == r.Above():
		return group.GutterKey{Bound: r.Max}
	}
	lo, hi := r.Bounds(b)
	return group.RangeKey{Lo: lo, Hi: hi}
}
