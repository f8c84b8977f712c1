package heap

// Bounded keeps at most k items, retaining the greatest items offered
// according to cmp.  When full, a candidate replaces the current minimum
// only if it is strictly greater, so among equal items the first offered
// wins.
type Bounded[T any] struct {
	k     int
	cmp   func(a, b T) int
	seq   int
	items []entry[T]
}

type entry[T any] struct {
	item T
	seq  int
}

func NewBounded[T any](k int, cmp func(a, b T) int) *Bounded[T] {
	return &Bounded[T]{k: k, cmp: cmp}
}

// less orders the heap so its root is the item to evict next: the smallest,
// and among equals the most recently offered.
func (b *Bounded[T]) less(x, y entry[T]) bool {
	if c := b.cmp(x.item, y.item); c != 0 {
		return c < 0
	}
	return x.seq > y.seq
}

func (b *Bounded[T]) Len() int {
	return len(b.items)
}

// Offer adds item if there is room or if it is strictly greater than the
// current minimum, which it then replaces.  It reports whether item was kept.
func (b *Bounded[T]) Offer(item T) bool {
	if b.k <= 0 {
		return false
	}
	e := entry[T]{item: item, seq: b.seq}
	b.seq++
	if len(b.items) < b.k {
		Push(&b.items, e, b.less)
		return true
	}
	if b.cmp(item, b.items[0].item) <= 0 {
		return false
	}
	b.items[0] = e
	Fix(b.items, 0, b.less)
	return true
}

// Min returns the item that would be evicted next.
func (b *Bounded[T]) Min() (T, bool) {
	if len(b.items) == 0 {
		var zero T
		return zero, false
	}
	return b.items[0].item, true
}

// Drain empties the heap and returns its items in descending order with
// equal items in the order they were offered.
func (b *Bounded[T]) Drain() []T {
	out := make([]T, len(b.items))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = Pop(&b.items, b.less).item
	}
	return out
}
