package heap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slices"
)

func intLess(a, b int) bool { return a < b }

func intCmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func TestHeap(t *testing.T) {
	x := make([]int, 0, 1000)
	for len(x) < cap(x) {
		Push(&x, rand.Int(), intLess)
	}
	var sorted []int
	for len(x) > 0 {
		sorted = append(sorted, Pop(&x, intLess))
	}
	require.True(t, slices.IsSorted(sorted))

	for i := 0; i < 100; i++ {
		Push(&x, rand.Intn(1000), intLess)
	}
	x[50] = -1
	Fix(x, 50, intLess)
	assert.Equal(t, -1, Pop(&x, intLess))
}

func TestBoundedKeepsGreatest(t *testing.T) {
	vals := rand.Perm(500)
	b := NewBounded(10, intCmp)
	for _, v := range vals {
		b.Offer(v)
	}
	assert.Equal(t, []int{499, 498, 497, 496, 495, 494, 493, 492, 491, 490}, b.Drain())
	assert.Equal(t, 0, b.Len())
}

func TestBoundedLargeK(t *testing.T) {
	vals := []int{5, 3, 9, 1}
	b := NewBounded(100, intCmp)
	for _, v := range vals {
		b.Offer(v)
	}
	assert.Equal(t, []int{9, 5, 3, 1}, b.Drain())
}

type scored struct {
	name  string
	score int
}

func TestBoundedTiesFirstSeenWins(t *testing.T) {
	cmp := func(a, b scored) int { return intCmp(a.score, b.score) }
	b := NewBounded(2, cmp)
	assert.True(t, b.Offer(scored{"a", 5}))
	assert.True(t, b.Offer(scored{"b", 5}))
	// Equal to the minimum: rejected.
	assert.False(t, b.Offer(scored{"c", 5}))
	min, ok := b.Min()
	require.True(t, ok)
	assert.Equal(t, "b", min.name)
	assert.Equal(t, []scored{{"a", 5}, {"b", 5}}, b.Drain())

	b = NewBounded(2, cmp)
	b.Offer(scored{"a", 1})
	b.Offer(scored{"b", 7})
	b.Offer(scored{"c", 7})
	b.Offer(scored{"d", 7})
	assert.Equal(t, []scored{{"b", 7}, {"c", 7}}, b.Drain())
}

func TestBoundedZero(t *testing.T) {
	b := NewBounded(0, intCmp)
	assert.False(t, b.Offer(1))
	_, ok := b.Min()
	assert.False(t, ok)
	assert.Empty(t, b.Drain())
}
