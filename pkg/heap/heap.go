// Package heap implements generic min-heap functions over slices and a
// bounded heap that keeps the k greatest items offered to it.
package heap

// Push adds item to x while preserving the min-heap invariant determined
// by less.
func Push[T any](x *[]T, item T, less func(a, b T) bool) {
	*x = append(*x, item)
	up(*x, len(*x)-1, less)
}

// Pop removes and returns the least element of x.
func Pop[T any](x *[]T, less func(a, b T) bool) T {
	h := *x
	ret := h[0]
	n := len(h) - 1
	h[0] = h[n]
	*x = h[:n]
	if n > 0 {
		down(*x, 0, less)
	}
	return ret
}

// Fix re-establishes the heap ordering after x[i] has changed.
func Fix[T any](x []T, i int, less func(a, b T) bool) {
	if !down(x, i, less) {
		up(x, i, less)
	}
}

func up[T any](x []T, j int, less func(a, b T) bool) {
	for j > 0 {
		i := (j - 1) / 2
		if i == j || !less(x[j], x[i]) {
			break
		}
		x[i], x[j] = x[j], x[i]
		j = i
	}
}

func down[T any](x []T, i0 int, less func(a, b T) bool) bool {
	i := i0
	n := len(x)
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 {
			break
		}
		j := j1
		if j2 := j1 + 1; j2 < n && less(x[j2], x[j1]) {
			j = j2
		}
		if !less(x[j], x[i]) {
			break
		}
		x[i], x[j] = x[j], x[i]
		i = j
	}
	return i > i0
}
