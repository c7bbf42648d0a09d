package sort

import (
	"cmp"
	stdsort "sort"

	"golang.org/x/exp/constraints"

	"github.com/exascience/distsort/parallel"
)

/*
Merge merges the ascending slices a and b into a newly allocated slice
of length len(a)+len(b), which is ascending as well. Neither a nor b is
modified, and the result shares no memory with them.

On ties, elements of a are placed before equal elements of b.
*/
func Merge[T constraints.Ordered](a, b []T) []T {
	return MergeFunc(a, b, cmp.Compare[T])
}

/*
MergeFunc is like Merge, but orders elements by cmp.

Large inputs are merged in parallel by splitting the longer input at
its median and the shorter one at the matching position, recursively.
*/
func MergeFunc[T any](a, b []T, cmp func(x, y T) int) []T {
	dst := make([]T, len(a)+len(b))
	pMerge(a, b, dst, cmp)
	return dst
}

// sMerge merges a and b into dst. Elements of a precede equal elements
// of b.
func sMerge[T any](a, b, dst []T, cmp func(x, y T) int) {
	i, j, k := 0, 0, 0
	for i < len(a) && j < len(b) {
		if cmp(b[j], a[i]) < 0 {
			dst[k] = b[j]
			j++
		} else {
			dst[k] = a[i]
			i++
		}
		k++
	}
	k += copy(dst[k:], a[i:])
	copy(dst[k:], b[j:])
}

// pMerge is the parallel divide-and-conquer version of sMerge with the
// same tie rule.
func pMerge[T any](a, b, dst []T, cmp func(x, y T) int) {
	if len(a)+len(b) < msortGrainSize {
		sMerge(a, b, dst, cmp)
		return
	}
	var q1, q2 int
	if len(a) >= len(b) {
		// b[:q2] is strictly less than the median of a.
		q1 = len(a) / 2
		q2 = stdsort.Search(len(b), func(i int) bool { return cmp(b[i], a[q1]) >= 0 })
		dst[q1+q2] = a[q1]
		parallel.Do(
			func() { pMerge(a[:q1], b[:q2], dst[:q1+q2], cmp) },
			func() { pMerge(a[q1+1:], b[q2:], dst[q1+q2+1:], cmp) },
		)
		return
	}
	// a[:q1] is not greater than the median of b.
	q2 = len(b) / 2
	q1 = stdsort.Search(len(a), func(i int) bool { return cmp(a[i], b[q2]) > 0 })
	dst[q1+q2] = b[q2]
	parallel.Do(
		func() { pMerge(a[:q1], b[:q2], dst[:q1+q2], cmp) },
		func() { pMerge(a[q1:], b[q2+1:], dst[q1+q2+1:], cmp) },
	)
}
