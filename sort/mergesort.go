package sort

import (
	"cmp"
	"slices"

	"golang.org/x/exp/constraints"

	"github.com/exascience/distsort/parallel"
)

const msortGrainSize = 0x3000

/*
StableSort sorts data in ascending order with a parallel merge sort,
also known as cilksort.

StableSort is good for large core counts and large collection sizes,
but needs a second slice of len(data) elements as temporary memory.
*/
func StableSort[T constraints.Ordered](data []T) {
	StableSortFunc(data, cmp.Compare[T])
}

// StableSortFunc is like StableSort, but orders elements by cmp. Equal
// elements keep their original order.
func StableSortFunc[T any](data []T, cmp func(x, y T) int) {
	if len(data) < msortGrainSize {
		slices.SortStableFunc(data, cmp)
		return
	}
	stableSort(data, make([]T, len(data)), cmp)
}

// stableSort sorts the four quarters of data, merges them pairwise into
// temp, and merges the two halves of temp back into data.
func stableSort[T any](data, temp []T, cmp func(x, y T) int) {
	size := len(data)
	if size < msortGrainSize {
		slices.SortStableFunc(data, cmp)
		return
	}
	q1 := size / 4
	q2 := q1 + q1
	q3 := q2 + q1
	parallel.Do(
		func() { stableSort(data[:q1], temp[:q1], cmp) },
		func() { stableSort(data[q1:q2], temp[q1:q2], cmp) },
		func() { stableSort(data[q2:q3], temp[q2:q3], cmp) },
		func() { stableSort(data[q3:], temp[q3:], cmp) },
	)
	parallel.Do(
		func() { pMerge(data[:q1], data[q1:q2], temp[:q2], cmp) },
		func() { pMerge(data[q2:q3], data[q3:], temp[q2:], cmp) },
	)
	pMerge(temp[:q2], temp[q2:], data, cmp)
}
