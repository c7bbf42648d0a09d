package sort

import (
	"slices"

	"golang.org/x/exp/constraints"

	"github.com/exascience/distsort/parallel"
)

const qsortGrainSize = 0x500

func medianOfThree[T constraints.Ordered](data []T, l, m, r int) int {
	if data[l] < data[m] {
		if data[m] < data[r] {
			return m
		} else if data[l] < data[r] {
			return r
		}
	} else if data[r] < data[m] {
		return m
	} else if data[r] < data[l] {
		return r
	}
	return l
}

func pseudoMedianOfNine[T constraints.Ordered](data []T) int {
	offset := len(data) / 8
	return medianOfThree(data,
		medianOfThree(data, 0, offset, offset*2),
		medianOfThree(data, offset*3, offset*4, offset*5),
		medianOfThree(data, offset*6, offset*7, len(data)-1),
	)
}

// partition moves the pivot chosen for data to its final position and
// returns that position. Elements before it are not greater than the
// pivot, elements after it are not less.
func partition[T constraints.Ordered](data []T) int {
	if m := pseudoMedianOfNine(data); m > 0 {
		data[0], data[m] = data[m], data[0]
	}
	pivot := data[0]
	i, j := 0, len(data)
	for {
		for {
			j--
			if !(pivot < data[j]) {
				break
			}
		}
		for i != j {
			i++
			if !(data[i] < pivot) {
				break
			}
		}
		if i == j {
			break
		}
		data[i], data[j] = data[j], data[i]
	}
	data[0], data[j] = data[j], data[0]
	return j
}

/*
Sort sorts data in ascending order with a parallel quicksort.

It is good for small core counts and small collection sizes, which is
the typical situation for a single rank's block. Sort is not stable.
*/
func Sort[T constraints.Ordered](data []T) {
	if IsSorted(data) {
		return
	}
	var pSort func([]T)
	pSort = func(data []T) {
		if len(data) < qsortGrainSize {
			slices.Sort(data)
			return
		}
		j := partition(data)
		parallel.Do(
			func() { pSort(data[:j]) },
			func() { pSort(data[j+1:]) },
		)
	}
	pSort(data)
}
