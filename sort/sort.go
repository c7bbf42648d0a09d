/*
Package sort provides the parallel sorting and merging kernels that
every rank runs on its local block.

All kernels work on plain slices. Small inputs and the leaves of the
parallel recursions are handled by package slices of the standard
library.
*/
package sort

import (
	"sync/atomic"

	"golang.org/x/exp/constraints"

	"github.com/exascience/distsort/speculative"
)

/*
IsSorted determines in parallel whether data is sorted in ascending
order. It attempts to terminate early when the return value is false.
*/
func IsSorted[T constraints.Ordered](data []T) bool {
	if len(data) < qsortGrainSize {
		for i := 1; i < len(data); i++ {
			if data[i] < data[i-1] {
				return false
			}
		}
		return true
	}
	var done atomic.Bool
	defer done.Store(true)
	var pTest func(lo, hi int) bool
	pTest = func(lo, hi int) bool {
		if hi-lo < qsortGrainSize {
			for i := lo; i < hi; i++ {
				if i%1024 == 0 && done.Load() {
					return false
				}
				if data[i] < data[i-1] {
					return false
				}
			}
			return true
		}
		mid := lo + (hi-lo)/2
		return speculative.And(
			func() bool { return pTest(lo, mid) },
			func() bool { return pTest(mid, hi) },
		)
	}
	return pTest(1, len(data))
}
