package distsort

import (
	"fmt"
	"math/bits"
)

type (
	// A Thunk is a function that neither receives nor returns any
	// parameters.
	Thunk func()

	// A Predicate is a function that receives no paramaters and returns
	// a bool.
	Predicate func() bool
)

/*
BlockSize determines the local block size such that an index space of
size n is distributed evenly over p ranks, filled up with one
additional element if necessary.

The return value is ceiling(n / p). It takes n >= 0 and p >= 1; a p of
0 is a caller error.
*/
func BlockSize(n, p int) int {
	size := n / p
	if n%p != 0 {
		size++
	}
	return size
}

// IsPowerOfTwo reports whether p is a positive power of two.
func IsPowerOfTwo(p int) bool {
	return p > 0 && p&(p-1) == 0
}

/*
Rounds returns the number of merge rounds of a butterfly network with p
participants, which is log2(p).

Rounds panics if p is not a power of two.
*/
func Rounds(p int) int {
	if !IsPowerOfTwo(p) {
		panic(fmt.Sprintf("invalid process count: %v", p))
	}
	return bits.TrailingZeros(uint(p))
}
