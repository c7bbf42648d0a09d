/*
Package msort implements a distributed merge sort over a comm group.

A run consists of four steps. CreateArray generates the array on rank
0 and scatters it. LocalSort sorts every rank's block independently.
Merge combines the blocks in a butterfly of pairwise exchanges until
rank 0 holds the sorted array. CheckSorted verifies the result on rank
0.
*/
package msort

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/exascience/distsort"
	"github.com/exascience/distsort/comm"
)

// Result is the outcome of a run on one rank.
type Result struct {
	Rank int
	Size int
	N    int

	// Block is the sorted array on rank 0 and nil elsewhere.
	Block []int32

	// Elapsed is the wall-clock time of the sort phase on this rank,
	// excluding generation and verification.
	Elapsed time.Duration

	// Inversion is the first inversion in Block, or nil. It is only
	// computed on rank 0.
	Inversion *Inversion
}

// Run generates a distributed array of n random values, sorts it, and
// verifies the result on rank 0. Every rank of the group calls Run.
func Run(ctx context.Context, c comm.Communicator, n int, opts Options) (Result, error) {
	res := Result{Rank: c.Rank(), Size: c.Size(), N: n}
	if !distsort.IsPowerOfTwo(res.Size) {
		return res, errors.Wrapf(ErrNotPowerOfTwo, "group size %d", res.Size)
	}

	block, err := CreateArray(ctx, c, n, opts)
	if err != nil {
		return res, errors.Wrap(err, "create array")
	}

	start := time.Now()
	block, err = Sort(ctx, c, block, opts)
	res.Elapsed = time.Since(start)
	if err != nil {
		return res, errors.Wrap(err, "sort")
	}

	if res.Rank == 0 {
		res.Block = block
		res.Inversion = CheckSorted(block)
	}
	return res, nil
}
