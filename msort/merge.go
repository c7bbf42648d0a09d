package msort

import (
	"context"

	"github.com/pkg/errors"

	"github.com/exascience/distsort"
	"github.com/exascience/distsort/comm"
	"github.com/exascience/distsort/sort"
)

// LocalSort sorts block in place in ascending order.
func LocalSort(block []int32, alg Algorithm) {
	switch alg {
	case AlgorithmStable:
		sort.StableSort(block)
	default:
		sort.Sort(block)
	}
}

/*
Merge combines the sorted blocks of all ranks into one sorted block on
rank 0, in log2(size) rounds with strides size/2, size/4, ..., 1.

In every round, a rank below the stride receives a block of its own
length from rank+stride and merges it with its own block into a new
block of twice the length. A rank in [stride, 2*stride) sends its
block to rank-stride and is idle for all remaining rounds, as are all
ranks at or above 2*stride.

Merge consumes block. It returns the merged block on rank 0 and nil
on all other ranks. The group size must be a power of two.
*/
func Merge(ctx context.Context, c comm.Communicator, block []int32, opts Options) ([]int32, error) {
	rank, size := c.Rank(), c.Size()
	if !distsort.IsPowerOfTwo(size) {
		return nil, errors.Wrapf(ErrNotPowerOfTwo, "group size %d", size)
	}
	opts = opts.withDefaults()
	logger := opts.Logger.With("rank", rank)

	rounds := distsort.Rounds(size)
	for round := 1; round <= rounds; round++ {
		stride := size >> round
		switch {
		case rank < stride:
			buf := make([]int32, len(block))
			if err := c.Recv(ctx, buf, rank+stride, comm.TagMerge); err != nil {
				if err = opts.transportFailure(logger, err, "merge", rank+stride); err != nil {
					return nil, err
				}
			}
			block = sort.Merge(block, buf)
		case rank < 2*stride:
			if err := c.Send(ctx, block, rank-stride, comm.TagMerge); err != nil {
				if err = opts.transportFailure(logger, err, "merge", rank-stride); err != nil {
					return nil, err
				}
			}
			block = nil
		}
		logger.Debug("merge round finished", "round", round, "of", rounds, "stride", stride, "block", len(block))
	}
	if rank != 0 {
		return nil, nil
	}
	return block, nil
}

// Sort sorts this rank's block locally and then merges all blocks of
// the group. Like Merge, it returns the sorted result on rank 0 only.
func Sort(ctx context.Context, c comm.Communicator, block []int32, opts Options) ([]int32, error) {
	LocalSort(block, opts.Algorithm)
	return Merge(ctx, c, block, opts)
}
