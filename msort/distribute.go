package msort

import (
	"context"
	"log/slog"
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/exascience/distsort"
	"github.com/exascience/distsort/comm"
)

/*
CreateArray creates this rank's block of a distributed array of n
random values in [0, n). Every rank of the group calls it.

Rank 0 generates all values and sends one block of
distsort.BlockSize(n, size) values to each rank in ascending rank
order, keeping the first block for itself. This makes the generated
sequence independent of the group size: for a fixed seed, the blocks
concatenated in rank order always form the same stream of values. All
other ranks receive exactly one block from rank 0.
*/
func CreateArray(ctx context.Context, c comm.Communicator, n int, opts Options) ([]int32, error) {
	if n < 0 || n > math.MaxInt32 {
		return nil, errors.Wrapf(ErrSizeOutOfRange, "n = %d", n)
	}
	opts = opts.withDefaults()
	rank, size := c.Rank(), c.Size()
	logger := opts.Logger.With("rank", rank)
	debug := logger.Enabled(ctx, slog.LevelDebug)

	blockSize := distsort.BlockSize(n, size)
	logger.Debug("local block size", "size", blockSize)

	block := make([]int32, blockSize)
	if rank == 0 {
		rng := rand.New(rand.NewSource(opts.Seed))
		buf := make([]int32, blockSize)
		for dest := 0; dest < size; dest++ {
			for i := range buf {
				buf[i] = rng.Int31n(int32(n))
			}
			if debug {
				logger.Debug("original data", "dest", dest, "values", buf)
			}
			if dest == 0 {
				copy(block, buf)
				continue
			}
			if err := c.Send(ctx, buf, dest, comm.TagDistribute); err != nil {
				if err = opts.transportFailure(logger, err, "scatter", dest); err != nil {
					return nil, err
				}
			}
		}
	} else if err := c.Recv(ctx, block, 0, comm.TagDistribute); err != nil {
		if err = opts.transportFailure(logger, err, "scatter", 0); err != nil {
			return nil, err
		}
	}
	logger.Debug("create array finished")
	return block, nil
}
