package msort

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	stdsync "sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/distsort/comm"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// runWorld runs f on every rank of an in-process group of size p and
// returns the per-rank results indexed by rank.
func runWorld[T any](t *testing.T, p int, f func(ctx context.Context, c comm.Communicator) (T, error)) ([]T, error) {
	t.Helper()
	w := comm.NewWorld(p)
	defer w.Close()
	results := make([]T, p)
	var mu stdsync.Mutex
	err := w.Run(context.Background(), func(ctx context.Context, c comm.Communicator) error {
		r, err := f(ctx, c)
		mu.Lock()
		results[c.Rank()] = r
		mu.Unlock()
		return err
	})
	return results, err
}

// generated returns the values that rank 0 generates for n and seed.
func generated(t *testing.T, n int, seed int64) []int32 {
	t.Helper()
	blocks, err := runWorld(t, 1, func(ctx context.Context, c comm.Communicator) ([]int32, error) {
		return CreateArray(ctx, c, n, Options{Seed: seed, Logger: quiet})
	})
	require.NoError(t, err)
	return blocks[0]
}

func TestRun(t *testing.T) {
	for _, n := range []int{1, 8, 64, 1 << 12, 1 << 15} {
		want := generated(t, n, 42)
		slices.Sort(want)
		for _, p := range []int{1, 2, 4, 8} {
			if p > n {
				continue
			}
			t.Run(fmt.Sprintf("n=%d/p=%d", n, p), func(t *testing.T) {
				results, err := runWorld(t, p, func(ctx context.Context, c comm.Communicator) (Result, error) {
					return Run(ctx, c, n, Options{Seed: 42, Logger: quiet})
				})
				require.NoError(t, err)

				root := results[0]
				assert.Equal(t, want, root.Block)
				assert.Nil(t, root.Inversion)
				assert.Equal(t, n, root.N)
				assert.Equal(t, p, root.Size)
				for _, r := range results[1:] {
					assert.Nil(t, r.Block, "rank %d kept a block", r.Rank)
				}
			})
		}
	}
}

func TestRunStable(t *testing.T) {
	const n = 1 << 16
	want := generated(t, n, 7)
	slices.Sort(want)
	results, err := runWorld(t, 4, func(ctx context.Context, c comm.Communicator) (Result, error) {
		return Run(ctx, c, n, Options{Seed: 7, Algorithm: AlgorithmStable, Logger: quiet})
	})
	require.NoError(t, err)
	assert.Equal(t, want, results[0].Block)
}

func TestCreateArrayReproducible(t *testing.T) {
	const n = 1 << 10
	want := generated(t, n, 3)
	for _, v := range want {
		require.True(t, v >= 0 && v < n)
	}

	blocks, err := runWorld(t, 4, func(ctx context.Context, c comm.Communicator) ([]int32, error) {
		return CreateArray(ctx, c, n, Options{Seed: 3, Logger: quiet})
	})
	require.NoError(t, err)
	for rank, block := range blocks {
		assert.Len(t, block, n/4, "rank %d", rank)
	}
	assert.Equal(t, want, lo.Flatten(blocks))
}

func TestCreateArrayOutOfRange(t *testing.T) {
	_, err := runWorld(t, 1, func(ctx context.Context, c comm.Communicator) ([]int32, error) {
		return CreateArray(ctx, c, -1, Options{Logger: quiet})
	})
	assert.True(t, errors.Is(err, ErrSizeOutOfRange))
}

func TestSortSingleRank(t *testing.T) {
	input := []int32{5, 1, 4, 2, 0, 3, 6, 7}
	results, err := runWorld(t, 1, func(ctx context.Context, c comm.Communicator) ([]int32, error) {
		return Sort(ctx, c, input, Options{Logger: quiet})
	})
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 1, 2, 3, 4, 5, 6, 7}, results[0])
	// zero rounds: the block is sorted in place
	assert.Equal(t, []int32{0, 1, 2, 3, 4, 5, 6, 7}, input)
}

func TestSortTwoRanks(t *testing.T) {
	blocks := lo.Chunk([]int32{5, 1, 4, 2, 0, 3, 6, 7}, 4)
	results, err := runWorld(t, 2, func(ctx context.Context, c comm.Communicator) ([]int32, error) {
		return Sort(ctx, c, blocks[c.Rank()], Options{Logger: quiet})
	})
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 4, 5}, blocks[0])
	assert.Equal(t, []int32{0, 3, 6, 7}, blocks[1])
	assert.Equal(t, []int32{0, 1, 2, 3, 4, 5, 6, 7}, results[0])
	assert.Nil(t, results[1])
}

func TestMergeWithDuplicates(t *testing.T) {
	const p = 8
	blocks := make([][]int32, p)
	for rank := range blocks {
		blocks[rank] = []int32{int32(rank % 3), 1, 1, int32(p - rank)}
		slices.Sort(blocks[rank])
	}
	want := slices.Concat(blocks...)
	slices.Sort(want)

	results, err := runWorld(t, p, func(ctx context.Context, c comm.Communicator) ([]int32, error) {
		return Merge(ctx, c, blocks[c.Rank()], Options{Logger: quiet})
	})
	require.NoError(t, err)
	assert.Equal(t, want, results[0])
}

func TestNotPowerOfTwo(t *testing.T) {
	_, err := runWorld(t, 3, func(ctx context.Context, c comm.Communicator) (Result, error) {
		return Run(ctx, c, 12, Options{Logger: quiet})
	})
	assert.True(t, errors.Is(err, ErrNotPowerOfTwo))
}

func TestCheckSorted(t *testing.T) {
	assert.Nil(t, CheckSorted(nil))
	assert.Nil(t, CheckSorted([]int32{1}))
	assert.Nil(t, CheckSorted([]int32{0, 1, 1, 2, 9}))

	inv := CheckSorted([]int32{1, 2, 4, 3})
	require.NotNil(t, inv)
	assert.Equal(t, Inversion{Left: 2, Right: 3, LeftValue: 4, RightValue: 3}, *inv)
	assert.Equal(t, "position 2 / 3: 4 > 3", inv.String())

	// only the first inversion is reported
	inv = CheckSorted([]int32{3, 1, 0})
	require.NotNil(t, inv)
	assert.Equal(t, 0, inv.Left)
}

var errLinkDown = errors.New("link down")

// brokenLink fails every operation with the given tag.
type brokenLink struct {
	comm.Communicator
	tag comm.Tag
}

func (b brokenLink) Send(ctx context.Context, buf []int32, dest int, tag comm.Tag) error {
	if tag == b.tag {
		return errLinkDown
	}
	return b.Communicator.Send(ctx, buf, dest, tag)
}

func (b brokenLink) Recv(ctx context.Context, buf []int32, source int, tag comm.Tag) error {
	if tag == b.tag {
		return errLinkDown
	}
	return b.Communicator.Recv(ctx, buf, source, tag)
}

func TestPolicyReport(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	results, err := runWorld(t, 2, func(ctx context.Context, c comm.Communicator) (Result, error) {
		return Run(ctx, brokenLink{c, comm.TagMerge}, 8, Options{Seed: 1, Logger: logger})
	})
	require.NoError(t, err)

	// rank 0 merged with a zero-filled block in place of rank 1's
	root := results[0].Block
	require.Len(t, root, 8)
	assert.Equal(t, make([]int32, 4), root[:4])
	assert.Equal(t, 2, strings.Count(logs.String(), "transport failure"))
}

func TestPolicyAbort(t *testing.T) {
	_, err := runWorld(t, 2, func(ctx context.Context, c comm.Communicator) (Result, error) {
		return Run(ctx, brokenLink{c, comm.TagMerge}, 8, Options{Policy: PolicyAbort, Logger: quiet})
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errLinkDown))
}

func TestMergeRoundsLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := runWorld(t, 8, func(ctx context.Context, c comm.Communicator) ([]int32, error) {
		block := []int32{int32(c.Size() - c.Rank())}
		return Merge(ctx, c, block, Options{Logger: logger})
	})
	require.NoError(t, err)
	assert.Equal(t, 24, strings.Count(logs.String(), "merge round finished"))
	assert.Equal(t, 8, strings.Count(logs.String(), "round=3 of=3 stride=1"))
	assert.Contains(t, logs.String(), "rank=0 round=3 of=3 stride=1 block=8")
}

func TestPolicyFlag(t *testing.T) {
	var p FailurePolicy
	require.NoError(t, p.Set("abort"))
	assert.Equal(t, PolicyAbort, p)
	assert.Equal(t, "abort", p.String())
	assert.Error(t, p.Set("retry"))

	var a Algorithm
	require.NoError(t, a.Set("stable"))
	assert.Equal(t, AlgorithmStable, a)
	assert.Error(t, a.Set("bogo"))
}

func BenchmarkRun(b *testing.B) {
	for _, p := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("p=%d", p), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				w := comm.NewWorld(p)
				_ = w.Run(context.Background(), func(ctx context.Context, c comm.Communicator) error {
					_, err := Run(ctx, c, 1<<18, Options{Seed: 1, Logger: quiet})
					return err
				})
				w.Close()
			}
		})
	}
}
