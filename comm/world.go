package comm

import (
	"context"
	"fmt"
	"slices"
	stdsync "sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/exascience/distsort/internal"
)

var errPanicked = errors.New("rank panicked")

/*
A World is an in-process group of ranks. Every rank runs in its own
goroutine and owns its own mailboxes; ranks share no memory other
than the messages in flight, which are copied on Send.
*/
type World struct {
	boxes []*Mailboxes
}

// NewWorld returns a group of size ranks. NewWorld panics if size < 1.
func NewWorld(size int) *World {
	if size < 1 {
		panic(fmt.Sprintf("invalid group size: %v", size))
	}
	boxes := make([]*Mailboxes, size)
	for i := range boxes {
		boxes[i] = NewMailboxes()
	}
	return &World{boxes}
}

// Size returns the number of ranks in w.
func (w *World) Size() int {
	return len(w.boxes)
}

// Comm returns the communicator of the given rank.
func (w *World) Comm(rank int) Communicator {
	if rank < 0 || rank >= len(w.boxes) {
		panic(fmt.Sprintf("invalid rank: %v", rank))
	}
	return &localComm{w, rank}
}

/*
Run invokes f once for every rank, each in its own goroutine, and
returns when all of them have returned. It returns the first non-nil
error; the context passed to f is canceled as soon as any rank fails,
which unblocks ranks that wait for a partner that will never come.

If f panics on one or more ranks, Run panics with an
*internal.RankPanic carrying the first recovered value, its rank and
the stack of that rank.
*/
func (w *World) Run(ctx context.Context, f func(ctx context.Context, c Communicator) error) error {
	g, ctx := errgroup.WithContext(ctx)
	var once stdsync.Once
	var p *internal.RankPanic
	for rank := range w.boxes {
		c := w.Comm(rank)
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					once.Do(func() { p = internal.WrapPanic(rank, r) })
					err = errPanicked
				}
			}()
			return f(ctx, c)
		})
	}
	err := g.Wait()
	if p != nil {
		panic(p)
	}
	return err
}

// Close closes the mailboxes of all ranks.
func (w *World) Close() {
	for _, box := range w.boxes {
		box.Close()
	}
}

type localComm struct {
	world *World
	rank  int
}

func (c *localComm) Rank() int {
	return c.rank
}

func (c *localComm) Size() int {
	return len(c.world.boxes)
}

func (c *localComm) Send(ctx context.Context, buf []int32, dest int, tag Tag) error {
	if err := CheckPeer(c.rank, c.Size(), dest); err != nil {
		return err
	}
	return c.world.boxes[dest].Deliver(ctx, c.rank, tag, slices.Clone(buf))
}

func (c *localComm) Recv(ctx context.Context, buf []int32, source int, tag Tag) error {
	if err := CheckPeer(c.rank, c.Size(), source); err != nil {
		return err
	}
	return c.world.boxes[c.rank].Collect(ctx, source, tag, buf)
}
