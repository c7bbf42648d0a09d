/*
Package comm provides the point-to-point communication layer of a
fixed group of ranks.

A group consists of Size() participants with stable identities 0 to
Size()-1. Ranks exchange blocks of int32 values with blocking Send and
Recv operations. There are no timeouts: an operation only returns
early when its context is canceled, so a lost or mismatched message
blocks forever under a context that is never canceled.
*/
package comm

import (
	"context"

	"github.com/pkg/errors"
)

// A Tag distinguishes the messages of different protocol phases
// between the same pair of ranks.
type Tag int32

const (
	// TagDistribute marks the blocks scattered by rank 0.
	TagDistribute Tag = 4711
	// TagMerge marks the blocks exchanged in the merge rounds.
	TagMerge Tag = 4712
)

var (
	// ErrCountMismatch is returned by Recv when the received message
	// does not have the length of the receive buffer.
	ErrCountMismatch = errors.New("message length does not match receive buffer")

	// ErrInvalidRank is returned when a peer rank is outside of the
	// group or is the calling rank itself.
	ErrInvalidRank = errors.New("invalid peer rank")

	// ErrClosed is returned by operations on a closed communicator.
	ErrClosed = errors.New("communicator closed")
)

/*
A Communicator is one rank's view of a process group.

Send blocks until the message has been taken by the matching Recv of
dest, after which buf may be reused. Recv blocks until a message with
the given tag from source arrives and copies it into buf. Messages
carry no length prefix that the receiver could use: the receiver
already knows the length from the protocol, and Recv reports
ErrCountMismatch if the lengths differ.
*/
type Communicator interface {
	Rank() int
	Size() int
	Send(ctx context.Context, buf []int32, dest int, tag Tag) error
	Recv(ctx context.Context, buf []int32, source int, tag Tag) error
}

// CheckPeer returns ErrInvalidRank if peer is not a valid partner of
// rank in a group of the given size.
func CheckPeer(rank, size, peer int) error {
	if peer < 0 || peer >= size || peer == rank {
		return errors.Wrapf(ErrInvalidRank, "rank %d, peer %d, group size %d", rank, peer, size)
	}
	return nil
}
