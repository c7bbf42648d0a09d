package comm

import (
	"context"
	stdsync "sync"

	"github.com/pkg/errors"

	"github.com/exascience/distsort/sync"
)

// A part is a piece of a message of total values.
type part struct {
	data  []int32
	total int
}

type mailboxKey struct {
	source int
	tag    Tag
}

func (k mailboxKey) Hash() uint64 {
	return uint64(k.source)<<32 ^ uint64(uint32(k.tag))
}

/*
Mailboxes holds the incoming messages of one rank, keyed by source
rank and tag. Every mailbox is an unbuffered channel, so Deliver and
Collect rendezvous: Deliver returns only once the matching Collect has
taken the message.

The zero Mailboxes is not valid; use NewMailboxes.
*/
type Mailboxes struct {
	boxes     *sync.Map[mailboxKey, chan part]
	closed    chan struct{}
	closeOnce stdsync.Once
}

// NewMailboxes returns an empty set of mailboxes.
func NewMailboxes() *Mailboxes {
	return &Mailboxes{
		boxes:  sync.NewMap[mailboxKey, chan part](0),
		closed: make(chan struct{}),
	}
}

func (m *Mailboxes) box(source int, tag Tag) chan part {
	box, _ := m.boxes.LoadOrCompute(mailboxKey{source, tag}, func() chan part {
		return make(chan part)
	})
	return box
}

/*
Deliver hands data from source to the matching Collect. The caller
must not modify data afterwards.
*/
func (m *Mailboxes) Deliver(ctx context.Context, source int, tag Tag, data []int32) error {
	return m.DeliverPart(ctx, source, tag, data, len(data))
}

/*
DeliverPart hands one part of a message of total values to the matching
Collect, which keeps taking parts from source with this tag until it
has total values. Parts of one message must be delivered in order and
must not interleave with other messages from the same source and tag.
*/
func (m *Mailboxes) DeliverPart(ctx context.Context, source int, tag Tag, data []int32, total int) error {
	select {
	case m.box(source, tag) <- part{data, total}:
		return nil
	case <-m.closed:
		return ErrClosed
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "deliver from rank %d, tag %d", source, tag)
	}
}

/*
Collect waits for a message from source with the given tag and copies
it into buf, taking as many parts as the message has. If the lengths
differ, the common prefix is copied and ErrCountMismatch is returned.
*/
func (m *Mailboxes) Collect(ctx context.Context, source int, tag Tag, buf []int32) error {
	box := m.box(source, tag)
	received, total := 0, -1
	for total < 0 || received < total {
		select {
		case p := <-box:
			copy(buf[min(received, len(buf)):], p.data)
			received += len(p.data)
			total = p.total
		case <-m.closed:
			return ErrClosed
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "receive from rank %d, tag %d", source, tag)
		}
	}
	if received != len(buf) {
		return errors.Wrapf(ErrCountMismatch, "received %d values from rank %d, expected %d", received, source, len(buf))
	}
	return nil
}

// Close unblocks all pending and future Deliver and Collect calls with
// ErrClosed.
func (m *Mailboxes) Close() {
	m.closeOnce.Do(func() { close(m.closed) })
}
