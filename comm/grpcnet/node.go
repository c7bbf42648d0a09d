/*
Package grpcnet provides a comm.Communicator for groups of separate
OS processes, one rank per process.

Every rank serves a gRPC endpoint at its own address. Send is a unary
call to the destination's endpoint that only completes once the
destination has received the block with a matching Recv, so Send and
Recv keep their blocking rendezvous semantics across processes. Calls
wait for peers that are not up yet, which lets the ranks of a group
start in any order.
*/
package grpcnet

import (
	"context"
	"log/slog"
	"net"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/exascience/distsort/comm"
)

// DefaultPartSize is the number of values a Send transfers per call
// unless Config.PartSize says otherwise.
const DefaultPartSize = 1 << 24

// maxMessageSize admits a part of DefaultPartSize values. Larger parts
// fail with codes.ResourceExhausted.
const maxMessageSize = headerSize + 4*DefaultPartSize

// Config describes one rank of a networked group.
type Config struct {
	// Rank is the identity of this process, 0 <= Rank < len(Peers).
	Rank int

	// Peers holds the address of every rank of the group, indexed by
	// rank. All ranks must agree on it.
	Peers []string

	// Listener, if not nil, is used instead of listening on
	// Peers[Rank].
	Listener net.Listener

	// PartSize is the maximum number of values transferred by one call.
	// Longer messages are split into parts that the receiving rank
	// reassembles. It defaults to DefaultPartSize and may not exceed it.
	PartSize int

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// A Node is one rank of a networked group. It implements
// comm.Communicator.
type Node struct {
	rank     int
	size     int
	partSize int
	boxes    *comm.Mailboxes
	server   *grpc.Server
	conns    []*grpc.ClientConn
	logger   *slog.Logger
}

// Listen starts serving the endpoint of cfg.Rank and prepares the
// connections to all peers. Connections are established lazily.
func Listen(cfg Config) (*Node, error) {
	size := len(cfg.Peers)
	if cfg.Rank < 0 || cfg.Rank >= size {
		return nil, errors.Wrapf(comm.ErrInvalidRank, "rank %d, group size %d", cfg.Rank, size)
	}
	partSize := cfg.PartSize
	switch {
	case partSize == 0:
		partSize = DefaultPartSize
	case partSize < 0 || partSize > DefaultPartSize:
		return nil, errors.Errorf("part size %d out of range [1, %d]", partSize, DefaultPartSize)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("rank", cfg.Rank)

	lis := cfg.Listener
	if lis == nil {
		var err error
		if lis, err = net.Listen("tcp", cfg.Peers[cfg.Rank]); err != nil {
			return nil, errors.Wrapf(err, "listen on %s", cfg.Peers[cfg.Rank])
		}
	}

	n := &Node{
		rank:     cfg.Rank,
		size:     size,
		partSize: partSize,
		boxes:    comm.NewMailboxes(),
		conns:    make([]*grpc.ClientConn, size),
		logger:   logger,
	}
	for peer, addr := range cfg.Peers {
		if peer == cfg.Rank {
			continue
		}
		conn, err := grpc.NewClient(addr,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithDefaultCallOptions(
				grpc.CallContentSubtype(codecName),
				grpc.MaxCallSendMsgSize(maxMessageSize),
				grpc.MaxCallRecvMsgSize(maxMessageSize),
				grpc.WaitForReady(true),
			),
		)
		if err != nil {
			n.closeConns()
			lis.Close()
			return nil, errors.Wrapf(err, "connect to rank %d at %s", peer, addr)
		}
		n.conns[peer] = conn
	}

	n.server = grpc.NewServer(
		grpc.MaxRecvMsgSize(maxMessageSize),
		grpc.MaxSendMsgSize(maxMessageSize),
	)
	n.server.RegisterService(&serviceDesc, n)
	go func() {
		if err := n.server.Serve(lis); err != nil {
			logger.Error("endpoint stopped", "addr", lis.Addr().String(), "err", err)
		}
	}()
	logger.Debug("endpoint up", "addr", lis.Addr().String(), "size", size)
	return n, nil
}

// Rank implements comm.Communicator.
func (n *Node) Rank() int {
	return n.rank
}

// Size implements comm.Communicator.
func (n *Node) Size() int {
	return n.size
}

// Send implements comm.Communicator. Messages longer than the part size
// are sent as consecutive parts; Send returns once the last part has
// been received.
func (n *Node) Send(ctx context.Context, buf []int32, dest int, tag comm.Tag) error {
	if err := comm.CheckPeer(n.rank, n.size, dest); err != nil {
		return err
	}
	total := len(buf)
	for off := 0; ; {
		end := min(off+n.partSize, total)
		in := &block{Source: int32(n.rank), Tag: int32(tag), Total: int32(total), Data: buf[off:end]}
		if err := n.conns[dest].Invoke(ctx, deliverMethod, in, new(ack)); err != nil {
			return errors.Wrapf(err, "send values [%d, %d) of %d to rank %d, tag %d", off, end, total, dest, tag)
		}
		if off = end; off >= total {
			return nil
		}
	}
}

// Recv implements comm.Communicator.
func (n *Node) Recv(ctx context.Context, buf []int32, source int, tag comm.Tag) error {
	if err := comm.CheckPeer(n.rank, n.size, source); err != nil {
		return err
	}
	return n.boxes.Collect(ctx, source, tag, buf)
}

func (n *Node) deliver(ctx context.Context, in *block) (*ack, error) {
	source := int(in.Source)
	if err := comm.CheckPeer(n.rank, n.size, source); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	err := n.boxes.DeliverPart(ctx, source, comm.Tag(in.Tag), in.Data, int(in.Total))
	switch {
	case err == nil:
		return new(ack), nil
	case errors.Is(err, comm.ErrClosed):
		return nil, status.Errorf(codes.Unavailable, "rank %d is shutting down", n.rank)
	case ctx.Err() != nil:
		return nil, status.FromContextError(ctx.Err()).Err()
	default:
		return nil, status.Error(codes.Internal, err.Error())
	}
}

// Close stops the endpoint and drops all peer connections. Pending
// operations of this rank fail with comm.ErrClosed.
func (n *Node) Close() error {
	n.boxes.Close()
	n.server.GracefulStop()
	return n.closeConns()
}

func (n *Node) closeConns() (err error) {
	for peer, conn := range n.conns {
		if conn == nil {
			continue
		}
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close connection to rank %d", peer)
		}
		n.conns[peer] = nil
	}
	return
}
