package grpcnet

import (
	"context"

	"google.golang.org/grpc"
)

const deliverMethod = "/distsort.Exchange/Deliver"

type exchangeServer interface {
	deliver(ctx context.Context, in *block) (*ack, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "distsort.Exchange",
	HandlerType: (*exchangeServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Deliver",
			Handler:    deliverHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "distsort/exchange",
}

func deliverHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(block)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(exchangeServer).deliver(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: deliverMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(exchangeServer).deliver(ctx, req.(*block))
	}
	return interceptor(ctx, in, info, handler)
}
