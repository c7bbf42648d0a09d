package grpcnet

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"google.golang.org/grpc/encoding"
)

// codecName is the gRPC content subtype under which blocks travel.
const codecName = "distsort-block"

// headerSize covers source, tag, total and count, each a little-endian
// uint32.
const headerSize = 16

// A block is one part of a point-to-point message. Total is the length
// of the whole message, Data the values of this part.
type block struct {
	Source int32
	Tag    int32
	Total  int32
	Data   []int32
}

type ack struct{}

// blockCodec encodes blocks as a fixed header followed by the values,
// all little-endian. Acks are empty.
type blockCodec struct{}

func init() {
	encoding.RegisterCodec(blockCodec{})
}

func (blockCodec) Name() string {
	return codecName
}

func (blockCodec) Marshal(v interface{}) ([]byte, error) {
	switch m := v.(type) {
	case *block:
		buf := make([]byte, 0, headerSize+4*len(m.Data))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(m.Source))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(m.Tag))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(m.Total))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(m.Data)))
		for _, x := range m.Data {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(x))
		}
		return buf, nil
	case *ack:
		return []byte{}, nil
	default:
		return nil, errors.Errorf("grpcnet: cannot marshal %T", v)
	}
}

func (blockCodec) Unmarshal(data []byte, v interface{}) error {
	switch m := v.(type) {
	case *block:
		if len(data) < headerSize {
			return errors.Errorf("grpcnet: short block header of %d bytes", len(data))
		}
		m.Source = int32(binary.LittleEndian.Uint32(data[0:]))
		m.Tag = int32(binary.LittleEndian.Uint32(data[4:]))
		m.Total = int32(binary.LittleEndian.Uint32(data[8:]))
		count := binary.LittleEndian.Uint32(data[12:])
		payload := data[headerSize:]
		if uint64(len(payload)) != 4*uint64(count) {
			return errors.Errorf("grpcnet: block announces %d values but carries %d bytes", count, len(payload))
		}
		m.Data = make([]int32, count)
		for i := range m.Data {
			m.Data[i] = int32(binary.LittleEndian.Uint32(payload[4*i:]))
		}
		return nil
	case *ack:
		return nil
	default:
		return errors.Errorf("grpcnet: cannot unmarshal into %T", v)
	}
}
