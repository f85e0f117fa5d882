package chat

import (
	"buddychat/proto/wire"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// Name is the gRPC content-subtype carried by every call of this package.
const Name = "buddychat"

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec marshals the hand-written wire types of this package.
// The bytes are plain protobuf, readable by any client built from chat.proto.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(wire.Marshaler)
	if !ok {
		return nil, fmt.Errorf("codec %s: cannot marshal %T", Name, v)
	}
	return m.MarshalWire()
}

func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(wire.Unmarshaler)
	if !ok {
		return fmt.Errorf("codec %s: cannot unmarshal into %T", Name, v)
	}
	return m.UnmarshalWire(data)
}

func (Codec) Name() string { return Name }

// CallOption makes a client call use this codec.
func CallOption() grpc.CallOption {
	return grpc.CallContentSubtype(Name)
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{CallOption()}, opts...)
}
