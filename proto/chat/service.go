package chat

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ChatService_SendMessage_FullMethodName      = "/buddychat.chat.v1.ChatService/SendMessage"
	ChatService_GetMessage_FullMethodName       = "/buddychat.chat.v1.ChatService/GetMessage"
	ChatService_ListFeed_FullMethodName         = "/buddychat.chat.v1.ChatService/ListFeed"
	ChatService_Subscribe_FullMethodName        = "/buddychat.chat.v1.ChatService/Subscribe"
	ChatService_Search_FullMethodName           = "/buddychat.chat.v1.ChatService/Search"
	ChatService_ListCounterparts_FullMethodName = "/buddychat.chat.v1.ChatService/ListCounterparts"

	RelationService_Block_FullMethodName     = "/buddychat.chat.v1.RelationService/Block"
	RelationService_Unblock_FullMethodName   = "/buddychat.chat.v1.RelationService/Unblock"
	RelationService_IsBlocked_FullMethodName = "/buddychat.chat.v1.RelationService/IsBlocked"
)

type ChatService_SubscribeClient = grpc.ServerStreamingClient[FeedEntry]

type ChatService_SubscribeServer = grpc.ServerStreamingServer[FeedEntry]

type ChatServiceClient interface {
	SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error)
	GetMessage(ctx context.Context, in *GetMessageRequest, opts ...grpc.CallOption) (*GetMessageResponse, error)
	ListFeed(ctx context.Context, in *ListFeedRequest, opts ...grpc.CallOption) (*ListFeedResponse, error)
	Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (ChatService_SubscribeClient, error)
	Search(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*SearchResponse, error)
	ListCounterparts(ctx context.Context, in *ListCounterpartsRequest, opts ...grpc.CallOption) (*ListCounterpartsResponse, error)
}

type chatServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewChatServiceClient(cc grpc.ClientConnInterface) ChatServiceClient {
	return &chatServiceClient{cc}
}

func (c *chatServiceClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	out := new(SendMessageResponse)
	if err := c.cc.Invoke(ctx, ChatService_SendMessage_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *chatServiceClient) GetMessage(ctx context.Context, in *GetMessageRequest, opts ...grpc.CallOption) (*GetMessageResponse, error) {
	out := new(GetMessageResponse)
	if err := c.cc.Invoke(ctx, ChatService_GetMessage_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *chatServiceClient) ListFeed(ctx context.Context, in *ListFeedRequest, opts ...grpc.CallOption) (*ListFeedResponse, error) {
	out := new(ListFeedResponse)
	if err := c.cc.Invoke(ctx, ChatService_ListFeed_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *chatServiceClient) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (ChatService_SubscribeClient, error) {
	stream, err := c.cc.NewStream(ctx, &ChatService_ServiceDesc.Streams[0], ChatService_Subscribe_FullMethodName, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[SubscribeRequest, FeedEntry]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *chatServiceClient) Search(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*SearchResponse, error) {
	out := new(SearchResponse)
	if err := c.cc.Invoke(ctx, ChatService_Search_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *chatServiceClient) ListCounterparts(ctx context.Context, in *ListCounterpartsRequest, opts ...grpc.CallOption) (*ListCounterpartsResponse, error) {
	out := new(ListCounterpartsResponse)
	if err := c.cc.Invoke(ctx, ChatService_ListCounterparts_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// ChatServiceServer is implemented by infrastructure/grpc/server.
// Embed UnimplementedChatServiceServer to stay forward compatible.
type ChatServiceServer interface {
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	GetMessage(context.Context, *GetMessageRequest) (*GetMessageResponse, error)
	ListFeed(context.Context, *ListFeedRequest) (*ListFeedResponse, error)
	Subscribe(*SubscribeRequest, ChatService_SubscribeServer) error
	Search(context.Context, *SearchRequest) (*SearchResponse, error)
	ListCounterparts(context.Context, *ListCounterpartsRequest) (*ListCounterpartsResponse, error)
	mustEmbedUnimplementedChatServiceServer()
}

type UnimplementedChatServiceServer struct{}

func (UnimplementedChatServiceServer) SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SendMessage not implemented")
}
func (UnimplementedChatServiceServer) GetMessage(context.Context, *GetMessageRequest) (*GetMessageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetMessage not implemented")
}
func (UnimplementedChatServiceServer) ListFeed(context.Context, *ListFeedRequest) (*ListFeedResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListFeed not implemented")
}
func (UnimplementedChatServiceServer) Subscribe(*SubscribeRequest, ChatService_SubscribeServer) error {
	return status.Error(codes.Unimplemented, "method Subscribe not implemented")
}
func (UnimplementedChatServiceServer) Search(context.Context, *SearchRequest) (*SearchResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Search not implemented")
}
func (UnimplementedChatServiceServer) ListCounterparts(context.Context, *ListCounterpartsRequest) (*ListCounterpartsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListCounterparts not implemented")
}
func (UnimplementedChatServiceServer) mustEmbedUnimplementedChatServiceServer() {}

func RegisterChatServiceServer(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&ChatService_ServiceDesc, srv)
}

// unaryHandler builds the method handler shared by every unary RPC.
func unaryHandler[Req any, Res any](fullMethod string, call func(srv any, ctx context.Context, in *Req) (*Res, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv, ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func _ChatService_Subscribe_Handler(srv any, stream grpc.ServerStream) error {
	m := new(SubscribeRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ChatServiceServer).Subscribe(m, &grpc.GenericServerStream[SubscribeRequest, FeedEntry]{ServerStream: stream})
}

var ChatService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "buddychat.chat.v1.ChatService",
	HandlerType: (*ChatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SendMessage",
			Handler: unaryHandler(ChatService_SendMessage_FullMethodName,
				func(srv any, ctx context.Context, in *SendMessageRequest) (*SendMessageResponse, error) {
					return srv.(ChatServiceServer).SendMessage(ctx, in)
				}),
		},
		{
			MethodName: "GetMessage",
			Handler: unaryHandler(ChatService_GetMessage_FullMethodName,
				func(srv any, ctx context.Context, in *GetMessageRequest) (*GetMessageResponse, error) {
					return srv.(ChatServiceServer).GetMessage(ctx, in)
				}),
		},
		{
			MethodName: "ListFeed",
			Handler: unaryHandler(ChatService_ListFeed_FullMethodName,
				func(srv any, ctx context.Context, in *ListFeedRequest) (*ListFeedResponse, error) {
					return srv.(ChatServiceServer).ListFeed(ctx, in)
				}),
		},
		{
			MethodName: "Search",
			Handler: unaryHandler(ChatService_Search_FullMethodName,
				func(srv any, ctx context.Context, in *SearchRequest) (*SearchResponse, error) {
					return srv.(ChatServiceServer).Search(ctx, in)
				}),
		},
		{
			MethodName: "ListCounterparts",
			Handler: unaryHandler(ChatService_ListCounterparts_FullMethodName,
				func(srv any, ctx context.Context, in *ListCounterpartsRequest) (*ListCounterpartsResponse, error) {
					return srv.(ChatServiceServer).ListCounterparts(ctx, in)
				}),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       _ChatService_Subscribe_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "proto/chat/chat.proto",
}

type RelationServiceClient interface {
	Block(ctx context.Context, in *RelationRequest, opts ...grpc.CallOption) (*RelationResponse, error)
	Unblock(ctx context.Context, in *RelationRequest, opts ...grpc.CallOption) (*RelationResponse, error)
	IsBlocked(ctx context.Context, in *RelationRequest, opts ...grpc.CallOption) (*RelationResponse, error)
}

type relationServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewRelationServiceClient(cc grpc.ClientConnInterface) RelationServiceClient {
	return &relationServiceClient{cc}
}

func (c *relationServiceClient) invoke(ctx context.Context, method string, in *RelationRequest, opts []grpc.CallOption) (*RelationResponse, error) {
	out := new(RelationResponse)
	if err := c.cc.Invoke(ctx, method, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *relationServiceClient) Block(ctx context.Context, in *RelationRequest, opts ...grpc.CallOption) (*RelationResponse, error) {
	return c.invoke(ctx, RelationService_Block_FullMethodName, in, opts)
}

func (c *relationServiceClient) Unblock(ctx context.Context, in *RelationRequest, opts ...grpc.CallOption) (*RelationResponse, error) {
	return c.invoke(ctx, RelationService_Unblock_FullMethodName, in, opts)
}

func (c *relationServiceClient) IsBlocked(ctx context.Context, in *RelationRequest, opts ...grpc.CallOption) (*RelationResponse, error) {
	return c.invoke(ctx, RelationService_IsBlocked_FullMethodName, in, opts)
}

type RelationServiceServer interface {
	Block(context.Context, *RelationRequest) (*RelationResponse, error)
	Unblock(context.Context, *RelationRequest) (*RelationResponse, error)
	IsBlocked(context.Context, *RelationRequest) (*RelationResponse, error)
	mustEmbedUnimplementedRelationServiceServer()
}

type UnimplementedRelationServiceServer struct{}

func (UnimplementedRelationServiceServer) Block(context.Context, *RelationRequest) (*RelationResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Block not implemented")
}
func (UnimplementedRelationServiceServer) Unblock(context.Context, *RelationRequest) (*RelationResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Unblock not implemented")
}
func (UnimplementedRelationServiceServer) IsBlocked(context.Context, *RelationRequest) (*RelationResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method IsBlocked not implemented")
}
func (UnimplementedRelationServiceServer) mustEmbedUnimplementedRelationServiceServer() {}

func RegisterRelationServiceServer(s grpc.ServiceRegistrar, srv RelationServiceServer) {
	s.RegisterService(&RelationService_ServiceDesc, srv)
}

var RelationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "buddychat.chat.v1.RelationService",
	HandlerType: (*RelationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Block",
			Handler: unaryHandler(RelationService_Block_FullMethodName,
				func(srv any, ctx context.Context, in *RelationRequest) (*RelationResponse, error) {
					return srv.(RelationServiceServer).Block(ctx, in)
				}),
		},
		{
			MethodName: "Unblock",
			Handler: unaryHandler(RelationService_Unblock_FullMethodName,
				func(srv any, ctx context.Context, in *RelationRequest) (*RelationResponse, error) {
					return srv.(RelationServiceServer).Unblock(ctx, in)
				}),
		},
		{
			MethodName: "IsBlocked",
			Handler: unaryHandler(RelationService_IsBlocked_FullMethodName,
				func(srv any, ctx context.Context, in *RelationRequest) (*RelationResponse, error) {
					return srv.(RelationServiceServer).IsBlocked(ctx, in)
				}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "proto/chat/chat.proto",
}
