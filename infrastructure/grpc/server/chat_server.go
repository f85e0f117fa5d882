package server

import (
	"buddychat/auth"
	"buddychat/domain"
	"buddychat/errors"
	pb "buddychat/proto/chat"
	"buddychat/services"
	"context"
	"log/slog"

	"github.com/samber/lo"
)

type ChatServer struct {
	pb.UnimplementedChatServiceServer
	chatService services.IChatService
	log         *slog.Logger
}

func NewChatServer(log *slog.Logger, chatService services.IChatService) *ChatServer {
	return &ChatServer{chatService: chatService, log: log}
}

// SendMessage stores the message and indexes it for both participants.
// A message stored while one feed is still being completed is a success:
// repair_pending tells the client the recipient will see it a bit later.
func (s *ChatServer) SendMessage(ctx context.Context, req *pb.SendMessageRequest) (*pb.SendMessageResponse, error) {
	userID, err := auth.UserIDFrom(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	message, err := s.chatService.Send(ctx, domain.SendCommand{
		FromID:  userID,
		ToID:    domain.UserID(req.ToId),
		Payload: domain.Payload{Text: req.Text},
	})
	switch {
	case errors.Is(err, errors.ErrPartialFanoutFailure):
		s.log.Warn("Message stored with a pending fan-out", "message_id", message.ID, "error", err)
		return &pb.SendMessageResponse{Message: toMessage(message), RepairPending: true}, nil
	case err != nil:
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.SendMessageResponse{Message: toMessage(message)}, nil
}

func (s *ChatServer) GetMessage(ctx context.Context, req *pb.GetMessageRequest) (*pb.GetMessageResponse, error) {
	userID, err := auth.UserIDFrom(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	message, err := s.chatService.GetMessage(ctx, userID, domain.MessageID(req.MessageId))
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.GetMessageResponse{Message: toMessage(message)}, nil
}

func (s *ChatServer) ListFeed(ctx context.Context, req *pb.ListFeedRequest) (*pb.ListFeedResponse, error) {
	userID, err := auth.UserIDFrom(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	delivered, next, err := s.chatService.ListFeed(ctx, domain.ListFeedCommand{
		Owner:       userID,
		Counterpart: domain.UserID(req.CounterpartId),
		Cursor:      domain.Cursor(req.Cursor),
		Limit:       int(req.Limit),
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.ListFeedResponse{Entries: toFeedEntries(delivered), NextCursor: uint64(next)}, nil
}

// Subscribe streams the caller's feed with counterpart, history first, until the
// client goes away. This method blocks for the whole life of the stream.
func (s *ChatServer) Subscribe(req *pb.SubscribeRequest, stream pb.ChatService_SubscribeServer) error {
	ctx := stream.Context()
	userID, err := auth.UserIDFrom(ctx)
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	sub, err := s.chatService.Subscribe(ctx, domain.SubscribeCommand{
		Owner:       userID,
		Counterpart: domain.UserID(req.CounterpartId),
		Cursor:      domain.Cursor(req.Cursor),
	}, func(_ context.Context, msg domain.DeliveredMessage) error {
		return stream.Send(toFeedEntry(msg))
	})
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	defer sub.Close()

	<-sub.Done()
	if err := sub.Err(); err != nil {
		s.log.Error("Failed to push entry to stream", "user_id", userID, "counterpart", req.CounterpartId, "error", err)
		return err
	}
	s.log.Debug("Client disconnected", "user_id", userID, "counterpart", req.CounterpartId)
	return nil
}

func (s *ChatServer) Search(ctx context.Context, req *pb.SearchRequest) (*pb.SearchResponse, error) {
	userID, err := auth.UserIDFrom(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	messages, err := s.chatService.Search(ctx, domain.SearchCommand{
		Viewer:      userID,
		Counterpart: domain.UserID(req.CounterpartId),
		Query:       req.Query,
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.SearchResponse{Messages: toMessages(messages)}, nil
}

func (s *ChatServer) ListCounterparts(ctx context.Context, _ *pb.ListCounterpartsRequest) (*pb.ListCounterpartsResponse, error) {
	userID, err := auth.UserIDFrom(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	counterparts, err := s.chatService.Counterparts(ctx, userID)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.ListCounterpartsResponse{
		CounterpartIds: lo.Map(counterparts, func(id domain.UserID, _ int) string { return id.String() }),
	}, nil
}
