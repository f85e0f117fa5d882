package services

import (
	"buddychat/contract"
	"buddychat/domain"
	"buddychat/runtime"
	"context"
)

// IChatService is what transports see of the chat core. The caller id is always
// passed explicitly, it is never read from the payload of a request.
type IChatService interface {
	Send(ctx context.Context, cmd domain.SendCommand) (domain.Message, error)
	GetMessage(ctx context.Context, viewer domain.UserID, id domain.MessageID) (domain.Message, error)
	ListFeed(ctx context.Context, cmd domain.ListFeedCommand) ([]domain.DeliveredMessage, domain.Cursor, error)
	Subscribe(ctx context.Context, cmd domain.SubscribeCommand, onMessage contract.OnMessage) (Subscription, error)
	Search(ctx context.Context, cmd domain.SearchCommand) ([]domain.Message, error)
	Counterparts(ctx context.Context, owner domain.UserID) ([]domain.UserID, error)
}

// Subscription is the handle a transport keeps while streaming a feed.
type Subscription interface {
	Close()
	Done() <-chan struct{}
	Err() error
}

type ChatService struct {
	orchestrator *runtime.Orchestrator
}

func NewChatService(o *runtime.Orchestrator) *ChatService {
	return &ChatService{orchestrator: o}
}

func (s *ChatService) Send(ctx context.Context, cmd domain.SendCommand) (domain.Message, error) {
	return s.orchestrator.Send(ctx, cmd)
}

func (s *ChatService) GetMessage(ctx context.Context, viewer domain.UserID, id domain.MessageID) (domain.Message, error) {
	return s.orchestrator.GetMessage(ctx, viewer, id)
}

func (s *ChatService) ListFeed(ctx context.Context, cmd domain.ListFeedCommand) ([]domain.DeliveredMessage, domain.Cursor, error) {
	return s.orchestrator.ListFeed(ctx, cmd)
}

func (s *ChatService) Subscribe(ctx context.Context, cmd domain.SubscribeCommand, onMessage contract.OnMessage) (Subscription, error) {
	sub, err := s.orchestrator.Subscribe(ctx, cmd, onMessage)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *ChatService) Search(ctx context.Context, cmd domain.SearchCommand) ([]domain.Message, error) {
	return s.orchestrator.Search(ctx, cmd)
}

func (s *ChatService) Counterparts(ctx context.Context, owner domain.UserID) ([]domain.UserID, error) {
	return s.orchestrator.Counterparts(ctx, owner)
}
