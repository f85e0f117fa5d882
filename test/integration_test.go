package test

import (
	"buddychat/auth"
	"buddychat/client"
	"buddychat/domain"
	"buddychat/domain/event"
	grpcserver "buddychat/infrastructure/grpc/server"
	httpserver "buddychat/infrastructure/http"
	"buddychat/infrastructure/ws"
	"buddychat/mocks"
	"buddychat/observability"
	"buddychat/projection"
	pb "buddychat/proto/chat"
	"buddychat/repositories"
	"buddychat/runtime"
	"buddychat/runtime/workers"
	"buddychat/search"
	"buddychat/services"
	"buddychat/sink"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const (
	secret  = "integration-secret-0123456789"
	waitFor = 5 * time.Second
	tick    = 10 * time.Millisecond
)

// server is a full buddychat stack over an in-memory listener.
type server struct {
	tokens   auth.Tokens
	listener *bufconn.Listener
	http     *httptest.Server
	mu       sync.Mutex
	sent     []domain.Message
}

func newServer(t *testing.T) *server {
	t.Helper()
	req := require.New(t)

	db, err := database.LoadBadger(t.TempDir())
	req.NoError(err)
	t.Cleanup(func() { database.CleanupDB(db, nil) })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	index, err := search.Open("", log)
	req.NoError(err)
	t.Cleanup(func() { _ = index.Close() })

	tokens, err := auth.NewTokens(secret)
	req.NoError(err)
	s := &server{tokens: tokens, listener: bufconn.Listen(1 << 20)}

	// Every durable message goes through the event sinks
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockEventSink(ctrl)
	recorder.EXPECT().Consume(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e event.DomainEvent) error {
		if sent, ok := e.(event.MessageSent); ok {
			s.mu.Lock()
			s.sent = append(s.sent, sent.Message)
			s.mu.Unlock()
		}
		return nil
	}).AnyTimes()

	blocks := repositories.NewBlockRepository(db, log)
	clock := runtime.NewMonotonicClock()
	monitoring := observability.NewMonitoringManager(log)
	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log), runtime.NewRegistry(),
		repositories.NewMessageRepository(db, log), repositories.NewOutboxRepository(db, log),
		repositories.NewFeedRepository(db, log), blocks, clock, monitoring,
		runtime.Config{
			MaxTextLength:  200,
			StoreRetry:     runtime.NewRetryPolicy(3, time.Millisecond, 10*time.Millisecond),
			RepairInterval: 20 * time.Millisecond,
			Subscription: runtime.SubscriptionConfig{
				Policy:         domain.BlockPolicyHideNew,
				PollInterval:   50 * time.Millisecond,
				ResolveBackoff: runtime.NewRetryPolicy(0, time.Millisecond, 10*time.Millisecond),
			},
		}).WithSearch(index)
	orchestrator.Add(sink.NewSearchSink(index, log), sink.NewMetricsSink(), recorder)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = orchestrator.Start(ctx) }()

	chatService := services.NewChatService(orchestrator)
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(tokens.UnaryInterceptor()),
		grpc.ChainStreamInterceptor(tokens.StreamInterceptor()),
	)
	pb.RegisterChatServiceServer(grpcServer, grpcserver.NewChatServer(log, chatService))
	pb.RegisterRelationServiceServer(grpcServer,
		grpcserver.NewRelationServer(services.NewRelationService(log, blocks, blocks, clock)))
	go func() { _ = grpcServer.Serve(s.listener) }()

	ready := func(context.Context) error { return nil }
	s.http = httptest.NewServer(httpserver.NewRouter(log, ready, monitoring, ws.NewHandler(log, tokens, chatService)))

	t.Cleanup(func() {
		s.http.Close()
		orchestrator.Stop()
		grpcServer.Stop()
		cancel()
	})
	return s
}

func (s *server) token(t *testing.T, user domain.UserID) string {
	t.Helper()
	token, err := s.tokens.GenerateToken(string(user), time.Hour)
	require.NoError(t, err)
	return token
}

func (s *server) dial(t *testing.T, user domain.UserID) *client.Client {
	t.Helper()
	c, err := client.Dial("passthrough:///bufnet", s.token(t, user),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return s.listener.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func (s *server) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestSend_Then_Subscribe_Stream(t *testing.T) {
	req := require.New(t)
	s := newServer(t)
	ctx := context.Background()
	alice, bob := s.dial(t, "alice"), s.dial(t, "bob")

	// Given a message sent before Bob subscribes
	first, repairPending, err := alice.Send(ctx, "bob", "hello bob")
	req.NoError(err)
	req.False(repairPending)
	req.Equal(domain.UserID("alice"), first.FromID)

	// When Bob follows the conversation
	var mu sync.Mutex
	var texts []string
	watchCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		_ = bob.Watch(watchCtx, "alice", projection.NewTimeline("bob", "alice"), func(m domain.DeliveredMessage) {
			mu.Lock()
			texts = append(texts, m.Message.Payload.Text)
			mu.Unlock()
		})
	}()

	// And Alice keeps writing
	_, _, err = alice.Send(ctx, "bob", "are you there?")
	req.NoError(err)

	// Then Bob gets the catch-up then the live message, in order
	req.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(texts) == 2
	}, waitFor, tick)
	mu.Lock()
	req.Equal([]string{"hello bob", "are you there?"}, texts)
	mu.Unlock()
	req.Equal(2, s.sentCount())

	// And both sides see the same history
	timeline := projection.NewTimeline("alice", "bob")
	req.NoError(alice.History(ctx, "bob", timeline))
	req.Len(timeline.Messages(), 2)

	contacts, err := bob.Chat.ListCounterparts(ctx, &pb.ListCounterpartsRequest{})
	req.NoError(err)
	req.Equal([]string{"alice"}, contacts.CounterpartIds)
}

func TestBlock_Refuses_Send(t *testing.T) {
	req := require.New(t)
	s := newServer(t)
	ctx := context.Background()
	alice, bob := s.dial(t, "alice"), s.dial(t, "bob")

	// Given Bob blocked Alice
	resp, err := bob.Relation.Block(ctx, &pb.RelationRequest{OtherId: "alice"})
	req.NoError(err)
	req.True(resp.Blocked)

	// When Alice writes to Bob
	_, _, err = alice.Send(ctx, "bob", "hi")

	// Then the send is refused and nothing is stored
	req.Equal(codes.PermissionDenied, status.Code(err))
	req.Equal(0, s.sentCount())

	// Bob can still write to Alice
	_, _, err = bob.Send(ctx, "alice", "not you")
	req.NoError(err)

	// And after unblocking Alice can write again
	resp, err = bob.Relation.Unblock(ctx, &pb.RelationRequest{OtherId: "alice"})
	req.NoError(err)
	req.False(resp.Blocked)
	_, _, err = alice.Send(ctx, "bob", "hi again")
	req.NoError(err)
}

func TestRejections(t *testing.T) {
	req := require.New(t)
	s := newServer(t)
	ctx := context.Background()
	alice := s.dial(t, "alice")

	_, _, err := alice.Send(ctx, "bob", "")
	req.Equal(codes.InvalidArgument, status.Code(err))

	_, _, err = alice.Send(ctx, "bob", strings.Repeat("x", 201))
	req.Equal(codes.InvalidArgument, status.Code(err))

	_, _, err = alice.Send(ctx, "alice", "me")
	req.Equal(codes.InvalidArgument, status.Code(err))

	_, err = alice.Chat.GetMessage(ctx, &pb.GetMessageRequest{MessageId: "missing"})
	req.Equal(codes.NotFound, status.Code(err))

	anonymous, err := client.Dial("passthrough:///bufnet", "not-a-token",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return s.listener.DialContext(ctx)
		}))
	req.NoError(err)
	defer anonymous.Close()
	_, _, err = anonymous.Send(ctx, "bob", "hi")
	req.Equal(codes.Unauthenticated, status.Code(err))
}

func TestGetMessage_Only_For_Participants(t *testing.T) {
	req := require.New(t)
	s := newServer(t)
	ctx := context.Background()
	alice, carol := s.dial(t, "alice"), s.dial(t, "carol")

	msg, _, err := alice.Send(ctx, "bob", "secret")
	req.NoError(err)

	got, err := alice.Chat.GetMessage(ctx, &pb.GetMessageRequest{MessageId: string(msg.ID)})
	req.NoError(err)
	req.Equal("secret", got.Message.Text)

	_, err = carol.Chat.GetMessage(ctx, &pb.GetMessageRequest{MessageId: string(msg.ID)})
	req.Equal(codes.NotFound, status.Code(err))
}

func TestSearch_Conversation(t *testing.T) {
	req := require.New(t)
	s := newServer(t)
	ctx := context.Background()
	alice, carol := s.dial(t, "alice"), s.dial(t, "carol")

	_, _, err := alice.Send(ctx, "bob", "the quick brown fox")
	req.NoError(err)
	_, _, err = carol.Send(ctx, "bob", "a quick reply from carol")
	req.NoError(err)

	req.Eventually(func() bool {
		resp, err := alice.Chat.Search(ctx, &pb.SearchRequest{CounterpartId: "bob", Query: "quick"})
		return err == nil && len(resp.Messages) == 1 && resp.Messages[0].Text == "the quick brown fox"
	}, waitFor, tick)
}

func TestWebSocket_Pushes_Frames(t *testing.T) {
	req := require.New(t)
	s := newServer(t)
	ctx := context.Background()
	alice := s.dial(t, "alice")

	_, _, err := alice.Send(ctx, "bob", "before")
	req.NoError(err)

	// Given Bob connected over WebSocket
	url := "ws" + strings.TrimPrefix(s.http.URL, "http") + "/ws?counterpart=alice"
	header := http.Header{"Authorization": []string{"Bearer " + s.token(t, "bob")}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	req.NoError(err)
	defer resp.Body.Close()
	defer conn.Close()

	// When Alice writes again
	_, _, err = alice.Send(ctx, "bob", "after")
	req.NoError(err)

	// Then both messages arrive as frames in position order
	var frames []ws.Frame
	for len(frames) < 2 {
		req.NoError(conn.SetReadDeadline(time.Now().Add(waitFor)))
		_, data, err := conn.ReadMessage()
		req.NoError(err)
		var frame ws.Frame
		req.NoError(json.Unmarshal(data, &frame))
		frames = append(frames, frame)
	}
	req.Equal("before", frames[0].Message.Text)
	req.Equal("after", frames[1].Message.Text)
	req.Less(frames[0].Position, frames[1].Position)
}

func TestWebSocket_Requires_Token(t *testing.T) {
	s := newServer(t)
	url := "ws" + strings.TrimPrefix(s.http.URL, "http") + "/ws?counterpart=alice"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
