// Package client is the Go client of a buddychat server.
package client

import (
	"buddychat/domain"
	"buddychat/projection"
	pb "buddychat/proto/chat"
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const historyPageSize = 100

// bearer attaches the access token to every call.
type bearer string

func (b bearer) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + string(b)}, nil
}

func (bearer) RequireTransportSecurity() bool { return false }

type Client struct {
	conn     *grpc.ClientConn
	Chat     pb.ChatServiceClient
	Relation pb.RelationServiceClient
}

// Dial connects to addr without TLS, authenticating every call with token.
// Extra options are appended, e.g. a context dialer in tests.
func Dial(addr, token string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithPerRPCCredentials(bearer(token)),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{
		conn:     conn,
		Chat:     pb.NewChatServiceClient(conn),
		Relation: pb.NewRelationServiceClient(conn),
	}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Send posts text to another user. repairPending is true when the message is
// stored but only visible to both sides once the server repairs the fan-out.
func (c *Client) Send(ctx context.Context, to domain.UserID, text string) (domain.Message, bool, error) {
	resp, err := c.Chat.SendMessage(ctx, &pb.SendMessageRequest{ToId: string(to), Text: text})
	if err != nil {
		return domain.Message{}, false, err
	}
	return FromPbMessage(resp.Message), resp.RepairPending, nil
}

// History pages through the whole feed with a counterpart into timeline.
func (c *Client) History(ctx context.Context, with domain.UserID, timeline *projection.Timeline) error {
	cursor := timeline.Cursor()
	for {
		resp, err := c.Chat.ListFeed(ctx, &pb.ListFeedRequest{
			CounterpartId: string(with),
			Cursor:        uint64(cursor),
			Limit:         historyPageSize,
		})
		if err != nil {
			return err
		}
		timeline.Consume(FromPbEntries(resp.Entries)...)
		if len(resp.Entries) == 0 || resp.NextCursor <= uint64(cursor) {
			return nil
		}
		cursor = domain.Cursor(resp.NextCursor)
	}
}

// Watch streams the feed with a counterpart after cursor until ctx is done or
// the server ends the stream. Each new entry is added to timeline then handed to fn.
func (c *Client) Watch(ctx context.Context, with domain.UserID, timeline *projection.Timeline,
	fn func(domain.DeliveredMessage)) error {
	stream, err := c.Chat.Subscribe(ctx, &pb.SubscribeRequest{
		CounterpartId: string(with),
		Cursor:        uint64(timeline.Cursor()),
	})
	if err != nil {
		return err
	}
	for {
		entry, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		for _, added := range timeline.Consume(FromPbEntry(entry)) {
			fn(added)
		}
	}
}

func FromPbMessage(m *pb.Message) domain.Message {
	if m == nil {
		return domain.Message{}
	}
	return domain.Message{
		ID:      domain.MessageID(m.MessageId),
		FromID:  domain.UserID(m.FromId),
		ToID:    domain.UserID(m.ToId),
		Payload: domain.Payload{Text: m.Text},
		At:      m.GetCreatedAt(),
	}
}

func FromPbEntry(e *pb.FeedEntry) domain.DeliveredMessage {
	return domain.DeliveredMessage{Position: domain.Cursor(e.Position), Message: FromPbMessage(e.Message)}
}

func FromPbEntries(entries []*pb.FeedEntry) []domain.DeliveredMessage {
	delivered := make([]domain.DeliveredMessage, 0, len(entries))
	for _, e := range entries {
		delivered = append(delivered, FromPbEntry(e))
	}
	return delivered
}
