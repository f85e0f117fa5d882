package server

import (
	"buddychat/domain"
	pb "buddychat/proto/chat"

	"github.com/samber/lo"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func toMessage(m domain.Message) *pb.Message {
	return &pb.Message{
		MessageId: m.ID.String(),
		FromId:    m.FromID.String(),
		ToId:      m.ToID.String(),
		Text:      m.Payload.Text,
		CreatedAt: timestamppb.New(m.At),
	}
}

func toFeedEntry(d domain.DeliveredMessage) *pb.FeedEntry {
	return &pb.FeedEntry{Position: uint64(d.Position), Message: toMessage(d.Message)}
}

func toFeedEntries(delivered []domain.DeliveredMessage) []*pb.FeedEntry {
	return lo.Map(delivered, func(d domain.DeliveredMessage, _ int) *pb.FeedEntry {
		return toFeedEntry(d)
	})
}

func toMessages(messages []domain.Message) []*pb.Message {
	return lo.Map(messages, func(m domain.Message, _ int) *pb.Message {
		return toMessage(m)
	})
}
