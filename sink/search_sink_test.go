package sink

import (
	"buddychat/domain"
	"buddychat/domain/event"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingIndexer struct {
	messages []domain.Message
}

func (r *recordingIndexer) IndexMessage(_ context.Context, message domain.Message) error {
	r.messages = append(r.messages, message)
	return nil
}

func TestSearchSink_Indexes_Sent_And_Repaired_Messages(t *testing.T) {
	req := require.New(t)
	indexer := &recordingIndexer{}
	s := NewSearchSink(indexer, slog.Default())
	sent := domain.Message{ID: "m1", FromID: "alice", ToID: "bob"}
	repaired := domain.Message{ID: "m2", FromID: "bob", ToID: "alice"}

	req.NoError(s.Consume(context.Background(), event.MessageSent{Message: sent}))
	req.NoError(s.Consume(context.Background(), event.FanoutRepaired{Message: repaired, At: time.Now()}))
	req.NoError(s.Consume(context.Background(), event.MessageDelivered{Message: sent}))

	req.Equal([]domain.Message{sent, repaired}, indexer.messages)
}
