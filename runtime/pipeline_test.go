package runtime

import (
	"buddychat/domain"
	"buddychat/errors"
	"buddychat/mocks"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestPipeline_Send_Then_Block_Rejects_Further_Sends(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, domain.BlockPolicyHideNew)

	// Given A sends "hi" to B at t=100
	f.clock.Set(time.Unix(0, 100).UTC().Add(-time.Nanosecond))
	hi := f.send(t, "A", "B", "hi")
	req.Equal(time.Unix(0, 100).UTC(), hi.At)

	// Then both partitions list it
	req.Equal([]domain.MessageID{hi.ID}, f.feedIDs(t, "A", "B"))
	req.Equal([]domain.MessageID{hi.ID}, f.feedIDs(t, "B", "A"))

	// Given B replies "yo" at t=200
	f.clock.Set(time.Unix(0, 200).UTC().Add(-time.Nanosecond))
	yo := f.send(t, "B", "A", "yo")
	req.Equal([]domain.MessageID{hi.ID, yo.ID}, f.feedIDs(t, "A", "B"))
	req.Equal([]domain.MessageID{hi.ID, yo.ID}, f.feedIDs(t, "B", "A"))

	// When B blocks A and A sends again
	req.NoError(f.blocks.Block(ctx, "B", "A", time.Unix(0, 300).UTC()))
	_, err := f.orchestrator.Send(ctx, domain.SendCommand{FromID: "A", ToID: "B", Payload: domain.Payload{Text: "again"}})

	// Then the send is rejected and nothing was written
	req.ErrorIs(err, errors.ErrSendRejectedBlocked)
	req.Len(f.feedIDs(t, "A", "B"), 2)
	req.Len(f.feedIDs(t, "B", "A"), 2)

	// And B can still write to A
	f.send(t, "B", "A", "still here")
}

func TestPipeline_Send_Rejects_Invalid_Commands(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, domain.BlockPolicyHideNew)
	ctx := context.Background()

	tests := []struct {
		name string
		cmd  domain.SendCommand
	}{
		{"Self send", domain.SendCommand{FromID: "A", ToID: "A", Payload: domain.Payload{Text: "me"}}},
		{"Missing recipient", domain.SendCommand{FromID: "A", Payload: domain.Payload{Text: "hi"}}},
		{"Empty payload", domain.SendCommand{FromID: "A", ToID: "B"}},
		{"Too long", domain.SendCommand{FromID: "A", ToID: "B", Payload: domain.Payload{Text: strings.Repeat("x", 4001)}}},
		{"Invalid UTF-8", domain.SendCommand{FromID: "A", ToID: "B", Payload: domain.Payload{Text: "\xff\xfe"}}},
		{"Colon in id", domain.SendCommand{FromID: "A:1", ToID: "B", Payload: domain.Payload{Text: "hi"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orchestrator.Send(ctx, tt.cmd)
			require.ErrorIs(t, err, errors.ErrInvalidCommand)
		})
	}

	pendings, err := f.outbox.Pending(ctx, nil, 0)
	req.NoError(err)
	req.Empty(pendings)
}

func TestPipeline_Partition_Order_Matches_Timestamps(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, domain.BlockPolicyHideNew)

	// When both participants send concurrently
	var wg sync.WaitGroup
	for _, from := range []domain.UserID{"A", "B"} {
		wg.Add(1)
		go func(from domain.UserID) {
			defer wg.Done()
			to := domain.UserID("B")
			if from == "B" {
				to = "A"
			}
			for i := 0; i < 20; i++ {
				_, err := f.orchestrator.Send(ctx, domain.SendCommand{FromID: from, ToID: to, Payload: domain.Payload{Text: fmt.Sprintf("%s-%d", from, i)}})
				req.NoError(err)
			}
		}(from)
	}
	wg.Wait()

	// Then both partitions hold the same sequence, ordered by timestamp
	ab := f.feedIDs(t, "A", "B")
	ba := f.feedIDs(t, "B", "A")
	req.Len(ab, 40)
	req.Equal(ab, ba)

	var last time.Time
	for _, id := range ab {
		message, err := f.store.Get(ctx, id)
		req.NoError(err)
		req.True(message.At.After(last))
		last = message.At
	}
}

func TestPipeline_Partial_Fanout_Is_Surfaced_Then_Repaired(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, domain.BlockPolicyHideNew)

	// Given B's partition cannot be written
	f.feed.failFor("B")

	// When A sends to B
	message, err := f.orchestrator.Send(ctx, domain.SendCommand{FromID: "A", ToID: "B", Payload: domain.Payload{Text: "hi"}})

	// Then the message is durable but the failure is reported
	req.ErrorIs(err, errors.ErrPartialFanoutFailure)
	req.NotEmpty(message.ID)
	stored, err := f.store.Get(ctx, message.ID)
	req.NoError(err)
	req.Equal(message, stored)
	req.Equal([]domain.MessageID{message.ID}, f.feedIDs(t, "A", "B"))
	req.Empty(f.feedIDs(t, "B", "A"))
	pending, err := f.orchestrator.PendingFanouts(ctx)
	req.NoError(err)
	req.Equal(1, pending)

	// When the partition heals and the repair runs
	f.feed.restore()
	repaired, err := f.orchestrator.RepairPending(ctx)

	// Then the fan-out is complete and the marker gone
	req.NoError(err)
	req.Equal(1, repaired)
	req.Equal([]domain.MessageID{message.ID}, f.feedIDs(t, "B", "A"))
	req.Equal([]domain.MessageID{message.ID}, f.feedIDs(t, "A", "B"))
	pending, err = f.orchestrator.PendingFanouts(ctx)
	req.NoError(err)
	req.Zero(pending)
}

func TestPipeline_Next_Send_Drains_Pending_Fanout_First(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, domain.BlockPolicyHideNew)

	f.feed.failFor("B")
	first, err := f.orchestrator.Send(ctx, domain.SendCommand{FromID: "A", ToID: "B", Payload: domain.Payload{Text: "first"}})
	req.ErrorIs(err, errors.ErrPartialFanoutFailure)

	// When the partition heals and A sends again
	f.feed.restore()
	second := f.send(t, "A", "B", "second")

	// Then B's partition keeps send order
	req.Equal([]domain.MessageID{first.ID, second.ID}, f.feedIDs(t, "B", "A"))
}

func TestPipeline_Send_Drain_Failure_Rejects_Without_Writing(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, domain.BlockPolicyHideNew)

	f.feed.failFor("B")
	_, err := f.orchestrator.Send(ctx, domain.SendCommand{FromID: "A", ToID: "B", Payload: domain.Payload{Text: "first"}})
	req.ErrorIs(err, errors.ErrPartialFanoutFailure)

	// When B's partition is still broken
	_, err = f.orchestrator.Send(ctx, domain.SendCommand{FromID: "A", ToID: "B", Payload: domain.Payload{Text: "second"}})

	// Then the second send is refused as transient and not stored
	req.ErrorIs(err, errors.ErrStoreUnavailable)
	req.Len(f.feedIDs(t, "A", "B"), 1)
}

func TestPipeline_Gate_Failure_Writes_Nothing(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	outbox := mocks.NewMockFanoutOutbox(ctrl)
	feed := mocks.NewMockFeedIndex(ctrl)
	gate := mocks.NewMockBlockGate(ctrl)
	registry := mocks.NewMockIRegistry(ctrl)

	pipeline := NewPipeline(slog.Default(), store, outbox, feed, gate, registry, NewMonotonicClock(),
		NewRetryPolicy(3, time.Millisecond, time.Millisecond), 100)

	// Given the block gate is down
	outbox.EXPECT().Pending(gomock.Any(), gomock.Any(), 0).Return(nil, nil)
	gate.EXPECT().IsBlocked(gomock.Any(), domain.UserID("B"), domain.UserID("A")).
		Return(false, errors.ErrStoreUnavailable).Times(3)
	store.EXPECT().Append(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	feed.EXPECT().Append(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// When A sends to B
	_, err := pipeline.Send(context.Background(), domain.SendCommand{FromID: "A", ToID: "B", Payload: domain.Payload{Text: "hi"}})

	// Then retries are exhausted and the error surfaced
	req.ErrorIs(err, errors.ErrStoreUnavailable)
}

func TestPipeline_Notifies_Both_Partitions(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	outbox := mocks.NewMockFanoutOutbox(ctrl)
	feed := mocks.NewMockFeedIndex(ctrl)
	gate := mocks.NewMockBlockGate(ctrl)
	registry := mocks.NewMockIRegistry(ctrl)

	pipeline := NewPipeline(slog.Default(), store, outbox, feed, gate, registry, NewMonotonicClock(),
		NewRetryPolicy(1, time.Millisecond, time.Millisecond), 100)
	message := domain.Message{ID: "m1", FromID: "A", ToID: "B", Payload: domain.Payload{Text: "hi"}}

	outbox.EXPECT().Pending(gomock.Any(), gomock.Any(), 0).Return(nil, nil)
	gate.EXPECT().IsBlocked(gomock.Any(), domain.UserID("B"), domain.UserID("A")).Return(false, nil)
	store.EXPECT().Append(gomock.Any(), domain.UserID("A"), domain.UserID("B"), message.Payload, gomock.Any()).Return(message, nil)
	gomock.InOrder(
		feed.EXPECT().Append(gomock.Any(), domain.UserID("A"), domain.UserID("B"), message.ID).Return(domain.FeedEntry{Position: 1}, nil),
		registry.EXPECT().Notify(domain.Partition{Owner: "A", Counterpart: "B"}),
		feed.EXPECT().Append(gomock.Any(), domain.UserID("B"), domain.UserID("A"), message.ID).Return(domain.FeedEntry{Position: 1}, nil),
		registry.EXPECT().Notify(domain.Partition{Owner: "B", Counterpart: "A"}),
		outbox.EXPECT().Clear(gomock.Any(), domain.PendingFanout{MessageID: "m1", FromID: "A", ToID: "B"}).Return(nil),
	)

	sent, err := pipeline.Send(context.Background(), domain.SendCommand{FromID: "A", ToID: "B", Payload: message.Payload})
	req.NoError(err)
	req.Equal(message, sent)
}

func TestPipeline_RepairPending_Skips_Failing_Pair(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, domain.BlockPolicyHideNew)

	// Given a pending fan-out on C:D, then one on A:B that keeps failing
	f.feed.failFor("D")
	later, err := f.orchestrator.Send(ctx, sendCommand("C", "D", "later"))
	req.ErrorIs(err, errors.ErrPartialFanoutFailure)
	f.feed.failFor("B")
	_, err = f.orchestrator.Send(ctx, sendCommand("A", "B", "head"))
	req.ErrorIs(err, errors.ErrPartialFanoutFailure)

	// When the repair pages one pair at a time
	repaired, err := f.orchestrator.pipeline.RepairPending(ctx, 1)

	// Then the failing head pair does not hold back the next one
	req.ErrorIs(err, errors.ErrStoreUnavailable)
	req.Equal(1, repaired)
	req.Equal([]domain.MessageID{later.ID}, f.feedIDs(t, "D", "C"))
	req.Empty(f.feedIDs(t, "B", "A"))
	pending, err := f.orchestrator.PendingFanouts(ctx)
	req.NoError(err)
	req.Equal(1, pending)
}
