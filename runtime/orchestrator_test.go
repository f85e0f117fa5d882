package runtime

import (
	"buddychat/domain"
	"buddychat/errors"
	"buddychat/search"
	"buddychat/sink"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrchestrator_GetMessage_Only_For_Participants(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, domain.BlockPolicyHideNew)
	message := f.send(t, "A", "B", "hi")

	got, err := f.orchestrator.GetMessage(ctx, "B", message.ID)
	req.NoError(err)
	req.Equal(message, got)

	_, err = f.orchestrator.GetMessage(ctx, "C", message.ID)
	req.ErrorIs(err, errors.ErrNotFound)

	_, err = f.orchestrator.GetMessage(ctx, "A", "unknown")
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestOrchestrator_ListFeed_Pages_With_Cursor(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, domain.BlockPolicyHideNew)
	for _, text := range []string{"one", "two", "three"} {
		f.send(t, "A", "B", text)
	}

	// When the feed is read two entries at a time
	page, cursor, err := f.orchestrator.ListFeed(ctx, domain.ListFeedCommand{Owner: "B", Counterpart: "A", Limit: 2})
	req.NoError(err)
	req.Len(page, 2)
	req.Equal(domain.Cursor(2), cursor)

	page, cursor, err = f.orchestrator.ListFeed(ctx, domain.ListFeedCommand{Owner: "B", Counterpart: "A", Cursor: cursor, Limit: 2})
	req.NoError(err)
	req.Len(page, 1)
	req.Equal("three", page[0].Message.Payload.Text)
	req.Equal(domain.Cursor(3), cursor)

	// Then an exhausted feed keeps the cursor
	page, cursor, err = f.orchestrator.ListFeed(ctx, domain.ListFeedCommand{Owner: "B", Counterpart: "A", Cursor: cursor})
	req.NoError(err)
	req.Empty(page)
	req.Equal(domain.Cursor(3), cursor)
}

func TestOrchestrator_ListFeed_Rejects_Invalid_Command(t *testing.T) {
	f := newFixture(t, domain.BlockPolicyHideNew)
	_, _, err := f.orchestrator.ListFeed(context.Background(), domain.ListFeedCommand{Owner: "A", Counterpart: "A"})
	require.ErrorIs(t, err, errors.ErrInvalidCommand)
}

func TestOrchestrator_Counterparts(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, domain.BlockPolicyHideNew)
	f.send(t, "A", "B", "hi")
	f.send(t, "C", "A", "hey")

	counterparts, err := f.orchestrator.Counterparts(context.Background(), "A")

	req.NoError(err)
	req.ElementsMatch([]domain.UserID{"B", "C"}, counterparts)
}

func TestOrchestrator_Subscribe_After_Stop_Is_Rejected(t *testing.T) {
	f := newFixture(t, domain.BlockPolicyHideNew)
	f.orchestrator.Stop()

	_, err := f.orchestrator.Subscribe(context.Background(), domain.SubscribeCommand{Owner: "A", Counterpart: "B"}, (&collector{}).onMessage)

	require.ErrorIs(t, err, errors.ErrSubscriptionClosed)
}

func TestOrchestrator_Stop_Closes_Subscriptions(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, domain.BlockPolicyHideNew)
	sub, err := f.orchestrator.Subscribe(context.Background(), domain.SubscribeCommand{Owner: "A", Counterpart: "B"}, (&collector{}).onMessage)
	req.NoError(err)

	f.orchestrator.Stop()

	<-sub.Done()
	req.Equal(Closed, sub.State())
	req.Zero(f.orchestrator.ActiveSubscriptions())
}

func TestOrchestrator_Start_Indexes_And_Repairs_In_Background(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, domain.BlockPolicyHideNew)

	index, err := search.Open("", f.log)
	req.NoError(err)
	defer func() { _ = index.Close() }()
	f.orchestrator.WithSearch(index).Add(sink.NewSearchSink(index, f.log))

	go func() { _ = f.orchestrator.Start(ctx) }()
	req.Eventually(func() bool { return f.orchestrator.eventFanout.Load() != nil }, waitFor, tick)

	// Given one message fully sent and one with a partial fan-out
	f.send(t, "A", "B", "hello badger friend")
	f.feed.failFor("B")
	_, err = f.orchestrator.Send(ctx, sendCommand("A", "B", "hello again"))
	req.ErrorIs(err, errors.ErrPartialFanoutFailure)
	f.feed.restore()

	// Then the repair worker completes the fan-out
	req.Eventually(func() bool {
		pending, err := f.orchestrator.PendingFanouts(ctx)
		return err == nil && pending == 0
	}, waitFor, tick)
	req.Len(f.feedIDs(t, "B", "A"), 2)

	// And both messages become searchable from either side
	req.Eventually(func() bool {
		found, err := f.orchestrator.Search(ctx, domain.SearchCommand{Viewer: "B", Counterpart: "A", Query: "hello"})
		return err == nil && len(found) == 2
	}, waitFor, tick)
	found, err := f.orchestrator.Search(ctx, domain.SearchCommand{Viewer: "A", Counterpart: "B", Query: "badger"})
	req.NoError(err)
	req.Len(found, 1)

	// And a stranger finds nothing
	found, err = f.orchestrator.Search(ctx, domain.SearchCommand{Viewer: "C", Counterpart: "A", Query: "hello"})
	req.NoError(err)
	req.Empty(found)
}

func TestOrchestrator_Search_Without_Index_Returns_Nothing(t *testing.T) {
	f := newFixture(t, domain.BlockPolicyHideNew)
	found, err := f.orchestrator.Search(context.Background(), domain.SearchCommand{Viewer: "A", Counterpart: "B", Query: "x"})
	require.NoError(t, err)
	require.Empty(t, found)
}
