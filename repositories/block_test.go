package repositories

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Block_Is_Directed(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	blocks := NewBlockRepository(openDB(t), slog.Default())
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	req.NoError(blocks.Block(ctx, "bob", "alice", at))

	blocked, err := blocks.IsBlocked(ctx, "bob", "alice")
	req.NoError(err)
	req.True(blocked)

	blocked, err = blocks.IsBlocked(ctx, "alice", "bob")
	req.NoError(err)
	req.False(blocked)
}

func Test_Block_Twice_Keeps_First_Timestamp(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	blocks := NewBlockRepository(openDB(t), slog.Default())
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	req.NoError(blocks.Block(ctx, "bob", "alice", first))
	req.NoError(blocks.Block(ctx, "bob", "alice", first.Add(time.Hour)))

	since, blocked, err := blocks.BlockedSince(ctx, "bob", "alice")
	req.NoError(err)
	req.True(blocked)
	req.Equal(first, since)
}

func Test_Unblock_Removes_Relation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	blocks := NewBlockRepository(openDB(t), slog.Default())

	req.NoError(blocks.Block(ctx, "bob", "alice", time.Now()))
	req.NoError(blocks.Unblock(ctx, "bob", "alice"))
	req.NoError(blocks.Unblock(ctx, "bob", "alice"))

	blocked, err := blocks.IsBlocked(ctx, "bob", "alice")
	req.NoError(err)
	req.False(blocked)
}
