package domain

import "time"

// BlockRelation means Owner refuses to receive messages from Other since At.
// It is owned by the relationship component; the chat core only reads it.
type BlockRelation struct {
	Owner UserID
	Other UserID
	At    time.Time
}

// BlockPolicy decides what a subscription shows once the owner blocked the sender.
type BlockPolicy string

const (
	// BlockPolicyNone delivers everything that reached the feed.
	BlockPolicyNone BlockPolicy = "none"
	// BlockPolicyHideNew hides messages created at or after the block.
	BlockPolicyHideNew BlockPolicy = "hide_new"
	// BlockPolicyHideAll hides every message from a sender while blocked.
	BlockPolicyHideAll BlockPolicy = "hide_all"
)

func (p BlockPolicy) IsValid() bool {
	switch p {
	case BlockPolicyNone, BlockPolicyHideNew, BlockPolicyHideAll:
		return true
	}
	return false
}

// Hides reports whether a message sent at `at` must be hidden given a block placed at `since`.
func (p BlockPolicy) Hides(since, at time.Time) bool {
	switch p {
	case BlockPolicyHideAll:
		return true
	case BlockPolicyHideNew:
		return !at.Before(since)
	default:
		return false
	}
}
