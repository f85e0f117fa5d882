package repositories

import (
	"buddychat/domain"
	"fmt"
)

// Key layout. Every key is human readable so the inspect tool can print it as-is.
//
//	msg:{message_id}                              -> Message
//	feed:{owner}:{counterpart}:{position:020d}    -> message id
//	feedref:{owner}:{counterpart}:{message_id}    -> position
//	feedseq:{owner}:{counterpart}                 -> last position (big endian)
//	block:{owner}:{other}                         -> BlockRelation
//	outbox:fanout:{low}:{high}:{message_id}       -> PendingFanout
const (
	MessagePrefix = "msg:"
	FeedPrefix    = "feed:"
	FeedRefPrefix = "feedref:"
	FeedSeqPrefix = "feedseq:"
	BlockPrefix   = "block:"
	OutboxPrefix  = "outbox:fanout:"
)

func messageKey(id domain.MessageID) []byte {
	return []byte(MessagePrefix + string(id))
}

func FeedPartitionPrefix(owner, counterpart domain.UserID) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:", FeedPrefix, owner, counterpart))
}

func feedKey(owner, counterpart domain.UserID, position domain.Cursor) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:%020d", FeedPrefix, owner, counterpart, position))
}

func feedRefKey(owner, counterpart domain.UserID, id domain.MessageID) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:%s", FeedRefPrefix, owner, counterpart, id))
}

func feedSeqKey(owner, counterpart domain.UserID) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", FeedSeqPrefix, owner, counterpart))
}

func feedSeqOwnerPrefix(owner domain.UserID) []byte {
	return []byte(fmt.Sprintf("%s%s:", FeedSeqPrefix, owner))
}

func blockKey(owner, other domain.UserID) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", BlockPrefix, owner, other))
}

func outboxPairPrefix(pair domain.Pair) []byte {
	return []byte(OutboxPrefix + pair.Key() + ":")
}

func outboxKey(pair domain.Pair, id domain.MessageID) []byte {
	return []byte(OutboxPrefix + pair.Key() + ":" + string(id))
}
