package repositories

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/mama165/sdk-go/database"
)

// InspectMapper renders a chat store entry for the badger debug page.
func InspectMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	row.EntityID = "--------"
	row.Namespace = "default"
	row.Timestamp = "--:--:--"

	switch {
	case strings.HasPrefix(key, MessagePrefix):
		row.Type = "MESSAGE"
		message, err := decodeMessage(val)
		if err != nil {
			row.Detail = "Error: unmarshal failed"
			return row
		}
		row.EntityID = string(message.ID)
		row.Namespace = message.Pair().Key()
		row.Timestamp = message.At.Format(time.RFC3339Nano)
		row.Detail = fmt.Sprintf("%s -> %s: %s", message.FromID, message.ToID, message.Payload.Text)
	case strings.HasPrefix(key, FeedPrefix):
		row.Type = "FEED"
		row.Namespace = partition(key, FeedPrefix)
		row.EntityID = string(val)
		row.Detail = "position " + key[strings.LastIndex(key, ":")+1:]
	case strings.HasPrefix(key, FeedRefPrefix):
		row.Type = "FEED_REF"
		row.Namespace = partition(key, FeedRefPrefix)
		row.EntityID = key[strings.LastIndex(key, ":")+1:]
		row.Detail = counter(val)
	case strings.HasPrefix(key, FeedSeqPrefix):
		row.Type = "FEED_SEQ"
		row.Namespace = strings.TrimPrefix(key, FeedSeqPrefix)
		row.Detail = counter(val)
	case strings.HasPrefix(key, BlockPrefix):
		row.Type = "BLOCK"
		var relation storedBlock
		if err := relation.UnmarshalWire(val); err != nil {
			row.Detail = "Error: unmarshal failed"
			return row
		}
		row.Namespace = string(relation.Owner)
		row.EntityID = string(relation.Other)
		row.Timestamp = relation.At.Format(time.RFC3339Nano)
		row.Detail = fmt.Sprintf("%s blocks %s", relation.Owner, relation.Other)
	case strings.HasPrefix(key, OutboxPrefix):
		row.Type = "OUTBOX"
		var pending storedPending
		if err := pending.UnmarshalWire(val); err != nil {
			row.Detail = "Error: unmarshal failed"
			return row
		}
		row.Namespace = partition(key, OutboxPrefix)
		row.EntityID = string(pending.MessageID)
		row.Detail = fmt.Sprintf("fan-out pending %s -> %s", pending.FromID, pending.ToID)
	}
	return row
}

// partition returns the two user ids that follow prefix in key.
func partition(key, prefix string) string {
	parts := strings.SplitN(strings.TrimPrefix(key, prefix), ":", 3)
	if len(parts) < 2 {
		return "default"
	}
	return parts[0] + ":" + parts[1]
}

func counter(val []byte) string {
	if len(val) != 8 {
		return fmt.Sprintf("Error: %d bytes counter", len(val))
	}
	return fmt.Sprintf("position %d", binary.BigEndian.Uint64(val))
}
