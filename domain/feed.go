package domain

// Partition identifies one owner's ordered feed for one counterpart.
type Partition struct {
	Owner       UserID
	Counterpart UserID
}

func (p Partition) Key() string {
	return string(p.Owner) + ":" + string(p.Counterpart)
}

// Mirror returns the partition of the other participant.
func (p Partition) Mirror() Partition {
	return Partition{Owner: p.Counterpart, Counterpart: p.Owner}
}

// Cursor is a feed position. Zero means "from the beginning".
type Cursor uint64

// FeedEntry references a message inside one partition of the fan-out index.
// Position is strictly increasing within a partition, starting at 1.
type FeedEntry struct {
	Owner       UserID
	Counterpart UserID
	MessageID   MessageID
	Position    Cursor
}

func (e FeedEntry) Partition() Partition {
	return Partition{Owner: e.Owner, Counterpart: e.Counterpart}
}

// PendingFanout is the outbox marker committed together with a message.
// It is cleared once both partitions reference the message.
type PendingFanout struct {
	MessageID MessageID
	FromID    UserID
	ToID      UserID
}

func (p PendingFanout) Pair() Pair {
	return NewPair(p.FromID, p.ToID)
}

// DeliveredMessage is what a subscription hands to its consumer.
type DeliveredMessage struct {
	Position Cursor
	Message  Message
}
