// Package chat holds the wire types and service descriptors of buddychat.chat.v1.
// Messages are encoded with proto/wire following chat.proto.
package chat

import (
	"buddychat/proto/wire"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type Message struct {
	MessageId string
	FromId    string
	ToId      string
	Text      string
	CreatedAt *timestamppb.Timestamp
}

func (m *Message) GetCreatedAt() time.Time {
	if m == nil || m.CreatedAt == nil {
		return time.Time{}
	}
	return m.CreatedAt.AsTime()
}

func (m *Message) MarshalWire() ([]byte, error) {
	var e wire.Encoder
	e.String(1, m.MessageId)
	e.String(2, m.FromId)
	e.String(3, m.ToId)
	e.String(4, m.Text)
	if m.CreatedAt != nil {
		if err := e.Message(5, timestamp{m.CreatedAt}); err != nil {
			return nil, err
		}
	}
	return e.Bytes(), nil
}

func (m *Message) UnmarshalWire(b []byte) error {
	return wire.Decode(b, func(f wire.Field) error {
		switch f.Number {
		case 1:
			m.MessageId = f.String()
		case 2:
			m.FromId = f.String()
		case 3:
			m.ToId = f.String()
		case 4:
			m.Text = f.String()
		case 5:
			ts := timestamp{&timestamppb.Timestamp{}}
			if err := f.Into(ts); err != nil {
				return err
			}
			m.CreatedAt = ts.Timestamp
		}
		return nil
	})
}

// timestamp embeds the well-known type through the protobuf runtime.
type timestamp struct {
	*timestamppb.Timestamp
}

func (t timestamp) MarshalWire() ([]byte, error) {
	return proto.Marshal(t.Timestamp)
}

func (t timestamp) UnmarshalWire(b []byte) error {
	return proto.Unmarshal(b, t.Timestamp)
}

type FeedEntry struct {
	Position uint64
	Message  *Message
}

func (m *FeedEntry) MarshalWire() ([]byte, error) {
	var e wire.Encoder
	e.Uint64(1, m.Position)
	if m.Message != nil {
		if err := e.Message(2, m.Message); err != nil {
			return nil, err
		}
	}
	return e.Bytes(), nil
}

func (m *FeedEntry) UnmarshalWire(b []byte) error {
	return wire.Decode(b, func(f wire.Field) error {
		switch f.Number {
		case 1:
			m.Position = f.Uint64()
		case 2:
			m.Message = &Message{}
			return f.Into(m.Message)
		}
		return nil
	})
}

type SendMessageRequest struct {
	ToId string
	Text string
}

func (m *SendMessageRequest) MarshalWire() ([]byte, error) {
	var e wire.Encoder
	e.String(1, m.ToId)
	e.String(2, m.Text)
	return e.Bytes(), nil
}

func (m *SendMessageRequest) UnmarshalWire(b []byte) error {
	return wire.Decode(b, func(f wire.Field) error {
		switch f.Number {
		case 1:
			m.ToId = f.String()
		case 2:
			m.Text = f.String()
		}
		return nil
	})
}

type SendMessageResponse struct {
	Message       *Message
	RepairPending bool
}

func (m *SendMessageResponse) MarshalWire() ([]byte, error) {
	var e wire.Encoder
	if m.Message != nil {
		if err := e.Message(1, m.Message); err != nil {
			return nil, err
		}
	}
	e.Bool(2, m.RepairPending)
	return e.Bytes(), nil
}

func (m *SendMessageResponse) UnmarshalWire(b []byte) error {
	return wire.Decode(b, func(f wire.Field) error {
		switch f.Number {
		case 1:
			m.Message = &Message{}
			return f.Into(m.Message)
		case 2:
			m.RepairPending = f.Bool()
		}
		return nil
	})
}

type GetMessageRequest struct {
	MessageId string
}

func (m *GetMessageRequest) MarshalWire() ([]byte, error) {
	var e wire.Encoder
	e.String(1, m.MessageId)
	return e.Bytes(), nil
}

func (m *GetMessageRequest) UnmarshalWire(b []byte) error {
	return wire.Decode(b, func(f wire.Field) error {
		if f.Number == 1 {
			m.MessageId = f.String()
		}
		return nil
	})
}

type GetMessageResponse struct {
	Message *Message
}

func (m *GetMessageResponse) MarshalWire() ([]byte, error) {
	var e wire.Encoder
	if m.Message != nil {
		if err := e.Message(1, m.Message); err != nil {
			return nil, err
		}
	}
	return e.Bytes(), nil
}

func (m *GetMessageResponse) UnmarshalWire(b []byte) error {
	return wire.Decode(b, func(f wire.Field) error {
		if f.Number == 1 {
			m.Message = &Message{}
			return f.Into(m.Message)
		}
		return nil
	})
}

type ListFeedRequest struct {
	CounterpartId string
	Cursor        uint64
	Limit         int32
}

func (m *ListFeedRequest) MarshalWire() ([]byte, error) {
	var e wire.Encoder
	e.String(1, m.CounterpartId)
	e.Uint64(2, m.Cursor)
	e.Int32(3, m.Limit)
	return e.Bytes(), nil
}

func (m *ListFeedRequest) UnmarshalWire(b []byte) error {
	return wire.Decode(b, func(f wire.Field) error {
		switch f.Number {
		case 1:
			m.CounterpartId = f.String()
		case 2:
			m.Cursor = f.Uint64()
		case 3:
			m.Limit = f.Int32()
		}
		return nil
	})
}

type ListFeedResponse struct {
	Entries    []*FeedEntry
	NextCursor uint64
}

func (m *ListFeedResponse) MarshalWire() ([]byte, error) {
	var e wire.Encoder
	for _, entry := range m.Entries {
		if err := e.Message(1, entry); err != nil {
			return nil, err
		}
	}
	e.Uint64(2, m.NextCursor)
	return e.Bytes(), nil
}

func (m *ListFeedResponse) UnmarshalWire(b []byte) error {
	return wire.Decode(b, func(f wire.Field) error {
		switch f.Number {
		case 1:
			entry := &FeedEntry{}
			if err := f.Into(entry); err != nil {
				return err
			}
			m.Entries = append(m.Entries, entry)
		case 2:
			m.NextCursor = f.Uint64()
		}
		return nil
	})
}

type SubscribeRequest struct {
	CounterpartId string
	Cursor        uint64
}

func (m *SubscribeRequest) MarshalWire() ([]byte, error) {
	var e wire.Encoder
	e.String(1, m.CounterpartId)
	e.Uint64(2, m.Cursor)
	return e.Bytes(), nil
}

func (m *SubscribeRequest) UnmarshalWire(b []byte) error {
	return wire.Decode(b, func(f wire.Field) error {
		switch f.Number {
		case 1:
			m.CounterpartId = f.String()
		case 2:
			m.Cursor = f.Uint64()
		}
		return nil
	})
}

type SearchRequest struct {
	CounterpartId string
	Query         string
}

func (m *SearchRequest) MarshalWire() ([]byte, error) {
	var e wire.Encoder
	e.String(1, m.CounterpartId)
	e.String(2, m.Query)
	return e.Bytes(), nil
}

func (m *SearchRequest) UnmarshalWire(b []byte) error {
	return wire.Decode(b, func(f wire.Field) error {
		switch f.Number {
		case 1:
			m.CounterpartId = f.String()
		case 2:
			m.Query = f.String()
		}
		return nil
	})
}

type SearchResponse struct {
	Messages []*Message
}

func (m *SearchResponse) MarshalWire() ([]byte, error) {
	var e wire.Encoder
	for _, message := range m.Messages {
		if err := e.Message(1, message); err != nil {
			return nil, err
		}
	}
	return e.Bytes(), nil
}

func (m *SearchResponse) UnmarshalWire(b []byte) error {
	return wire.Decode(b, func(f wire.Field) error {
		if f.Number == 1 {
			message := &Message{}
			if err := f.Into(message); err != nil {
				return err
			}
			m.Messages = append(m.Messages, message)
		}
		return nil
	})
}

type ListCounterpartsRequest struct{}

func (m *ListCounterpartsRequest) MarshalWire() ([]byte, error) { return []byte{}, nil }

func (m *ListCounterpartsRequest) UnmarshalWire([]byte) error { return nil }

type ListCounterpartsResponse struct {
	CounterpartIds []string
}

func (m *ListCounterpartsResponse) MarshalWire() ([]byte, error) {
	var e wire.Encoder
	e.RepeatedString(1, m.CounterpartIds)
	return e.Bytes(), nil
}

func (m *ListCounterpartsResponse) UnmarshalWire(b []byte) error {
	return wire.Decode(b, func(f wire.Field) error {
		if f.Number == 1 {
			m.CounterpartIds = append(m.CounterpartIds, f.String())
		}
		return nil
	})
}

type RelationRequest struct {
	OtherId string
}

func (m *RelationRequest) MarshalWire() ([]byte, error) {
	var e wire.Encoder
	e.String(1, m.OtherId)
	return e.Bytes(), nil
}

func (m *RelationRequest) UnmarshalWire(b []byte) error {
	return wire.Decode(b, func(f wire.Field) error {
		if f.Number == 1 {
			m.OtherId = f.String()
		}
		return nil
	})
}

type RelationResponse struct {
	Blocked bool
}

func (m *RelationResponse) MarshalWire() ([]byte, error) {
	var e wire.Encoder
	e.Bool(1, m.Blocked)
	return e.Bytes(), nil
}

func (m *RelationResponse) UnmarshalWire(b []byte) error {
	return wire.Decode(b, func(f wire.Field) error {
		if f.Number == 1 {
			m.Blocked = f.Bool()
		}
		return nil
	})
}
