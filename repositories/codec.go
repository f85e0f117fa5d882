package repositories

import (
	"buddychat/domain"
	"buddychat/proto/wire"
	"time"
)

// Stored records use protobuf wire format. Field numbers follow proto/storage/storage.proto.

type storedMessage domain.Message

func (m storedMessage) MarshalWire() ([]byte, error) {
	var e wire.Encoder
	e.String(1, string(m.ID))
	e.String(2, string(m.FromID))
	e.String(3, string(m.ToID))
	e.String(4, m.Payload.Text)
	e.Int64(5, m.At.UnixNano())
	return e.Bytes(), nil
}

func (m *storedMessage) UnmarshalWire(b []byte) error {
	return wire.Decode(b, func(f wire.Field) error {
		switch f.Number {
		case 1:
			m.ID = domain.MessageID(f.String())
		case 2:
			m.FromID = domain.UserID(f.String())
		case 3:
			m.ToID = domain.UserID(f.String())
		case 4:
			m.Payload.Text = f.String()
		case 5:
			m.At = time.Unix(0, f.Int64()).UTC()
		}
		return nil
	})
}

type storedBlock domain.BlockRelation

func (b storedBlock) MarshalWire() ([]byte, error) {
	var e wire.Encoder
	e.String(1, string(b.Owner))
	e.String(2, string(b.Other))
	e.Int64(3, b.At.UnixNano())
	return e.Bytes(), nil
}

func (b *storedBlock) UnmarshalWire(raw []byte) error {
	return wire.Decode(raw, func(f wire.Field) error {
		switch f.Number {
		case 1:
			b.Owner = domain.UserID(f.String())
		case 2:
			b.Other = domain.UserID(f.String())
		case 3:
			b.At = time.Unix(0, f.Int64()).UTC()
		}
		return nil
	})
}

type storedPending domain.PendingFanout

func (p storedPending) MarshalWire() ([]byte, error) {
	var e wire.Encoder
	e.String(1, string(p.MessageID))
	e.String(2, string(p.FromID))
	e.String(3, string(p.ToID))
	return e.Bytes(), nil
}

func (p *storedPending) UnmarshalWire(b []byte) error {
	return wire.Decode(b, func(f wire.Field) error {
		switch f.Number {
		case 1:
			p.MessageID = domain.MessageID(f.String())
		case 2:
			p.FromID = domain.UserID(f.String())
		case 3:
			p.ToID = domain.UserID(f.String())
		}
		return nil
	})
}

func decodeMessage(b []byte) (domain.Message, error) {
	var m storedMessage
	if err := m.UnmarshalWire(b); err != nil {
		return domain.Message{}, err
	}
	return domain.Message(m), nil
}
