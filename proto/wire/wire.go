// Package wire encodes and decodes protobuf wire format by hand.
// Field numbers used by callers must match the schemas under proto/.
package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Marshaler is implemented by every type that travels on the wire or sits in storage.
type Marshaler interface {
	MarshalWire() ([]byte, error)
}

type Unmarshaler interface {
	UnmarshalWire(b []byte) error
}

type Encoder struct {
	buf []byte
}

func (e *Encoder) String(num protowire.Number, v string) {
	if v == "" {
		return
	}
	e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
	e.buf = protowire.AppendString(e.buf, v)
}

// RepeatedString always emits the values, empty strings included.
func (e *Encoder) RepeatedString(num protowire.Number, values []string) {
	for _, v := range values {
		e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
		e.buf = protowire.AppendString(e.buf, v)
	}
}

func (e *Encoder) Uint64(num protowire.Number, v uint64) {
	if v == 0 {
		return
	}
	e.buf = protowire.AppendTag(e.buf, num, protowire.VarintType)
	e.buf = protowire.AppendVarint(e.buf, v)
}

func (e *Encoder) Int64(num protowire.Number, v int64) {
	e.Uint64(num, uint64(v))
}

func (e *Encoder) Int32(num protowire.Number, v int32) {
	e.Uint64(num, uint64(int64(v)))
}

func (e *Encoder) Bool(num protowire.Number, v bool) {
	if !v {
		return
	}
	e.buf = protowire.AppendTag(e.buf, num, protowire.VarintType)
	e.buf = protowire.AppendVarint(e.buf, protowire.EncodeBool(v))
}

// Message embeds m as a length-delimited field. Nil messages are skipped.
func (e *Encoder) Message(num protowire.Number, m Marshaler) error {
	if m == nil {
		return nil
	}
	b, err := m.MarshalWire()
	if err != nil {
		return err
	}
	e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, b)
	return nil
}

func (e *Encoder) Bytes() []byte {
	if e.buf == nil {
		return []byte{}
	}
	return e.buf
}

// Field is one decoded value. Accessors return zero values on a type mismatch.
type Field struct {
	Number protowire.Number
	typ    protowire.Type
	raw    []byte
	varint uint64
}

func (f Field) String() string {
	if f.typ != protowire.BytesType {
		return ""
	}
	return string(f.raw)
}

func (f Field) Bytes() []byte {
	if f.typ != protowire.BytesType {
		return nil
	}
	return f.raw
}

func (f Field) Uint64() uint64 {
	if f.typ != protowire.VarintType {
		return 0
	}
	return f.varint
}

func (f Field) Int64() int64 { return int64(f.Uint64()) }

func (f Field) Int32() int32 { return int32(f.Uint64()) }

func (f Field) Bool() bool { return protowire.DecodeBool(f.Uint64()) }

// Into decodes an embedded message.
func (f Field) Into(m Unmarshaler) error {
	if f.typ != protowire.BytesType {
		return fmt.Errorf("field %d: expected bytes, got wire type %d", f.Number, f.typ)
	}
	return m.UnmarshalWire(f.raw)
}

// Decode walks b and calls fn for every field. Unknown wire types are skipped.
func Decode(b []byte, fn func(f Field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		f := Field{Number: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			f.varint = v
			b = b[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			f.raw = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}
