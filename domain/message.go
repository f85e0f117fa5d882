// Package domain contains core concepts of the chat system.
// This file defines Message records and the rules applied when they are created.
// Messages are immutable once stored.
package domain

import (
	"time"
	"unicode/utf8"
)

type MessageID string

func (id MessageID) String() string { return string(id) }

// Payload carries the content of a message. At least one field must be set.
type Payload struct {
	Text string
}

func (p Payload) IsEmpty() bool {
	return p.Text == ""
}

func (p Payload) IsValid(maxTextLength int) bool {
	if p.IsEmpty() {
		return false
	}
	if !utf8.ValidString(p.Text) {
		return false
	}
	return maxTextLength <= 0 || len(p.Text) <= maxTextLength
}

// Message represents an immutable one-to-one chat record.
// ID and At are assigned by the message store, never by the client.
type Message struct {
	ID      MessageID
	FromID  UserID
	ToID    UserID
	Payload Payload
	At      time.Time
}

// Pair returns the conversation the message belongs to.
func (m Message) Pair() Pair {
	return NewPair(m.FromID, m.ToID)
}

// BelongsTo reports whether the message may appear in the owner's feed for counterpart.
func (m Message) BelongsTo(owner, counterpart UserID) bool {
	return (m.FromID == owner && m.ToID == counterpart) ||
		(m.FromID == counterpart && m.ToID == owner)
}
