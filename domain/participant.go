// Package domain contains core concepts of the chat system.
// This file defines user identifiers and conversation pairs.
// No runtime, network, or UI logic should be added here.
package domain

import "strings"

// UserID is an identifier supplied by the identity provider. It is trusted as-is.
type UserID string

func (u UserID) String() string { return string(u) }

// Pair is the unordered couple of users taking part in a one-to-one conversation.
// Low is always lexicographically lower or equal to High.
type Pair struct {
	Low  UserID
	High UserID
}

func NewPair(a, b UserID) Pair {
	if strings.Compare(string(a), string(b)) <= 0 {
		return Pair{Low: a, High: b}
	}
	return Pair{Low: b, High: a}
}

// Key is stable whatever the direction of the conversation.
func (p Pair) Key() string {
	return string(p.Low) + ":" + string(p.High)
}
