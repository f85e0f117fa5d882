// Package event holds the facts published by the chat core once they are durable.
// Consumers are side effects (search, metrics); the core never depends on them.
package event

import (
	"buddychat/domain"
	"time"
)

type Type string

const (
	MessageSentType      Type = "message_sent"
	FanoutRepairedType   Type = "fanout_repaired"
	MessageDeliveredType Type = "message_delivered"
)

type DomainEvent interface {
	EventType() Type
	OccurredAt() time.Time
}

// MessageSent is published once a message is stored and both feeds reference it.
type MessageSent struct {
	Message domain.Message
}

func (e MessageSent) EventType() Type       { return MessageSentType }
func (e MessageSent) OccurredAt() time.Time { return e.Message.At }

// FanoutRepaired is published when a pending fan-out has been completed asynchronously.
type FanoutRepaired struct {
	Message domain.Message
	At      time.Time
}

func (e FanoutRepaired) EventType() Type       { return FanoutRepairedType }
func (e FanoutRepaired) OccurredAt() time.Time { return e.At }

// MessageDelivered is published each time a subscription hands a message to its consumer.
type MessageDelivered struct {
	Partition domain.Partition
	Message   domain.Message
	At        time.Time
}

func (e MessageDelivered) EventType() Type       { return MessageDeliveredType }
func (e MessageDelivered) OccurredAt() time.Time { return e.At }
