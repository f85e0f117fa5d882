package workers

import (
	"buddychat/contract"
	"buddychat/domain/event"
	"context"
	"log/slog"
	"time"
)

// EventFanout broadcasts domain events to in-process side-effect sinks.
//
// Delivery is best effort: no retry, no durability. Events reach each sink one
// at a time in publish order. Every Consume call gets a context bounded by
// sinkTimeout, and the chat core only ever calls the non-blocking Publish.
type EventFanout struct {
	log         *slog.Logger
	events      chan event.DomainEvent
	sinks       []contract.EventSink
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, bufferSize int, sinkTimeout time.Duration, sinks ...contract.EventSink) *EventFanout {
	return &EventFanout{
		log:         log,
		events:      make(chan event.DomainEvent, bufferSize),
		sinks:       sinks,
		sinkTimeout: sinkTimeout,
	}
}

// Queue exposes the event buffer to the channel capacity sampler.
func (w *EventFanout) Queue() NamedChannel {
	return NamedChannel{Name: "events", Channel: w.events}
}

// Publish enqueues evt, dropping it when the buffer is full.
func (w *EventFanout) Publish(evt event.DomainEvent) {
	select {
	case w.events <- evt:
	default:
		w.log.Warn("Event buffer full, dropping event", "type", evt.EventType())
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.events:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fan-out")
			return nil
		}
	}
}

// Fanout hands evt to every sink in turn, each call bounded by sinkTimeout.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range w.sinks {
		w.consume(ctx, sink, evt)
	}
}

func (w *EventFanout) consume(ctx context.Context, sink contract.EventSink, evt event.DomainEvent) {
	sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
	defer cancel()
	if err := sink.Consume(sinkCtx, evt); err != nil {
		w.log.Warn("Sink failed to consume event", "type", evt.EventType(), "error", err)
	}
}
