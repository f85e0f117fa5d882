package sink

import (
	"buddychat/domain/event"
	"buddychat/observability"
	"context"
)

// MetricsSink turns domain events into prometheus figures.
type MetricsSink struct{}

func NewMetricsSink() MetricsSink {
	return MetricsSink{}
}

func (MetricsSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageSent:
		observability.MessagesSentTotal.Inc()
	case event.MessageDelivered:
		observability.MessagesDeliveredTotal.Inc()
		observability.MessageDeliveryLatency.Observe(evt.At.Sub(evt.Message.At).Seconds())
	}
	return nil
}
