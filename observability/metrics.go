package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "buddychat_messages_sent_total",
			Help: "Messages durably stored and fanned out to both feeds",
		},
	)

	SendRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buddychat_send_rejected_total",
			Help: "Sends refused before any write, by reason",
		},
		[]string{"reason"},
	)

	PartialFanoutTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "buddychat_partial_fanout_total",
			Help: "Sends whose fan-out was left to the repair worker",
		},
	)

	FanoutRepairedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "buddychat_fanout_repaired_total",
			Help: "Pending fan-outs completed by the repair worker",
		},
	)

	MessagesDeliveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "buddychat_messages_delivered_total",
			Help: "Messages handed to subscribers",
		},
	)

	ActiveSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "buddychat_subscriptions_active",
			Help: "Current number of live subscriptions",
		},
	)

	MessageDeliveryLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "buddychat_message_delivery_latency_seconds",
			Help:    "Latency between message creation and delivery to a subscriber",
			Buckets: prometheus.DefBuckets,
		},
	)

	ChannelLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "buddychat_channel_length",
			Help: "Items waiting in an internal buffered channel",
		},
		[]string{"channel"},
	)

	ChannelCapacity = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "buddychat_channel_capacity",
			Help: "Capacity of an internal buffered channel",
		},
		[]string{"channel"},
	)

	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buddychat_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "buddychat_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
