package workers

import (
	"buddychat/observability"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestChannelCapacityWorker_Samples_Gauges(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given a buffered channel holding 3 of 4 items and a value that is not a channel
	ch := make(chan int, 4)
	ch <- 1
	ch <- 2
	ch <- 3
	w := NewChannelCapacityWorker(log, 0,
		NamedChannel{Name: "test_queue", Channel: ch},
		NamedChannel{Name: "not_a_channel", Channel: 42},
	)

	// When a sample is taken
	w.sample()

	// Then the gauges reflect the channel
	var length, capacity dto.Metric
	req.NoError(observability.ChannelLength.WithLabelValues("test_queue").Write(&length))
	req.NoError(observability.ChannelCapacity.WithLabelValues("test_queue").Write(&capacity))
	req.Equal(3.0, length.GetGauge().GetValue())
	req.Equal(4.0, capacity.GetGauge().GetValue())
}
