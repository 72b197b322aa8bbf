// ABOUTME: OpenTelemetry metric instruments for live sessions
// ABOUTME: Counts session events and samples playback statistics
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/PpiNeaPpLe/livevoice/pkg/live"
	"github.com/PpiNeaPpLe/livevoice/pkg/player"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/PpiNeaPpLe/livevoice"

var _ live.Observer = (*Metrics)(nil)

// Metrics holds the instruments for one process. It implements
// live.Observer so a session can report into it directly.
type Metrics struct {
	meter metric.Meter

	// MessagesReceived counts inbound frames from the service.
	MessagesReceived metric.Int64Counter

	// MessagesDropped counts inbound frames that could not be routed.
	MessagesDropped metric.Int64Counter

	// DecodeErrors counts audio chunks that failed to decode.
	DecodeErrors metric.Int64Counter

	// Reconnects counts reconnect attempts. Use with attribute:
	//   attribute.Int("attempt", ...)
	Reconnects metric.Int64Counter

	// StaleConnections counts connections closed by the liveness monitor.
	StaleConnections metric.Int64Counter

	queueDepth metric.Int64ObservableGauge
	buffered   metric.Int64ObservableGauge
	received   metric.Int64ObservableCounter
	scheduled  metric.Int64ObservableCounter
	discarded  metric.Int64ObservableCounter
	underruns  metric.Int64ObservableCounter
}

// NewMetrics creates all instruments from the given MeterProvider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{meter: m}

	if met.MessagesReceived, err = m.Int64Counter("livevoice.messages.received",
		metric.WithDescription("Inbound frames received from the service."),
	); err != nil {
		return nil, err
	}
	if met.MessagesDropped, err = m.Int64Counter("livevoice.messages.dropped",
		metric.WithDescription("Inbound frames dropped as malformed or unexpected."),
	); err != nil {
		return nil, err
	}
	if met.DecodeErrors, err = m.Int64Counter("livevoice.decode.errors",
		metric.WithDescription("Audio chunks that failed to decode."),
	); err != nil {
		return nil, err
	}
	if met.Reconnects, err = m.Int64Counter("livevoice.reconnects",
		metric.WithDescription("Reconnect attempts by attempt number."),
	); err != nil {
		return nil, err
	}
	if met.StaleConnections, err = m.Int64Counter("livevoice.connections.stale",
		metric.WithDescription("Connections force-closed after going quiet."),
	); err != nil {
		return nil, err
	}

	if met.queueDepth, err = m.Int64ObservableGauge("livevoice.playback.queue_depth",
		metric.WithDescription("Frames waiting to be scheduled."),
		metric.WithUnit("{frame}"),
	); err != nil {
		return nil, err
	}
	if met.buffered, err = m.Int64ObservableGauge("livevoice.playback.buffered",
		metric.WithDescription("Samples held in the frame assembler."),
		metric.WithUnit("{sample}"),
	); err != nil {
		return nil, err
	}
	if met.received, err = m.Int64ObservableCounter("livevoice.playback.frames_received",
		metric.WithDescription("Frames handed to the scheduler."),
		metric.WithUnit("{frame}"),
	); err != nil {
		return nil, err
	}
	if met.scheduled, err = m.Int64ObservableCounter("livevoice.playback.frames_scheduled",
		metric.WithDescription("Frames bound to the output clock."),
		metric.WithUnit("{frame}"),
	); err != nil {
		return nil, err
	}
	if met.discarded, err = m.Int64ObservableCounter("livevoice.playback.frames_discarded",
		metric.WithDescription("Frames dropped by stop."),
		metric.WithUnit("{frame}"),
	); err != nil {
		return nil, err
	}
	if met.underruns, err = m.Int64ObservableCounter("livevoice.playback.underruns",
		metric.WithDescription("Frames whose start was clamped to the output clock."),
		metric.WithUnit("{frame}"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// WatchPlayback samples stats on every collection. The returned function
// unregisters the callback.
func (m *Metrics) WatchPlayback(stats func() player.StreamStats) (func() error, error) {
	reg, err := m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := stats()
		o.ObserveInt64(m.queueDepth, int64(s.QueueDepth))
		o.ObserveInt64(m.buffered, int64(s.Buffered))
		o.ObserveInt64(m.received, s.Received)
		o.ObserveInt64(m.scheduled, s.Scheduled)
		o.ObserveInt64(m.discarded, s.Discarded)
		o.ObserveInt64(m.underruns, s.Underruns)
		return nil
	}, m.queueDepth, m.buffered, m.received, m.scheduled, m.discarded, m.underruns)
	if err != nil {
		return nil, err
	}
	return reg.Unregister, nil
}

func (m *Metrics) MessageReceived() {
	m.MessagesReceived.Add(context.Background(), 1)
}

func (m *Metrics) MessageDropped() {
	m.MessagesDropped.Add(context.Background(), 1)
}

func (m *Metrics) DecodeError() {
	m.DecodeErrors.Add(context.Background(), 1)
}

func (m *Metrics) Reconnecting(attempt int) {
	m.Reconnects.Add(context.Background(), 1, metric.WithAttributes(attribute.Int("attempt", attempt)))
}

func (m *Metrics) StaleConnection() {
	m.StaleConnections.Add(context.Background(), 1)
}
