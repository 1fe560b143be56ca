package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "livevote"

// ChannelMetrics holds Prometheus metrics for the live-update channel.
// All methods are safe on a nil receiver so components can run without metrics.
type ChannelMetrics struct {
	State          prometheus.Gauge
	Reconnects     prometheus.Counter
	FramesReceived prometheus.Counter
	FramesDropped  prometheus.Counter
	HandlerErrors  *prometheus.CounterVec
}

// NewChannelMetrics creates and registers channel metrics on the given registry.
func NewChannelMetrics(reg prometheus.Registerer) *ChannelMetrics {
	m := &ChannelMetrics{
		State: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "state",
			Help:      "Current channel state (0=idle, 1=connecting, 2=open, 3=closed).",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "reconnects_total",
			Help:      "Total number of automatic reconnect attempts.",
		}),
		FramesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "frames_received_total",
			Help:      "Total number of inbound frames.",
		}),
		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "frames_dropped_total",
			Help:      "Total number of inbound frames dropped as malformed.",
		}),
		HandlerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "handler_errors_total",
			Help:      "Total number of subscriber failures, by topic.",
		}, []string{"topic"}),
	}

	reg.MustRegister(m.State, m.Reconnects, m.FramesReceived, m.FramesDropped, m.HandlerErrors)
	return m
}

func (m *ChannelMetrics) ObserveState(state int) {
	if m == nil {
		return
	}
	m.State.Set(float64(state))
}

func (m *ChannelMetrics) IncReconnects() {
	if m == nil {
		return
	}
	m.Reconnects.Inc()
}

func (m *ChannelMetrics) IncFramesReceived() {
	if m == nil {
		return
	}
	m.FramesReceived.Inc()
}

func (m *ChannelMetrics) IncFramesDropped() {
	if m == nil {
		return
	}
	m.FramesDropped.Inc()
}

func (m *ChannelMetrics) IncHandlerErrors(topic string) {
	if m == nil {
		return
	}
	m.HandlerErrors.WithLabelValues(topic).Inc()
}
