package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestChannelMetrics_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChannelMetrics(reg)

	m.ObserveState(2)
	m.IncReconnects()
	m.IncFramesReceived()
	m.IncFramesReceived()
	m.IncFramesDropped()
	m.IncHandlerErrors("vote_cast")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.State))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reconnects))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesReceived))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesDropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HandlerErrors.WithLabelValues("vote_cast")))
}

func TestChannelMetrics_NilSafe(t *testing.T) {
	var m *ChannelMetrics

	assert.NotPanics(t, func() {
		m.ObserveState(1)
		m.IncReconnects()
		m.IncFramesReceived()
		m.IncFramesDropped()
		m.IncHandlerErrors("x")
	})
}
