package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestFlowMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFlowMetrics(reg)

	m.ObserveConfirmation("client", "redirect", "accepted")
	m.ObserveConfirmation("client", "redirect", "accepted")
	m.ObserveDroppedMessage("origin")
	m.ObservePersistence("success", 0.2)
	m.ObserveOriginCorrection()
	m.SessionMounted()
	m.SessionMounted()
	m.SessionUnmounted()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.confirmations.WithLabelValues("client", "redirect", "accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messagesDropped.WithLabelValues("origin")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistence.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.originCorrections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeSessions))
}

func TestNilFlowMetricsIsNoop(t *testing.T) {
	var m *FlowMetrics
	assert.NotPanics(t, func() {
		m.ObserveConfirmation("talent", "message", "duplicate")
		m.ObserveDroppedMessage("discriminant")
		m.ObservePersistence("failure", 1)
		m.ObserveOriginCorrection()
		m.ObserveWidgetLoad("failure")
		m.SessionMounted()
		m.SessionUnmounted()
	})
}
