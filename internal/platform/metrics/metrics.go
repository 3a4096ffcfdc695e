package metrics

import "github.com/prometheus/client_golang/prometheus"

// FlowMetrics exposes counters/histograms for the booking confirmation flow.
// A nil *FlowMetrics is valid and records nothing.
type FlowMetrics struct {
	confirmations      *prometheus.CounterVec
	messagesDropped    *prometheus.CounterVec
	persistence        *prometheus.CounterVec
	persistenceLatency prometheus.Histogram
	originCorrections  prometheus.Counter
	widgetLoads        *prometheus.CounterVec
	activeSessions     prometheus.Gauge
}

func NewFlowMetrics(reg prometheus.Registerer) *FlowMetrics {
	m := &FlowMetrics{
		confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking_flow",
			Name:      "confirmations_total",
			Help:      "Booking confirmations seen by flow sessions",
		}, []string{"flow", "channel", "result"}),
		messagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking_flow",
			Name:      "messages_dropped_total",
			Help:      "Frame messages ignored by the listener",
		}, []string{"reason"}),
		persistence: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking_flow",
			Name:      "persistence_total",
			Help:      "Backend persistence attempts",
		}, []string{"status"}),
		persistenceLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "booking_flow",
			Name:      "persistence_latency_seconds",
			Help:      "Latency of backend persistence calls",
			Buckets:   prometheus.DefBuckets,
		}),
		originCorrections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking_flow",
			Name:      "origin_corrections_total",
			Help:      "Page loads redirected to the production origin",
		}),
		widgetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking_flow",
			Name:      "widget_loads_total",
			Help:      "Provider embed script loads",
		}, []string{"status"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "booking_flow",
			Name:      "active_sessions",
			Help:      "Mounted flow sessions",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.confirmations,
		m.messagesDropped,
		m.persistence,
		m.persistenceLatency,
		m.originCorrections,
		m.widgetLoads,
		m.activeSessions,
	)
	return m
}

func (m *FlowMetrics) ObserveConfirmation(flow, channel, result string) {
	if m == nil {
		return
	}
	m.confirmations.WithLabelValues(flow, channel, result).Inc()
}

func (m *FlowMetrics) ObserveDroppedMessage(reason string) {
	if m == nil {
		return
	}
	m.messagesDropped.WithLabelValues(reason).Inc()
}

func (m *FlowMetrics) ObservePersistence(status string, seconds float64) {
	if m == nil {
		return
	}
	m.persistence.WithLabelValues(status).Inc()
	m.persistenceLatency.Observe(seconds)
}

func (m *FlowMetrics) ObserveOriginCorrection() {
	if m == nil {
		return
	}
	m.originCorrections.Inc()
}

func (m *FlowMetrics) ObserveWidgetLoad(status string) {
	if m == nil {
		return
	}
	m.widgetLoads.WithLabelValues(status).Inc()
}

func (m *FlowMetrics) SessionMounted() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *FlowMetrics) SessionUnmounted() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}
