package metrics

import "github.com/prometheus/client_golang/prometheus"

type WebSocketMetrics struct {
	ActiveConnections prometheus.Gauge
	Rejected          prometheus.Counter
	ControlMessages   *prometheus.CounterVec
}

func NewWebSocketMetrics(reg prometheus.Registerer) *WebSocketMetrics {
	m := &WebSocketMetrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "active_connections",
			Help:      "Number of active WebSocket connections.",
		}),
		Rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "rejected_connections_total",
			Help:      "Connections refused because the connection limit was reached.",
		}),
		ControlMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "control_messages_total",
			Help:      "Inbound control messages, by outcome (joined, ignored).",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.ActiveConnections, m.Rejected, m.ControlMessages)
	return m
}
