package metrics

import "github.com/prometheus/client_golang/prometheus"

// Broadcast outcome labels.
const (
	BroadcastSent        = "sent"
	BroadcastNoRoom      = "no_room"
	BroadcastFetchFailed = "fetch_failed"
	BroadcastEncodeError = "encode_failed"

	DeliveryOK     = "ok"
	DeliveryDead   = "dead"
	DeliveryFailed = "failed"
)

type BroadcastMetrics struct {
	Broadcasts         *prometheus.CounterVec
	Deliveries         *prometheus.CounterVec
	TallyFetchDuration prometheus.Histogram
	BreakerState       *prometheus.GaugeVec
}

func NewBroadcastMetrics(reg prometheus.Registerer) *BroadcastMetrics {
	m := &BroadcastMetrics{
		Broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "notifications_total",
			Help:      "Vote notifications handled by the dispatcher, by result.",
		}, []string{"result"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "deliveries_total",
			Help:      "Per-connection poll-update deliveries, by outcome.",
		}, []string{"outcome"}),
		TallyFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "tally_fetch_duration_seconds",
			Help:      "Duration of tally fetches in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "tally_breaker_state",
			Help:      "Tally fetch circuit breaker state (1 for the current state).",
		}, []string{"state"}),
	}

	reg.MustRegister(m.Broadcasts, m.Deliveries, m.TallyFetchDuration, m.BreakerState)
	return m
}

// SetBreakerState exports state as the only current breaker state.
func (m *BroadcastMetrics) SetBreakerState(state string) {
	m.BreakerState.Reset()
	m.BreakerState.WithLabelValues(state).Set(1)
}

// RegisterRoomGauges exposes the room registry size, read at scrape time.
func RegisterRoomGauges(reg prometheus.Registerer, rooms, members func() int) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "rooms",
			Help:      "Number of polls with at least one subscribed connection.",
		}, func() float64 { return float64(rooms()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "subscriptions",
			Help:      "Number of connections subscribed to a poll.",
		}, func() float64 { return float64(members()) }),
	)
}
