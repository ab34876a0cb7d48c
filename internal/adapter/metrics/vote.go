package metrics

import "github.com/prometheus/client_golang/prometheus"

// Vote outcome labels.
const (
	VoteRecorded    = "recorded"
	VoteDuplicate   = "duplicate"
	VoteRateLimited = "rate_limited"
	VoteNotFound    = "not_found"
	VoteError       = "error"
)

type VoteMetrics struct {
	Votes            *prometheus.CounterVec
	RecordDuration   prometheus.Histogram
	RateLimiterError prometheus.Counter
}

func NewVoteMetrics(reg prometheus.Registerer) *VoteMetrics {
	m := &VoteMetrics{
		Votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Total number of vote submissions, by result.",
		}, []string{"result"}),
		RecordDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vote_record_duration_seconds",
			Help:      "Duration of recording a vote, including the broadcast, in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		RateLimiterError: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vote_rate_limiter_errors_total",
			Help:      "Rate limiter failures that were allowed through (fail-open).",
		}),
	}

	reg.MustRegister(m.Votes, m.RecordDuration, m.RateLimiterError)
	return m
}
