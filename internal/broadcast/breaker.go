package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/pscheid92/pollpulse/internal/adapter/metrics"
	"github.com/pscheid92/pollpulse/internal/domain"
)

// BreakerFetcher guards a TallyFetcher with a circuit breaker. While the
// breaker is open, fetches fail immediately with circuitbreaker.ErrOpen.
type BreakerFetcher struct {
	next domain.TallyFetcher
	cb   circuitbreaker.CircuitBreaker[any]
}

var _ domain.TallyFetcher = (*BreakerFetcher)(nil)

// NewBreakerFetcher opens at a 60% failure rate over at least 5 fetches in a
// 10s window, and probes again after delay.
func NewBreakerFetcher(next domain.TallyFetcher, m *metrics.BroadcastMetrics, delay time.Duration) *BreakerFetcher {
	m.SetBreakerState(circuitbreaker.ClosedState.String())

	cb := circuitbreaker.NewBuilder[any]().
		WithFailureRateThreshold(0.6, 5, 10*time.Second).
		WithDelay(delay).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", "tally_fetcher",
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			m.SetBreakerState(e.NewState.String())
		}).
		Build()

	return &BreakerFetcher{next: next, cb: cb}
}

func (b *BreakerFetcher) FetchTally(ctx context.Context, pollID string) ([]domain.OptionTally, error) {
	if !b.cb.TryAcquirePermit() {
		return nil, fmt.Errorf("tally fetch: %w", circuitbreaker.ErrOpen)
	}

	tally, err := b.next.FetchTally(ctx, pollID)
	switch {
	case err == nil, errors.Is(err, domain.ErrPollNotFound):
		b.cb.RecordSuccess()
	default:
		b.cb.RecordError(err)
	}
	return tally, err
}

func (b *BreakerFetcher) State() circuitbreaker.State {
	return b.cb.State()
}
