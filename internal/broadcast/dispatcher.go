package broadcast

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/pollpulse/internal/adapter/metrics"
	"github.com/pscheid92/pollpulse/internal/domain"
)

const defaultFetchTimeout = 2 * time.Second

// Dispatcher pushes fresh poll results to the room of a poll after a vote.
type Dispatcher struct {
	registry     *Registry
	fetcher      domain.TallyFetcher
	metrics      *metrics.BroadcastMetrics
	clock        clockwork.Clock
	fetchTimeout time.Duration
	queue        *pollQueue
}

var _ domain.VoteNotifier = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher. A zero fetchTimeout uses the 2s default.
func NewDispatcher(registry *Registry, fetcher domain.TallyFetcher, m *metrics.BroadcastMetrics, clock clockwork.Clock, fetchTimeout time.Duration) *Dispatcher {
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	return &Dispatcher{
		registry:     registry,
		fetcher:      fetcher,
		metrics:      m,
		clock:        clock,
		fetchTimeout: fetchTimeout,
		queue:        newPollQueue(),
	}
}

// NotifyVoteRecorded queues a broadcast of the current results of pollID to
// its room and returns without waiting for it. Failures are logged and counted,
// never returned: the vote is already committed.
//
// Broadcasts for the same poll run one at a time in call order, so members
// observe results in the order the calls were made.
func (d *Dispatcher) NotifyVoteRecorded(ctx context.Context, pollID string) {
	if !d.registry.HasRoom(pollID) {
		d.metrics.Broadcasts.WithLabelValues(metrics.BroadcastNoRoom).Inc()
		return
	}

	// The request that recorded the vote finishes before the broadcast does.
	d.queue.push(context.WithoutCancel(ctx), pollID, d.broadcast)
}

// Wait blocks until every queued broadcast has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	return d.queue.wait(ctx)
}

func (d *Dispatcher) broadcast(ctx context.Context, pollID string) {
	tally, err := d.fetchTally(ctx, pollID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to fetch poll tally", "poll_id", pollID, "error", err)
		d.metrics.Broadcasts.WithLabelValues(metrics.BroadcastFetchFailed).Inc()
		return
	}

	msg, err := encodePollUpdate(pollID, tally)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode poll update", "poll_id", pollID, "error", err)
		d.metrics.Broadcasts.WithLabelValues(metrics.BroadcastEncodeError).Inc()
		return
	}

	delivered := 0
	members := d.registry.MembersOf(pollID)
	for _, sub := range members {
		if !sub.Alive() {
			d.metrics.Deliveries.WithLabelValues(metrics.DeliveryDead).Inc()
			continue
		}
		if err := sub.Push(msg); err != nil {
			slog.WarnContext(ctx, "Failed to push poll update", "poll_id", pollID, "conn_id", sub.ID(), "error", err)
			d.metrics.Deliveries.WithLabelValues(metrics.DeliveryFailed).Inc()
			continue
		}
		d.metrics.Deliveries.WithLabelValues(metrics.DeliveryOK).Inc()
		delivered++
	}

	d.metrics.Broadcasts.WithLabelValues(metrics.BroadcastSent).Inc()
	slog.DebugContext(ctx, "Poll update broadcast", "poll_id", pollID, "members", len(members), "delivered", delivered)
}

func (d *Dispatcher) fetchTally(ctx context.Context, pollID string) ([]domain.OptionTally, error) {
	ctx, cancel := context.WithTimeout(ctx, d.fetchTimeout)
	defer cancel()

	start := d.clock.Now()
	tally, err := d.fetcher.FetchTally(ctx, pollID)
	d.metrics.TallyFetchDuration.Observe(d.clock.Since(start).Seconds())
	return tally, err
}
