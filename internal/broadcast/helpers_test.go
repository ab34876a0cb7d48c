package broadcast

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pscheid92/pollpulse/internal/domain"
)

// fakeSubscriber records pushes instead of writing to a socket.
type fakeSubscriber struct {
	id      ConnID
	dead    atomic.Bool
	pushErr error

	mu       sync.Mutex
	messages [][]byte
	attempts int
}

func newFakeSubscriber(id ConnID) *fakeSubscriber {
	return &fakeSubscriber{id: id}
}

func (f *fakeSubscriber) ID() ConnID  { return f.id }
func (f *fakeSubscriber) Alive() bool { return !f.dead.Load() }

func (f *fakeSubscriber) Push(msg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.pushErr != nil {
		return f.pushErr
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeSubscriber) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.messages))
	for i, m := range f.messages {
		out[i] = string(m)
	}
	return out
}

func (f *fakeSubscriber) pushAttempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

type mockTallyFetcher struct {
	calls        atomic.Int32
	FetchTallyFn func(ctx context.Context, pollID string) ([]domain.OptionTally, error)
}

func (m *mockTallyFetcher) FetchTally(ctx context.Context, pollID string) ([]domain.OptionTally, error) {
	m.calls.Add(1)
	if m.FetchTallyFn != nil {
		return m.FetchTallyFn(ctx, pollID)
	}
	return nil, nil
}

func staticTally(tally []domain.OptionTally) *mockTallyFetcher {
	return &mockTallyFetcher{
		FetchTallyFn: func(context.Context, string) ([]domain.OptionTally, error) {
			return tally, nil
		},
	}
}
