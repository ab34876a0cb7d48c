package broadcast

import (
	"context"
	"sync"
)

// pollQueue runs jobs one at a time per poll, in the order they were pushed.
// A poll has a worker goroutine only while it has queued jobs.
type pollQueue struct {
	mu     sync.Mutex
	queues map[string][]context.Context
	wg     sync.WaitGroup
}

func newPollQueue() *pollQueue {
	return &pollQueue{queues: make(map[string][]context.Context)}
}

func (q *pollQueue) push(ctx context.Context, pollID string, run func(context.Context, string)) {
	q.mu.Lock()
	jobs, active := q.queues[pollID]
	q.queues[pollID] = append(jobs, ctx)
	if !active {
		q.wg.Add(1)
	}
	q.mu.Unlock()

	if !active {
		go q.drain(pollID, run)
	}
}

func (q *pollQueue) drain(pollID string, run func(context.Context, string)) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		jobs := q.queues[pollID]
		if len(jobs) == 0 {
			delete(q.queues, pollID)
			q.mu.Unlock()
			return
		}
		ctx := jobs[0]
		jobs[0] = nil
		q.queues[pollID] = jobs[1:]
		q.mu.Unlock()

		run(ctx, pollID)
	}
}

// wait blocks until every queued job has run or ctx is done.
func (q *pollQueue) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *pollQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queues)
}
