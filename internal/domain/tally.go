package domain

import "context"

// OptionTally is the current vote count of one poll option.
type OptionTally struct {
	ID        string
	Text      string
	VoteCount int
}

// TallyFetcher computes the current per-option vote counts for a poll, in the
// poll's option order. Results are always read from the source of truth.
type TallyFetcher interface {
	FetchTally(ctx context.Context, pollID string) ([]OptionTally, error)
}
