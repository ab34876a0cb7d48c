package domain

import (
	"context"
	"time"
)

// VoteOption is the option a vote was cast for, with its parent poll.
type VoteOption struct {
	ID           string
	Text         string
	PollID       string
	PollQuestion string
}

type Vote struct {
	ID           string
	UserID       string
	PollOptionID string
	User         Creator
	Option       VoteOption
	CreatedAt    time.Time
}

type VoteRepository interface {
	// Create stores a vote. Returns ErrDuplicateVote when the user already
	// voted for the option and ErrUserNotFound when the user does not exist.
	Create(ctx context.Context, userID, pollOptionID string) (*Vote, error)
	ListByPoll(ctx context.Context, pollID string) ([]Vote, error)
}

// VoteNotifier is told about every durably stored vote. Implementations must
// not fail or block the caller: notification is best-effort and decoupled
// from the write.
type VoteNotifier interface {
	NotifyVoteRecorded(ctx context.Context, pollID string)
}
