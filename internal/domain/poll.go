package domain

import (
	"context"
	"time"
)

// Creator is the public projection of a user embedded in poll responses.
type Creator struct {
	ID    string
	Name  string
	Email string
}

type PollOption struct {
	ID        string
	PollID    string
	Text      string
	Position  int
	VoteCount int
}

type Poll struct {
	ID          string
	Question    string
	IsPublished bool
	CreatorID   string
	Creator     Creator
	Options     []PollOption
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreatePollRequest bundles the parameters for creating a poll with its options.
type CreatePollRequest struct {
	Question    string
	Options     []string
	CreatorID   string
	IsPublished bool
}

type PollRepository interface {
	Create(ctx context.Context, req CreatePollRequest) (*Poll, error)
	GetByID(ctx context.Context, pollID string) (*Poll, error)
	ListPublished(ctx context.Context) ([]Poll, error)
	GetOption(ctx context.Context, optionID string) (*PollOption, error)
}
