package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already exists")
	ErrPollNotFound       = errors.New("poll not found")
	ErrPollOptionNotFound = errors.New("poll option not found")
	ErrDuplicateVote      = errors.New("user has already voted for this option")
	ErrVoteRateLimited    = errors.New("vote rate limit exceeded")
)
