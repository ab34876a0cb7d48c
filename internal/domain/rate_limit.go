package domain

import "context"

// VoteRateLimiter enforces per-user vote rate limits using a token bucket algorithm.
// Allows burst traffic (up to capacity) while limiting sustained rate.
type VoteRateLimiter interface {
	// AllowVote checks if a vote is allowed for the user.
	// Returns true if allowed (token consumed), false if rate limited.
	AllowVote(ctx context.Context, userID string) (bool, error)
}
