package httpserver

import (
	"errors"

	"github.com/google/uuid"
	"github.com/pscheid92/pollpulse/internal/domain"
	apperrors "github.com/pscheid92/pollpulse/internal/platform/errors"
)

// domainError maps domain sentinels to structured HTTP errors. Messages match
// the public API contract; anything unrecognised becomes an internal error
// described by fallback.
func domainError(err error, fallback string) *apperrors.Error {
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return apperrors.ValidationError("Email already exists")
	case errors.Is(err, domain.ErrUserNotFound):
		return apperrors.NotFoundError("User not found")
	case errors.Is(err, domain.ErrPollNotFound):
		return apperrors.NotFoundError("Poll not found")
	case errors.Is(err, domain.ErrPollOptionNotFound):
		return apperrors.NotFoundError("Poll option not found")
	case errors.Is(err, domain.ErrDuplicateVote):
		return apperrors.ValidationError("User has already voted for this option")
	case errors.Is(err, domain.ErrVoteRateLimited):
		return apperrors.RateLimitedError("Too many votes, please slow down")
	default:
		return apperrors.InternalError(fallback, err)
	}
}

func parseID(param, value string) (string, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return "", apperrors.ValidationError("invalid " + param).WithField(param, value)
	}
	return id.String(), nil
}
