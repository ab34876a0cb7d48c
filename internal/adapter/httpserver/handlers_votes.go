package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/pollpulse/internal/domain"
	apperrors "github.com/pscheid92/pollpulse/internal/platform/errors"
)

type recordVoteRequest struct {
	UserID       string `json:"userId"`
	PollOptionID string `json:"pollOptionId"`
}

type votePollResponse struct {
	ID       string `json:"id"`
	Question string `json:"question"`
}

type voteOptionResponse struct {
	ID   string            `json:"id"`
	Text string            `json:"text"`
	Poll *votePollResponse `json:"poll,omitempty"`
}

type voteResponse struct {
	ID           string             `json:"id"`
	UserID       string             `json:"userId"`
	PollOptionID string             `json:"pollOptionId"`
	CreatedAt    time.Time          `json:"createdAt"`
	User         creatorResponse    `json:"user"`
	Option       voteOptionResponse `json:"option"`
}

// newVoteResponse renders a vote; withPoll embeds the option's poll, which the
// per-poll listing omits.
func newVoteResponse(v *domain.Vote, withPoll bool) voteResponse {
	option := voteOptionResponse{ID: v.Option.ID, Text: v.Option.Text}
	if withPoll {
		option.Poll = &votePollResponse{ID: v.Option.PollID, Question: v.Option.PollQuestion}
	}
	return voteResponse{
		ID:           v.ID,
		UserID:       v.UserID,
		PollOptionID: v.PollOptionID,
		CreatedAt:    v.CreatedAt,
		User:         newCreatorResponse(v.User),
		Option:       option,
	}
}

func (s *Server) handleRecordVote(c echo.Context) error {
	var req recordVoteRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	userID, err := parseID("userId", req.UserID)
	if err != nil {
		return err
	}
	optionID, err := parseID("pollOptionId", req.PollOptionID)
	if err != nil {
		return err
	}

	vote, err := s.app.RecordVote(c.Request().Context(), userID, optionID)
	if err != nil {
		return domainError(err, "failed to record vote").
			WithField("user_id", userID).
			WithField("poll_option_id", optionID)
	}

	if err := c.JSON(http.StatusCreated, newVoteResponse(vote, true)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleListVotesForPoll(c echo.Context) error {
	pollID, err := parseID("pollId", c.Param("pollId"))
	if err != nil {
		return err
	}

	votes, err := s.app.ListVotesForPoll(c.Request().Context(), pollID)
	if err != nil {
		return domainError(err, "failed to list votes").WithField("poll_id", pollID)
	}

	response := make([]voteResponse, 0, len(votes))
	for i := range votes {
		response = append(response, newVoteResponse(&votes[i], false))
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
