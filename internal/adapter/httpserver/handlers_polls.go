package httpserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/pollpulse/internal/domain"
	apperrors "github.com/pscheid92/pollpulse/internal/platform/errors"
)

type createPollRequest struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	CreatorID   string   `json:"creatorId"`
	IsPublished bool     `json:"isPublished"`
}

type pollOptionResponse struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	VoteCount int    `json:"voteCount"`
}

type pollResponse struct {
	ID          string               `json:"id"`
	Question    string               `json:"question"`
	IsPublished bool                 `json:"isPublished"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
	Creator     creatorResponse      `json:"creator"`
	Options     []pollOptionResponse `json:"options"`
}

func newPollResponse(p *domain.Poll) pollResponse {
	options := make([]pollOptionResponse, 0, len(p.Options))
	for _, o := range p.Options {
		options = append(options, pollOptionResponse{ID: o.ID, Text: o.Text, VoteCount: o.VoteCount})
	}
	return pollResponse{
		ID:          p.ID,
		Question:    p.Question,
		IsPublished: p.IsPublished,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Creator:     newCreatorResponse(p.Creator),
		Options:     options,
	}
}

func (s *Server) handleCreatePoll(c echo.Context) error {
	var req createPollRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return apperrors.ValidationError("question is required")
	}

	options := make([]string, 0, len(req.Options))
	for _, text := range req.Options {
		if text = strings.TrimSpace(text); text != "" {
			options = append(options, text)
		}
	}
	if len(options) == 0 {
		return apperrors.ValidationError("at least one option is required")
	}

	creatorID, err := parseID("creatorId", req.CreatorID)
	if err != nil {
		return err
	}

	poll, err := s.app.CreatePoll(c.Request().Context(), domain.CreatePollRequest{
		Question:    req.Question,
		Options:     options,
		CreatorID:   creatorID,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		return domainError(err, "failed to create poll").WithField("creator_id", creatorID)
	}

	if err := c.JSON(http.StatusCreated, newPollResponse(poll)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleListPolls(c echo.Context) error {
	polls, err := s.app.ListPublishedPolls(c.Request().Context())
	if err != nil {
		return domainError(err, "failed to list polls")
	}

	response := make([]pollResponse, 0, len(polls))
	for i := range polls {
		response = append(response, newPollResponse(&polls[i]))
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetPoll(c echo.Context) error {
	pollID, err := parseID("id", c.Param("id"))
	if err != nil {
		return err
	}

	poll, err := s.app.GetPoll(c.Request().Context(), pollID)
	if err != nil {
		return domainError(err, "failed to load poll").WithField("poll_id", pollID)
	}

	if err := c.JSON(http.StatusOK, newPollResponse(poll)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
