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

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type userPollResponse struct {
	ID          string    `json:"id"`
	Question    string    `json:"question"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
}

type userWithPollsResponse struct {
	userResponse
	Polls []userPollResponse `json:"polls"`
}

// creatorResponse is the public projection of a user embedded in other resources.
type creatorResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

func newCreatorResponse(c domain.Creator) creatorResponse {
	return creatorResponse(c)
}

func (s *Server) handleCreateUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return apperrors.ValidationError("name, email and password are required")
	}

	user, err := s.app.CreateUser(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return domainError(err, "failed to create user").WithField("email", req.Email)
	}

	if err := c.JSON(http.StatusCreated, newUserResponse(user)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetUser(c echo.Context) error {
	userID, err := parseID("id", c.Param("id"))
	if err != nil {
		return err
	}

	user, err := s.app.GetUser(c.Request().Context(), userID)
	if err != nil {
		return domainError(err, "failed to load user").WithField("user_id", userID)
	}

	polls := make([]userPollResponse, 0, len(user.Polls))
	for _, p := range user.Polls {
		polls = append(polls, userPollResponse{ID: p.ID, Question: p.Question, IsPublished: p.IsPublished, CreatedAt: p.CreatedAt})
	}

	response := userWithPollsResponse{userResponse: newUserResponse(&user.User), Polls: polls}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
