package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/pollpulse/internal/domain"
	"github.com/pscheid92/pollpulse/internal/platform/config"
)

// --- Mock implementations ---

type mockAppService struct {
	createUserFn         func(ctx context.Context, name, email, password string) (*domain.User, error)
	getUserFn            func(ctx context.Context, userID string) (*domain.UserWithPolls, error)
	createPollFn         func(ctx context.Context, req domain.CreatePollRequest) (*domain.Poll, error)
	getPollFn            func(ctx context.Context, pollID string) (*domain.Poll, error)
	listPublishedPollsFn func(ctx context.Context) ([]domain.Poll, error)
	recordVoteFn         func(ctx context.Context, userID, pollOptionID string) (*domain.Vote, error)
	listVotesForPollFn   func(ctx context.Context, pollID string) ([]domain.Vote, error)
}

func (m *mockAppService) CreateUser(ctx context.Context, name, email, password string) (*domain.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(ctx, name, email, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) GetUser(ctx context.Context, userID string) (*domain.UserWithPolls, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, userID)
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockAppService) CreatePoll(ctx context.Context, req domain.CreatePollRequest) (*domain.Poll, error) {
	if m.createPollFn != nil {
		return m.createPollFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) GetPoll(ctx context.Context, pollID string) (*domain.Poll, error) {
	if m.getPollFn != nil {
		return m.getPollFn(ctx, pollID)
	}
	return nil, domain.ErrPollNotFound
}

func (m *mockAppService) ListPublishedPolls(ctx context.Context) ([]domain.Poll, error) {
	if m.listPublishedPollsFn != nil {
		return m.listPublishedPollsFn(ctx)
	}
	return nil, nil
}

func (m *mockAppService) RecordVote(ctx context.Context, userID, pollOptionID string) (*domain.Vote, error) {
	if m.recordVoteFn != nil {
		return m.recordVoteFn(ctx, userID, pollOptionID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) ListVotesForPoll(ctx context.Context, pollID string) ([]domain.Vote, error) {
	if m.listVotesForPollFn != nil {
		return m.listVotesForPollFn(ctx, pollID)
	}
	return nil, nil
}

// --- Test helpers ---

func newTestServer(t *testing.T, app appService, opts ...func(*Server)) *Server {
	t.Helper()

	srv := &Server{
		echo:   echo.New(),
		config: &config.Config{Port: "8080", AppURL: "http://localhost:8080"},
		app:    app,
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withConfig(cfg *config.Config) func(*Server) {
	return func(s *Server) {
		s.config = cfg
	}
}

func withWebsocketHandler(h http.Handler) func(*Server) {
	return func(s *Server) {
		s.websocketHandler = h
	}
}

// serve runs a request through the full echo stack, middleware included.
func serve(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}
