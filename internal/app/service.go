package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/pollpulse/internal/adapter/metrics"
	"github.com/pscheid92/pollpulse/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const passwordHashCost = 10

// Service is the only component that references multiple domain components.
type Service struct {
	users    domain.UserRepository
	polls    domain.PollRepository
	votes    domain.VoteRepository
	limiter  domain.VoteRateLimiter
	notifier domain.VoteNotifier
	metrics  *metrics.VoteMetrics
	clock    clockwork.Clock
}

// NewService creates the application service. limiter may be nil to disable
// vote rate limiting.
func NewService(users domain.UserRepository, polls domain.PollRepository, votes domain.VoteRepository, limiter domain.VoteRateLimiter, notifier domain.VoteNotifier, m *metrics.VoteMetrics, clock clockwork.Clock) *Service {
	return &Service{
		users:    users,
		polls:    polls,
		votes:    votes,
		limiter:  limiter,
		notifier: notifier,
		metrics:  m,
		clock:    clock,
	}
}

// CreateUser registers a user. The password is stored only as a bcrypt hash.
func (s *Service) CreateUser(ctx context.Context, name, email, password string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return s.users.Create(ctx, name, email, string(hash))
}

func (s *Service) GetUser(ctx context.Context, userID string) (*domain.UserWithPolls, error) {
	return s.users.GetWithPolls(ctx, userID)
}

func (s *Service) CreatePoll(ctx context.Context, req domain.CreatePollRequest) (*domain.Poll, error) {
	return s.polls.Create(ctx, req)
}

func (s *Service) GetPoll(ctx context.Context, pollID string) (*domain.Poll, error) {
	return s.polls.GetByID(ctx, pollID)
}

func (s *Service) ListPublishedPolls(ctx context.Context) ([]domain.Poll, error) {
	return s.polls.ListPublished(ctx)
}

func (s *Service) ListVotesForPoll(ctx context.Context, pollID string) ([]domain.Vote, error) {
	return s.votes.ListByPoll(ctx, pollID)
}

// RecordVote stores a vote and then notifies subscribers of the poll.
// Notification never fails the vote: once stored, the vote is returned.
func (s *Service) RecordVote(ctx context.Context, userID, pollOptionID string) (*domain.Vote, error) {
	start := s.clock.Now()
	defer func() {
		s.metrics.RecordDuration.Observe(s.clock.Since(start).Seconds())
	}()

	if err := s.checkVoteRateLimit(ctx, userID); err != nil {
		s.metrics.Votes.WithLabelValues(metrics.VoteRateLimited).Inc()
		return nil, err
	}

	option, err := s.polls.GetOption(ctx, pollOptionID)
	if err != nil {
		s.recordVoteFailure(err)
		return nil, err
	}

	vote, err := s.votes.Create(ctx, userID, pollOptionID)
	if err != nil {
		s.recordVoteFailure(err)
		return nil, err
	}
	s.metrics.Votes.WithLabelValues(metrics.VoteRecorded).Inc()

	s.notifier.NotifyVoteRecorded(ctx, option.PollID)
	return vote, nil
}

// checkVoteRateLimit fails open: a limiter outage must not block voting.
func (s *Service) checkVoteRateLimit(ctx context.Context, userID string) error {
	if s.limiter == nil {
		return nil
	}

	allowed, err := s.limiter.AllowVote(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "Vote rate limiter unavailable, allowing vote", "user_id", userID, "error", err)
		s.metrics.RateLimiterError.Inc()
		return nil
	}
	if !allowed {
		return domain.ErrVoteRateLimited
	}
	return nil
}

func (s *Service) recordVoteFailure(err error) {
	switch {
	case errors.Is(err, domain.ErrDuplicateVote):
		s.metrics.Votes.WithLabelValues(metrics.VoteDuplicate).Inc()
	case errors.Is(err, domain.ErrPollOptionNotFound), errors.Is(err, domain.ErrUserNotFound):
		s.metrics.Votes.WithLabelValues(metrics.VoteNotFound).Inc()
	default:
		s.metrics.Votes.WithLabelValues(metrics.VoteError).Inc()
	}
}
