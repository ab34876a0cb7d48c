package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/pollpulse/internal/domain"
)

type VoteRepo struct {
	pool *pgxpool.Pool
}

var _ domain.VoteRepository = (*VoteRepo)(nil)

func NewVoteRepo(pool *pgxpool.Pool) *VoteRepo {
	return &VoteRepo{pool: pool}
}

const voteSelect = `
	SELECT v.id::text, v.user_id::text, v.poll_option_id::text, v.created_at,
	       u.name, u.email,
	       o.text, p.id::text, p.question
	FROM votes v
	JOIN users u ON u.id = v.user_id
	JOIN poll_options o ON o.id = v.poll_option_id
	JOIN polls p ON p.id = o.poll_id`

func scanVote(row pgx.Row) (domain.Vote, error) {
	var v domain.Vote
	err := row.Scan(&v.ID, &v.UserID, &v.PollOptionID, &v.CreatedAt,
		&v.User.Name, &v.User.Email,
		&v.Option.Text, &v.Option.PollID, &v.Option.PollQuestion)
	v.User.ID = v.UserID
	v.Option.ID = v.PollOptionID
	return v, err
}

func (r *VoteRepo) Create(ctx context.Context, userID, pollOptionID string) (*domain.Vote, error) {
	if !validID(userID) {
		return nil, domain.ErrUserNotFound
	}
	if !validID(pollOptionID) {
		return nil, domain.ErrPollOptionNotFound
	}

	voteID := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO votes (id, user_id, poll_option_id) VALUES ($1, $2, $3)`,
		voteID, userID, pollOptionID)
	if pgErr, ok := pgError(err); ok {
		switch {
		case pgErr.Code == pgUniqueViolation:
			return nil, domain.ErrDuplicateVote
		case pgErr.Code == pgForeignKeyViolation && pgErr.ConstraintName == "votes_user_id_fkey":
			return nil, domain.ErrUserNotFound
		case pgErr.Code == pgForeignKeyViolation:
			return nil, domain.ErrPollOptionNotFound
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert vote: %w", err)
	}

	vote, err := scanVote(r.pool.QueryRow(ctx, voteSelect+` WHERE v.id = $1`, voteID))
	if errors.Is(err, pgx.ErrNoRows) {
		// Deleted between insert and read back, e.g. by a cascading user delete.
		return nil, domain.ErrPollOptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read back vote: %w", err)
	}
	return &vote, nil
}

func (r *VoteRepo) ListByPoll(ctx context.Context, pollID string) ([]domain.Vote, error) {
	if !validID(pollID) {
		return []domain.Vote{}, nil
	}

	rows, err := r.pool.Query(ctx, voteSelect+` WHERE o.poll_id = $1 ORDER BY v.created_at`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	votes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Vote, error) {
		return scanVote(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan votes: %w", err)
	}
	return votes, nil
}
