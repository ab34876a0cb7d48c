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

// PollRepo stores polls and their options. It also serves as the tally
// fetcher: counts are always computed from the votes table.
type PollRepo struct {
	pool *pgxpool.Pool
}

var (
	_ domain.PollRepository = (*PollRepo)(nil)
	_ domain.TallyFetcher   = (*PollRepo)(nil)
)

func NewPollRepo(pool *pgxpool.Pool) *PollRepo {
	return &PollRepo{pool: pool}
}

const pollColumns = `
	p.id::text, p.question, p.is_published, p.creator_id::text, p.created_at, p.updated_at,
	u.name, u.email`

func scanPoll(row pgx.Row) (domain.Poll, error) {
	var p domain.Poll
	err := row.Scan(&p.ID, &p.Question, &p.IsPublished, &p.CreatorID, &p.CreatedAt, &p.UpdatedAt,
		&p.Creator.Name, &p.Creator.Email)
	p.Creator.ID = p.CreatorID
	return p, err
}

func (r *PollRepo) Create(ctx context.Context, req domain.CreatePollRequest) (*domain.Poll, error) {
	if !validID(req.CreatorID) {
		return nil, domain.ErrUserNotFound
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	pollID := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO polls (id, question, is_published, creator_id)
		VALUES ($1, $2, $3, $4)`,
		pollID, req.Question, req.IsPublished, req.CreatorID)
	if pgErr, ok := pgError(err); ok && pgErr.Code == pgForeignKeyViolation {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert poll: %w", err)
	}

	batch := &pgx.Batch{}
	for i, text := range req.Options {
		batch.Queue(`INSERT INTO poll_options (id, poll_id, text, position) VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), pollID, text, i)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("failed to insert poll options: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit poll: %w", err)
	}

	return r.GetByID(ctx, pollID)
}

func (r *PollRepo) GetByID(ctx context.Context, pollID string) (*domain.Poll, error) {
	if !validID(pollID) {
		return nil, domain.ErrPollNotFound
	}

	poll, err := scanPoll(r.pool.QueryRow(ctx, `
		SELECT `+pollColumns+`
		FROM polls p JOIN users u ON u.id = p.creator_id
		WHERE p.id = $1`, pollID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPollNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poll by ID: %w", err)
	}

	options, err := r.optionsFor(ctx, []string{pollID})
	if err != nil {
		return nil, err
	}
	poll.Options = options[pollID]
	return &poll, nil
}

// ListPublished returns published polls, newest first.
func (r *PollRepo) ListPublished(ctx context.Context) ([]domain.Poll, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+pollColumns+`
		FROM polls p JOIN users u ON u.id = p.creator_id
		WHERE p.is_published
		ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list published polls: %w", err)
	}
	polls, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Poll, error) {
		return scanPoll(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan polls: %w", err)
	}
	if len(polls) == 0 {
		return polls, nil
	}

	ids := make([]string, len(polls))
	for i, p := range polls {
		ids[i] = p.ID
	}
	options, err := r.optionsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range polls {
		polls[i].Options = options[polls[i].ID]
	}
	return polls, nil
}

// optionsFor loads the options of the given polls with their vote counts, in position order.
func (r *PollRepo) optionsFor(ctx context.Context, pollIDs []string) (map[string][]domain.PollOption, error) {
	ids := make([]uuid.UUID, 0, len(pollIDs))
	for _, id := range pollIDs {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid poll id %q: %w", id, err)
		}
		ids = append(ids, parsed)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT o.id::text, o.poll_id::text, o.text, o.position, count(v.id)
		FROM poll_options o
		LEFT JOIN votes v ON v.poll_option_id = o.id
		WHERE o.poll_id = ANY($1::uuid[])
		GROUP BY o.id
		ORDER BY o.poll_id, o.position`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list poll options: %w", err)
	}

	options, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PollOption, error) {
		var o domain.PollOption
		err := row.Scan(&o.ID, &o.PollID, &o.Text, &o.Position, &o.VoteCount)
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan poll options: %w", err)
	}

	byPoll := make(map[string][]domain.PollOption, len(pollIDs))
	for _, o := range options {
		byPoll[o.PollID] = append(byPoll[o.PollID], o)
	}
	return byPoll, nil
}

func (r *PollRepo) GetOption(ctx context.Context, optionID string) (*domain.PollOption, error) {
	if !validID(optionID) {
		return nil, domain.ErrPollOptionNotFound
	}

	var o domain.PollOption
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, poll_id::text, text, position
		FROM poll_options WHERE id = $1`, optionID,
	).Scan(&o.ID, &o.PollID, &o.Text, &o.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPollOptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poll option: %w", err)
	}
	return &o, nil
}

// FetchTally returns the current vote count of every option of pollID, in
// option order. A poll without options yields an empty, non-nil slice.
func (r *PollRepo) FetchTally(ctx context.Context, pollID string) ([]domain.OptionTally, error) {
	if !validID(pollID) {
		return nil, domain.ErrPollNotFound
	}

	rows, err := r.pool.Query(ctx, `
		SELECT o.id::text, o.text, count(v.id)
		FROM polls p
		LEFT JOIN poll_options o ON o.poll_id = p.id
		LEFT JOIN votes v ON v.poll_option_id = o.id
		WHERE p.id = $1
		GROUP BY o.id, o.text, o.position
		ORDER BY o.position`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tally: %w", err)
	}

	type tallyRow struct {
		id, text  *string
		voteCount int
	}
	scanned, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (tallyRow, error) {
		var t tallyRow
		err := row.Scan(&t.id, &t.text, &t.voteCount)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan tally: %w", err)
	}
	if len(scanned) == 0 {
		return nil, domain.ErrPollNotFound
	}

	tally := make([]domain.OptionTally, 0, len(scanned))
	for _, t := range scanned {
		// The poll exists but has no options: the LEFT JOIN yields one NULL row.
		if t.id == nil {
			continue
		}
		tally = append(tally, domain.OptionTally{ID: *t.id, Text: *t.text, VoteCount: t.voteCount})
	}
	return tally, nil
}
