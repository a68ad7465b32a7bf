package governance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"civic/internal/platform/database"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
	"civic/pkg/platform/validation"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const proposalColumns = `id, title, summary, body, status, author_id, voting_starts_at, voting_ends_at, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, p *Proposal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dao_proposals (`+proposalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.Title, p.Summary, p.Body, string(p.Status), uuid.UUID(p.AuthorID),
		database.NullTime(p.VotingStartsAt), database.NullTime(p.VotingEndsAt), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return fmt.Errorf("proposal exists: %w", sentinel.ErrConflict)
		case database.IsForeignKeyViolation(err):
			return fmt.Errorf("proposal author not found: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("create proposal: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, proposalID uuid.UUID) (*Proposal, error) {
	p, err := scanProposal(s.db.QueryRowContext(ctx, `SELECT `+proposalColumns+` FROM dao_proposals WHERE id = $1`, proposalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("proposal not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find proposal: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*Proposal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+proposalColumns+` FROM dao_proposals
		WHERE ($1 = '' OR status = $1)
		  AND ($2 OR status <> 'draft')
		ORDER BY updated_at DESC
		LIMIT $3
	`, string(filter.Status), filter.IncludeDrafts, validation.ClampLimit(filter.Limit))
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	out := make([]*Proposal, 0)
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, proposalID uuid.UUID, mutate func(*Proposal) error) (*Proposal, error) {
	var result *Proposal
	err := database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		p, err := scanProposal(tx.QueryRowContext(ctx, `SELECT `+proposalColumns+` FROM dao_proposals WHERE id = $1 FOR UPDATE`, proposalID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("proposal not found: %w", sentinel.ErrNotFound)
			}
			return fmt.Errorf("find proposal for update: %w", err)
		}
		if err := mutate(p); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE dao_proposals
			SET title = $2, summary = $3, body = $4, status = $5,
			    voting_starts_at = $6, voting_ends_at = $7, updated_at = $8
			WHERE id = $1
		`, p.ID, p.Title, p.Summary, p.Body, string(p.Status),
			database.NullTime(p.VotingStartsAt), database.NullTime(p.VotingEndsAt), p.UpdatedAt); err != nil {
			return fmt.Errorf("update proposal: %w", err)
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProposal(row scanner) (*Proposal, error) {
	var (
		p        Proposal
		author   uuid.UUID
		status   string
		startsAt sql.NullTime
		endsAt   sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Summary, &p.Body, &status, &author,
		&startsAt, &endsAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = Status(status)
	p.AuthorID = id.UserID(author)
	p.VotingStartsAt = database.TimePtr(startsAt)
	p.VotingEndsAt = database.TimePtr(endsAt)
	return &p, nil
}
