package submissions

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

const submissionColumns = `id, artist_name, email, portfolio_url, statement, medium, status, reviewer_id, review_note, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, sub *Submission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artist_submissions (`+submissionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, sub.ID, sub.ArtistName, sub.Email, sub.PortfolioURL, sub.Statement, sub.Medium,
		string(sub.Status), nullUserID(sub.ReviewerID), sub.ReviewNote, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("submission exists: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, submissionID uuid.UUID) (*Submission, error) {
	sub, err := scanSubmission(s.db.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM artist_submissions WHERE id = $1`, submissionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("submission not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) List(ctx context.Context, status Status, limit int) ([]*Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+submissionColumns+` FROM artist_submissions
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at ASC
		LIMIT $2
	`, string(status), validation.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	out := make([]*Submission, 0)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountByStatus(ctx context.Context, status Status) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM artist_submissions WHERE status = $1`, string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Update(ctx context.Context, submissionID uuid.UUID, mutate func(*Submission) error) (*Submission, error) {
	var result *Submission
	err := database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		sub, err := scanSubmission(tx.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM artist_submissions WHERE id = $1 FOR UPDATE`, submissionID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("submission not found: %w", sentinel.ErrNotFound)
			}
			return fmt.Errorf("find submission for update: %w", err)
		}
		if err := mutate(sub); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE artist_submissions
			SET status = $2, reviewer_id = $3, review_note = $4, updated_at = $5
			WHERE id = $1
		`, sub.ID, string(sub.Status), nullUserID(sub.ReviewerID), sub.ReviewNote, sub.UpdatedAt); err != nil {
			if database.IsForeignKeyViolation(err) {
				return fmt.Errorf("reviewer not found: %w", sentinel.ErrNotFound)
			}
			return fmt.Errorf("update submission: %w", err)
		}
		result = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func nullUserID(u *id.UserID) uuid.NullUUID {
	if u == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*u), Valid: true}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (*Submission, error) {
	var (
		sub      Submission
		reviewer uuid.NullUUID
		status   string
	)
	if err := row.Scan(&sub.ID, &sub.ArtistName, &sub.Email, &sub.PortfolioURL, &sub.Statement, &sub.Medium,
		&status, &reviewer, &sub.ReviewNote, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	if reviewer.Valid {
		u := id.UserID(reviewer.UUID)
		sub.ReviewerID = &u
	}
	sub.Status = Status(status)
	return &sub, nil
}
