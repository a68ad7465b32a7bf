package cases

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"civic/internal/platform/database"
	"civic/pkg/platform/sentinel"
	"civic/pkg/platform/validation"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const caseColumns = `id, title, court, docket_number, status, summary, filed_at, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, c *LegalCase) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO legal_cases (`+caseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.Title, c.Court, c.DocketNumber, string(c.Status), c.Summary,
		database.NullTime(c.FiledAt), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("legal case exists: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create legal case: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, caseID uuid.UUID) (*LegalCase, error) {
	c, err := scanCase(s.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM legal_cases WHERE id = $1`, caseID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("legal case not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find legal case: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) List(ctx context.Context, status Status, limit int) ([]*LegalCase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+caseColumns+` FROM legal_cases
		WHERE ($1 = '' OR status = $1)
		ORDER BY (status = 'closed'), updated_at DESC
		LIMIT $2
	`, string(status), validation.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list legal cases: %w", err)
	}
	defer rows.Close()

	out := make([]*LegalCase, 0)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan legal case: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, caseID uuid.UUID, mutate func(*LegalCase) error) (*LegalCase, error) {
	var result *LegalCase
	err := database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		c, err := scanCase(tx.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM legal_cases WHERE id = $1 FOR UPDATE`, caseID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("legal case not found: %w", sentinel.ErrNotFound)
			}
			return fmt.Errorf("find legal case for update: %w", err)
		}
		if err := mutate(c); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE legal_cases
			SET title = $2, court = $3, docket_number = $4, status = $5, summary = $6, filed_at = $7, updated_at = $8
			WHERE id = $1
		`, c.ID, c.Title, c.Court, c.DocketNumber, string(c.Status), c.Summary,
			database.NullTime(c.FiledAt), c.UpdatedAt); err != nil {
			if database.IsUniqueViolation(err) {
				return fmt.Errorf("docket %s already recorded: %w", c.DocketNumber, sentinel.ErrConflict)
			}
			return fmt.Errorf("update legal case: %w", err)
		}
		result = c
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

func scanCase(row scanner) (*LegalCase, error) {
	var (
		c       LegalCase
		status  string
		filedAt sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.Title, &c.Court, &c.DocketNumber, &status, &c.Summary,
		&filedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Status = Status(status)
	c.FiledAt = database.TimePtr(filedAt)
	return &c, nil
}
