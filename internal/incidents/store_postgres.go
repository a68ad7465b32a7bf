package incidents

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

const reportColumns = `id, reporter_id, category, description, location, occurred_at, contact_email, status, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, r *Report) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO incident_reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.ID, nullUserID(r.ReporterID), r.Category, r.Description, r.Location, database.NullTime(r.OccurredAt),
		r.ContactEmail, string(r.Status), r.CreatedAt, r.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("incident report exists: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create incident report: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, reportID uuid.UUID) (*Report, error) {
	r, err := scanReport(s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM incident_reports WHERE id = $1`, reportID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("incident report not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find incident report: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) List(ctx context.Context, status Status, limit int) ([]*Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reportColumns+` FROM incident_reports
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, string(status), validation.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list incident reports: %w", err)
	}
	defer rows.Close()

	out := make([]*Report, 0)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountByStatus(ctx context.Context, status Status) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM incident_reports WHERE status = $1`, string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count incident reports: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Update(ctx context.Context, reportID uuid.UUID, mutate func(*Report) error) (*Report, error) {
	var result *Report
	err := database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		r, err := scanReport(tx.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM incident_reports WHERE id = $1 FOR UPDATE`, reportID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("incident report not found: %w", sentinel.ErrNotFound)
			}
			return fmt.Errorf("find incident report for update: %w", err)
		}
		if err := mutate(r); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE incident_reports SET status = $2, updated_at = $3 WHERE id = $1
		`, r.ID, string(r.Status), r.UpdatedAt); err != nil {
			return fmt.Errorf("update incident report: %w", err)
		}
		result = r
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

func scanReport(row scanner) (*Report, error) {
	var (
		r          Report
		reporter   uuid.NullUUID
		occurredAt sql.NullTime
		status     string
	)
	if err := row.Scan(&r.ID, &reporter, &r.Category, &r.Description, &r.Location, &occurredAt,
		&r.ContactEmail, &status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if reporter.Valid {
		u := id.UserID(reporter.UUID)
		r.ReporterID = &u
	}
	r.OccurredAt = database.TimePtr(occurredAt)
	r.Status = Status(status)
	return &r, nil
}
