package events

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

const eventColumns = `id, title, description, location, starts_at, ends_at, created_by, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, e *Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt, uuid.UUID(e.CreatedBy), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return fmt.Errorf("event exists: %w", sentinel.ErrConflict)
		case database.IsForeignKeyViolation(err):
			return fmt.Errorf("event creator not found: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, eventID uuid.UUID) (*Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("event not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) List(ctx context.Context, w Window) ([]*Event, error) {
	var from, to sql.NullTime
	if !w.From.IsZero() {
		from = sql.NullTime{Time: w.From, Valid: true}
	}
	if !w.To.IsZero() {
		to = sql.NullTime{Time: w.To, Valid: true}
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+eventColumns+` FROM events
		WHERE ($1::timestamptz IS NULL OR ends_at >= $1)
		  AND ($2::timestamptz IS NULL OR starts_at <= $2)
		ORDER BY starts_at, id
		LIMIT $3
	`, from, to, validation.ClampLimit(w.Limit))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]*Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, eventID uuid.UUID, mutate func(*Event) error) (*Event, error) {
	var result *Event
	err := database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		e, err := scanEvent(tx.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, eventID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("event not found: %w", sentinel.ErrNotFound)
			}
			return fmt.Errorf("find event for update: %w", err)
		}
		if err := mutate(e); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE events
			SET title = $2, description = $3, location = $4, starts_at = $5, ends_at = $6, updated_at = $7
			WHERE id = $1
		`, e.ID, e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt, e.UpdatedAt); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		result = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PostgresStore) Delete(ctx context.Context, eventID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("event not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*Event, error) {
	var (
		e         Event
		createdBy uuid.UUID
	)
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.EndsAt,
		&createdBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.CreatedBy = id.UserID(createdBy)
	return &e, nil
}
