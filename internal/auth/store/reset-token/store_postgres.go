package resettoken

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"civic/internal/auth/models"
	"civic/internal/platform/database"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

// PostgresStore persists password reset tokens in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, token *models.ResetTokenRecord) error {
	if token == nil {
		return fmt.Errorf("reset token is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (token_hash, user_id, created_at, expires_at, used_at)
		VALUES ($1, $2, $3, $4, $5)
	`, token.TokenHash, uuid.UUID(token.UserID), token.CreatedAt, token.ExpiresAt, database.NullTime(token.UsedAt))
	if err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}
	return nil
}

func (s *PostgresStore) Consume(ctx context.Context, tokenHash string, at time.Time) (*models.ResetTokenRecord, error) {
	var record *models.ResetTokenRecord
	err := database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var (
			r      models.ResetTokenRecord
			userID uuid.UUID
			usedAt sql.NullTime
		)
		err := tx.QueryRowContext(ctx, `
			SELECT token_hash, user_id, created_at, expires_at, used_at
			FROM password_reset_tokens
			WHERE token_hash = $1
			FOR UPDATE
		`, tokenHash).Scan(&r.TokenHash, &userID, &r.CreatedAt, &r.ExpiresAt, &usedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("reset token not found: %w", sentinel.ErrNotFound)
			}
			return fmt.Errorf("find reset token: %w", err)
		}
		r.UserID = id.UserID(userID)
		r.UsedAt = database.TimePtr(usedAt)
		if r.IsUsed() {
			return sentinel.ErrAlreadyUsed
		}
		if r.IsExpired(at) {
			return sentinel.ErrExpired
		}
		if _, err := tx.ExecContext(ctx, `UPDATE password_reset_tokens SET used_at = $2 WHERE token_hash = $1`, tokenHash, at); err != nil {
			return fmt.Errorf("mark reset token used: %w", err)
		}
		r.UsedAt = &at
		record = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *PostgresStore) DeleteStaleTokens(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM password_reset_tokens WHERE used_at IS NOT NULL OR expires_at <= $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("delete stale reset tokens: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete stale reset tokens rows: %w", err)
	}
	return int(rows), nil
}
