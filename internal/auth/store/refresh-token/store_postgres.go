package refreshtoken

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

// PostgresStore persists refresh tokens in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed refresh token store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, token *models.RefreshTokenRecord) error {
	if token == nil {
		return fmt.Errorf("refresh token is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (token_hash, session_id, user_id, created_at, expires_at, used_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		token.TokenHash,
		uuid.UUID(token.SessionID),
		uuid.UUID(token.UserID),
		token.CreatedAt,
		token.ExpiresAt,
		database.NullTime(token.UsedAt),
	)
	if err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// Consume locks the row, checks it, and marks it used in one transaction.
func (s *PostgresStore) Consume(ctx context.Context, tokenHash string, at time.Time) (*models.RefreshTokenRecord, error) {
	var record *models.RefreshTokenRecord
	err := database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		record, err = scanRefreshToken(tx.QueryRowContext(ctx, `
			SELECT token_hash, session_id, user_id, created_at, expires_at, used_at
			FROM refresh_tokens
			WHERE token_hash = $1
			FOR UPDATE
		`, tokenHash))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("refresh token not found: %w", sentinel.ErrNotFound)
			}
			return fmt.Errorf("find refresh token for consume: %w", err)
		}
		if record.IsUsed() {
			return sentinel.ErrAlreadyUsed
		}
		if record.IsExpired(at) {
			return sentinel.ErrExpired
		}
		if _, err := tx.ExecContext(ctx, `UPDATE refresh_tokens SET used_at = $2 WHERE token_hash = $1`, tokenHash, at); err != nil {
			return fmt.Errorf("mark refresh token used: %w", err)
		}
		record.UsedAt = &at
		return nil
	})
	return record, err
}

func (s *PostgresStore) DeleteBySessionID(ctx context.Context, sessionID id.SessionID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE session_id = $1`, uuid.UUID(sessionID)); err != nil {
		return fmt.Errorf("delete refresh tokens by session: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error) {
	return s.deleteWhere(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
}

func (s *PostgresStore) DeleteUsedTokens(ctx context.Context, usedBefore time.Time) (int, error) {
	return s.deleteWhere(ctx, `DELETE FROM refresh_tokens WHERE used_at IS NOT NULL AND used_at < $1`, usedBefore)
}

func (s *PostgresStore) deleteWhere(ctx context.Context, query string, at time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, query, at)
	if err != nil {
		return 0, fmt.Errorf("delete refresh tokens: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete refresh tokens rows: %w", err)
	}
	return int(rows), nil
}

type refreshTokenRow interface {
	Scan(dest ...any) error
}

func scanRefreshToken(row refreshTokenRow) (*models.RefreshTokenRecord, error) {
	var (
		record            models.RefreshTokenRecord
		sessionID, userID uuid.UUID
		usedAt            sql.NullTime
	)
	if err := row.Scan(&record.TokenHash, &sessionID, &userID, &record.CreatedAt, &record.ExpiresAt, &usedAt); err != nil {
		return nil, err
	}
	record.SessionID = id.SessionID(sessionID)
	record.UserID = id.UserID(userID)
	record.UsedAt = database.TimePtr(usedAt)
	return &record, nil
}
