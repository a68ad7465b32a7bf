package session

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

// PostgresStore persists sessions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed session store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const sessionColumns = `id, user_id, status, device_display_name, client_ip_prefix,
	created_at, expires_at, last_seen_at, last_refreshed_at, revoked_at`

func (s *PostgresStore) Create(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		uuid.UUID(session.ID),
		uuid.UUID(session.UserID),
		string(session.Status),
		session.DeviceDisplayName,
		session.ClientIPPrefix,
		session.CreatedAt,
		session.ExpiresAt,
		session.LastSeenAt,
		database.NullTime(session.LastRefreshedAt),
		database.NullTime(session.RevokedAt),
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, uuid.UUID(sessionID))
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find session by id: %w", err)
	}
	return session, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list sessions by user: %w", err)
	}
	defer rows.Close()

	sessions := make([]*models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// Execute atomically validates and mutates a session under a row lock.
func (s *PostgresStore) Execute(ctx context.Context, sessionID id.SessionID, validate func(*models.Session) error, mutate func(*models.Session)) (*models.Session, error) {
	var result *models.Session
	err := database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1 FOR UPDATE`, uuid.UUID(sessionID))
		session, err := scanSession(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
			}
			return fmt.Errorf("find session for execute: %w", err)
		}
		if err := validate(session); err != nil {
			result = session
			return err
		}
		mutate(session)
		_, err = tx.ExecContext(ctx, `
			UPDATE sessions
			SET status = $2, last_seen_at = $3, last_refreshed_at = $4, revoked_at = $5
			WHERE id = $1
		`, uuid.UUID(session.ID), string(session.Status), session.LastSeenAt,
			database.NullTime(session.LastRefreshedAt), database.NullTime(session.RevokedAt))
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		result = session
		return nil
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

func (s *PostgresStore) RevokeAllByUser(ctx context.Context, userID id.UserID, at time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET status = 'revoked', revoked_at = $2
		WHERE user_id = $1 AND status = 'active'
	`, uuid.UUID(userID), at)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions by user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("revoke sessions rows: %w", err)
	}
	return int(rows), nil
}

func (s *PostgresStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions rows: %w", err)
	}
	return int(rows), nil
}

type sessionRow interface {
	Scan(dest ...any) error
}

func scanSession(row sessionRow) (*models.Session, error) {
	var (
		session              models.Session
		sessionID, userID    uuid.UUID
		status               string
		refreshed, revokedAt sql.NullTime
	)
	if err := row.Scan(&sessionID, &userID, &status, &session.DeviceDisplayName, &session.ClientIPPrefix,
		&session.CreatedAt, &session.ExpiresAt, &session.LastSeenAt, &refreshed, &revokedAt); err != nil {
		return nil, err
	}
	session.ID = id.SessionID(sessionID)
	session.UserID = id.UserID(userID)
	session.Status = models.SessionStatus(status)
	session.LastRefreshedAt = database.TimePtr(refreshed)
	session.RevokedAt = database.TimePtr(revokedAt)
	return &session, nil
}
