package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"civic/internal/foia/models"
	"civic/internal/platform/database"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
	"civic/pkg/platform/validation"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `id, requester_id, agency, subject, description, status, tracking_number,
	submitted_at, due_at, closed_at, created_at, updated_at`

func (s *PostgresStore) CreateRequest(ctx context.Context, req *models.Request) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO foia_requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, req.ID, uuid.UUID(req.RequesterID), req.Agency, req.Subject, req.Description, string(req.Status),
		nullString(req.TrackingNumber), database.NullTime(req.SubmittedAt), database.NullTime(req.DueAt),
		database.NullTime(req.ClosedAt), req.CreatedAt, req.UpdatedAt)
	if err != nil {
		return translateWriteError("create foia request", err)
	}
	return nil
}

func (s *PostgresStore) FindRequest(ctx context.Context, requestID uuid.UUID) (*models.Request, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM foia_requests WHERE id = $1`, requestID)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("foia request not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find foia request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) ListRequests(ctx context.Context, filter models.ListFilter) ([]*models.Request, error) {
	var (
		where []string
		args  []any
	)
	if filter.RequesterID != nil {
		args = append(args, uuid.UUID(*filter.RequesterID))
		where = append(where, fmt.Sprintf("requester_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + requestColumns + ` FROM foia_requests`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, validation.ClampLimit(filter.Limit))
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list foia requests: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan foia request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateRequest(ctx context.Context, requestID uuid.UUID, mutate func(*models.Request) error) (*models.Request, error) {
	var result *models.Request
	err := database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM foia_requests WHERE id = $1 FOR UPDATE`, requestID)
		req, err := scanRequest(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("foia request not found: %w", sentinel.ErrNotFound)
			}
			return fmt.Errorf("find foia request for update: %w", err)
		}
		if err := mutate(req); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE foia_requests
			SET agency = $2, subject = $3, description = $4, status = $5, tracking_number = $6,
				submitted_at = $7, due_at = $8, closed_at = $9, updated_at = $10
			WHERE id = $1
		`, req.ID, req.Agency, req.Subject, req.Description, string(req.Status), nullString(req.TrackingNumber),
			database.NullTime(req.SubmittedAt), database.NullTime(req.DueAt), database.NullTime(req.ClosedAt), req.UpdatedAt)
		if err != nil {
			return translateWriteError("update foia request", err)
		}
		result = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PostgresStore) AddResponse(ctx context.Context, resp *models.Response) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO foia_responses (id, request_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, resp.ID, resp.RequestID, uuid.UUID(resp.AuthorID), resp.Body, resp.CreatedAt)
	if err != nil {
		return translateWriteError("add foia response", err)
	}
	return nil
}

func (s *PostgresStore) ListResponses(ctx context.Context, requestID uuid.UUID) ([]*models.Response, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, author_id, body, created_at
		FROM foia_responses WHERE request_id = $1
		ORDER BY created_at
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("list foia responses: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Response, 0)
	for rows.Next() {
		var (
			r      models.Response
			author uuid.UUID
		)
		if err := rows.Scan(&r.ID, &r.RequestID, &author, &r.Body, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan foia response: %w", err)
		}
		r.AuthorID = id.UserID(author)
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AddAttachment(ctx context.Context, att *models.Attachment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO foia_documents (id, request_id, file_name, url, content_type, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, att.ID, att.RequestID, att.FileName, att.URL, att.ContentType, uuid.UUID(att.UploadedBy), att.CreatedAt)
	if err != nil {
		return translateWriteError("add foia attachment", err)
	}
	return nil
}

func (s *PostgresStore) ListAttachments(ctx context.Context, requestID uuid.UUID) ([]*models.Attachment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, file_name, url, content_type, uploaded_by, created_at
		FROM foia_documents WHERE request_id = $1
		ORDER BY created_at
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("list foia attachments: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Attachment, 0)
	for rows.Next() {
		var (
			a        models.Attachment
			uploader uuid.UUID
		)
		if err := rows.Scan(&a.ID, &a.RequestID, &a.FileName, &a.URL, &a.ContentType, &uploader, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan foia attachment: %w", err)
		}
		a.UploadedBy = id.UserID(uploader)
		out = append(out, &a)
	}
	return out, rows.Err()
}

// translateWriteError maps constraint violations to sentinels. A foreign
// key violation on a child row means the parent request is gone.
func translateWriteError(op string, err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
	case database.IsForeignKeyViolation(err):
		return fmt.Errorf("%s: foia request not found: %w", op, sentinel.ErrNotFound)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (*models.Request, error) {
	var (
		r                            models.Request
		requester                    uuid.UUID
		status                       string
		tracking                     sql.NullString
		submittedAt, dueAt, closedAt sql.NullTime
	)
	if err := row.Scan(&r.ID, &requester, &r.Agency, &r.Subject, &r.Description, &status, &tracking,
		&submittedAt, &dueAt, &closedAt, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.RequesterID = id.UserID(requester)
	r.Status = models.Status(status)
	r.TrackingNumber = tracking.String
	r.SubmittedAt = database.TimePtr(submittedAt)
	r.DueAt = database.TimePtr(dueAt)
	r.ClosedAt = database.TimePtr(closedAt)
	return &r, nil
}
