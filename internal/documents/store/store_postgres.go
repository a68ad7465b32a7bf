package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"civic/internal/documents/models"
	"civic/internal/platform/database"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

// PostgresStore keeps the lock in documents.locked_by and history in
// document_versions. Execute holds a row lock for the whole mutation.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const documentColumns = `id, title, content, version, locked_by, locked_at, created_by, updated_by, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, doc *models.Document, first *models.Version) error {
	if doc == nil || first == nil {
		return fmt.Errorf("document and first version are required")
	}
	return database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO documents (`+documentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, uuid.UUID(doc.ID), doc.Title, doc.Content, doc.Version,
			nullUserID(doc.LockedBy), database.NullTime(doc.LockedAt),
			uuid.UUID(doc.CreatedBy), uuid.UUID(doc.UpdatedBy), doc.CreatedAt, doc.UpdatedAt)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return fmt.Errorf("document exists: %w", sentinel.ErrConflict)
			}
			return fmt.Errorf("create document: %w", err)
		}
		return insertVersion(ctx, tx, first)
	})
}

func (s *PostgresStore) FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, uuid.UUID(docID))
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Document, error) {
	return s.query(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY updated_at DESC, title`)
}

func (s *PostgresStore) ListLockedBy(ctx context.Context, userID id.UserID) ([]*models.Document, error) {
	return s.query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE locked_by = $1
		ORDER BY updated_at DESC, title
	`, uuid.UUID(userID))
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]*models.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) Execute(ctx context.Context, docID id.DocumentID, mutate func(*models.Document) (*models.Version, error)) (*models.Document, error) {
	var result *models.Document
	err := database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1 FOR UPDATE`, uuid.UUID(docID))
		doc, err := scanDocument(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("document not found: %w", sentinel.ErrNotFound)
			}
			return fmt.Errorf("find document for update: %w", err)
		}

		current := *doc
		version, err := mutate(doc)
		if err != nil {
			result = &current
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE documents
			SET title = $2, content = $3, version = $4, locked_by = $5, locked_at = $6,
				updated_by = $7, updated_at = $8
			WHERE id = $1
		`, uuid.UUID(doc.ID), doc.Title, doc.Content, doc.Version,
			nullUserID(doc.LockedBy), database.NullTime(doc.LockedAt),
			uuid.UUID(doc.UpdatedBy), doc.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if version != nil {
			if err := insertVersion(ctx, tx, version); err != nil {
				return err
			}
		}
		result = doc
		return nil
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

func (s *PostgresStore) ListVersions(ctx context.Context, docID id.DocumentID) ([]*models.Version, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, uuid.UUID(docID)).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check document: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("document not found: %w", sentinel.ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, version, title, content, created_by, created_at
		FROM document_versions
		WHERE document_id = $1
		ORDER BY version
	`, uuid.UUID(docID))
	if err != nil {
		return nil, fmt.Errorf("list document versions: %w", err)
	}
	defer rows.Close()

	versions := make([]*models.Version, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (s *PostgresStore) FindVersion(ctx context.Context, docID id.DocumentID, version int) (*models.Version, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT document_id, version, title, content, created_by, created_at
		FROM document_versions
		WHERE document_id = $1 AND version = $2
	`, uuid.UUID(docID), version)
	v, err := scanVersion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document version not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find document version: %w", err)
	}
	return v, nil
}

func insertVersion(ctx context.Context, tx *sql.Tx, v *models.Version) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO document_versions (document_id, version, title, content, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(v.DocumentID), v.Version, v.Title, v.Content, uuid.UUID(v.CreatedBy), v.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("version %d already recorded: %w", v.Version, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert document version: %w", err)
	}
	return nil
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

func scanDocument(row scanner) (*models.Document, error) {
	var (
		doc                   models.Document
		docID, creator, owner uuid.UUID
		lockedBy              uuid.NullUUID
		lockedAt              sql.NullTime
	)
	if err := row.Scan(&docID, &doc.Title, &doc.Content, &doc.Version, &lockedBy, &lockedAt,
		&creator, &owner, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.ID = id.DocumentID(docID)
	doc.CreatedBy = id.UserID(creator)
	doc.UpdatedBy = id.UserID(owner)
	if lockedBy.Valid {
		holder := id.UserID(lockedBy.UUID)
		doc.LockedBy = &holder
	}
	doc.LockedAt = database.TimePtr(lockedAt)
	return &doc, nil
}

func scanVersion(row scanner) (*models.Version, error) {
	var (
		v              models.Version
		docID, creator uuid.UUID
	)
	if err := row.Scan(&docID, &v.Version, &v.Title, &v.Content, &creator, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.DocumentID = id.DocumentID(docID)
	v.CreatedBy = id.UserID(creator)
	return &v, nil
}
