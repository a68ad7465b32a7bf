package glossary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"civic/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Upsert uses xmax = 0 to tell an insert from an update in one round trip.
func (s *PostgresStore) Upsert(ctx context.Context, t *Term) (bool, error) {
	var inserted bool
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO glossary_terms (slug, term, definition, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slug) DO UPDATE
		SET term = EXCLUDED.term, definition = EXCLUDED.definition, updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0)
	`, t.Slug, t.Term, t.Definition, t.UpdatedAt).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert glossary term: %w", err)
	}
	return inserted, nil
}

func (s *PostgresStore) FindBySlug(ctx context.Context, slug string) (*Term, error) {
	var t Term
	err := s.db.QueryRowContext(ctx, `
		SELECT slug, term, definition, updated_at FROM glossary_terms WHERE slug = $1
	`, slug).Scan(&t.Slug, &t.Term, &t.Definition, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("glossary term %q: %w", slug, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find glossary term: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) List(ctx context.Context, query string) ([]*Term, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT slug, term, definition, updated_at FROM glossary_terms
		WHERE ($1 = '' OR term ILIKE '%' || $1 || '%')
		ORDER BY LOWER(term)
	`, query)
	if err != nil {
		return nil, fmt.Errorf("list glossary terms: %w", err)
	}
	defer rows.Close()

	out := make([]*Term, 0)
	for rows.Next() {
		var t Term
		if err := rows.Scan(&t.Slug, &t.Term, &t.Definition, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan glossary term: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, slug string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM glossary_terms WHERE slug = $1`, slug)
	if err != nil {
		return fmt.Errorf("delete glossary term: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete glossary term: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("glossary term %q: %w", slug, sentinel.ErrNotFound)
	}
	return nil
}
