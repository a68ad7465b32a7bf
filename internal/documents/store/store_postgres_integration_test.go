//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"civic/internal/documents/models"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
	"civic/pkg/testutil"
	"civic/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *PostgresStore
	author   id.UserID
	editor   id.UserID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateAll(ctx))
	s.author = s.postgres.CreateTestUser(ctx, s.T(), id.RoleEditor)
	s.editor = s.postgres.CreateTestUser(ctx, s.T(), id.RoleEditor)
}

func (s *PostgresStoreSuite) create(title string) *models.Document {
	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := &models.Document{
		ID:        id.DocumentID(uuid.New()),
		Title:     title,
		Content:   "draft",
		Version:   1,
		CreatedBy: s.author,
		UpdatedBy: s.author,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(s.store.Create(context.Background(), doc, doc.Snapshot()))
	return doc
}

func (s *PostgresStoreSuite) TestLockSaveUnlock() {
	ctx := context.Background()
	doc := s.create("Charter")
	now := time.Now().UTC()

	locked, err := s.store.Execute(ctx, doc.ID, func(d *models.Document) (*models.Version, error) {
		d.AcquireLock(s.editor, now)
		return nil, nil
	})
	s.Require().NoError(err)
	s.True(locked.IsLockedBy(s.editor))

	held, err := s.store.ListLockedBy(ctx, s.editor)
	s.Require().NoError(err)
	s.Len(held, 1)

	saved, err := s.store.Execute(ctx, doc.ID, func(d *models.Document) (*models.Version, error) {
		return d.Apply("Charter", "final text", s.editor, now), nil
	})
	s.Require().NoError(err)
	s.Equal(2, saved.Version)
	s.True(saved.IsLockedBy(s.editor))

	unlocked, err := s.store.Execute(ctx, doc.ID, func(d *models.Document) (*models.Version, error) {
		d.ReleaseLock()
		return nil, nil
	})
	s.Require().NoError(err)
	s.False(unlocked.IsLocked())

	versions, err := s.store.ListVersions(ctx, doc.ID)
	s.Require().NoError(err)
	s.Require().Len(versions, 2)
	s.Equal("draft", versions[0].Content)
	s.Equal("final text", versions[1].Content)

	v, err := s.store.FindVersion(ctx, doc.ID, 2)
	s.Require().NoError(err)
	s.Equal(s.editor, v.CreatedBy)
}

func (s *PostgresStoreSuite) TestNotFound() {
	ctx := context.Background()
	missing := id.DocumentID(uuid.New())

	_, err := s.store.FindByID(ctx, missing)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.ListVersions(ctx, missing)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindVersion(ctx, missing, 1)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.Execute(ctx, missing, func(d *models.Document) (*models.Version, error) {
		return nil, nil
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicateVersionConflicts() {
	ctx := context.Background()
	doc := s.create("Charter")

	_, err := s.store.Execute(ctx, doc.ID, func(d *models.Document) (*models.Version, error) {
		v := d.Snapshot()
		return v, nil
	})
	s.ErrorIs(err, sentinel.ErrConflict)

	found, err := s.store.FindByID(ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(1, found.Version)
}

func (s *PostgresStoreSuite) TestConcurrentLockHasOneWinner() {
	ctx := context.Background()
	doc := s.create("Charter")
	users := make([]id.UserID, 8)
	for i := range users {
		users[i] = s.postgres.CreateTestUser(ctx, s.T(), id.RoleEditor)
	}

	result := testutil.RunConcurrent(len(users), func(idx int) error {
		_, err := s.store.Execute(ctx, doc.ID, func(d *models.Document) (*models.Version, error) {
			if !d.AcquireLock(users[idx], time.Now()) {
				return nil, sentinel.ErrConflict
			}
			return nil, nil
		})
		return err
	})
	s.Equal(int32(1), result.Successes)
	s.Equal(int32(len(users)-1), result.Conflicts)
}
