//go:build integration

package glossary

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"civic/pkg/platform/sentinel"
	"civic/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func (s *PostgresStoreSuite) TestUpsertReportsInsert() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	created, err := s.store.Upsert(ctx, &Term{Slug: "quorum", Term: "Quorum", Definition: "v1", UpdatedAt: now})
	s.Require().NoError(err)
	s.True(created)

	created, err = s.store.Upsert(ctx, &Term{Slug: "quorum", Term: "Quorum", Definition: "v2", UpdatedAt: now})
	s.Require().NoError(err)
	s.False(created)

	t, err := s.store.FindBySlug(ctx, "quorum")
	s.Require().NoError(err)
	s.Equal("v2", t.Definition)
}

func (s *PostgresStoreSuite) TestSearchAndDelete() {
	ctx := context.Background()
	now := time.Now().UTC()
	for _, term := range []string{"Docket", "Amicus brief", "Public records"} {
		_, err := s.store.Upsert(ctx, &Term{Slug: term, Term: term, Definition: "d", UpdatedAt: now})
		s.Require().NoError(err)
	}

	list, err := s.store.List(ctx, "rec")
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("Public records", list[0].Term)

	all, err := s.store.List(ctx, "")
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal("Amicus brief", all[0].Term)

	s.Require().NoError(s.store.Delete(ctx, "Docket"))
	s.ErrorIs(s.store.Delete(ctx, "Docket"), sentinel.ErrNotFound)
}
