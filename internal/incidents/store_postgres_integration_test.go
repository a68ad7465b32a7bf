//go:build integration

package incidents

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
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

func (s *PostgresStoreSuite) TestRoundTripAndUpdate() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	r := &Report{
		ID:          uuid.New(),
		Category:    "vandalism",
		Description: "Mural damaged",
		Status:      StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.Require().NoError(s.store.Create(ctx, r))

	found, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Nil(found.ReporterID)
	s.Equal("Mural damaged", found.Description)

	n, err := s.store.CountByStatus(ctx, StatusNew)
	s.Require().NoError(err)
	s.Equal(1, n)

	updated, err := s.store.Update(ctx, r.ID, func(r *Report) error {
		r.Status = StatusResolved
		return nil
	})
	s.Require().NoError(err)
	s.Equal(StatusResolved, updated.Status)

	resolved, err := s.store.List(ctx, StatusResolved, 10)
	s.Require().NoError(err)
	s.Len(resolved, 1)
	all, err := s.store.List(ctx, "", 10)
	s.Require().NoError(err)
	s.Len(all, 1)

	_, err = s.store.FindByID(ctx, uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
