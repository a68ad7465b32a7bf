//go:build integration

package submissions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "civic/pkg/domain"
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

func (s *PostgresStoreSuite) newSubmission() *Submission {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &Submission{
		ID:         uuid.New(),
		ArtistName: "Ana",
		Email:      "ana@example.org",
		Statement:  "Murals",
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (s *PostgresStoreSuite) TestReviewRoundTrip() {
	ctx := context.Background()
	sub := s.newSubmission()
	s.Require().NoError(s.store.Create(ctx, sub))
	reviewer := s.postgres.CreateTestUser(ctx, s.T(), id.RoleAdmin)

	_, err := s.store.Update(ctx, sub.ID, func(sub *Submission) error {
		sub.Status = StatusAccepted
		sub.ReviewerID = &reviewer
		sub.ReviewNote = "yes"
		return nil
	})
	s.Require().NoError(err)

	found, err := s.store.FindByID(ctx, sub.ID)
	s.Require().NoError(err)
	s.Equal(StatusAccepted, found.Status)
	s.Require().NotNil(found.ReviewerID)
	s.Equal(reviewer, *found.ReviewerID)

	n, err := s.store.CountByStatus(ctx, StatusPending)
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *PostgresStoreSuite) TestUnknownReviewerIsNotFound() {
	ctx := context.Background()
	sub := s.newSubmission()
	s.Require().NoError(s.store.Create(ctx, sub))
	ghost := id.UserID(uuid.New())

	_, err := s.store.Update(ctx, sub.ID, func(sub *Submission) error {
		sub.Status = StatusRejected
		sub.ReviewerID = &ghost
		return nil
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}
