//go:build integration

package events

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
	creator  id.UserID
	day      time.Time
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
	s.day = time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateAll(ctx))
	s.creator = s.postgres.CreateTestUser(ctx, s.T(), id.RoleEditor)
}

func (s *PostgresStoreSuite) event(startHour, endHour int) *Event {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &Event{
		ID:        uuid.New(),
		Title:     "e",
		StartsAt:  s.day.Add(time.Duration(startHour) * time.Hour),
		EndsAt:    s.day.Add(time.Duration(endHour) * time.Hour),
		CreatedBy: s.creator,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *PostgresStoreSuite) TestWindow() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.event(9, 11)))
	s.Require().NoError(s.store.Create(ctx, s.event(18, 20)))

	list, err := s.store.List(ctx, Window{From: s.day.Add(10 * time.Hour)})
	s.Require().NoError(err)
	s.Len(list, 2)

	list, err = s.store.List(ctx, Window{From: s.day.Add(12 * time.Hour), To: s.day.Add(17 * time.Hour)})
	s.Require().NoError(err)
	s.Empty(list)

	list, err = s.store.List(ctx, Window{})
	s.Require().NoError(err)
	s.Len(list, 2)
}

func (s *PostgresStoreSuite) TestCheckConstraintBacksValidation() {
	s.Error(s.store.Create(context.Background(), s.event(10, 9)))
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	e := s.event(1, 2)
	s.Require().NoError(s.store.Create(ctx, e))
	s.Require().NoError(s.store.Delete(ctx, e.ID))
	s.ErrorIs(s.store.Delete(ctx, e.ID), sentinel.ErrNotFound)
	_, err := s.store.FindByID(ctx, e.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
