package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "civic/pkg/domain"
)

type InMemorySessionStoreSuite struct {
	contractSuite
	memory *InMemorySessionStore
}

func TestInMemorySessionStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemorySessionStoreSuite))
}

func (s *InMemorySessionStoreSuite) SetupTest() {
	s.memory = New()
	s.store = s.memory
	s.userID = id.UserID(uuid.New())
}

func (s *InMemorySessionStoreSuite) TestDeleteExpiredSessions() {
	ctx := context.Background()
	now := time.Now()
	expired := s.newSession(now.Add(-2 * time.Hour))
	live := s.newSession(now)
	s.Require().NoError(s.memory.Create(ctx, expired))
	s.Require().NoError(s.memory.Create(ctx, live))

	deleted, err := s.memory.DeleteExpiredSessions(ctx, now)
	s.Require().NoError(err)
	s.Equal(1, deleted)

	sessions, err := s.memory.ListByUser(ctx, s.userID)
	s.Require().NoError(err)
	s.Len(sessions, 1)
}

func (s *InMemorySessionStoreSuite) TestStoredValueIsolatedFromCaller() {
	ctx := context.Background()
	session := s.newSession(time.Now())
	s.Require().NoError(s.memory.Create(ctx, session))
	session.Revoke(time.Now())

	found, err := s.memory.FindByID(ctx, session.ID)
	s.Require().NoError(err)
	s.True(found.IsActive())
}
