package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"civic/internal/auth/models"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

type store interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Session, error)
	Execute(ctx context.Context, sessionID id.SessionID, validate func(*models.Session) error, mutate func(*models.Session)) (*models.Session, error)
	RevokeAllByUser(ctx context.Context, userID id.UserID, at time.Time) (int, error)
}

// contractSuite holds behaviour every session store shares. Backends embed
// it and set store and userID in their setup.
type contractSuite struct {
	suite.Suite
	store  store
	userID id.UserID
}

func (s *contractSuite) newSession(createdAt time.Time) *models.Session {
	return &models.Session{
		ID:                id.SessionID(uuid.New()),
		UserID:            s.userID,
		Status:            models.SessionStatusActive,
		DeviceDisplayName: "Firefox on Linux",
		ClientIPPrefix:    "203.0.113.0",
		CreatedAt:         createdAt,
		ExpiresAt:         createdAt.Add(time.Hour),
		LastSeenAt:        createdAt,
	}
}

func (s *contractSuite) TestCreateAndFind() {
	ctx := context.Background()
	session := s.newSession(time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(s.store.Create(ctx, session))

	found, err := s.store.FindByID(ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(session.UserID, found.UserID)
	s.Equal("Firefox on Linux", found.DeviceDisplayName)
	s.True(found.ExpiresAt.Equal(session.ExpiresAt))
	s.Nil(found.RevokedAt)
}

func (s *contractSuite) TestFindNotFound() {
	_, err := s.store.FindByID(context.Background(), id.SessionID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *contractSuite) TestListByUserNewestFirst() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)
	older := s.newSession(base.Add(-time.Minute))
	newer := s.newSession(base)
	s.Require().NoError(s.store.Create(ctx, older))
	s.Require().NoError(s.store.Create(ctx, newer))

	sessions, err := s.store.ListByUser(ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(sessions, 2)
	s.Equal(newer.ID, sessions[0].ID)
	s.Equal(older.ID, sessions[1].ID)
}

func (s *contractSuite) TestExecute() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	session := s.newSession(now)
	s.Require().NoError(s.store.Create(ctx, session))

	s.Run("mutates when validation passes", func() {
		refreshedAt := now.Add(time.Minute)
		updated, err := s.store.Execute(ctx, session.ID,
			func(*models.Session) error { return nil },
			func(sess *models.Session) { sess.RecordRefresh(refreshedAt) },
		)
		s.Require().NoError(err)
		s.True(updated.LastRefreshedAt.Equal(refreshedAt))

		found, err := s.store.FindByID(ctx, session.ID)
		s.Require().NoError(err)
		s.Require().NotNil(found.LastRefreshedAt)
		s.True(found.LastRefreshedAt.Equal(refreshedAt))
	})

	s.Run("passes validation errors through without mutating", func() {
		boom := errors.New("boom")
		_, err := s.store.Execute(ctx, session.ID,
			func(*models.Session) error { return boom },
			func(sess *models.Session) { sess.Revoke(now) },
		)
		s.ErrorIs(err, boom)

		found, err := s.store.FindByID(ctx, session.ID)
		s.Require().NoError(err)
		s.True(found.IsActive())
	})

	s.Run("not found", func() {
		_, err := s.store.Execute(ctx, id.SessionID(uuid.New()),
			func(*models.Session) error { return nil },
			func(*models.Session) {},
		)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *contractSuite) TestRevokeAllByUser() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	a, b := s.newSession(now), s.newSession(now.Add(time.Second))
	s.Require().NoError(s.store.Create(ctx, a))
	s.Require().NoError(s.store.Create(ctx, b))

	count, err := s.store.RevokeAllByUser(ctx, s.userID, now)
	s.Require().NoError(err)
	s.Equal(2, count)

	count, err = s.store.RevokeAllByUser(ctx, s.userID, now)
	s.Require().NoError(err)
	s.Equal(0, count)

	found, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.True(found.IsRevoked())
}
