package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"civic/internal/auth/models"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

type InMemoryUserStoreSuite struct {
	suite.Suite
	store *InMemoryUserStore
	ctx   context.Context
}

func TestInMemoryUserStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryUserStoreSuite))
}

func (s *InMemoryUserStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func (s *InMemoryUserStoreSuite) newUser(email string) *models.User {
	now := time.Now()
	return &models.User{
		ID:           id.UserID(uuid.New()),
		Email:        email,
		DisplayName:  "Ana",
		PasswordHash: "hash",
		Role:         id.RoleMember,
		Status:       models.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *InMemoryUserStoreSuite) TestCreateAndFind() {
	u := s.newUser("ana@example.com")
	s.Require().NoError(s.store.Create(s.ctx, u))

	byID, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u.Email, byID.Email)

	byEmail, err := s.store.FindByEmail(s.ctx, "ANA@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, byEmail.ID)
}

func (s *InMemoryUserStoreSuite) TestDuplicateEmailIsCaseInsensitive() {
	s.Require().NoError(s.store.Create(s.ctx, s.newUser("ana@example.com")))
	err := s.store.Create(s.ctx, s.newUser("Ana@Example.com"))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *InMemoryUserStoreSuite) TestNotFound() {
	_, err := s.store.FindByID(s.ctx, id.UserID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
	err = s.store.UpdatePassword(s.ctx, id.UserID(uuid.New()), "x", time.Now())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryUserStoreSuite) TestReturnedValuesAreCopies() {
	u := s.newUser("ana@example.com")
	s.Require().NoError(s.store.Create(s.ctx, u))

	found, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	found.Role = id.RoleAdmin

	again, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(id.RoleMember, again.Role)
}

func (s *InMemoryUserStoreSuite) TestUpdateRoleAndPassword() {
	u := s.newUser("ana@example.com")
	s.Require().NoError(s.store.Create(s.ctx, u))

	updated, err := s.store.UpdateRole(s.ctx, u.ID, id.RoleEditor, time.Now())
	s.Require().NoError(err)
	s.Equal(id.RoleEditor, updated.Role)

	s.Require().NoError(s.store.UpdatePassword(s.ctx, u.ID, "new-hash", time.Now()))
	found, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("new-hash", found.PasswordHash)
}
