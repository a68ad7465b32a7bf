package governance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
	ctx     context.Context
	author  id.UserID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	svc, err := NewService(NewInMemoryStore())
	s.Require().NoError(err)
	s.service = svc
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	s.author = id.UserID(uuid.New())
}

func (s *ServiceSuite) create(title string) *Proposal {
	p, err := s.service.Create(s.ctx, s.author, &CreateRequest{Title: title, Summary: "s"})
	s.Require().NoError(err)
	return p
}

func (s *ServiceSuite) TestDraftsAreHiddenFromMembers() {
	draft := s.create("Draft")
	open := s.create("Open")
	_, err := s.service.UpdateStatus(s.ctx, open.ID, s.author, &UpdateStatusRequest{Status: StatusActive})
	s.Require().NoError(err)

	_, err = s.service.Get(s.ctx, draft.ID, id.RoleMember)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = s.service.Get(s.ctx, draft.ID, "")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	got, err := s.service.Get(s.ctx, draft.ID, id.RoleEditor)
	s.Require().NoError(err)
	s.Equal("Draft", got.Title)

	public, err := s.service.List(s.ctx, "", "", 0)
	s.Require().NoError(err)
	s.Require().Len(public, 1)
	s.Equal(open.ID, public[0].ID)

	all, err := s.service.List(s.ctx, "", id.RoleAdmin, 0)
	s.Require().NoError(err)
	s.Len(all, 2)

	drafts, err := s.service.ListDrafts(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(drafts, 1)
	s.Equal(draft.ID, drafts[0].ID)
}

func (s *ServiceSuite) TestOnlyDraftsCanBeEdited() {
	p := s.create("Budget")

	updated, err := s.service.Update(s.ctx, p.ID, &UpdateRequest{Title: "Budget 2027", Body: "Details"})
	s.Require().NoError(err)
	s.Equal("Budget 2027", updated.Title)

	_, err = s.service.UpdateStatus(s.ctx, p.ID, s.author, &UpdateStatusRequest{Status: StatusActive})
	s.Require().NoError(err)

	_, err = s.service.Update(s.ctx, p.ID, &UpdateRequest{Title: "Sneaky"})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestStatusLifecycle() {
	p := s.create("Budget")

	_, err := s.service.UpdateStatus(s.ctx, p.ID, s.author, &UpdateStatusRequest{Status: StatusPassed})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.service.UpdateStatus(s.ctx, p.ID, s.author, &UpdateStatusRequest{Status: StatusActive})
	s.Require().NoError(err)
	s.ctx = requestcontext.WithTime(s.ctx, requestcontext.Now(s.ctx).Add(72*time.Hour))
	passed, err := s.service.UpdateStatus(s.ctx, p.ID, s.author, &UpdateStatusRequest{Status: StatusPassed})
	s.Require().NoError(err)
	s.Equal(StatusPassed, passed.Status)
	s.True(passed.VotingEndsAt.After(*passed.VotingStartsAt))

	_, err = s.service.UpdateStatus(s.ctx, uuid.New(), s.author, &UpdateStatusRequest{Status: StatusActive})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
