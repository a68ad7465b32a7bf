package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"civic/internal/foia/models"
	"civic/internal/foia/service/mocks"
	"civic/internal/foia/store"
	"civic/internal/realtime"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/requestcontext"
)

type recordingPublisher struct {
	changes []realtime.Change
}

func (p *recordingPublisher) Publish(_ context.Context, c realtime.Change) error {
	p.changes = append(p.changes, c)
	return nil
}

type ServiceSuite struct {
	suite.Suite
	service   *Service
	published *recordingPublisher
	now       time.Time
	member    Viewer
	other     Viewer
	editor    Viewer
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.published = &recordingPublisher{}
	svc, err := New(store.New(), WithPublisher(s.published))
	s.Require().NoError(err)
	s.service = svc
	s.now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s.member = Viewer{UserID: id.UserID(uuid.New()), Role: id.RoleMember}
	s.other = Viewer{UserID: id.UserID(uuid.New()), Role: id.RoleMember}
	s.editor = Viewer{UserID: id.UserID(uuid.New()), Role: id.RoleEditor}
}

func (s *ServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) draft() *models.Request {
	r, err := s.service.Create(s.ctx(), s.member.UserID, &models.CreateRequest{
		Agency:  "Department of Transportation",
		Subject: "Road safety audits",
	})
	s.Require().NoError(err)
	return r
}

func (s *ServiceSuite) requireCode(err error, code dErrors.Code) {
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func (s *ServiceSuite) TestCreate() {
	s.Run("draft by default", func() {
		r := s.draft()
		s.Equal(models.StatusDraft, r.Status)
		s.Nil(r.DueAt)
	})

	s.Run("submit on create sets the due date", func() {
		r, err := s.service.Create(s.ctx(), s.member.UserID, &models.CreateRequest{
			Agency: "Police", Subject: "Budget", Submit: true,
		})
		s.Require().NoError(err)
		s.Equal(models.StatusSubmitted, r.Status)
		s.Require().NotNil(r.DueAt)
		s.Equal(time.Date(2026, 3, 30, 9, 0, 0, 0, time.UTC), *r.DueAt)
	})

	s.Run("agency is required", func() {
		_, err := s.service.Create(s.ctx(), s.member.UserID, &models.CreateRequest{Subject: "x"})
		s.requireCode(err, dErrors.CodeValidation)
		s.Equal("agency must not be blank", err.Error())
	})

	s.Require().NotEmpty(s.published.changes)
	s.Equal(realtime.TableFOIARequests, s.published.changes[0].Table)
}

func (s *ServiceSuite) TestVisibility() {
	r := s.draft()

	_, err := s.service.Get(s.ctx(), r.ID, s.member)
	s.NoError(err)
	_, err = s.service.Get(s.ctx(), r.ID, s.editor)
	s.NoError(err)
	_, err = s.service.Get(s.ctx(), r.ID, s.other)
	s.requireCode(err, dErrors.CodeNotFound)

	mine, err := s.service.ListMine(s.ctx(), s.other.UserID, 0)
	s.Require().NoError(err)
	s.Empty(mine)

	all, err := s.service.ListAll(s.ctx(), models.StatusDraft, 0)
	s.Require().NoError(err)
	s.Len(all, 1)

	_, err = s.service.ListAll(s.ctx(), models.Status("lost"), 0)
	s.requireCode(err, dErrors.CodeValidation)
}

func (s *ServiceSuite) TestDraftEditingAndSubmit() {
	r := s.draft()

	updated, err := s.service.UpdateDraft(s.ctx(), r.ID, s.member, &models.UpdateDraftRequest{
		Agency: "DOT", Subject: "Audits 2025",
	})
	s.Require().NoError(err)
	s.Equal("DOT", updated.Agency)

	_, err = s.service.UpdateDraft(s.ctx(), r.ID, s.other, &models.UpdateDraftRequest{Agency: "x", Subject: "y"})
	s.requireCode(err, dErrors.CodeNotFound)

	submitted, err := s.service.Submit(s.ctx(), r.ID, s.member)
	s.Require().NoError(err)
	s.Equal(models.StatusSubmitted, submitted.Status)
	s.NotEmpty(submitted.TrackingNumber)

	_, err = s.service.Submit(s.ctx(), r.ID, s.member)
	s.requireCode(err, dErrors.CodeConflict)

	_, err = s.service.UpdateDraft(s.ctx(), r.ID, s.member, &models.UpdateDraftRequest{Agency: "x", Subject: "y"})
	s.requireCode(err, dErrors.CodeConflict)
}

func (s *ServiceSuite) TestUpdateStatus() {
	r := s.draft()
	_, err := s.service.Submit(s.ctx(), r.ID, s.member)
	s.Require().NoError(err)

	s.Run("legal transition with agency tracking number", func() {
		updated, err := s.service.UpdateStatus(s.ctx(), r.ID, s.editor.UserID, &models.UpdateStatusRequest{
			Status: models.StatusAcknowledged, TrackingNumber: "DOT-2026-17",
		})
		s.Require().NoError(err)
		s.Equal(models.StatusAcknowledged, updated.Status)
		s.Equal("DOT-2026-17", updated.TrackingNumber)
	})

	s.Run("illegal transition", func() {
		_, err := s.service.UpdateStatus(s.ctx(), r.ID, s.editor.UserID, &models.UpdateStatusRequest{Status: models.StatusDraft})
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("unknown status", func() {
		_, err := s.service.UpdateStatus(s.ctx(), r.ID, s.editor.UserID, &models.UpdateStatusRequest{Status: "lost"})
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("closing stamps closed_at and blocks correspondence", func() {
		closed, err := s.service.UpdateStatus(s.ctx(), r.ID, s.editor.UserID, &models.UpdateStatusRequest{Status: models.StatusClosed})
		s.Require().NoError(err)
		s.Require().NotNil(closed.ClosedAt)
		s.Equal(s.now, *closed.ClosedAt)

		_, err = s.service.AddResponse(s.ctx(), r.ID, s.member, &models.AddResponseRequest{Body: "late reply"})
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("unknown request", func() {
		_, err := s.service.UpdateStatus(s.ctx(), uuid.New(), s.editor.UserID, &models.UpdateStatusRequest{Status: models.StatusClosed})
		s.requireCode(err, dErrors.CodeNotFound)
	})
}

func (s *ServiceSuite) TestCorrespondence() {
	r := s.draft()

	resp, err := s.service.AddResponse(s.ctx(), r.ID, s.editor, &models.AddResponseRequest{Body: "Agency acknowledged by phone"})
	s.Require().NoError(err)
	s.Equal(s.editor.UserID, resp.AuthorID)

	_, err = s.service.AddResponse(s.ctx(), r.ID, s.other, &models.AddResponseRequest{Body: "hello"})
	s.requireCode(err, dErrors.CodeNotFound)

	_, err = s.service.AddAttachment(s.ctx(), r.ID, s.member, &models.AddAttachmentRequest{
		FileName: "audit.pdf", URL: "https://example.org/audit.pdf", ContentType: "application/pdf",
	})
	s.Require().NoError(err)

	_, err = s.service.AddAttachment(s.ctx(), r.ID, s.member, &models.AddAttachmentRequest{FileName: "x", URL: "not a url"})
	s.requireCode(err, dErrors.CodeValidation)

	responses, err := s.service.ListResponses(s.ctx(), r.ID, s.member)
	s.Require().NoError(err)
	s.Len(responses, 1)

	attachments, err := s.service.ListAttachments(s.ctx(), r.ID, s.member)
	s.Require().NoError(err)
	s.Require().Len(attachments, 1)
	s.Equal("application/pdf", attachments[0].ContentType)

	_, err = s.service.ListAttachments(s.ctx(), r.ID, s.other)
	s.requireCode(err, dErrors.CodeNotFound)

	var tables []string
	for _, c := range s.published.changes {
		tables = append(tables, c.Table)
	}
	s.Contains(tables, realtime.TableFOIAResponses)
	s.Contains(tables, realtime.TableFOIADocuments)
}

func TestListMine_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	st.EXPECT().ListRequests(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	svc, err := New(st)
	require.NoError(t, err)

	_, err = svc.ListMine(context.Background(), id.UserID(uuid.New()), 10)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	assert.Equal(t, "failed to list foia requests", err.Error())
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}
