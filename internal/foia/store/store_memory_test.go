package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic/internal/foia/models"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

func newRequest(requester id.UserID, at time.Time) *models.Request {
	return &models.Request{
		ID:          uuid.New(),
		RequesterID: requester,
		Agency:      "Department of Transportation",
		Subject:     "Road safety audits",
		Status:      models.StatusDraft,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func TestRequests(t *testing.T) {
	ctx := context.Background()
	store := New()
	now := time.Now()
	alice := id.UserID(uuid.New())
	bob := id.UserID(uuid.New())

	first := newRequest(alice, now.Add(-time.Hour))
	second := newRequest(alice, now)
	third := newRequest(bob, now)
	for _, r := range []*models.Request{first, second, third} {
		require.NoError(t, store.CreateRequest(ctx, r))
	}

	t.Run("filter by requester newest first", func(t *testing.T) {
		got, err := store.ListRequests(ctx, models.ListFilter{RequesterID: &alice})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, second.ID, got[0].ID)
	})

	t.Run("filter by status and limit", func(t *testing.T) {
		got, err := store.ListRequests(ctx, models.ListFilter{Status: models.StatusDraft, Limit: 1})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("update applies mutation", func(t *testing.T) {
		updated, err := store.UpdateRequest(ctx, first.ID, func(r *models.Request) error {
			return r.Transition(models.StatusSubmitted, now)
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusSubmitted, updated.Status)

		found, err := store.FindRequest(ctx, first.ID)
		require.NoError(t, err)
		assert.NotNil(t, found.DueAt)
	})

	t.Run("failed mutation writes nothing", func(t *testing.T) {
		_, err := store.UpdateRequest(ctx, second.ID, func(r *models.Request) error {
			r.Subject = "changed"
			return errors.New("rejected")
		})
		require.Error(t, err)
		found, err := store.FindRequest(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, "Road safety audits", found.Subject)
	})

	t.Run("tracking numbers are unique", func(t *testing.T) {
		_, err := store.UpdateRequest(ctx, first.ID, func(r *models.Request) error {
			r.TrackingNumber = "DOT-1"
			return nil
		})
		require.NoError(t, err)
		_, err = store.UpdateRequest(ctx, third.ID, func(r *models.Request) error {
			r.TrackingNumber = "DOT-1"
			return nil
		})
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("unknown request", func(t *testing.T) {
		_, err := store.FindRequest(ctx, uuid.New())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		_, err = store.UpdateRequest(ctx, uuid.New(), func(*models.Request) error { return nil })
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestResponsesAndAttachments(t *testing.T) {
	ctx := context.Background()
	store := New()
	now := time.Now()
	req := newRequest(id.UserID(uuid.New()), now)
	require.NoError(t, store.CreateRequest(ctx, req))

	require.NoError(t, store.AddResponse(ctx, &models.Response{ID: uuid.New(), RequestID: req.ID, Body: "Acknowledged", CreatedAt: now}))
	require.NoError(t, store.AddAttachment(ctx, &models.Attachment{ID: uuid.New(), RequestID: req.ID, FileName: "audit.pdf", URL: "https://example.org/a.pdf", CreatedAt: now}))

	responses, err := store.ListResponses(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, responses, 1)

	attachments, err := store.ListAttachments(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, attachments, 1)

	err = store.AddResponse(ctx, &models.Response{ID: uuid.New(), RequestID: uuid.New(), Body: "orphan"})
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	err = store.AddAttachment(ctx, &models.Attachment{ID: uuid.New(), RequestID: uuid.New()})
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	empty, err := store.ListResponses(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}
