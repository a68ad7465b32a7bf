package cases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/requestcontext"
)

func TestService(t *testing.T) {
	svc, err := NewService(NewInMemoryStore())
	require.NoError(t, err)
	ctx := requestcontext.WithTime(context.Background(), time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	editor := id.UserID(uuid.New())

	first, err := svc.Create(ctx, editor, &CaseRequest{Title: "Records access", Court: "District Court", DocketNumber: "CV-2026-01"})
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, first.Status)

	t.Run("same docket in same court conflicts", func(t *testing.T) {
		_, err := svc.Create(ctx, editor, &CaseRequest{Title: "Dup", Court: "District Court", DocketNumber: "CV-2026-01"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("same docket in another court is fine", func(t *testing.T) {
		_, err := svc.Create(ctx, editor, &CaseRequest{Title: "Appeal", Court: "Court of Appeals", DocketNumber: "CV-2026-01"})
		assert.NoError(t, err)
	})

	t.Run("cases without docket never collide", func(t *testing.T) {
		_, err := svc.Create(ctx, editor, &CaseRequest{Title: "Pre-filing A", Court: "District Court"})
		require.NoError(t, err)
		_, err = svc.Create(ctx, editor, &CaseRequest{Title: "Pre-filing B", Court: "District Court"})
		assert.NoError(t, err)
	})

	t.Run("update replaces fields", func(t *testing.T) {
		later := requestcontext.WithTime(ctx, requestcontext.Now(ctx).Add(time.Hour))
		updated, err := svc.Update(later, first.ID, editor, &CaseRequest{Title: "Records access", Court: "District Court", DocketNumber: "CV-2026-01", Status: StatusClosed, Summary: "Settled"})
		require.NoError(t, err)
		assert.Equal(t, StatusClosed, updated.Status)
		assert.Equal(t, "Settled", updated.Summary)
		assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
	})

	t.Run("closed cases list last", func(t *testing.T) {
		list, err := svc.List(ctx, "", 0)
		require.NoError(t, err)
		require.Len(t, list, 4)
		assert.Equal(t, first.ID, list[len(list)-1].ID)

		closed, err := svc.List(ctx, StatusClosed, 0)
		require.NoError(t, err)
		assert.Len(t, closed, 1)
	})

	t.Run("unknown case", func(t *testing.T) {
		_, err := svc.Get(ctx, uuid.New())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
		_, err = svc.Update(ctx, uuid.New(), editor, &CaseRequest{Title: "x"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestCaseRequestNormalize(t *testing.T) {
	req := &CaseRequest{Title: " Title ", DocketNumber: " cv-9 ", Status: " Pending "}
	req.Normalize()
	assert.Equal(t, "Title", req.Title)
	assert.Equal(t, "CV-9", req.DocketNumber)
	assert.Equal(t, StatusPending, req.Status)

	empty := &CaseRequest{Title: "x"}
	empty.Normalize()
	assert.Equal(t, StatusOpen, empty.Status)

	bad := &CaseRequest{Title: "x", Status: "archived"}
	err := bad.Validate()
	require.Error(t, err)
	assert.Equal(t, "status must be one of [open pending closed]", err.Error())
}
