package incidents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic/internal/platform/metrics"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/requestcontext"
)

func newTestService(t *testing.T) (*Service, *metrics.Metrics, time.Time) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	svc, err := NewService(NewInMemoryStore(), WithMetrics(m))
	require.NoError(t, err)
	return svc, m, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
}

func TestSubmit(t *testing.T) {
	svc, m, now := newTestService(t)
	ctx := requestcontext.WithTime(context.Background(), now)

	t.Run("anonymous report", func(t *testing.T) {
		r, err := svc.Submit(ctx, nil, &CreateRequest{Category: "harassment", Description: "At the station"})
		require.NoError(t, err)
		assert.Equal(t, StatusNew, r.Status)
		assert.Nil(t, r.ReporterID)
	})

	t.Run("signed in reporter is recorded", func(t *testing.T) {
		reporter := id.UserID(uuid.New())
		r, err := svc.Submit(ctx, &reporter, &CreateRequest{Category: "vandalism", Description: "Mural damaged"})
		require.NoError(t, err)
		require.NotNil(t, r.ReporterID)
		assert.Equal(t, reporter, *r.ReporterID)
	})

	t.Run("description is required", func(t *testing.T) {
		_, err := svc.Submit(ctx, nil, &CreateRequest{Category: "other"})
		require.Error(t, err)
		assert.Equal(t, "description must not be blank", err.Error())
	})

	t.Run("contact email must be valid", func(t *testing.T) {
		_, err := svc.Submit(ctx, nil, &CreateRequest{Category: "other", Description: "x", ContactEmail: "nope"})
		require.Error(t, err)
		assert.Equal(t, "contact_email must be a valid email", err.Error())
	})

	t.Run("occurred_at cannot be in the future", func(t *testing.T) {
		later := now.Add(time.Hour)
		_, err := svc.Submit(ctx, nil, &CreateRequest{Category: "other", Description: "x", OccurredAt: &later})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	assert.Equal(t, 2.0, promtest.ToFloat64(m.RecordWrites.WithLabelValues("incident_reports", "INSERT")))

	n, err := svc.CountNew(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUpdateStatus(t *testing.T) {
	svc, _, now := newTestService(t)
	ctx := requestcontext.WithTime(context.Background(), now)
	admin := id.UserID(uuid.New())
	r, err := svc.Submit(ctx, nil, &CreateRequest{Category: "other", Description: "x"})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, r.ID, admin, &UpdateStatusRequest{Status: StatusTriaged})
	require.NoError(t, err)
	assert.Equal(t, StatusTriaged, updated.Status)

	_, err = svc.UpdateStatus(ctx, r.ID, admin, &UpdateStatusRequest{Status: StatusNew})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = svc.UpdateStatus(ctx, uuid.New(), admin, &UpdateStatusRequest{Status: StatusResolved})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	triaged, err := svc.List(ctx, StatusTriaged, 0)
	require.NoError(t, err)
	assert.Len(t, triaged, 1)

	_, err = svc.List(ctx, Status("bogus"), 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

type brokenStore struct {
	Store
}

func (brokenStore) FindByID(context.Context, uuid.UUID) (*Report, error) {
	return nil, errors.New("connection refused")
}

func TestGet_StoreFailureIsInternal(t *testing.T) {
	svc, err := NewService(brokenStore{})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.New())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}
