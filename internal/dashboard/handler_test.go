package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/requestcontext"
)

type stubBuilder struct {
	gotUser id.UserID
	gotRole id.Role
	err     error
}

func (b *stubBuilder) Build(_ context.Context, userID id.UserID, role id.Role) (*Dashboard, error) {
	b.gotUser, b.gotRole = userID, role
	if b.err != nil {
		return nil, b.err
	}
	incidents := 3
	return &Dashboard{Role: role, NewIncidents: &incidents}, nil
}

func serveDashboard(b Builder, userID id.UserID, role id.Role) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	NewHandler(b, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	ctx := req.Context()
	if !userID.IsNil() {
		ctx = requestcontext.WithRole(requestcontext.WithUserID(ctx, userID), role)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func TestHandleDashboard(t *testing.T) {
	t.Run("passes identity from context", func(t *testing.T) {
		b := &stubBuilder{}
		userID := id.UserID(uuid.New())
		rec := serveDashboard(b, userID, id.RoleAdmin)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID, b.gotUser)
		assert.Equal(t, id.RoleAdmin, b.gotRole)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, float64(3), body["new_incidents"])
		_, hasSubmissions := body["pending_submissions"]
		assert.False(t, hasSubmissions)
	})

	t.Run("missing identity without auth middleware", func(t *testing.T) {
		rec := serveDashboard(&stubBuilder{}, id.UserID{}, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("timeout surfaces as 504", func(t *testing.T) {
		b := &stubBuilder{err: dErrors.New(dErrors.CodeTimeout, "dashboard took too long to load")}
		rec := serveDashboard(b, id.UserID(uuid.New()), id.RoleMember)
		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	})
}
