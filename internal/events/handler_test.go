package events

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "civic/pkg/domain"
	"civic/pkg/requestcontext"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewService(NewInMemoryStore(), WithLogger(logger))
	require.NoError(t, err)
	h := NewHandler(svc, logger)
	editor := id.UserID(uuid.New())

	r := chi.NewRouter()
	h.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(requestcontext.WithUserID(req.Context(), editor)))
			})
		})
		h.RegisterEditor(r)
	})
	return r
}

func request(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_CRUDStatusCodes(t *testing.T) {
	h := newRouter(t)

	rec := request(h, http.MethodPost, "/events",
		`{"title":"Cleanup","location":"Riverside","starts_at":"2026-09-12T09:00:00Z","ends_at":"2026-09-12T12:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created EventView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = request(h, http.MethodGet, "/events/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = request(h, http.MethodPut, "/events/"+created.ID,
		`{"title":"Cleanup","starts_at":"2026-09-12T10:00:00+02:00","ends_at":"2026-09-12T13:00:00+02:00"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated EventView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "2026-09-12T08:00:00Z", updated.StartsAt.Format("2006-01-02T15:04:05Z07:00"))

	rec = request(h, http.MethodDelete, "/events/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = request(h, http.MethodGet, "/events/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = request(h, http.MethodDelete, "/events/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = request(h, http.MethodPut, "/events/"+created.ID,
		`{"title":"x","starts_at":"2026-09-12T09:00:00Z","ends_at":"2026-09-12T09:00:00Z"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ListWindow(t *testing.T) {
	h := newRouter(t)
	for _, body := range []string{
		`{"title":"A","starts_at":"2026-09-01T09:00:00Z","ends_at":"2026-09-01T10:00:00Z"}`,
		`{"title":"B","starts_at":"2026-09-15T09:00:00Z","ends_at":"2026-09-15T10:00:00Z"}`,
	} {
		require.Equal(t, http.StatusCreated, request(h, http.MethodPost, "/events", body).Code)
	}

	rec := request(h, http.MethodGet, "/events?from=2026-09-10T00:00:00Z&to=2026-09-30T00:00:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Events []EventView `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Events, 1)
	assert.Equal(t, "B", body.Events[0].Title)

	rec = request(h, http.MethodGet, "/events?from=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "from must be an RFC 3339 timestamp")

	rec = request(h, http.MethodGet, "/events?from=2026-09-30T00:00:00Z&to=2026-09-01T00:00:00Z", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_CreateValidation(t *testing.T) {
	h := newRouter(t)
	rec := request(h, http.MethodPost, "/events",
		`{"title":"Backwards","starts_at":"2026-09-12T12:00:00Z","ends_at":"2026-09-12T09:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ends_at must not be before starts_at")
}
