package submissions

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

func newTestRouter(t *testing.T, admin id.UserID) chi.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewService(NewInMemoryStore(), WithLogger(logger))
	require.NoError(t, err)
	h := NewHandler(svc, logger)

	r := chi.NewRouter()
	h.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := requestcontext.WithUserID(req.Context(), admin)
				next.ServeHTTP(w, req.WithContext(requestcontext.WithRole(ctx, id.RoleAdmin)))
			})
		})
		h.RegisterAdmin(r)
	})
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_SubmitAndReview(t *testing.T) {
	admin := id.UserID(uuid.New())
	r := newTestRouter(t, admin)

	rec := serve(r, http.MethodPost, "/submissions",
		`{"artist_name":" Ana ","email":"ANA@Example.org","statement":"Murals","medium":"Paint","portfolio_url":"https://ana.example.org"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var receipt ReceiptView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	assert.Equal(t, StatusPending, receipt.Status)

	rec = serve(r, http.MethodGet, "/submissions/"+receipt.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view SubmissionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Ana", view.ArtistName)
	assert.Equal(t, "ana@example.org", view.Email)
	assert.Equal(t, "paint", view.Medium)

	rec = serve(r, http.MethodPost, "/submissions/"+receipt.ID+"/review", `{"status":"Accepted","note":"yes"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, StatusAccepted, view.Status)
	require.NotNil(t, view.ReviewerID)
	assert.Equal(t, admin.String(), *view.ReviewerID)

	rec = serve(r, http.MethodPost, "/submissions/"+receipt.ID+"/review", `{"status":"rejected"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandler_Errors(t *testing.T) {
	r := newTestRouter(t, id.UserID(uuid.New()))

	rec := serve(r, http.MethodPost, "/submissions", `{"artist_name":"Ana"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, http.MethodGet, "/submissions/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, http.MethodGet, "/submissions/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(r, http.MethodGet, "/submissions?status=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
