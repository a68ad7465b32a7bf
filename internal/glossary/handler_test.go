package glossary

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "civic/pkg/domain"
	"civic/pkg/requestcontext"
)

type HandlerSuite struct {
	suite.Suite
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewService(NewInMemoryStore(), WithLogger(logger))
	s.Require().NoError(err)
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
	s.router = r
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestUpsertLifecycle() {
	rec := s.do(http.MethodPost, "/glossary", `{"term":"Quorum","definition":"Minimum attendance for a valid vote."}`)
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.Contains(rec.Body.String(), `"slug":"quorum"`)

	rec = s.do(http.MethodPut, "/glossary/quorum", `{"term":"Quorum","definition":"Updated."}`)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPut, "/glossary/new-term", `{"term":"Anything","definition":"Path slug wins."}`)
	s.Equal(http.StatusCreated, rec.Code)
	s.Contains(rec.Body.String(), `"slug":"new-term"`)

	rec = s.do(http.MethodGet, "/glossary/quorum", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Updated.")

	rec = s.do(http.MethodDelete, "/glossary/quorum", "")
	s.Equal(http.StatusNoContent, rec.Code)
	s.Empty(rec.Body.String())

	rec = s.do(http.MethodGet, "/glossary/quorum", "")
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "/glossary/quorum", "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestValidation() {
	rec := s.do(http.MethodPost, "/glossary", `{"term":"Quorum"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "definition must not be blank")

	rec = s.do(http.MethodPut, "/glossary/Bad_Slug", `{"term":"Quorum","definition":"x"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}
