package glossary

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "civic/pkg/domain"
	"civic/pkg/platform/httputil"
	"civic/pkg/requestcontext"
)

type API interface {
	Upsert(ctx context.Context, actor id.UserID, req *UpsertRequest) (*Term, bool, error)
	Lookup(ctx context.Context, slug string) (*Term, error)
	List(ctx context.Context, query string) ([]*Term, error)
	Delete(ctx context.Context, actor id.UserID, slug string) error
}

type Handler struct {
	service API
	logger  *slog.Logger
}

func NewHandler(service API, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/glossary", h.HandleList)
	r.Get("/glossary/{slug}", h.HandleLookup)
}

func (h *Handler) RegisterEditor(r chi.Router) {
	r.Post("/glossary", h.HandleUpsert)
	r.Put("/glossary/{slug}", h.HandleUpsert)
	r.Delete("/glossary/{slug}", h.HandleDelete)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	terms, err := h.service.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to list glossary terms", err)
		return
	}
	out := make([]TermView, 0, len(terms))
	for _, t := range terms {
		out = append(out, NewTermView(t))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"terms": out})
}

func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Lookup(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to load glossary term", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewTermView(t))
}

// HandleUpsert serves both POST /glossary and PUT /glossary/{slug}; the
// path slug wins over the body.
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpsertRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if slug := chi.URLParam(r, "slug"); slug != "" {
		req.Slug = slug
	}

	t, created, err := h.service.Upsert(ctx, actor, req)
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to save glossary term", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, NewTermView(t))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := httputil.RequireUserID(ctx, h.logger, requestcontext.RequestID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, actor, chi.URLParam(r, "slug")); err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to delete glossary term", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
