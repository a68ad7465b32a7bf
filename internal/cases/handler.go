package cases

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	id "civic/pkg/domain"
	"civic/pkg/platform/httputil"
	"civic/pkg/requestcontext"
)

type API interface {
	Create(ctx context.Context, actor id.UserID, req *CaseRequest) (*LegalCase, error)
	Get(ctx context.Context, caseID uuid.UUID) (*LegalCase, error)
	List(ctx context.Context, status Status, limit int) ([]*LegalCase, error)
	Update(ctx context.Context, caseID uuid.UUID, actor id.UserID, req *CaseRequest) (*LegalCase, error)
}

type Handler struct {
	service API
	logger  *slog.Logger
}

func NewHandler(service API, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/cases", h.HandleList)
	r.Get("/cases/{id}", h.HandleGet)
}

func (h *Handler) RegisterEditor(r chi.Router) {
	r.Post("/cases", h.HandleCreate)
	r.Put("/cases/{id}", h.HandleUpdate)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.service.List(r.Context(), Status(r.URL.Query().Get("status")), limit)
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to list legal cases", err)
		return
	}
	out := make([]CaseView, 0, len(list))
	for _, c := range list {
		out = append(out, NewCaseView(c))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"cases": out})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caseID, err := httputil.PathID(r, "id", "case ID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Get(r.Context(), caseID)
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to load legal case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewCaseView(c))
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.Create(ctx, actor, req)
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to create legal case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, NewCaseView(c))
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	caseID, err := httputil.PathID(r, "id", "case ID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.Update(ctx, caseID, actor, req)
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to update legal case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewCaseView(c))
}
