package governance

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
	Create(ctx context.Context, author id.UserID, req *CreateRequest) (*Proposal, error)
	Get(ctx context.Context, proposalID uuid.UUID, viewer id.Role) (*Proposal, error)
	List(ctx context.Context, status Status, viewer id.Role, limit int) ([]*Proposal, error)
	Update(ctx context.Context, proposalID uuid.UUID, req *UpdateRequest) (*Proposal, error)
	UpdateStatus(ctx context.Context, proposalID uuid.UUID, actor id.UserID, req *UpdateStatusRequest) (*Proposal, error)
}

type Handler struct {
	service API
	logger  *slog.Logger
}

func NewHandler(service API, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the read routes. Under OptionalAuth, editors also
// see drafts.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/proposals", h.HandleList)
	r.Get("/proposals/{id}", h.HandleGet)
}

func (h *Handler) RegisterEditor(r chi.Router) {
	r.Post("/proposals", h.HandleCreate)
	r.Put("/proposals/{id}", h.HandleUpdate)
	r.Put("/proposals/{id}/status", h.HandleUpdateStatus)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	proposals, err := h.service.List(ctx, Status(r.URL.Query().Get("status")), requestcontext.Role(ctx), limit)
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to list proposals", err)
		return
	}
	out := make([]ProposalView, 0, len(proposals))
	for _, p := range proposals {
		out = append(out, NewProposalView(p))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"proposals": out})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	proposalID, err := httputil.PathID(r, "id", "proposal ID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.Get(r.Context(), proposalID, requestcontext.Role(r.Context()))
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to load proposal", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewProposalView(p))
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	author, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	p, err := h.service.Create(ctx, author, req)
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to create proposal", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, NewProposalView(p))
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	proposalID, err := httputil.PathID(r, "id", "proposal ID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	p, err := h.service.Update(ctx, proposalID, req)
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to update proposal", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewProposalView(p))
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	proposalID, err := httputil.PathID(r, "id", "proposal ID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	p, err := h.service.UpdateStatus(ctx, proposalID, actor, req)
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to update proposal status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewProposalView(p))
}
