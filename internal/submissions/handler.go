package submissions

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
	Submit(ctx context.Context, req *CreateRequest) (*Submission, error)
	Get(ctx context.Context, submissionID uuid.UUID) (*Submission, error)
	List(ctx context.Context, status Status, limit int) ([]*Submission, error)
	Review(ctx context.Context, submissionID uuid.UUID, reviewer id.UserID, req *ReviewRequest) (*Submission, error)
}

type Handler struct {
	service API
	logger  *slog.Logger
}

func NewHandler(service API, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the submission form endpoint. Rate limiting is
// applied by the parent router.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/submissions", h.HandleSubmit)
}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/submissions", h.HandleList)
	r.Get("/submissions/{id}", h.HandleGet)
	r.Post("/submissions/{id}/review", h.HandleReview)
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	sub, err := h.service.Submit(ctx, req)
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to create submission", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ReceiptView{ID: sub.ID.String(), Status: sub.Status, CreatedAt: sub.CreatedAt})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	subs, err := h.service.List(r.Context(), Status(r.URL.Query().Get("status")), limit)
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to list submissions", err)
		return
	}
	out := make([]SubmissionView, 0, len(subs))
	for _, sub := range subs {
		out = append(out, NewSubmissionView(sub))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"submissions": out})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	submissionID, err := httputil.PathID(r, "id", "submission ID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sub, err := h.service.Get(r.Context(), submissionID)
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to load submission", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewSubmissionView(sub))
}

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	reviewer, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	submissionID, err := httputil.PathID(r, "id", "submission ID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	sub, err := h.service.Review(ctx, submissionID, reviewer, req)
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to review submission", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewSubmissionView(sub))
}
