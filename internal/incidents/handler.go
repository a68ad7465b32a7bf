package incidents

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

// API is the subset of Service the HTTP layer uses.
type API interface {
	Submit(ctx context.Context, reporter *id.UserID, req *CreateRequest) (*Report, error)
	Get(ctx context.Context, reportID uuid.UUID) (*Report, error)
	List(ctx context.Context, status Status, limit int) ([]*Report, error)
	UpdateStatus(ctx context.Context, reportID uuid.UUID, actor id.UserID, req *UpdateStatusRequest) (*Report, error)
}

type Handler struct {
	service API
	logger  *slog.Logger
}

func NewHandler(service API, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the submission route. The parent router applies
// OptionalAuth and rate limiting.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/incidents", h.HandleSubmit)
}

// RegisterAdmin mounts the triage routes. The parent router gates them on admin.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/incidents", h.HandleList)
	r.Get("/incidents/{id}", h.HandleGet)
	r.Put("/incidents/{id}/status", h.HandleUpdateStatus)
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	var reporter *id.UserID
	if userID := requestcontext.UserID(ctx); !userID.IsNil() {
		reporter = &userID
	}

	report, err := h.service.Submit(ctx, reporter, req)
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to submit incident report", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ReceiptView{ID: report.ID.String(), Status: report.Status, CreatedAt: report.CreatedAt})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	reports, err := h.service.List(r.Context(), Status(r.URL.Query().Get("status")), limit)
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to list incident reports", err)
		return
	}
	out := make([]ReportView, 0, len(reports))
	for _, report := range reports {
		out = append(out, NewReportView(report))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"reports": out})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	reportID, err := httputil.PathID(r, "id", "report ID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	report, err := h.service.Get(r.Context(), reportID)
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to load incident report", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewReportView(report))
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reportID, err := httputil.PathID(r, "id", "report ID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	report, err := h.service.UpdateStatus(ctx, reportID, actor, req)
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to update incident report", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewReportView(report))
}
