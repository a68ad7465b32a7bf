package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"civic/internal/foia/models"
	"civic/internal/foia/service"
	id "civic/pkg/domain"
	"civic/pkg/platform/httputil"
	"civic/pkg/requestcontext"
)

type Service interface {
	Create(ctx context.Context, requester id.UserID, req *models.CreateRequest) (*models.Request, error)
	Get(ctx context.Context, requestID uuid.UUID, viewer service.Viewer) (*models.Request, error)
	ListMine(ctx context.Context, requester id.UserID, limit int) ([]*models.Request, error)
	ListAll(ctx context.Context, status models.Status, limit int) ([]*models.Request, error)
	UpdateDraft(ctx context.Context, requestID uuid.UUID, viewer service.Viewer, req *models.UpdateDraftRequest) (*models.Request, error)
	Submit(ctx context.Context, requestID uuid.UUID, viewer service.Viewer) (*models.Request, error)
	UpdateStatus(ctx context.Context, requestID uuid.UUID, actor id.UserID, req *models.UpdateStatusRequest) (*models.Request, error)
	AddResponse(ctx context.Context, requestID uuid.UUID, viewer service.Viewer, req *models.AddResponseRequest) (*models.Response, error)
	ListResponses(ctx context.Context, requestID uuid.UUID, viewer service.Viewer) ([]*models.Response, error)
	AddAttachment(ctx context.Context, requestID uuid.UUID, viewer service.Viewer, req *models.AddAttachmentRequest) (*models.Attachment, error)
	ListAttachments(ctx context.Context, requestID uuid.UUID, viewer service.Viewer) ([]*models.Attachment, error)
}

// Handler serves the FOIA tracker. Every route expects RequireAuth on the
// parent router.
type Handler struct {
	foia   Service
	logger *slog.Logger
}

func New(foia Service, logger *slog.Logger) *Handler {
	return &Handler{foia: foia, logger: logger}
}

// Register mounts the member routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/foia/requests", h.HandleCreate)
	r.Get("/foia/requests", h.HandleListMine)
	r.Get("/foia/requests/{id}", h.HandleGet)
	r.Put("/foia/requests/{id}", h.HandleUpdateDraft)
	r.Post("/foia/requests/{id}/submit", h.HandleSubmit)
	r.Get("/foia/requests/{id}/responses", h.HandleListResponses)
	r.Post("/foia/requests/{id}/responses", h.HandleAddResponse)
	r.Get("/foia/requests/{id}/documents", h.HandleListAttachments)
	r.Post("/foia/requests/{id}/documents", h.HandleAddAttachment)
}

// RegisterEditor mounts the staff routes. The parent router gates them on editor.
func (h *Handler) RegisterEditor(r chi.Router) {
	r.Get("/foia/all-requests", h.HandleListAll)
	r.Put("/foia/requests/{id}/status", h.HandleUpdateStatus)
}

type requestsResponse struct {
	Requests []models.RequestView `json:"requests"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	created, err := h.foia.Create(ctx, viewer.UserID, req)
	if err != nil {
		h.fail(w, r, "failed to create foia request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.NewRequestView(created, requestcontext.Now(ctx)))
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	list, err := h.foia.ListMine(ctx, viewer.UserID, limitParam(r))
	if err != nil {
		h.fail(w, r, "failed to list foia requests", err)
		return
	}
	h.writeList(w, r, list)
}

func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.foia.ListAll(r.Context(), models.Status(r.URL.Query().Get("status")), limitParam(r))
	if err != nil {
		h.fail(w, r, "failed to list foia requests", err)
		return
	}
	h.writeList(w, r, list)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	viewer, requestID, ok := h.target(w, r)
	if !ok {
		return
	}
	got, err := h.foia.Get(r.Context(), requestID, viewer)
	if err != nil {
		h.fail(w, r, "failed to load foia request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewRequestView(got, requestcontext.Now(r.Context())))
}

func (h *Handler) HandleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer, requestID, ok := h.target(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateDraftRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.foia.UpdateDraft(ctx, requestID, viewer, req)
	if err != nil {
		h.fail(w, r, "failed to update foia request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewRequestView(updated, requestcontext.Now(ctx)))
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer, requestID, ok := h.target(w, r)
	if !ok {
		return
	}
	submitted, err := h.foia.Submit(ctx, requestID, viewer)
	if err != nil {
		h.fail(w, r, "failed to submit foia request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewRequestView(submitted, requestcontext.Now(ctx)))
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer, requestID, ok := h.target(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.foia.UpdateStatus(ctx, requestID, viewer.UserID, req)
	if err != nil {
		h.fail(w, r, "failed to update foia request status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewRequestView(updated, requestcontext.Now(ctx)))
}

func (h *Handler) HandleAddResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer, requestID, ok := h.target(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.AddResponseRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	resp, err := h.foia.AddResponse(ctx, requestID, viewer, req)
	if err != nil {
		h.fail(w, r, "failed to add foia response", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.NewResponseView(resp))
}

func (h *Handler) HandleListResponses(w http.ResponseWriter, r *http.Request) {
	viewer, requestID, ok := h.target(w, r)
	if !ok {
		return
	}
	list, err := h.foia.ListResponses(r.Context(), requestID, viewer)
	if err != nil {
		h.fail(w, r, "failed to list foia responses", err)
		return
	}
	out := make([]models.ResponseView, 0, len(list))
	for _, resp := range list {
		out = append(out, models.NewResponseView(resp))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"responses": out})
}

func (h *Handler) HandleAddAttachment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer, requestID, ok := h.target(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.AddAttachmentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	att, err := h.foia.AddAttachment(ctx, requestID, viewer, req)
	if err != nil {
		h.fail(w, r, "failed to add foia attachment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.NewAttachmentView(att))
}

func (h *Handler) HandleListAttachments(w http.ResponseWriter, r *http.Request) {
	viewer, requestID, ok := h.target(w, r)
	if !ok {
		return
	}
	list, err := h.foia.ListAttachments(r.Context(), requestID, viewer)
	if err != nil {
		h.fail(w, r, "failed to list foia attachments", err)
		return
	}
	out := make([]models.AttachmentView, 0, len(list))
	for _, att := range list {
		out = append(out, models.NewAttachmentView(att))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"documents": out})
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request, list []*models.Request) {
	now := requestcontext.Now(r.Context())
	out := requestsResponse{Requests: make([]models.RequestView, 0, len(list))}
	for _, req := range list {
		out.Requests = append(out.Requests, models.NewRequestView(req, now))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) viewer(w http.ResponseWriter, r *http.Request) (service.Viewer, bool) {
	ctx := r.Context()
	userID, err := httputil.RequireUserID(ctx, h.logger, requestcontext.RequestID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return service.Viewer{}, false
	}
	return service.Viewer{UserID: userID, Role: requestcontext.Role(ctx)}, true
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (service.Viewer, uuid.UUID, bool) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return service.Viewer{}, uuid.Nil, false
	}
	requestID, err := httputil.PathID(r, "id", "request ID")
	if err != nil {
		httputil.WriteError(w, err)
		return service.Viewer{}, uuid.Nil, false
	}
	return viewer, requestID, true
}

func limitParam(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return n
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	httputil.LogAndWriteError(w, r, h.logger, msg, err)
}
