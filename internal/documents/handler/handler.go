package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"civic/internal/documents/models"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/httputil"
	"civic/pkg/requestcontext"
)

type Service interface {
	Create(ctx context.Context, author id.UserID, req *models.CreateRequest) (*models.Document, error)
	Get(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	List(ctx context.Context) ([]*models.Document, error)
	Lock(ctx context.Context, docID id.DocumentID, userID id.UserID) (*models.Document, error)
	Save(ctx context.Context, docID id.DocumentID, userID id.UserID, req *models.SaveRequest) (*models.Document, error)
	Unlock(ctx context.Context, docID id.DocumentID, userID id.UserID, role id.Role) (*models.Document, error)
	Versions(ctx context.Context, docID id.DocumentID) ([]*models.Version, error)
	Version(ctx context.Context, docID id.DocumentID, version int) (*models.Version, error)
	Restore(ctx context.Context, docID id.DocumentID, userID id.UserID, version int, req *models.RestoreRequest) (*models.Document, error)
}

type Handler struct {
	documents Service
	logger    *slog.Logger
}

func New(documents Service, logger *slog.Logger) *Handler {
	return &Handler{documents: documents, logger: logger}
}

// Register mounts the read routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/documents", h.HandleList)
	r.Get("/documents/{id}", h.HandleGet)
	r.Get("/documents/{id}/versions", h.HandleVersions)
	r.Get("/documents/{id}/versions/{version}", h.HandleVersion)
}

// RegisterEditor mounts the write routes. The parent router gates them on editor.
func (h *Handler) RegisterEditor(r chi.Router) {
	r.Post("/documents", h.HandleCreate)
	r.Put("/documents/{id}", h.HandleSave)
	r.Post("/documents/{id}/lock", h.HandleLock)
	r.Delete("/documents/{id}/lock", h.HandleUnlock)
	r.Post("/documents/{id}/versions/{version}/restore", h.HandleRestore)
}

type listResponse struct {
	Documents []models.DocumentSummary `json:"documents"`
}

type versionsResponse struct {
	Versions []models.VersionView `json:"versions"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docs, err := h.documents.List(ctx)
	if err != nil {
		h.fail(w, r, "failed to list documents", err)
		return
	}
	out := listResponse{Documents: make([]models.DocumentSummary, 0, len(docs))}
	for _, d := range docs {
		out.Documents = append(out.Documents, models.NewDocumentSummary(d))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	docID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	doc, err := h.documents.Get(r.Context(), docID)
	if err != nil {
		h.fail(w, r, "failed to load document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewDocumentView(doc))
}

// HandleCreate implements POST /documents.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	doc, err := h.documents.Create(ctx, userID, req)
	if err != nil {
		h.fail(w, r, "failed to create document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.NewDocumentView(doc))
}

// HandleLock implements POST /documents/{id}/lock.
func (h *Handler) HandleLock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, docID, ok := h.actor(w, r)
	if !ok {
		return
	}
	doc, err := h.documents.Lock(ctx, docID, userID)
	if err != nil {
		h.fail(w, r, "failed to lock document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewDocumentView(doc))
}

// HandleUnlock implements DELETE /documents/{id}/lock. Admins may release
// another user's lock.
func (h *Handler) HandleUnlock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, docID, ok := h.actor(w, r)
	if !ok {
		return
	}
	doc, err := h.documents.Unlock(ctx, docID, userID, requestcontext.Role(ctx))
	if err != nil {
		h.fail(w, r, "failed to unlock document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewDocumentView(doc))
}

// HandleSave implements PUT /documents/{id}.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID, docID, ok := h.actor(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.SaveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	doc, err := h.documents.Save(ctx, docID, userID, req)
	if err != nil {
		h.fail(w, r, "failed to save document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewDocumentView(doc))
}

func (h *Handler) HandleVersions(w http.ResponseWriter, r *http.Request) {
	docID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	versions, err := h.documents.Versions(r.Context(), docID)
	if err != nil {
		h.fail(w, r, "failed to list versions", err)
		return
	}
	out := versionsResponse{Versions: make([]models.VersionView, 0, len(versions))}
	for _, v := range versions {
		out.Versions = append(out.Versions, models.NewVersionView(v, false))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	docID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	n, ok := versionParam(w, r)
	if !ok {
		return
	}
	v, err := h.documents.Version(r.Context(), docID, n)
	if err != nil {
		h.fail(w, r, "failed to load version", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewVersionView(v, true))
}

// HandleRestore implements POST /documents/{id}/versions/{version}/restore.
func (h *Handler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID, docID, ok := h.actor(w, r)
	if !ok {
		return
	}
	n, ok := versionParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.RestoreRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	doc, err := h.documents.Restore(ctx, docID, userID, n, req)
	if err != nil {
		h.fail(w, r, "failed to restore version", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewDocumentView(doc))
}

func (h *Handler) documentID(w http.ResponseWriter, r *http.Request) (id.DocumentID, bool) {
	raw, err := httputil.PathID(r, "id", "document ID")
	if err != nil {
		httputil.WriteError(w, err)
		return id.DocumentID{}, false
	}
	return id.DocumentID(raw), true
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (id.UserID, id.DocumentID, bool) {
	ctx := r.Context()
	userID, err := httputil.RequireUserID(ctx, h.logger, requestcontext.RequestID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return id.UserID{}, id.DocumentID{}, false
	}
	docID, ok := h.documentID(w, r)
	return userID, docID, ok
}

func versionParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || n < 1 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid version number"))
		return 0, false
	}
	return n, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	httputil.LogAndWriteError(w, r, h.logger, msg, err)
}
