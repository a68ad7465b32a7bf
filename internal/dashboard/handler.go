package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "civic/pkg/domain"
	"civic/pkg/platform/httputil"
	"civic/pkg/requestcontext"
)

type Builder interface {
	Build(ctx context.Context, userID id.UserID, role id.Role) (*Dashboard, error)
}

type Handler struct {
	builder Builder
	logger  *slog.Logger
}

func NewHandler(builder Builder, logger *slog.Logger) *Handler {
	return &Handler{builder: builder, logger: logger}
}

// Register mounts GET /dashboard. The parent router requires auth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/dashboard", h.HandleDashboard)
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.RequireUserID(ctx, h.logger, requestcontext.RequestID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	d, err := h.builder.Build(ctx, userID, requestcontext.Role(ctx))
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to build dashboard", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}
