package events

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/httputil"
	"civic/pkg/requestcontext"
)

type API interface {
	Create(ctx context.Context, creator id.UserID, req *EventRequest) (*Event, error)
	Get(ctx context.Context, eventID uuid.UUID) (*Event, error)
	List(ctx context.Context, w Window) ([]*Event, error)
	Update(ctx context.Context, eventID uuid.UUID, req *EventRequest) (*Event, error)
	Delete(ctx context.Context, eventID uuid.UUID, actor id.UserID) error
}

type Handler struct {
	service API
	logger  *slog.Logger
}

func NewHandler(service API, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/events", h.HandleList)
	r.Get("/events/{id}", h.HandleGet)
}

func (h *Handler) RegisterEditor(r chi.Router) {
	r.Post("/events", h.HandleCreate)
	r.Put("/events/{id}", h.HandleUpdate)
	r.Delete("/events/{id}", h.HandleDelete)
}

// HandleList accepts optional from and to query parameters as RFC 3339
// timestamps.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := queryTime(q.Get("from"), "from")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := queryTime(q.Get("to"), "to")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	list, err := h.service.List(r.Context(), Window{From: from, To: to, Limit: limit})
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to list events", err)
		return
	}
	out := make([]EventView, 0, len(list))
	for _, e := range list {
		out = append(out, NewEventView(e))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": out})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	eventID, err := httputil.PathID(r, "id", "event ID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	e, err := h.service.Get(r.Context(), eventID)
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to load event", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewEventView(e))
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	creator, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[EventRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	e, err := h.service.Create(ctx, creator, req)
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to create event", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, NewEventView(e))
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := httputil.PathID(r, "id", "event ID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[EventRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	e, err := h.service.Update(ctx, eventID, req)
	if err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to update event", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewEventView(e))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := httputil.RequireUserID(ctx, h.logger, requestcontext.RequestID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	eventID, err := httputil.PathID(r, "id", "event ID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, eventID, actor); err != nil {
		httputil.LogAndWriteError(w, r, h.logger, "failed to delete event", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryTime(raw, name string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeInvalidInput, name+" must be an RFC 3339 timestamp")
	}
	return t.UTC(), nil
}
