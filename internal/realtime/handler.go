package realtime

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/httputil"
	"civic/pkg/requestcontext"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = pongWait * 9 / 10
	maxInboundSize = 512
)

// Handler upgrades GET /realtime?table=<name> to a websocket that streams
// that table's changes as JSON. It must run behind RequireAuth.
type Handler struct {
	hub      *Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
	buffer   int
}

// NewHandler builds a Handler. With no allowed origins only same-host
// browser connections are accepted.
func NewHandler(hub *Hub, logger *slog.Logger, allowedOrigins []string) *Handler {
	h := &Handler{hub: hub, logger: logger, buffer: defaultBuffer}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}
	if len(allowedOrigins) > 0 {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false
			}
			return slices.Contains(allowedOrigins, u.Scheme+"://"+u.Host)
		}
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/realtime", h.HandleSubscribe)
}

func (h *Handler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	table := r.URL.Query().Get("table")
	required, ok := RequiredRole(table)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown table"))
		return
	}
	role := requestcontext.Role(ctx)
	if !role.AtLeast(required) {
		h.logger.WarnContext(ctx, "realtime subscription denied",
			"table", table,
			"role", role.String(),
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "insufficient role for table"))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.WarnContext(ctx, "websocket upgrade failed", "error", err, "request_id", requestID)
		return
	}

	sub := h.hub.Subscribe(table, h.buffer)
	h.logger.InfoContext(ctx, "realtime subscriber connected",
		"table", table,
		"user_id", requestcontext.UserID(ctx).String(),
		"request_id", requestID,
	)
	h.serve(conn, sub)
	h.logger.InfoContext(ctx, "realtime subscriber disconnected", "table", table, "request_id", requestID)
}

// serve pumps changes to conn until the client goes away or the hub closes
// the subscription.
func (h *Handler) serve(conn *websocket.Conn, sub *Subscription) {
	defer func() {
		sub.Close()
		_ = conn.Close()
	}()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(maxInboundSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case change, ok := <-sub.C():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteJSON(change); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}
