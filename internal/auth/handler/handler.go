package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"civic/internal/auth/models"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/httputil"
	authmw "civic/pkg/platform/middleware/auth"
	"civic/pkg/platform/validation"
	"civic/pkg/requestcontext"
)

// Service defines the authentication operations exposed over HTTP.
type Service interface {
	SignUp(ctx context.Context, req *models.SignUpRequest) (*models.AuthResult, error)
	SignIn(ctx context.Context, req *models.SignInRequest) (*models.AuthResult, error)
	Refresh(ctx context.Context, req *models.RefreshRequest) (*models.AuthResult, error)
	Session(ctx context.Context, sessionID id.SessionID) (*models.SessionInfo, error)
	SignOut(ctx context.Context, sessionID id.SessionID) error
	ListSessions(ctx context.Context, userID id.UserID, current id.SessionID) (*models.SessionsResult, error)
	RequestPasswordReset(ctx context.Context, req *models.PasswordResetRequest) error
	ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error
	ListUsers(ctx context.Context) ([]models.UserView, error)
	SetRole(ctx context.Context, actor, target id.UserID, role id.Role) (*models.UserView, error)
}

// Handler serves sign-up, sign-in, refresh, session and password reset
// endpoints, plus the admin user console.
type Handler struct {
	auth         Service
	logger       *slog.Logger
	cookieName   string
	secureCookie bool
	landingPath  string
}

type Option func(*Handler)

// WithCookie configures the cookie set by the form sign-in flow.
func WithCookie(name string, secure bool) Option {
	return func(h *Handler) {
		if name != "" {
			h.cookieName = name
		}
		h.secureCookie = secure
	}
}

// WithLandingPath sets where form sign-in goes when no safe next is given.
func WithLandingPath(path string) Option {
	return func(h *Handler) {
		if path != "" {
			h.landingPath = path
		}
	}
}

func New(auth Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		auth:        auth,
		logger:      logger,
		cookieName:  authmw.DefaultCookieName,
		landingPath: "/dashboard",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the unauthenticated routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/signup", h.HandleSignUp)
	r.Post("/auth/signin", h.HandleSignIn)
	r.Post("/auth/signin/form", h.HandleSignInForm)
	r.Post("/auth/refresh", h.HandleRefresh)
	r.Post("/auth/password/reset-request", h.HandleRequestPasswordReset)
	r.Post("/auth/password/reset", h.HandleResetPassword)
}

// RegisterAuthenticated mounts routes that need RequireAuth on the parent router.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Get("/auth/session", h.HandleSession)
	r.Get("/auth/sessions", h.HandleListSessions)
	r.Post("/auth/signout", h.HandleSignOut)
}

// RegisterAdmin mounts the user console. The parent router gates it on admin.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/users", h.HandleListUsers)
	r.Put("/admin/users/{id}/role", h.HandleSetRole)
}

// HandleSignUp implements POST /auth/signup.
func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.SignUpRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.auth.SignUp(ctx, req)
	if err != nil {
		h.logFailure(ctx, "sign up failed", err, requestID)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "sign up successful",
		"request_id", requestID,
		"user_id", res.User.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, res)
}

// HandleSignIn implements POST /auth/signin for API clients.
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.SignInRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.auth.SignIn(ctx, req)
	if err != nil {
		h.logFailure(ctx, "sign in failed", err, requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleSignInForm implements POST /auth/signin/form for browsers. Success
// sets the session cookie and redirects to next; every failure redirects to
// the error route with message=invalid_credentials.
func (h *Handler) HandleSignInForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, validation.MaxBodySize)
	if err := r.ParseForm(); err != nil {
		h.logger.WarnContext(ctx, "failed to parse sign in form", "error", err, "request_id", requestID)
		httputil.RedirectErrorCode(w, r, "invalid_request")
		return
	}

	form := models.SignInFormFromValues(r.PostForm)
	if err := form.Validate(); err != nil {
		h.logger.WarnContext(ctx, "invalid sign in form", "error", err, "request_id", requestID)
		httputil.RedirectErrorCode(w, r, "invalid_credentials")
		return
	}

	res, err := h.auth.SignIn(ctx, &form.SignInRequest)
	if err != nil {
		h.logFailure(ctx, "form sign in failed", err, requestID)
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			httputil.RedirectErrorCode(w, r, "invalid_credentials")
			return
		}
		httputil.RedirectError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    res.AccessToken,
		Path:     "/",
		MaxAge:   res.ExpiresIn,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, form.RedirectTarget(h.landingPath), http.StatusSeeOther)
}

// HandleRefresh implements POST /auth/refresh.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RefreshRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.auth.Refresh(ctx, req)
	if err != nil {
		h.logFailure(ctx, "token refresh failed", err, requestID)
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleSession implements GET /auth/session.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	res, err := h.auth.Session(ctx, requestcontext.SessionID(ctx))
	if err != nil {
		h.logFailure(ctx, "failed to load session", err, requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleListSessions implements GET /auth/sessions.
func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.auth.ListSessions(ctx, userID, requestcontext.SessionID(ctx))
	if err != nil {
		h.logFailure(ctx, "failed to list sessions", err, requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleSignOut implements POST /auth/signout. It also expires the cookie.
func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if err := h.auth.SignOut(ctx, requestcontext.SessionID(ctx)); err != nil {
		h.logFailure(ctx, "sign out failed", err, requestID)
		httputil.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleRequestPasswordReset implements POST /auth/password/reset-request.
// It answers 202 whether or not the address is registered.
func (h *Handler) HandleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.PasswordResetRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.auth.RequestPasswordReset(ctx, req); err != nil {
		h.logFailure(ctx, "password reset request failed", err, requestID)
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "If the address is registered, a reset link has been sent.",
	})
}

// HandleResetPassword implements POST /auth/password/reset.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.ResetPasswordRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.auth.ResetPassword(ctx, req); err != nil {
		h.logFailure(ctx, "password reset failed", err, requestID)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListUsers implements GET /admin/users.
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	users, err := h.auth.ListUsers(ctx)
	if err != nil {
		h.logFailure(ctx, "failed to list users", err, requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

// HandleSetRole implements PUT /admin/users/{id}/role.
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	target, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.SetRoleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.auth.SetRole(ctx, actor, target, id.Role(req.Role))
	if err != nil {
		h.logFailure(ctx, "failed to set role", err, requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// logFailure logs expected rejections at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, requestID string) {
	if dErrors.HasCode(err, dErrors.CodeInternal) || !isDomainError(err) {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestID)
		return
	}
	h.logger.WarnContext(ctx, msg, "error", err, "request_id", requestID)
}
