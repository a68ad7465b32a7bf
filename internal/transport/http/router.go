// Package httptransport assembles the HTTP surface: middleware stack, auth
// groups and the routes each domain handler contributes.
package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"

	authhandler "civic/internal/auth/handler"
	"civic/internal/cases"
	"civic/internal/dashboard"
	dochandler "civic/internal/documents/handler"
	"civic/internal/events"
	foiahandler "civic/internal/foia/handler"
	"civic/internal/glossary"
	"civic/internal/governance"
	"civic/internal/incidents"
	"civic/internal/platform/health"
	"civic/internal/realtime"
	"civic/internal/submissions"
	id "civic/pkg/domain"
	"civic/pkg/platform/httputil"
	authmw "civic/pkg/platform/middleware/auth"
	"civic/pkg/platform/middleware/metadata"
	"civic/pkg/platform/middleware/ratelimit"
	"civic/pkg/platform/middleware/request"
	"civic/pkg/platform/validation"
)

// Deps is everything NewRouter mounts. Nil handlers are skipped.
type Deps struct {
	Logger         *slog.Logger
	Tokens         authmw.JWTValidator
	Sessions       authmw.SessionValidator
	CookieName     string
	RequestTimeout time.Duration
	TrustedProxies []netip.Prefix
	Limiter        *ratelimit.Limiter
	RequestMetrics *request.Metrics
	MetricsHandler http.Handler

	Health      *health.Handler
	Auth        *authhandler.Handler
	Documents   *dochandler.Handler
	FOIA        *foiahandler.Handler
	Incidents   *incidents.Handler
	Submissions *submissions.Handler
	Governance  *governance.Handler
	Cases       *cases.Handler
	Glossary    *glossary.Handler
	Events      *events.Handler
	Dashboard   *dashboard.Handler
	Realtime    *realtime.Handler
}

// NewRouter wires all endpoints with middleware.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	var authOpts []authmw.Option
	if d.CookieName != "" {
		authOpts = append(authOpts, authmw.WithCookieName(d.CookieName))
	}
	requireAuth := authmw.RequireAuth(d.Tokens, d.Sessions, logger, authOpts...)
	optionalAuth := authmw.OptionalAuth(d.Tokens, d.Sessions, logger, authOpts...)

	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(metadata.New(d.TrustedProxies).Handler)
	r.Use(request.Logger(logger))
	if d.RequestMetrics != nil {
		r.Use(request.Latency(d.RequestMetrics))
	}

	if d.Health != nil {
		d.Health.Register(r)
	}
	if d.MetricsHandler != nil {
		r.Handle("/metrics", d.MetricsHandler)
	}
	r.Get(httputil.ErrorRoute, handleError)

	// Websocket upgrades hijack the connection, so the realtime route sits
	// outside the timeout and body-limit stack.
	if d.Realtime != nil {
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			d.Realtime.Register(r)
		})
	}

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(timeout))
		r.Use(request.BodyLimit(validation.MaxBodySize))
		r.Use(request.ContentType("application/json", "application/x-www-form-urlencoded"))

		// Anonymous or signed-in callers.
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			if d.Auth != nil {
				d.Auth.Register(r)
			}
			mountPublic(r, d)

			r.Group(func(r chi.Router) {
				if d.Limiter != nil {
					r.Use(d.Limiter.PerIP)
				}
				if d.Incidents != nil {
					d.Incidents.RegisterPublic(r)
				}
				if d.Submissions != nil {
					d.Submissions.RegisterPublic(r)
				}
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(authmw.RequireRole(id.RoleMember, logger))
			mountMember(r, d)

			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireRole(id.RoleEditor, logger))
				mountEditor(r, d)
			})

			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireRole(id.RoleAdmin, logger))
				mountAdmin(r, d)
			})
		})
	})

	return r
}

func mountPublic(r chi.Router, d Deps) {
	if d.Governance != nil {
		d.Governance.RegisterPublic(r)
	}
	if d.Cases != nil {
		d.Cases.RegisterPublic(r)
	}
	if d.Glossary != nil {
		d.Glossary.RegisterPublic(r)
	}
	if d.Events != nil {
		d.Events.RegisterPublic(r)
	}
}

func mountMember(r chi.Router, d Deps) {
	if d.Auth != nil {
		d.Auth.RegisterAuthenticated(r)
	}
	if d.Documents != nil {
		d.Documents.Register(r)
	}
	if d.FOIA != nil {
		d.FOIA.Register(r)
	}
	if d.Dashboard != nil {
		d.Dashboard.Register(r)
	}
}

func mountEditor(r chi.Router, d Deps) {
	if d.Documents != nil {
		d.Documents.RegisterEditor(r)
	}
	if d.FOIA != nil {
		d.FOIA.RegisterEditor(r)
	}
	if d.Governance != nil {
		d.Governance.RegisterEditor(r)
	}
	if d.Cases != nil {
		d.Cases.RegisterEditor(r)
	}
	if d.Glossary != nil {
		d.Glossary.RegisterEditor(r)
	}
	if d.Events != nil {
		d.Events.RegisterEditor(r)
	}
}

func mountAdmin(r chi.Router, d Deps) {
	if d.Auth != nil {
		d.Auth.RegisterAdmin(r)
	}
	if d.Incidents != nil {
		d.Incidents.RegisterAdmin(r)
	}
	if d.Submissions != nil {
		d.Submissions.RegisterAdmin(r)
	}
}
