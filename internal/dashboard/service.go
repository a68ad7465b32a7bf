package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"civic/internal/dashboard/ports"
	docmodels "civic/internal/documents/models"
	"civic/internal/events"
	foiamodels "civic/internal/foia/models"
	"civic/internal/governance"
	"civic/internal/platform/tracer"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/requestcontext"
)

const (
	buildTimeout = 3 * time.Second
	sectionLimit = 10
)

type Service struct {
	foia      ports.FOIARequests
	events    ports.Events
	documents ports.Documents
	proposals ports.Proposals
	queues    ports.Queues
	tracer    tracer.Tracer
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func New(foia ports.FOIARequests, evts ports.Events, documents ports.Documents, proposals ports.Proposals, queues ports.Queues, opts ...Option) (*Service, error) {
	if foia == nil || evts == nil || documents == nil || proposals == nil || queues == nil {
		return nil, errors.New("dashboard requires every section source")
	}
	svc := &Service{
		foia:      foia,
		events:    evts,
		documents: documents,
		proposals: proposals,
		queues:    queues,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.tracer == nil {
		svc.tracer = tracer.NewNoop()
	}
	return svc, nil
}

// sections holds one slot per concurrent read so goroutines never share a field.
type sections struct {
	foia        []*foiamodels.Request
	events      []*events.Event
	locked      []*docmodels.Document
	drafts      []*governance.Proposal
	incidents   int
	submissions int
}

// Build reads every section the role may see concurrently. The first
// failing read cancels the rest.
func (s *Service) Build(ctx context.Context, userID id.UserID, role id.Role) (_ *Dashboard, err error) {
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeForbidden, "insufficient role")
	}
	ctx, span := s.tracer.Start(ctx, tracer.SpanDashboardBuild, tracer.String(tracer.AttrRole, role.String()))
	defer func() { span.End(err) }()

	ctx, cancel := context.WithTimeout(ctx, buildTimeout)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var res sections
	s.read(gctx, g, "foia_requests", func(ctx context.Context) (err error) {
		res.foia, err = s.foia.ListMine(ctx, userID, sectionLimit)
		return err
	})
	s.read(gctx, g, "upcoming_events", func(ctx context.Context) (err error) {
		res.events, err = s.events.Upcoming(ctx, sectionLimit)
		return err
	})
	if role.AtLeast(id.RoleEditor) {
		s.read(gctx, g, "locked_documents", func(ctx context.Context) (err error) {
			res.locked, err = s.documents.ListLockedBy(ctx, userID)
			return err
		})
		s.read(gctx, g, "draft_proposals", func(ctx context.Context) (err error) {
			res.drafts, err = s.proposals.ListDrafts(ctx, sectionLimit)
			return err
		})
	}
	if role.AtLeast(id.RoleAdmin) {
		s.read(gctx, g, "new_incidents", func(ctx context.Context) (err error) {
			res.incidents, err = s.queues.CountNewIncidents(ctx)
			return err
		})
		s.read(gctx, g, "pending_submissions", func(ctx context.Context) (err error) {
			res.submissions, err = s.queues.CountPendingSubmissions(ctx)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		var de *dErrors.Error
		if errors.As(err, &de) {
			return nil, err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, dErrors.New(dErrors.CodeTimeout, "dashboard took too long to load")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load dashboard")
	}

	return assemble(ctx, role, &res), nil
}

func (s *Service) read(ctx context.Context, g *errgroup.Group, section string, fetch func(context.Context) error) {
	g.Go(func() error {
		start := time.Now()
		err := fetch(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "dashboard section failed",
				"section", section,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			return err
		}
		s.logger.DebugContext(ctx, "dashboard section loaded",
			"section", section,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	})
}

func assemble(ctx context.Context, role id.Role, res *sections) *Dashboard {
	now := requestcontext.Now(ctx)
	d := &Dashboard{
		Role:           role,
		FOIARequests:   make([]foiamodels.RequestView, 0, len(res.foia)),
		UpcomingEvents: make([]events.EventView, 0, len(res.events)),
		GeneratedAt:    now,
	}
	for _, r := range res.foia {
		d.FOIARequests = append(d.FOIARequests, foiamodels.NewRequestView(r, now))
	}
	for _, e := range res.events {
		d.UpcomingEvents = append(d.UpcomingEvents, events.NewEventView(e))
	}
	if role.AtLeast(id.RoleEditor) {
		d.LockedDocuments = make([]docmodels.DocumentSummary, 0, len(res.locked))
		for _, doc := range res.locked {
			d.LockedDocuments = append(d.LockedDocuments, docmodels.NewDocumentSummary(doc))
		}
		d.DraftProposals = make([]governance.ProposalView, 0, len(res.drafts))
		for _, p := range res.drafts {
			d.DraftProposals = append(d.DraftProposals, governance.NewProposalView(p))
		}
	}
	if role.AtLeast(id.RoleAdmin) {
		d.NewIncidents = &res.incidents
		d.PendingSubmissions = &res.submissions
	}
	return d
}
