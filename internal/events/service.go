package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"civic/internal/platform/metrics"
	"civic/internal/realtime"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, e *Event) error
	FindByID(ctx context.Context, eventID uuid.UUID) (*Event, error)
	List(ctx context.Context, w Window) ([]*Event, error)
	Update(ctx context.Context, eventID uuid.UUID, mutate func(*Event) error) (*Event, error)
	Delete(ctx context.Context, eventID uuid.UUID) error
}

type Service struct {
	store     Store
	metrics   *metrics.Metrics
	publisher realtime.Publisher
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithPublisher(p realtime.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("event store is required")
	}
	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.publisher == nil {
		svc.publisher = realtime.Discard
	}
	return svc, nil
}

func (s *Service) Create(ctx context.Context, creator id.UserID, req *EventRequest) (*Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	e := &Event{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		CreatedBy:   creator,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, s.translate(ctx, err, "failed to create event")
	}
	s.written(ctx, realtime.ChangeInsert, e.ID, e, now)
	return e, nil
}

func (s *Service) Get(ctx context.Context, eventID uuid.UUID) (*Event, error) {
	e, err := s.store.FindByID(ctx, eventID)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to load event")
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, w Window) ([]*Event, error) {
	if !w.From.IsZero() && !w.To.IsZero() && w.To.Before(w.From) {
		return nil, dErrors.New(dErrors.CodeValidation, "to must not be before from")
	}
	out, err := s.store.List(ctx, w)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to list events")
	}
	return out, nil
}

// Upcoming returns events that have not yet ended.
func (s *Service) Upcoming(ctx context.Context, limit int) ([]*Event, error) {
	return s.List(ctx, Window{From: requestcontext.Now(ctx), Limit: limit})
}

func (s *Service) Update(ctx context.Context, eventID uuid.UUID, req *EventRequest) (*Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	e, err := s.store.Update(ctx, eventID, func(e *Event) error {
		e.Title = req.Title
		e.Description = req.Description
		e.Location = req.Location
		e.StartsAt = req.StartsAt
		e.EndsAt = req.EndsAt
		e.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, s.translate(ctx, err, "failed to update event")
	}
	s.written(ctx, realtime.ChangeUpdate, e.ID, e, now)
	return e, nil
}

func (s *Service) Delete(ctx context.Context, eventID uuid.UUID, actor id.UserID) error {
	if err := s.store.Delete(ctx, eventID); err != nil {
		return s.translate(ctx, err, "failed to delete event")
	}
	s.logger.InfoContext(ctx, "event deleted",
		"event", "event_deleted",
		"log_type", "audit",
		"event_id", eventID.String(),
		"actor_id", actor.String(),
	)
	s.written(ctx, realtime.ChangeDelete, eventID, nil, requestcontext.Now(ctx))
	return nil
}

func (s *Service) translate(ctx context.Context, err error, internalMsg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "event not found")
	default:
		s.logger.ErrorContext(ctx, internalMsg, "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
	}
}

func (s *Service) written(ctx context.Context, typ realtime.ChangeType, eventID uuid.UUID, e *Event, at time.Time) {
	if s.metrics != nil {
		s.metrics.IncrementRecordWrites(realtime.TableEvents, string(typ))
	}
	var record any
	if e != nil {
		record = NewEventView(e)
	}
	realtime.Emit(ctx, s.publisher, s.logger, realtime.TableEvents, typ, eventID.String(), record, at)
}
