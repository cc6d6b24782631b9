package event

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"campreg/internal/audit"
	"campreg/internal/platform/middleware"
	"campreg/pkg/domerrors"
	"campreg/pkg/sentinel"
)

// DependencyChecker answers whether registration data still references an
// event. Implemented by the registration store; referenced by interface to
// keep this package free of a cycle.
type DependencyChecker interface {
	EventHasParticipantData(ctx context.Context, eventID string) (bool, error)
}

// Service owns event reference-data CRUD. Admin-only; the transport layer
// enforces the role gate.
type Service struct {
	store Store
	deps  DependencyChecker
	audit *audit.Publisher
}

func NewService(store Store, deps DependencyChecker, publisher *audit.Publisher) *Service {
	return &Service{store: store, deps: deps, audit: publisher}
}

// Create validates invariants and persists a new event.
func (s *Service) Create(ctx context.Context, ev Event) (Event, error) {
	if ev.Status == "" {
		ev.Status = StatusUpcoming
	}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	now := time.Now().UTC()
	ev.ID = uuid.NewString()
	ev.CreatedAt = now
	ev.UpdatedAt = now
	if err := s.store.Save(ctx, ev); err != nil {
		return Event{}, domerrors.Wrap(domerrors.CodeInternal, "", "save event", err)
	}
	return ev, nil
}

// Update replaces the mutable fields of an event. Fee and window edits only
// affect batches submitted afterwards; stamped fees never change.
func (s *Service) Update(ctx context.Context, ev Event) (Event, error) {
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	existing, err := s.Get(ctx, ev.ID)
	if err != nil {
		return Event{}, err
	}
	ev.CreatedAt = existing.CreatedAt
	ev.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, ev); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Event{}, domerrors.NewReason(domerrors.CodeNotFound, "event_not_found", "event does not exist")
		}
		return Event{}, domerrors.Wrap(domerrors.CodeInternal, "", "update event", err)
	}
	return ev, nil
}

func (s *Service) Get(ctx context.Context, id string) (Event, error) {
	ev, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Event{}, domerrors.NewReason(domerrors.CodeNotFound, "event_not_found", "event does not exist")
		}
		return Event{}, domerrors.Wrap(domerrors.CodeInternal, "", "find event", err)
	}
	return ev, nil
}

func (s *Service) List(ctx context.Context) ([]Event, error) {
	return s.store.List(ctx)
}

// Delete removes an event. Blocked while any registration under the event
// still holds participant data, to preserve audit integrity.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	blocked, err := s.deps.EventHasParticipantData(ctx, id)
	if err != nil {
		return domerrors.Wrap(domerrors.CodeInternal, "", "check event dependents", err)
	}
	if blocked {
		s.audit.Emit(ctx, audit.Event{
			ActorID: middleware.GetActorID(ctx), Action: audit.ActionDeleteBlocked,
			SubjectType: "event", SubjectID: id, Outcome: audit.OutcomeDenied,
			Detail: "registrations with participant data",
		})
		return domerrors.NewReason(domerrors.CodeDependency, "blocked_by_dependents",
			"event has registrations with participant data")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return domerrors.Wrap(domerrors.CodeInternal, "", "delete event", err)
	}
	return nil
}
