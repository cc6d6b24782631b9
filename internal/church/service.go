package church

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"campreg/internal/audit"
	"campreg/internal/platform/middleware"
	"campreg/pkg/domerrors"
	"campreg/pkg/sentinel"
)

// RegistrationGuard answers whether registration data blocks a reference-data
// mutation. Implemented by the registration service.
type RegistrationGuard interface {
	ChurchHasPending(ctx context.Context, churchID string) (bool, error)
	ChurchHasParticipantData(ctx context.Context, churchID string) (bool, error)
}

var validate = validator.New()

// Service owns division/church/president CRUD. The only non-mechanical rules
// are the guards: a president cannot be deactivated while a pending batch
// exists under their church, and a church cannot be deleted while its
// registrations hold participant data.
type Service struct {
	store Store
	guard RegistrationGuard
	audit *audit.Publisher
}

func NewService(store Store, guard RegistrationGuard, publisher *audit.Publisher) *Service {
	return &Service{store: store, guard: guard, audit: publisher}
}

func (s *Service) CreateDivision(ctx context.Context, d Division) (Division, error) {
	if err := validate.Struct(d); err != nil {
		return Division{}, domerrors.NewReason(domerrors.CodeValidation, "invalid_division", err.Error())
	}
	d.ID = uuid.NewString()
	d.CreatedAt = time.Now().UTC()
	if err := s.store.SaveDivision(ctx, d); err != nil {
		return Division{}, domerrors.Wrap(domerrors.CodeInternal, "", "save division", err)
	}
	return d, nil
}

func (s *Service) GetDivision(ctx context.Context, id string) (Division, error) {
	d, err := s.store.FindDivision(ctx, id)
	if err != nil {
		return Division{}, notFoundOrInternal(err, "division")
	}
	return d, nil
}

func (s *Service) ListDivisions(ctx context.Context) ([]Division, error) {
	return s.store.ListDivisions(ctx)
}

func (s *Service) CreateChurch(ctx context.Context, c Church) (Church, error) {
	if err := validate.Struct(c); err != nil {
		return Church{}, domerrors.NewReason(domerrors.CodeValidation, "invalid_church", err.Error())
	}
	if _, err := s.store.FindDivision(ctx, c.DivisionID); err != nil {
		return Church{}, notFoundOrInternal(err, "division")
	}
	c.ID = uuid.NewString()
	c.Active = true
	c.CreatedAt = time.Now().UTC()
	if err := s.store.SaveChurch(ctx, c); err != nil {
		return Church{}, domerrors.Wrap(domerrors.CodeInternal, "", "save church", err)
	}
	return c, nil
}

func (s *Service) GetChurch(ctx context.Context, id string) (Church, error) {
	c, err := s.store.FindChurch(ctx, id)
	if err != nil {
		return Church{}, notFoundOrInternal(err, "church")
	}
	return c, nil
}

func (s *Service) ListChurches(ctx context.Context, divisionID string) ([]Church, error) {
	return s.store.ListChurches(ctx, divisionID)
}

func (s *Service) UpdateChurch(ctx context.Context, c Church) (Church, error) {
	if err := validate.Struct(c); err != nil {
		return Church{}, domerrors.NewReason(domerrors.CodeValidation, "invalid_church", err.Error())
	}
	existing, err := s.GetChurch(ctx, c.ID)
	if err != nil {
		return Church{}, err
	}
	c.CreatedAt = existing.CreatedAt
	if err := s.store.UpdateChurch(ctx, c); err != nil {
		return Church{}, domerrors.Wrap(domerrors.CodeInternal, "", "update church", err)
	}
	return c, nil
}

// DeleteChurch is blocked while the church's registrations hold participant
// data; rejected and approved rosters are audit history.
func (s *Service) DeleteChurch(ctx context.Context, id string) error {
	if _, err := s.GetChurch(ctx, id); err != nil {
		return err
	}
	blocked, err := s.guard.ChurchHasParticipantData(ctx, id)
	if err != nil {
		return domerrors.Wrap(domerrors.CodeInternal, "", "check church dependents", err)
	}
	if blocked {
		s.audit.Emit(ctx, audit.Event{
			ActorID: middleware.GetActorID(ctx), Action: audit.ActionDeleteBlocked,
			SubjectType: "church", SubjectID: id, Outcome: audit.OutcomeDenied,
			Detail: "registrations with participant data",
		})
		return domerrors.NewReason(domerrors.CodeDependency, "blocked_by_dependents",
			"church has registrations with participant data")
	}
	if err := s.store.DeleteChurch(ctx, id); err != nil {
		return domerrors.Wrap(domerrors.CodeInternal, "", "delete church", err)
	}
	return nil
}

func (s *Service) CreatePresident(ctx context.Context, p President) (President, error) {
	if err := validate.Struct(p); err != nil {
		return President{}, domerrors.NewReason(domerrors.CodeValidation, "invalid_president", err.Error())
	}
	if _, err := s.store.FindChurch(ctx, p.ChurchID); err != nil {
		return President{}, notFoundOrInternal(err, "church")
	}
	p.ID = uuid.NewString()
	p.Active = true
	p.CreatedAt = time.Now().UTC()
	if err := s.store.SavePresident(ctx, p); err != nil {
		return President{}, domerrors.Wrap(domerrors.CodeInternal, "", "save president", err)
	}
	return p, nil
}

func (s *Service) GetPresident(ctx context.Context, id string) (President, error) {
	p, err := s.store.FindPresident(ctx, id)
	if err != nil {
		return President{}, notFoundOrInternal(err, "president")
	}
	return p, nil
}

func (s *Service) ListPresidents(ctx context.Context, churchID string) ([]President, error) {
	return s.store.ListPresidents(ctx, churchID)
}

// DeactivatePresident is blocked while any batch under the president's
// church is still pending review.
func (s *Service) DeactivatePresident(ctx context.Context, id string) (President, error) {
	p, err := s.GetPresident(ctx, id)
	if err != nil {
		return President{}, err
	}
	blocked, err := s.guard.ChurchHasPending(ctx, p.ChurchID)
	if err != nil {
		return President{}, domerrors.Wrap(domerrors.CodeInternal, "", "check pending batches", err)
	}
	if blocked {
		s.audit.Emit(ctx, audit.Event{
			ActorID: middleware.GetActorID(ctx), Action: audit.ActionDeniedChange,
			SubjectType: "president", SubjectID: id, Outcome: audit.OutcomeDenied,
			Detail: "pending batches awaiting review",
		})
		return President{}, domerrors.NewReason(domerrors.CodeDependency, "blocked_by_dependents",
			"president has pending batches awaiting review")
	}
	p.Active = false
	if err := s.store.UpdatePresident(ctx, p); err != nil {
		return President{}, domerrors.Wrap(domerrors.CodeInternal, "", "deactivate president", err)
	}
	return p, nil
}

func notFoundOrInternal(err error, entity string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return domerrors.NewReason(domerrors.CodeNotFound, entity+"_not_found", entity+" does not exist")
	}
	return domerrors.Wrap(domerrors.CodeInternal, "", "find "+entity, err)
}
