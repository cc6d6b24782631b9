package registration

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"campreg/internal/audit"
	"campreg/internal/event"
	"campreg/internal/registration/metrics"
	"campreg/pkg/domerrors"
	"campreg/pkg/sentinel"
)

// EventGetter is the slice of the event service the engine needs.
type EventGetter interface {
	Get(ctx context.Context, id string) (event.Event, error)
}

// CacheInvalidator drops derived read-side state after a write. The report
// cache implements it; a nil invalidator is a no-op.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service drives the submission and approval workflow. Every operation runs
// as one store transaction; the engine never retries on its own.
type Service struct {
	store   Store
	events  EventGetter
	metrics *metrics.Metrics
	audit   *audit.Publisher
	cache   CacheInvalidator
	nowFn   func() time.Time
}

func NewService(store Store, events EventGetter, m *metrics.Metrics, aud *audit.Publisher, cache CacheInvalidator) *Service {
	return &Service{
		store:   store,
		events:  events,
		metrics: m,
		audit:   aud,
		cache:   cache,
		nowFn:   time.Now,
	}
}

// SubmitInput is a candidate batch submission. ReceiptURL must already be
// stored; the handler uploads the receipt only after PrepareSubmit passes so
// a failed upload aborts the whole submission.
type SubmitInput struct {
	ChurchID   string
	EventID    string
	Roster     Roster
	ReceiptURL string
	ActorID    string
}

// PreviewFee returns the quote that would apply to a submission made now.
func (s *Service) PreviewFee(ctx context.Context, eventID string) (FeeQuote, error) {
	ev, err := s.events.Get(ctx, eventID)
	if err != nil {
		return FeeQuote{}, err
	}
	return ResolveFee(ev, s.nowFn()), nil
}

// PrepareSubmit runs every submission rule without writing anything: the
// deadline gate, the roster validator, and fee resolution. The handler calls
// it before uploading the receipt.
func (s *Service) PrepareSubmit(ctx context.Context, churchID, eventID string, roster Roster) (FeeQuote, error) {
	ev, err := s.events.Get(ctx, eventID)
	if err != nil {
		return FeeQuote{}, err
	}
	now := s.nowFn()
	if err := s.checkDeadline(ev, now); err != nil {
		return FeeQuote{}, err
	}
	firstBatch, _, err := s.isFirstBatch(ctx, churchID, eventID)
	if err != nil {
		return FeeQuote{}, err
	}
	validated := roster
	if err := ValidateRoster(&validated, firstBatch); err != nil {
		s.metrics.IncrementDenial(domerrors.ReasonOf(err))
		return FeeQuote{}, err
	}
	return ResolveFee(ev, now), nil
}

// Submit creates the registration on first submission, or appends an
// additional batch to the existing one. Fee figures are stamped here and
// never change afterwards.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Batch, error) {
	ev, err := s.events.Get(ctx, in.EventID)
	if err != nil {
		return Batch{}, err
	}
	now := s.nowFn()
	if err := s.checkDeadline(ev, now); err != nil {
		s.denied(ctx, in.ActorID, audit.ActionSubmitBatch, "event", in.EventID, err)
		return Batch{}, err
	}
	if strings.TrimSpace(in.ReceiptURL) == "" {
		return Batch{}, domerrors.NewReason(domerrors.CodeValidation, "receipt_required",
			"a receipt reference is required")
	}

	firstBatch, reg, err := s.isFirstBatch(ctx, in.ChurchID, in.EventID)
	if err != nil {
		return Batch{}, err
	}
	if err := ValidateRoster(&in.Roster, firstBatch); err != nil {
		s.metrics.IncrementDenial(domerrors.ReasonOf(err))
		s.denied(ctx, in.ActorID, audit.ActionSubmitBatch, "event", in.EventID, err)
		return Batch{}, err
	}

	quote := ResolveFee(ev, now)
	batch := Batch{
		ID:             uuid.NewString(),
		Roster:         in.Roster,
		ReceiptURL:     in.ReceiptURL,
		FeeType:        quote.FeeType,
		FeePerDelegate: quote.DelegateFee,
		FeePerSibling:  quote.SiblingFee,
		FeePerCook:     quote.CookFee,
		TotalFee:       quote.Total(in.Roster),
		Status:         BatchPending,
		SubmittedBy:    in.ActorID,
		SubmittedAt:    now,
	}

	if firstBatch && reg.ID == "" {
		reg = Registration{
			ID:        uuid.NewString(),
			ChurchID:  in.ChurchID,
			EventID:   in.EventID,
			CreatedAt: now,
		}
		// Registration and opening batch land in one store transaction.
		batch, err = s.store.CreateRegistrationWithBatch(ctx, reg, batch)
		switch {
		case err == nil:
		case errors.Is(err, sentinel.ErrConflict):
			// Lost the first-submission race: the other submit created the
			// registration, so this one appends as the next batch.
			reg, err = s.store.FindRegistrationByChurchEvent(ctx, in.ChurchID, in.EventID)
			if err != nil {
				return Batch{}, domerrors.Wrap(domerrors.CodeInternal, "", "find registration after conflict", err)
			}
			batch, err = s.store.AppendBatch(ctx, reg.ID, batch)
			if err != nil {
				return Batch{}, domerrors.Wrap(domerrors.CodeInternal, "", "append batch", err)
			}
		default:
			return Batch{}, domerrors.Wrap(domerrors.CodeInternal, "", "create registration", err)
		}
	} else {
		batch, err = s.store.AppendBatch(ctx, reg.ID, batch)
		if err != nil {
			return Batch{}, domerrors.Wrap(domerrors.CodeInternal, "", "append batch", err)
		}
	}

	s.metrics.IncrementSubmitted(string(quote.FeeType))
	s.audit.Emit(ctx, audit.Event{
		ActorID: in.ActorID, Action: audit.ActionSubmitBatch,
		SubjectType: "batch", SubjectID: batch.ID, Outcome: audit.OutcomeOK,
	})
	s.invalidate(ctx)
	return batch, nil
}

// EditBatch replaces the roster and receipt of a pending batch and re-runs
// validation and fee resolution. The batch number never changes. Once a
// review decision lands, edits lose: the store's state check fails.
func (s *Service) EditBatch(ctx context.Context, batchID string, roster Roster, receiptURL, actorID, actorChurchID string) (Batch, error) {
	batch, reg, err := s.findBatchWithRegistration(ctx, batchID)
	if err != nil {
		return Batch{}, err
	}
	if err := s.checkOwnership(reg, actorChurchID); err != nil {
		return Batch{}, err
	}
	if batch.Status != BatchPending {
		err := s.notPending(batch)
		s.denied(ctx, actorID, audit.ActionEditBatch, "batch", batchID, err)
		return Batch{}, err
	}
	if strings.TrimSpace(receiptURL) == "" {
		return Batch{}, domerrors.NewReason(domerrors.CodeValidation, "receipt_required",
			"a receipt reference is required")
	}
	if err := ValidateRoster(&roster, batch.BatchNumber == 1); err != nil {
		s.metrics.IncrementDenial(domerrors.ReasonOf(err))
		return Batch{}, err
	}

	ev, err := s.events.Get(ctx, reg.EventID)
	if err != nil {
		return Batch{}, err
	}
	quote := ResolveFee(ev, s.nowFn())

	batch.Roster = roster
	batch.ReceiptURL = receiptURL
	batch.FeeType = quote.FeeType
	batch.FeePerDelegate = quote.DelegateFee
	batch.FeePerSibling = quote.SiblingFee
	batch.FeePerCook = quote.CookFee
	batch.TotalFee = quote.Total(roster)

	if err := s.store.ReplacePendingBatch(ctx, batch); err != nil {
		if errors.Is(err, sentinel.ErrStaleState) {
			// A review transition won the race.
			return Batch{}, domerrors.Wrap(domerrors.CodeState, "not_pending",
				"batch was reviewed while editing", err)
		}
		return Batch{}, domerrors.Wrap(domerrors.CodeInternal, "", "replace batch", err)
	}

	s.audit.Emit(ctx, audit.Event{
		ActorID: actorID, Action: audit.ActionEditBatch,
		SubjectType: "batch", SubjectID: batchID, Outcome: audit.OutcomeOK,
	})
	s.invalidate(ctx)
	return batch, nil
}

// ReviewBatch applies an admin decision to a pending batch. Approvals need no
// remarks; rejections need at least ten characters. Both outcomes are
// terminal. A concurrent decision loses with a concurrency error, not a
// silent overwrite.
func (s *Service) ReviewBatch(ctx context.Context, batchID string, decision Decision, remarks, reviewerID string) (Batch, error) {
	next, action, err := reviewTarget(decision)
	if err != nil {
		return Batch{}, err
	}
	remarks = strings.TrimSpace(remarks)
	if decision == DecisionReject && len(remarks) < 10 {
		return Batch{}, domerrors.NewReason(domerrors.CodeValidation, "remarks_required",
			"rejection remarks must be at least 10 characters")
	}
	if decision == DecisionApprove {
		remarks = ""
	}

	batch, err := s.store.FindBatch(ctx, batchID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Batch{}, domerrors.NewReason(domerrors.CodeNotFound, "batch_not_found", "batch does not exist")
		}
		return Batch{}, domerrors.Wrap(domerrors.CodeInternal, "", "find batch", err)
	}
	if batch.Status != BatchPending {
		err := s.notPending(batch)
		s.denied(ctx, reviewerID, action, "batch", batchID, err)
		return Batch{}, err
	}

	now := s.nowFn()
	stamp := ReviewStamp{ReviewerID: reviewerID, ReviewedAt: now, Remarks: remarks}
	reviewed, err := s.store.TransitionBatch(ctx, batchID, BatchPending, next, stamp)
	if err != nil {
		if errors.Is(err, sentinel.ErrStaleState) {
			err := domerrors.Wrap(domerrors.CodeConcurrency, "review_race",
				"batch is no longer pending", err)
			s.denied(ctx, reviewerID, action, "batch", batchID, err)
			return Batch{}, err
		}
		return Batch{}, domerrors.Wrap(domerrors.CodeInternal, "", "transition batch", err)
	}

	s.metrics.IncrementReview(string(decision))
	s.metrics.ObserveReviewWait(now.Sub(reviewed.SubmittedAt))
	s.audit.Emit(ctx, audit.Event{
		ActorID: reviewerID, Action: action,
		SubjectType: "batch", SubjectID: batchID, Outcome: audit.OutcomeOK,
		Detail: remarks,
	})
	s.invalidate(ctx)
	return reviewed, nil
}

// CancelBatch withdraws a pending batch. Withdrawal is terminal, never passes
// through APPROVED, and the batch stays on record.
func (s *Service) CancelBatch(ctx context.Context, batchID, actorID, actorChurchID string) error {
	batch, reg, err := s.findBatchWithRegistration(ctx, batchID)
	if err != nil {
		return err
	}
	if err := s.checkOwnership(reg, actorChurchID); err != nil {
		return err
	}
	if batch.Status != BatchPending {
		err := s.notPending(batch)
		s.denied(ctx, actorID, audit.ActionCancelBatch, "batch", batchID, err)
		return err
	}
	if _, err := s.store.TransitionBatch(ctx, batchID, BatchPending, BatchWithdrawn, ReviewStamp{}); err != nil {
		if errors.Is(err, sentinel.ErrStaleState) {
			return domerrors.Wrap(domerrors.CodeState, "not_pending",
				"batch was reviewed before cancellation", err)
		}
		return domerrors.Wrap(domerrors.CodeInternal, "", "withdraw batch", err)
	}
	s.audit.Emit(ctx, audit.Event{
		ActorID: actorID, Action: audit.ActionCancelBatch,
		SubjectType: "batch", SubjectID: batchID, Outcome: audit.OutcomeOK,
	})
	s.invalidate(ctx)
	return nil
}

// View is a registration with its derived status and approved totals.
type View struct {
	Registration
	Status            RegistrationStatus `json:"status"`
	ApprovedDelegates int                `json:"approved_delegates"`
	ApprovedSiblings  int                `json:"approved_siblings"`
	ApprovedCooks     int                `json:"approved_cooks"`
	ApprovedFeeTotal  int64              `json:"approved_fee_total"`
}

func (s *Service) GetRegistration(ctx context.Context, id string) (View, error) {
	reg, err := s.store.FindRegistration(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return View{}, domerrors.NewReason(domerrors.CodeNotFound, "registration_not_found", "registration does not exist")
		}
		return View{}, domerrors.Wrap(domerrors.CodeInternal, "", "find registration", err)
	}
	return toView(reg), nil
}

// ListByEvent returns registration views for an event. With pendingOnly set
// it narrows to registrations with batches awaiting review, which backs the
// admin review queue.
func (s *Service) ListByEvent(ctx context.Context, eventID string, pendingOnly bool) ([]View, error) {
	regs, err := s.store.ListRegistrationsByEvent(ctx, eventID)
	if err != nil {
		return nil, domerrors.Wrap(domerrors.CodeInternal, "", "list registrations", err)
	}
	views := make([]View, 0, len(regs))
	for _, reg := range regs {
		if pendingOnly && !HasPendingWork(reg.Batches) {
			continue
		}
		views = append(views, toView(reg))
	}
	return views, nil
}

func toView(reg Registration) View {
	delegates, siblings, cooks, fee := ApprovedTotals(reg.Batches)
	return View{
		Registration:      reg,
		Status:            DeriveStatus(reg.Batches),
		ApprovedDelegates: delegates,
		ApprovedSiblings:  siblings,
		ApprovedCooks:     cooks,
		ApprovedFeeTotal:  fee,
	}
}

// Dependency guards consumed by the reference-data services.

func (s *Service) ChurchHasPending(ctx context.Context, churchID string) (bool, error) {
	return s.store.ChurchHasPending(ctx, churchID)
}

func (s *Service) ChurchHasParticipantData(ctx context.Context, churchID string) (bool, error) {
	return s.store.ChurchHasParticipantData(ctx, churchID)
}

func (s *Service) EventHasParticipantData(ctx context.Context, eventID string) (bool, error) {
	return s.store.EventHasParticipantData(ctx, eventID)
}

// helpers

// checkDeadline allows submission at exactly the deadline; one unit of time
// later fails.
func (s *Service) checkDeadline(ev event.Event, now time.Time) error {
	if now.After(ev.RegistrationDeadline) {
		s.metrics.IncrementDenial("deadline_passed")
		return domerrors.NewReason(domerrors.CodeDeadline, "deadline_passed",
			"registration deadline has passed")
	}
	return nil
}

// isFirstBatch classifies the submission by live batches, not by bare
// registration existence: a registration whose batches are all withdrawn (or
// that has none at all) still owes the opening-batch roster rules.
func (s *Service) isFirstBatch(ctx context.Context, churchID, eventID string) (bool, Registration, error) {
	reg, err := s.store.FindRegistrationByChurchEvent(ctx, churchID, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return true, Registration{}, nil
		}
		return false, Registration{}, domerrors.Wrap(domerrors.CodeInternal, "", "find registration", err)
	}
	for i := range reg.Batches {
		if reg.Batches[i].Status != BatchWithdrawn {
			return false, reg, nil
		}
	}
	return true, reg, nil
}

func (s *Service) findBatchWithRegistration(ctx context.Context, batchID string) (Batch, Registration, error) {
	batch, err := s.store.FindBatch(ctx, batchID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Batch{}, Registration{}, domerrors.NewReason(domerrors.CodeNotFound, "batch_not_found", "batch does not exist")
		}
		return Batch{}, Registration{}, domerrors.Wrap(domerrors.CodeInternal, "", "find batch", err)
	}
	reg, err := s.store.FindRegistration(ctx, batch.RegistrationID)
	if err != nil {
		return Batch{}, Registration{}, domerrors.Wrap(domerrors.CodeInternal, "", "find registration", err)
	}
	return batch, reg, nil
}

func (s *Service) checkOwnership(reg Registration, actorChurchID string) error {
	if actorChurchID != "" && actorChurchID != reg.ChurchID {
		return domerrors.NewReason(domerrors.CodeForbidden, "wrong_church",
			"batch belongs to another church")
	}
	return nil
}

func (s *Service) notPending(batch Batch) error {
	s.metrics.IncrementDenial("not_pending")
	return domerrors.NewReason(domerrors.CodeState, "not_pending",
		"batch is "+string(batch.Status)+", only pending batches may change")
}

func (s *Service) denied(ctx context.Context, actorID, action, subjectType, subjectID string, cause error) {
	s.audit.Emit(ctx, audit.Event{
		ActorID: actorID, Action: action,
		SubjectType: subjectType, SubjectID: subjectID,
		Outcome: audit.OutcomeDenied, Detail: domerrors.ReasonOf(cause),
	})
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx)
	}
}

func reviewTarget(decision Decision) (BatchStatus, string, error) {
	switch decision {
	case DecisionApprove:
		return BatchApproved, audit.ActionApproveBatch, nil
	case DecisionReject:
		return BatchRejected, audit.ActionRejectBatch, nil
	default:
		return "", "", domerrors.NewReason(domerrors.CodeValidation, "invalid_decision",
			"decision must be APPROVE or REJECT")
	}
}
