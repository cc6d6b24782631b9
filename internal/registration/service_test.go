package registration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"campreg/internal/event"
	"campreg/pkg/domerrors"
)

type stubEvents struct {
	events map[string]event.Event
}

func (s *stubEvents) Get(_ context.Context, id string) (event.Event, error) {
	ev, ok := s.events[id]
	if !ok {
		return event.Event{}, domerrors.NewReason(domerrors.CodeNotFound, "event_not_found", "event does not exist")
	}
	return ev, nil
}

type WorkflowSuite struct {
	suite.Suite
	store   *InMemoryStore
	events  *stubEvents
	service *Service
	now     time.Time
}

func TestWorkflowSuite(t *testing.T) {
	suite.Run(t, new(WorkflowSuite))
}

func (s *WorkflowSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.events = &stubEvents{events: map[string]event.Event{"ev-1": feeEvent()}}
	s.service = NewService(s.store, s.events, nil, nil, nil)
	s.now = feeEvent().PreRegStart.AddDate(0, 0, 5)
	s.service.nowFn = func() time.Time { return s.now }
}

func (s *WorkflowSuite) submit(churchID string) Batch {
	batch, err := s.service.Submit(context.Background(), SubmitInput{
		ChurchID:   churchID,
		EventID:    "ev-1",
		Roster:     Roster{Delegates: []Delegate{regular("Ana Reyes")}},
		ReceiptURL: "mem://receipts/r1",
		ActorID:    "pres-1",
	})
	s.Require().NoError(err)
	return batch
}

func (s *WorkflowSuite) TestSubmit() {
	ctx := context.Background()

	s.Run("first submission creates the registration and stamps fees", func() {
		batch, err := s.service.Submit(ctx, SubmitInput{
			ChurchID: "ch-1",
			EventID:  "ev-1",
			Roster: Roster{
				Delegates: []Delegate{regular("Ana Reyes"), regular("Ben Cruz"), sibling("Carla Reyes"), sibling("Dario Reyes"), sibling("Elena Reyes")},
				Cooks:     []Cook{{FullName: "Fely Santos", Age: 45, Gender: GenderFemale}},
			},
			ReceiptURL: "mem://receipts/r1",
			ActorID:    "pres-1",
		})
		s.Require().NoError(err)

		s.Equal(1, batch.BatchNumber)
		s.Equal(BatchPending, batch.Status)
		s.Equal(FeePreRegistration, batch.FeeType)
		// 2 x 40000 + 3 x 30000 + 1 x 20000
		s.Equal(int64(190000), batch.TotalFee)

		reg, err := s.store.FindRegistrationByChurchEvent(ctx, "ch-1", "ev-1")
		s.Require().NoError(err)
		s.Equal(batch.RegistrationID, reg.ID)
	})

	s.Run("second submission appends as batch two", func() {
		batch, err := s.service.Submit(ctx, SubmitInput{
			ChurchID:   "ch-1",
			EventID:    "ev-1",
			Roster:     Roster{Cooks: []Cook{{FullName: "Gina Uy", Age: 50, Gender: GenderFemale}}},
			ReceiptURL: "mem://receipts/r2",
			ActorID:    "pres-1",
		})
		s.Require().NoError(err)
		s.Equal(2, batch.BatchNumber)
	})

	s.Run("on-site window bills the late rate", func() {
		s.now = feeEvent().PreRegEnd.Add(time.Hour)
		batch := s.submit("ch-2")
		s.Equal(FeeOnSite, batch.FeeType)
		s.Equal(int64(50000), batch.TotalFee)
	})

	s.Run("missing receipt is rejected", func() {
		_, err := s.service.Submit(ctx, SubmitInput{
			ChurchID: "ch-3",
			EventID:  "ev-1",
			Roster:   Roster{Delegates: []Delegate{regular("Ana Reyes")}},
			ActorID:  "pres-1",
		})
		s.Require().Error(err)
		s.Equal("receipt_required", domerrors.ReasonOf(err))
	})
}

func (s *WorkflowSuite) TestSubmitAfterStrandedRegistration() {
	ctx := context.Background()
	// A registration row without batches can only come from an interrupted
	// write in an older store; the opening-batch rules must still hold.
	stranded := Registration{ID: "reg-stranded", ChurchID: "ch-1", EventID: "ev-1", CreatedAt: s.now}
	s.Require().NoError(s.store.CreateRegistration(ctx, stranded))

	_, err := s.service.Submit(ctx, SubmitInput{
		ChurchID:   "ch-1",
		EventID:    "ev-1",
		Roster:     Roster{Cooks: []Cook{{FullName: "Gina Uy", Age: 50, Gender: GenderFemale}}},
		ReceiptURL: "mem://receipts/r1",
		ActorID:    "pres-1",
	})
	s.Require().Error(err)
	s.Equal("roster_empty", domerrors.ReasonOf(err))

	batch := s.submit("ch-1")
	s.Equal(1, batch.BatchNumber)
	s.Equal(stranded.ID, batch.RegistrationID)
}

func (s *WorkflowSuite) TestSubmitAfterAllBatchesWithdrawn() {
	ctx := context.Background()
	first := s.submit("ch-1")
	s.Require().NoError(s.service.CancelBatch(ctx, first.ID, "pres-1", "ch-1"))

	_, err := s.service.Submit(ctx, SubmitInput{
		ChurchID:   "ch-1",
		EventID:    "ev-1",
		Roster:     Roster{Cooks: []Cook{{FullName: "Gina Uy", Age: 50, Gender: GenderFemale}}},
		ReceiptURL: "mem://receipts/r2",
		ActorID:    "pres-1",
	})
	s.Require().Error(err)
	s.Equal("roster_empty", domerrors.ReasonOf(err))
}

func (s *WorkflowSuite) TestListByEventPendingOnly() {
	ctx := context.Background()
	pending := s.submit("ch-1")
	reviewed := s.submit("ch-2")
	_, err := s.service.ReviewBatch(ctx, reviewed.ID, DecisionApprove, "", "admin-1")
	s.Require().NoError(err)

	all, err := s.service.ListByEvent(ctx, "ev-1", false)
	s.Require().NoError(err)
	s.Len(all, 2)

	queue, err := s.service.ListByEvent(ctx, "ev-1", true)
	s.Require().NoError(err)
	s.Require().Len(queue, 1)
	s.Equal(pending.RegistrationID, queue[0].ID)
}

func (s *WorkflowSuite) TestSubmitDeadline() {
	ctx := context.Background()
	deadline := feeEvent().RegistrationDeadline

	s.Run("submission at the exact deadline succeeds", func() {
		s.now = deadline
		batch := s.submit("ch-1")
		s.Equal(BatchPending, batch.Status)
	})

	s.Run("submission one second past the deadline fails", func() {
		s.now = deadline.Add(time.Second)
		_, err := s.service.Submit(ctx, SubmitInput{
			ChurchID:   "ch-2",
			EventID:    "ev-1",
			Roster:     Roster{Delegates: []Delegate{regular("Ana Reyes")}},
			ReceiptURL: "mem://receipts/r1",
			ActorID:    "pres-1",
		})
		s.Require().Error(err)
		s.True(domerrors.Is(err, domerrors.CodeDeadline))
		s.Equal("deadline_passed", domerrors.ReasonOf(err))
	})
}

func (s *WorkflowSuite) TestReviewBatch() {
	ctx := context.Background()

	s.Run("approve stamps reviewer and is terminal", func() {
		batch := s.submit("ch-1")

		reviewed, err := s.service.ReviewBatch(ctx, batch.ID, DecisionApprove, "", "admin-1")
		s.Require().NoError(err)
		s.Equal(BatchApproved, reviewed.Status)
		s.Equal("admin-1", reviewed.ReviewerID)
		s.Require().NotNil(reviewed.ReviewedAt)

		// A second decision on the same batch is a state error, not a race.
		_, err = s.service.ReviewBatch(ctx, batch.ID, DecisionReject, "changed my mind after all", "admin-2")
		s.Require().Error(err)
		s.True(domerrors.Is(err, domerrors.CodeState))
		s.Equal("not_pending", domerrors.ReasonOf(err))

		// The original decision is untouched.
		kept, err := s.store.FindBatch(ctx, batch.ID)
		s.Require().NoError(err)
		s.Equal(BatchApproved, kept.Status)
		s.Equal("admin-1", kept.ReviewerID)
	})

	s.Run("reject requires substantive remarks", func() {
		batch := s.submit("ch-2")

		_, err := s.service.ReviewBatch(ctx, batch.ID, DecisionReject, "bad", "admin-1")
		s.Require().Error(err)
		s.Equal("remarks_required", domerrors.ReasonOf(err))

		reviewed, err := s.service.ReviewBatch(ctx, batch.ID, DecisionReject, "receipt amount does not match the roster", "admin-1")
		s.Require().NoError(err)
		s.Equal(BatchRejected, reviewed.Status)
		s.Equal("receipt amount does not match the roster", reviewed.Remarks)
	})

	s.Run("approve discards remarks", func() {
		batch := s.submit("ch-3")
		reviewed, err := s.service.ReviewBatch(ctx, batch.ID, DecisionApprove, "looks fine to me", "admin-1")
		s.Require().NoError(err)
		s.Empty(reviewed.Remarks)
	})

	s.Run("unknown decision is rejected", func() {
		_, err := s.service.ReviewBatch(ctx, "whatever", "MAYBE", "", "admin-1")
		s.Require().Error(err)
		s.Equal("invalid_decision", domerrors.ReasonOf(err))
	})
}

func (s *WorkflowSuite) TestReviewRace() {
	ctx := context.Background()
	batch := s.submit("ch-1")

	// Simulate the loser of a concurrent review: the batch leaves PENDING
	// between the service's state check and its transition.
	_, err := s.store.TransitionBatch(ctx, batch.ID, BatchPending, BatchApproved,
		ReviewStamp{ReviewerID: "admin-1", ReviewedAt: s.now})
	s.Require().NoError(err)

	_, err = s.store.TransitionBatch(ctx, batch.ID, BatchPending, BatchRejected,
		ReviewStamp{ReviewerID: "admin-2", ReviewedAt: s.now})
	s.Require().Error(err)

	kept, err := s.store.FindBatch(ctx, batch.ID)
	s.Require().NoError(err)
	s.Equal(BatchApproved, kept.Status)
	s.Equal("admin-1", kept.ReviewerID)
}

func (s *WorkflowSuite) TestEditBatch() {
	ctx := context.Background()

	s.Run("pending batch is editable and fees recompute", func() {
		batch := s.submit("ch-1")

		edited, err := s.service.EditBatch(ctx, batch.ID,
			Roster{Delegates: []Delegate{regular("Ana Reyes"), regular("Ben Cruz")}},
			"mem://receipts/r2", "pres-1", "ch-1")
		s.Require().NoError(err)
		s.Equal(1, edited.BatchNumber)
		s.Equal(int64(80000), edited.TotalFee)
		s.Equal("mem://receipts/r2", edited.ReceiptURL)
	})

	s.Run("reviewed batch is frozen", func() {
		batch := s.submit("ch-2")
		_, err := s.service.ReviewBatch(ctx, batch.ID, DecisionApprove, "", "admin-1")
		s.Require().NoError(err)

		_, err = s.service.EditBatch(ctx, batch.ID,
			Roster{Delegates: []Delegate{regular("Ana Reyes")}},
			"mem://receipts/r3", "pres-1", "ch-2")
		s.Require().Error(err)
		s.True(domerrors.Is(err, domerrors.CodeState))
	})

	s.Run("another church cannot edit", func() {
		batch := s.submit("ch-3")
		_, err := s.service.EditBatch(ctx, batch.ID,
			Roster{Delegates: []Delegate{regular("Ana Reyes")}},
			"mem://receipts/r4", "pres-9", "ch-9")
		s.Require().Error(err)
		s.True(domerrors.Is(err, domerrors.CodeForbidden))
		s.Equal("wrong_church", domerrors.ReasonOf(err))
	})

	s.Run("first batch keeps first-batch roster rules", func() {
		batch := s.submit("ch-4")
		_, err := s.service.EditBatch(ctx, batch.ID,
			Roster{Cooks: []Cook{{FullName: "Fely Santos", Age: 45, Gender: GenderFemale}}},
			"mem://receipts/r5", "pres-1", "ch-4")
		s.Require().Error(err)
		s.Equal("roster_empty", domerrors.ReasonOf(err))
	})
}

func (s *WorkflowSuite) TestCancelBatch() {
	ctx := context.Background()

	s.Run("pending batch withdraws", func() {
		batch := s.submit("ch-1")
		s.Require().NoError(s.service.CancelBatch(ctx, batch.ID, "pres-1", "ch-1"))

		withdrawn, err := s.store.FindBatch(ctx, batch.ID)
		s.Require().NoError(err)
		s.Equal(BatchWithdrawn, withdrawn.Status)

		// The withdrawn batch stays on record but no longer drives status.
		view, err := s.service.GetRegistration(ctx, batch.RegistrationID)
		s.Require().NoError(err)
		s.Equal(RegistrationPending, view.Status)
	})

	s.Run("approved batch cannot be withdrawn", func() {
		batch := s.submit("ch-2")
		_, err := s.service.ReviewBatch(ctx, batch.ID, DecisionApprove, "", "admin-1")
		s.Require().NoError(err)

		err = s.service.CancelBatch(ctx, batch.ID, "pres-1", "ch-2")
		s.Require().Error(err)
		s.True(domerrors.Is(err, domerrors.CodeState))
	})
}

func (s *WorkflowSuite) TestRegistrationView() {
	ctx := context.Background()

	first, err := s.service.Submit(ctx, SubmitInput{
		ChurchID: "ch-1",
		EventID:  "ev-1",
		Roster: Roster{
			Delegates: []Delegate{regular("Ana Reyes"), regular("Ben Cruz")},
			Cooks:     []Cook{{FullName: "Fely Santos", Age: 45, Gender: GenderFemale}},
		},
		ReceiptURL: "mem://receipts/r1",
		ActorID:    "pres-1",
	})
	s.Require().NoError(err)

	second, err := s.service.Submit(ctx, SubmitInput{
		ChurchID:   "ch-1",
		EventID:    "ev-1",
		Roster:     Roster{Delegates: []Delegate{regular("Gino Tan")}},
		ReceiptURL: "mem://receipts/r2",
		ActorID:    "pres-1",
	})
	s.Require().NoError(err)

	_, err = s.service.ReviewBatch(ctx, first.ID, DecisionApprove, "", "admin-1")
	s.Require().NoError(err)

	view, err := s.service.GetRegistration(ctx, first.RegistrationID)
	s.Require().NoError(err)

	// One batch approved, one still pending.
	s.Equal(RegistrationPending, view.Status)
	s.Equal(2, view.ApprovedDelegates)
	s.Equal(1, view.ApprovedCooks)
	s.Equal(first.TotalFee, view.ApprovedFeeTotal)

	_, err = s.service.ReviewBatch(ctx, second.ID, DecisionApprove, "", "admin-1")
	s.Require().NoError(err)

	view, err = s.service.GetRegistration(ctx, first.RegistrationID)
	s.Require().NoError(err)
	s.Equal(RegistrationApproved, view.Status)
	s.Equal(3, view.ApprovedDelegates)
	s.Equal(first.TotalFee+second.TotalFee, view.ApprovedFeeTotal)
}

func (s *WorkflowSuite) TestPreviewFee() {
	quote, err := s.service.PreviewFee(context.Background(), "ev-1")
	s.Require().NoError(err)
	s.Equal(FeePreRegistration, quote.FeeType)

	_, err = s.service.PreviewFee(context.Background(), "ev-missing")
	s.Require().Error(err)
	s.True(domerrors.Is(err, domerrors.CodeNotFound))
}

func (s *WorkflowSuite) TestPrepareSubmitWritesNothing() {
	ctx := context.Background()

	quote, err := s.service.PrepareSubmit(ctx, "ch-1", "ev-1",
		Roster{Delegates: []Delegate{regular("Ana Reyes")}})
	s.Require().NoError(err)
	s.Equal(FeePreRegistration, quote.FeeType)

	_, err = s.store.FindRegistrationByChurchEvent(ctx, "ch-1", "ev-1")
	s.Require().Error(err)

	_, err = s.service.PrepareSubmit(ctx, "ch-1", "ev-1",
		Roster{Delegates: []Delegate{regular("Ana Reyes"), sibling("Carla Reyes")}})
	s.Require().Error(err)
	s.Equal("sibling_threshold", domerrors.ReasonOf(err))
}
