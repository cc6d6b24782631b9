package registration

import (
	"context"
	"time"
)

// BatchRecord is a batch joined with its registration context, used by the
// read-side reporting fold.
type BatchRecord struct {
	Batch
	ChurchID string
	EventID  string
}

// Filter narrows batch record listings. Zero values mean "no constraint".
type Filter struct {
	EventID       string
	ChurchID      string
	Status        BatchStatus
	SubmittedFrom time.Time
	SubmittedTo   time.Time
}

// Matches reports whether a record passes the filter.
func (f Filter) Matches(rec BatchRecord) bool {
	if f.EventID != "" && rec.EventID != f.EventID {
		return false
	}
	if f.ChurchID != "" && rec.ChurchID != f.ChurchID {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if !f.SubmittedFrom.IsZero() && rec.SubmittedAt.Before(f.SubmittedFrom) {
		return false
	}
	if !f.SubmittedTo.IsZero() && rec.SubmittedAt.After(f.SubmittedTo) {
		return false
	}
	return true
}

// ReviewStamp carries the reviewer metadata applied on a transition out of
// PENDING.
type ReviewStamp struct {
	ReviewerID string
	ReviewedAt time.Time
	Remarks    string
}

// Store persists registrations and batches. Implementations must provide the
// two race guards the engine relies on:
//
//   - CreateRegistrationWithBatch returns sentinel.ErrConflict when a
//     registration for the same (church, event) already exists, so concurrent
//     first submissions serialize onto one registration.
//   - TransitionBatch applies the status change only while the batch still
//     holds the expected current status, returning sentinel.ErrStaleState to
//     the loser of a review race.
type Store interface {
	// CreateRegistrationWithBatch persists a new registration together with
	// its first batch as one atomic unit. A failure leaves neither row
	// behind; a registration can never exist without its opening batch.
	CreateRegistrationWithBatch(ctx context.Context, reg Registration, batch Batch) (Batch, error)
	FindRegistration(ctx context.Context, id string) (Registration, error)
	FindRegistrationByChurchEvent(ctx context.Context, churchID, eventID string) (Registration, error)
	ListRegistrationsByEvent(ctx context.Context, eventID string) ([]Registration, error)

	// AppendBatch assigns the next batch number atomically and persists the
	// batch under its registration.
	AppendBatch(ctx context.Context, registrationID string, batch Batch) (Batch, error)
	FindBatch(ctx context.Context, batchID string) (Batch, error)
	// ReplacePendingBatch swaps roster, receipt and fee figures; fails with
	// sentinel.ErrStaleState once the batch has left PENDING.
	ReplacePendingBatch(ctx context.Context, batch Batch) error
	// TransitionBatch moves batchID from expected to next, stamping reviewer
	// metadata when next is a review outcome.
	TransitionBatch(ctx context.Context, batchID string, expected, next BatchStatus, stamp ReviewStamp) (Batch, error)

	ListBatchRecords(ctx context.Context, filter Filter) ([]BatchRecord, error)

	// Dependency guards for reference-data mutations.
	ChurchHasPending(ctx context.Context, churchID string) (bool, error)
	ChurchHasParticipantData(ctx context.Context, churchID string) (bool, error)
	EventHasParticipantData(ctx context.Context, eventID string) (bool, error)
}
