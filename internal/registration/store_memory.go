package registration

import (
	"context"
	"sort"
	"sync"

	"campreg/pkg/sentinel"
)

// InMemoryStore backs tests and local development. A single mutex serializes
// the same races the postgres store guards with constraints and conditional
// updates.
type InMemoryStore struct {
	mu            sync.RWMutex
	registrations map[string]Registration // by id, batches excluded
	byChurchEvent map[[2]string]string    // (churchID,eventID) -> registration id
	batches       map[string]Batch        // by id
	batchesByReg  map[string][]string     // registration id -> batch ids in order
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		registrations: make(map[string]Registration),
		byChurchEvent: make(map[[2]string]string),
		batches:       make(map[string]Batch),
		batchesByReg:  make(map[string][]string),
	}
}

// CreateRegistration inserts a registration row without any batches. It
// exists for tests that need to reproduce a registration stranded by a crash
// mid-submission; the submission path always goes through
// CreateRegistrationWithBatch.
func (s *InMemoryStore) CreateRegistration(_ context.Context, reg Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]string{reg.ChurchID, reg.EventID}
	if _, ok := s.byChurchEvent[key]; ok {
		return sentinel.ErrConflict
	}
	reg.Batches = nil
	s.registrations[reg.ID] = reg
	s.byChurchEvent[key] = reg.ID
	return nil
}

func (s *InMemoryStore) CreateRegistrationWithBatch(_ context.Context, reg Registration, batch Batch) (Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]string{reg.ChurchID, reg.EventID}
	if _, ok := s.byChurchEvent[key]; ok {
		return Batch{}, sentinel.ErrConflict
	}
	reg.Batches = nil
	s.registrations[reg.ID] = reg
	s.byChurchEvent[key] = reg.ID
	batch.RegistrationID = reg.ID
	batch.BatchNumber = 1
	s.batches[batch.ID] = batch
	s.batchesByReg[reg.ID] = []string{batch.ID}
	return batch, nil
}

func (s *InMemoryStore) FindRegistration(_ context.Context, id string) (Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findRegistrationLocked(id)
}

func (s *InMemoryStore) findRegistrationLocked(id string) (Registration, error) {
	reg, ok := s.registrations[id]
	if !ok {
		return Registration{}, sentinel.ErrNotFound
	}
	for _, batchID := range s.batchesByReg[id] {
		reg.Batches = append(reg.Batches, s.batches[batchID])
	}
	return reg, nil
}

func (s *InMemoryStore) FindRegistrationByChurchEvent(_ context.Context, churchID, eventID string) (Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byChurchEvent[[2]string{churchID, eventID}]
	if !ok {
		return Registration{}, sentinel.ErrNotFound
	}
	return s.findRegistrationLocked(id)
}

func (s *InMemoryStore) ListRegistrationsByEvent(_ context.Context, eventID string) ([]Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Registration
	for id, reg := range s.registrations {
		if reg.EventID != eventID {
			continue
		}
		full, _ := s.findRegistrationLocked(id)
		out = append(out, full)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) AppendBatch(_ context.Context, registrationID string, batch Batch) (Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registrations[registrationID]; !ok {
		return Batch{}, sentinel.ErrNotFound
	}
	batch.RegistrationID = registrationID
	batch.BatchNumber = len(s.batchesByReg[registrationID]) + 1
	s.batches[batch.ID] = batch
	s.batchesByReg[registrationID] = append(s.batchesByReg[registrationID], batch.ID)
	return batch, nil
}

func (s *InMemoryStore) FindBatch(_ context.Context, batchID string) (Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, ok := s.batches[batchID]
	if !ok {
		return Batch{}, sentinel.ErrNotFound
	}
	return batch, nil
}

func (s *InMemoryStore) ReplacePendingBatch(_ context.Context, batch Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.batches[batch.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Status != BatchPending {
		return sentinel.ErrStaleState
	}
	// Identity and position never change on edit.
	batch.RegistrationID = current.RegistrationID
	batch.BatchNumber = current.BatchNumber
	batch.Status = BatchPending
	s.batches[batch.ID] = batch
	return nil
}

func (s *InMemoryStore) TransitionBatch(_ context.Context, batchID string, expected, next BatchStatus, stamp ReviewStamp) (Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.batches[batchID]
	if !ok {
		return Batch{}, sentinel.ErrNotFound
	}
	if batch.Status != expected {
		return Batch{}, sentinel.ErrStaleState
	}
	batch.Status = next
	if stamp.ReviewerID != "" {
		batch.ReviewerID = stamp.ReviewerID
		reviewedAt := stamp.ReviewedAt
		batch.ReviewedAt = &reviewedAt
	}
	batch.Remarks = stamp.Remarks
	s.batches[batch.ID] = batch
	return batch, nil
}

func (s *InMemoryStore) ListBatchRecords(_ context.Context, filter Filter) ([]BatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []BatchRecord
	for regID, batchIDs := range s.batchesByReg {
		reg := s.registrations[regID]
		for _, batchID := range batchIDs {
			rec := BatchRecord{Batch: s.batches[batchID], ChurchID: reg.ChurchID, EventID: reg.EventID}
			if filter.Matches(rec) {
				out = append(out, rec)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (s *InMemoryStore) ChurchHasPending(_ context.Context, churchID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for regID, batchIDs := range s.batchesByReg {
		if s.registrations[regID].ChurchID != churchID {
			continue
		}
		for _, batchID := range batchIDs {
			if s.batches[batchID].Status == BatchPending {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *InMemoryStore) ChurchHasParticipantData(_ context.Context, churchID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for regID, batchIDs := range s.batchesByReg {
		if s.registrations[regID].ChurchID != churchID {
			continue
		}
		if s.hasParticipantsLocked(batchIDs) {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) EventHasParticipantData(_ context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for regID, batchIDs := range s.batchesByReg {
		if s.registrations[regID].EventID != eventID {
			continue
		}
		if s.hasParticipantsLocked(batchIDs) {
			return true, nil
		}
	}
	return false, nil
}

// hasParticipantsLocked ignores withdrawn batches; a fully withdrawn
// registration no longer blocks deletion.
func (s *InMemoryStore) hasParticipantsLocked(batchIDs []string) bool {
	for _, batchID := range batchIDs {
		batch := s.batches[batchID]
		if batch.Status == BatchWithdrawn {
			continue
		}
		if batch.Roster.Size() > 0 {
			return true
		}
	}
	return false
}
