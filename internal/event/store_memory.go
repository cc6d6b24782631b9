package event

import (
	"context"
	"sort"
	"sync"

	"campreg/pkg/sentinel"
)

// InMemoryStore backs tests and local development.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string]Event)}
}

func (s *InMemoryStore) Save(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[ev.ID]; ok {
		return sentinel.ErrConflict
	}
	s.events[ev.ID] = ev
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[ev.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.events[ev.ID] = ev
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return Event{}, sentinel.ErrNotFound
	}
	return ev, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.events, id)
	return nil
}
