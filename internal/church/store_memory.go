package church

import (
	"context"
	"sort"
	"sync"

	"campreg/pkg/sentinel"
)

type InMemoryStore struct {
	mu         sync.RWMutex
	divisions  map[string]Division
	churches   map[string]Church
	presidents map[string]President
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		divisions:  make(map[string]Division),
		churches:   make(map[string]Church),
		presidents: make(map[string]President),
	}
}

func (s *InMemoryStore) SaveDivision(_ context.Context, d Division) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.divisions[d.ID]; ok {
		return sentinel.ErrConflict
	}
	s.divisions[d.ID] = d
	return nil
}

func (s *InMemoryStore) FindDivision(_ context.Context, id string) (Division, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.divisions[id]
	if !ok {
		return Division{}, sentinel.ErrNotFound
	}
	return d, nil
}

func (s *InMemoryStore) ListDivisions(_ context.Context) ([]Division, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Division, 0, len(s.divisions))
	for _, d := range s.divisions {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) SaveChurch(_ context.Context, c Church) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.churches[c.ID]; ok {
		return sentinel.ErrConflict
	}
	s.churches[c.ID] = c
	return nil
}

func (s *InMemoryStore) UpdateChurch(_ context.Context, c Church) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.churches[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.churches[c.ID] = c
	return nil
}

func (s *InMemoryStore) FindChurch(_ context.Context, id string) (Church, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.churches[id]
	if !ok {
		return Church{}, sentinel.ErrNotFound
	}
	return c, nil
}

func (s *InMemoryStore) ListChurches(_ context.Context, divisionID string) ([]Church, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Church
	for _, c := range s.churches {
		if divisionID == "" || c.DivisionID == divisionID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) DeleteChurch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.churches[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.churches, id)
	return nil
}

func (s *InMemoryStore) SavePresident(_ context.Context, p President) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.presidents[p.ID]; ok {
		return sentinel.ErrConflict
	}
	s.presidents[p.ID] = p
	return nil
}

func (s *InMemoryStore) UpdatePresident(_ context.Context, p President) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.presidents[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.presidents[p.ID] = p
	return nil
}

func (s *InMemoryStore) FindPresident(_ context.Context, id string) (President, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.presidents[id]
	if !ok {
		return President{}, sentinel.ErrNotFound
	}
	return p, nil
}

func (s *InMemoryStore) ListPresidents(_ context.Context, churchID string) ([]President, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []President
	for _, p := range s.presidents {
		if churchID == "" || p.ChurchID == churchID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}
