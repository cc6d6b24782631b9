// Package filestore is the port to the external receipt-storage collaborator.
// The engine only ever holds the opaque URL it returns.
package filestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Store uploads a receipt image and returns an opaque reference URL. Upload
// failure must abort the submission that triggered it; a batch never persists
// with a missing receipt.
type Store interface {
	StoreFile(ctx context.Context, data []byte, contentType string) (string, error)
}

// InMemoryStore keeps uploads in process memory for tests and local dev.
type InMemoryStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{files: make(map[string][]byte)}
}

func (s *InMemoryStore) StoreFile(_ context.Context, data []byte, _ string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty file")
	}
	key := uuid.NewString()
	s.mu.Lock()
	s.files[key] = append([]byte(nil), data...)
	s.mu.Unlock()
	return "mem://receipts/" + key, nil
}

// Len reports the number of stored files, for tests.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Get retrieves a stored file by its URL, for tests.
func (s *InMemoryStore) Get(url string) ([]byte, bool) {
	const prefix = "mem://receipts/"
	if len(url) <= len(prefix) {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[url[len(prefix):]]
	return data, ok
}
