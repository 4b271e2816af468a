// Package store provides in-memory storage for compiled bundles, the
// same mutex-guarded-map shape the teacher used for workflows and
// executions, repurposed to hold compile results instead of running
// execution state.
package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Bundle is one compile run's emitted files, addressable by ID for
// later retrieval via GET /v1/bundles/:id.
type Bundle struct {
	ID         string
	CreateTime time.Time
	Files      map[string]string // emitted path -> contents
}

// Store is a thread-safe in-memory table of compiled bundles.
type Store struct {
	mu      sync.RWMutex
	bundles map[string]*Bundle
}

// New creates a new empty store.
func New() *Store {
	return &Store{bundles: make(map[string]*Bundle)}
}

// Put stores a flat {path: contents} bundle under a fresh ID.
func (s *Store) Put(files map[string]string) *Bundle {
	b := &Bundle{
		ID:         uuid.New().String(),
		CreateTime: time.Now(),
		Files:      files,
	}

	s.mu.Lock()
	s.bundles[b.ID] = b
	s.mu.Unlock()

	return b
}

// Get retrieves a bundle by ID.
func (s *Store) Get(id string) (*Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bundles[id]
	if !ok {
		return nil, fmt.Errorf("bundle %q not found", id)
	}
	return b, nil
}
