package manifest

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("not found")

// Store archives run manifests.
type Store interface {
	// Save archives a manifest under its run ID.
	Save(ctx context.Context, m *Manifest) error

	// Get retrieves a manifest by run ID.
	// Returns ErrNotFound for unknown runs.
	Get(ctx context.Context, runID string) (*Manifest, error)

	// List returns the most recent manifests, newest first, up to limit.
	List(ctx context.Context, limit int) ([]*Manifest, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// MemoryStore keeps manifests in process memory. Suited to development and
// tests; archived runs vanish on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Manifest
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*Manifest)}
}

// Save archives a manifest.
func (s *MemoryStore) Save(ctx context.Context, m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[m.RunID] = m
	return nil
}

// Get retrieves a manifest by run ID.
func (s *MemoryStore) Get(ctx context.Context, runID string) (*Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.runs[runID]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}

// List returns manifests newest first.
func (s *MemoryStore) List(ctx context.Context, limit int) ([]*Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Manifest, 0, len(s.runs))
	for _, m := range s.runs {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close does nothing for the memory store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
