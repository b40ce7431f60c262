package memory

import (
	"context"
	"sync"

	"caremon-go/internal/store"
)

// ContainmentStore is an in-memory implementation of
// store.ContainmentStore, keyed by (ward, geofence) pair.
type ContainmentStore struct {
	mu sync.RWMutex

	state map[containmentKey]*store.Containment
}

type containmentKey struct {
	wardID     string
	geofenceID string
}

// NewContainmentStore creates a new in-memory containment store.
func NewContainmentStore() *ContainmentStore {
	return &ContainmentStore{
		state: make(map[containmentKey]*store.Containment),
	}
}

// Get retrieves the last-known containment for a pair.
// Returns nil, nil when the pair has never been observed.
func (s *ContainmentStore) Get(ctx context.Context, wardID, geofenceID string) (*store.Containment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.state[containmentKey{wardID, geofenceID}]
	if !exists {
		return nil, nil
	}

	result := *c
	return &result, nil
}

// Set records the containment status for a pair.
func (s *ContainmentStore) Set(ctx context.Context, wardID, geofenceID string, c *store.Containment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stateCopy := *c
	s.state[containmentKey{wardID, geofenceID}] = &stateCopy

	return nil
}

// Delete removes the entry for a pair.
func (s *ContainmentStore) Delete(ctx context.Context, wardID, geofenceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.state, containmentKey{wardID, geofenceID})

	return nil
}

// Close releases resources. A no-op for the in-memory store.
func (s *ContainmentStore) Close() error {
	return nil
}
