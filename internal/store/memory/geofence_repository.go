package memory

import (
	"context"
	"sort"
	"sync"

	"caremon-go/internal/domain"
)

// GeofenceRepository is an in-memory implementation of
// store.GeofenceRepository. Geofences are indexed by ID and by ward for
// the monitor's hot-path read.
type GeofenceRepository struct {
	mu sync.RWMutex

	// geofences stores all geofences by their ID
	geofences map[string]*domain.Geofence

	// byWard provides fast lookup of geofence IDs per ward
	byWard map[string]map[string]struct{}
}

// NewGeofenceRepository creates a new in-memory geofence repository.
func NewGeofenceRepository() *GeofenceRepository {
	return &GeofenceRepository{
		geofences: make(map[string]*domain.Geofence),
		byWard:    make(map[string]map[string]struct{}),
	}
}

// Create stores a new geofence.
func (r *GeofenceRepository) Create(ctx context.Context, g *domain.Geofence) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to prevent external modification
	fenceCopy := copyGeofence(g)
	r.geofences[g.ID] = fenceCopy

	if r.byWard[g.WardID] == nil {
		r.byWard[g.WardID] = make(map[string]struct{})
	}
	r.byWard[g.WardID][g.ID] = struct{}{}

	return nil
}

// Update modifies an existing geofence.
func (r *GeofenceRepository) Update(ctx context.Context, g *domain.Geofence) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.geofences[g.ID]
	if !exists {
		return domain.ErrGeofenceNotFound
	}

	fenceCopy := copyGeofence(g)
	r.geofences[g.ID] = fenceCopy

	// Handle ward change (unlikely but handle it)
	if existing.WardID != g.WardID {
		delete(r.byWard[existing.WardID], g.ID)
		if r.byWard[g.WardID] == nil {
			r.byWard[g.WardID] = make(map[string]struct{})
		}
		r.byWard[g.WardID][g.ID] = struct{}{}
	}

	return nil
}

// Delete removes a geofence by ID.
func (r *GeofenceRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.geofences[id]
	if !exists {
		return domain.ErrGeofenceNotFound
	}

	delete(r.geofences, id)
	delete(r.byWard[existing.WardID], id)

	return nil
}

// GetByID retrieves a geofence by its ID.
func (r *GeofenceRepository) GetByID(ctx context.Context, id string) (*domain.Geofence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, exists := r.geofences[id]
	if !exists {
		return nil, domain.ErrGeofenceNotFound
	}

	return copyGeofence(g), nil
}

// ListByWard retrieves all geofences for a ward.
func (r *GeofenceRepository) ListByWard(ctx context.Context, wardID string) ([]*domain.Geofence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.listByWard(wardID, false), nil
}

// ListEnabledByWard retrieves the ward's enabled geofences only.
func (r *GeofenceRepository) ListEnabledByWard(ctx context.Context, wardID string) ([]*domain.Geofence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.listByWard(wardID, true), nil
}

// listByWard assumes the caller holds the lock.
func (r *GeofenceRepository) listByWard(wardID string, enabledOnly bool) []*domain.Geofence {
	var results []*domain.Geofence
	for id := range r.byWard[wardID] {
		g := r.geofences[id]
		if g == nil {
			continue
		}
		if enabledOnly && !g.Enabled {
			continue
		}
		results = append(results, copyGeofence(g))
	}

	// Deterministic order for API responses.
	sort.Slice(results, func(i, j int) bool {
		return results[i].ID < results[j].ID
	})

	return results
}

// Clear removes all data from the repository. Useful for test cleanup.
func (r *GeofenceRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.geofences = make(map[string]*domain.Geofence)
	r.byWard = make(map[string]map[string]struct{})
}

// copyGeofence deep-copies a geofence including its shape definition.
func copyGeofence(g *domain.Geofence) *domain.Geofence {
	fenceCopy := *g
	if g.Circle != nil {
		circleCopy := *g.Circle
		fenceCopy.Circle = &circleCopy
	}
	if g.Polygon != nil {
		fenceCopy.Polygon = append([]domain.GeoPoint(nil), g.Polygon...)
	}
	return &fenceCopy
}
