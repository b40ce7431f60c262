package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"caremon-go/internal/domain"
	"caremon-go/internal/store"
)

// LocationRepository is an in-memory implementation of
// store.LocationRepository.
type LocationRepository struct {
	mu sync.RWMutex

	// locations holds all persisted samples per ward id.
	locations map[string][]*domain.LocationSample
}

// NewLocationRepository creates a new in-memory location repository.
func NewLocationRepository() *LocationRepository {
	return &LocationRepository{
		locations: make(map[string][]*domain.LocationSample),
	}
}

// Create stores a single location sample.
func (r *LocationRepository) Create(ctx context.Context, sample *domain.LocationSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sampleCopy := *sample
	r.locations[sample.WardID] = append(r.locations[sample.WardID], &sampleCopy)

	return nil
}

// Latest retrieves the most recent location for a ward.
// Returns nil, nil when no location has been recorded.
func (r *LocationRepository) Latest(ctx context.Context, wardID string) (*domain.LocationSample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *domain.LocationSample
	for _, sample := range r.locations[wardID] {
		if latest == nil || sample.ObservedAt.After(latest.ObservedAt) {
			latest = sample
		}
	}
	if latest == nil {
		return nil, nil
	}

	result := *latest
	return &result, nil
}

// History retrieves location samples for a ward in a time range, newest
// first.
func (r *LocationRepository) History(ctx context.Context, wardID string, filter store.LocationFilter) ([]*domain.LocationSample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*domain.LocationSample
	for _, sample := range r.locations[wardID] {
		if !filter.From.IsZero() && sample.ObservedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && sample.ObservedAt.After(filter.To) {
			continue
		}

		sampleCopy := *sample
		results = append(results, &sampleCopy)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ObservedAt.After(results[j].ObservedAt)
	})

	return paginate(results, filter.Offset, filter.Limit), nil
}

// DeleteOlderThan removes samples observed before the cutoff.
func (r *LocationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for wardID, samples := range r.locations {
		kept := samples[:0]
		for _, sample := range samples {
			if sample.ObservedAt.Before(cutoff) {
				deleted++
				continue
			}
			kept = append(kept, sample)
		}
		if len(kept) == 0 {
			delete(r.locations, wardID)
		} else {
			r.locations[wardID] = kept
		}
	}

	return deleted, nil
}

// Clear removes all data from the repository. Useful for test cleanup.
func (r *LocationRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.locations = make(map[string][]*domain.LocationSample)
}
