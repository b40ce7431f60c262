package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"caremon-go/internal/domain"
	"caremon-go/internal/store"
)

// TelemetryRepository is an in-memory implementation of
// store.TelemetryRepository. Samples are kept per ward in observation
// order; queries sort on demand.
type TelemetryRepository struct {
	mu sync.RWMutex

	// samples holds all persisted samples per ward id.
	samples map[string][]*domain.MetricSample
}

// NewTelemetryRepository creates a new in-memory telemetry repository.
func NewTelemetryRepository() *TelemetryRepository {
	return &TelemetryRepository{
		samples: make(map[string][]*domain.MetricSample),
	}
}

// CreateBatch stores all samples of a batch in a single write.
func (r *TelemetryRepository) CreateBatch(ctx context.Context, batch *domain.TelemetryBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range batch.Samples {
		// Store a copy to prevent external modification
		sample := batch.Samples[i]
		sample.WardID = batch.WardID
		sample.DeviceID = batch.DeviceID
		r.samples[batch.WardID] = append(r.samples[batch.WardID], &sample)
	}

	return nil
}

// ListByWard retrieves samples for a ward matching the filter, newest first.
func (r *TelemetryRepository) ListByWard(ctx context.Context, wardID string, filter store.TelemetryFilter) ([]*domain.MetricSample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*domain.MetricSample
	for _, sample := range r.samples[wardID] {
		if filter.MetricType != "" && sample.Type != filter.MetricType {
			continue
		}
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

// Latest retrieves the most recent sample per metric type for a ward.
func (r *TelemetryRepository) Latest(ctx context.Context, wardID string) ([]*domain.MetricSample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latest := make(map[domain.MetricType]*domain.MetricSample)
	for _, sample := range r.samples[wardID] {
		current, ok := latest[sample.Type]
		if !ok || sample.ObservedAt.After(current.ObservedAt) {
			latest[sample.Type] = sample
		}
	}

	results := make([]*domain.MetricSample, 0, len(latest))
	for _, sample := range latest {
		sampleCopy := *sample
		results = append(results, &sampleCopy)
	}

	// Deterministic order for API responses.
	sort.Slice(results, func(i, j int) bool {
		return results[i].Type < results[j].Type
	})

	return results, nil
}

// DeleteOlderThan removes samples observed before the cutoff.
func (r *TelemetryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for wardID, samples := range r.samples {
		kept := samples[:0]
		for _, sample := range samples {
			if sample.ObservedAt.Before(cutoff) {
				deleted++
				continue
			}
			kept = append(kept, sample)
		}
		if len(kept) == 0 {
			delete(r.samples, wardID)
		} else {
			r.samples[wardID] = kept
		}
	}

	return deleted, nil
}

// Clear removes all data from the repository. Useful for test cleanup.
func (r *TelemetryRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples = make(map[string][]*domain.MetricSample)
}

// paginate applies offset and limit to an already-sorted result slice.
func paginate[T any](results []T, offset, limit int) []T {
	start := offset
	if start > len(results) {
		start = len(results)
	}

	end := len(results)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	return results[start:end]
}
