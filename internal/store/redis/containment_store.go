// Package redis provides a Redis-based implementation of the containment store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"caremon-go/internal/config"
	"caremon-go/internal/store"
)

// prefixContainment namespaces containment state entries.
const prefixContainment = "containment:"

// ContainmentStore implements store.ContainmentStore using Redis, so
// multiple service instances share one view of last-known containment.
type ContainmentStore struct {
	client *redis.Client
}

// NewContainmentStore creates a new Redis-backed containment store.
func NewContainmentStore(cfg *config.RedisConfig) (*ContainmentStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &ContainmentStore{client: client}, nil
}

// containmentKey generates the Redis key for a (ward, geofence) pair.
func containmentKey(wardID, geofenceID string) string {
	return fmt.Sprintf("%s%s:%s", prefixContainment, wardID, geofenceID)
}

// Get retrieves the last-known containment for a pair.
// Returns nil, nil when the pair has never been observed.
func (s *ContainmentStore) Get(ctx context.Context, wardID, geofenceID string) (*store.Containment, error) {
	key := containmentKey(wardID, geofenceID)

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get containment: %w", err)
	}

	var c store.Containment
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal containment: %w", err)
	}

	return &c, nil
}

// Set records the containment status for a pair.
func (s *ContainmentStore) Set(ctx context.Context, wardID, geofenceID string, c *store.Containment) error {
	key := containmentKey(wardID, geofenceID)

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal containment: %w", err)
	}

	// No TTL - containment persists until the geofence is deleted
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set containment: %w", err)
	}

	return nil
}

// Delete removes the entry for a pair.
func (s *ContainmentStore) Delete(ctx context.Context, wardID, geofenceID string) error {
	key := containmentKey(wardID, geofenceID)

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete containment: %w", err)
	}

	return nil
}

// Close closes the Redis client connection.
func (s *ContainmentStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
