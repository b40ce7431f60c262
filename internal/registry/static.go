package registry

import (
	"context"
	"sync"
)

// StaticRegistry is an in-process DeviceRegistry backed by a fixed
// device-to-ward map, typically loaded from configuration. Used in
// memory mode and in tests.
type StaticRegistry struct {
	mu      sync.RWMutex
	devices map[string]string
}

// NewStaticRegistry creates a registry from a device-to-ward map.
func NewStaticRegistry(devices map[string]string) *StaticRegistry {
	m := make(map[string]string, len(devices))
	for deviceID, wardID := range devices {
		m[deviceID] = wardID
	}
	return &StaticRegistry{devices: m}
}

// WardIDForDevice resolves a device id against the static map.
func (r *StaticRegistry) WardIDForDevice(ctx context.Context, deviceID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wardID, ok := r.devices[deviceID]
	if !ok || wardID == "" {
		return "", ErrDeviceNotAssigned
	}
	return wardID, nil
}

// Assign adds or replaces a device assignment.
func (r *StaticRegistry) Assign(deviceID, wardID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[deviceID] = wardID
}
