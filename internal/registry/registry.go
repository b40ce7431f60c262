// Package registry resolves reporting devices to the monitored person
// (ward) they are assigned to.
package registry

import (
	"context"
	"errors"
)

// ErrDeviceNotAssigned is returned when a device has no ward assignment.
var ErrDeviceNotAssigned = errors.New("device is not assigned to a ward")

// DeviceRegistry maps device identities to ward identities. Resolution
// failures never block ingestion; callers fall back to the unknown ward.
type DeviceRegistry interface {
	// WardIDForDevice resolves a device id to the assigned ward id.
	// Returns ErrDeviceNotAssigned when the device has no assignment.
	WardIDForDevice(ctx context.Context, deviceID string) (string, error)
}
