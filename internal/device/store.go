package device

import (
	"context"

	id "roadwatch/pkg/domain"
)

// Store defines the persistence interface for devices.
type Store interface {
	Create(ctx context.Context, d *Device) error
	FindByID(ctx context.Context, deviceID id.DeviceID) (*Device, error)
	ListByGuardian(ctx context.Context, guardianID id.GuardianID) ([]*Device, error)
	TouchLastSeen(ctx context.Context, deviceID id.DeviceID) error
	Delete(ctx context.Context, deviceID id.DeviceID) error
}
