package region

import (
	"context"

	id "roadwatch/pkg/domain"
)

// Store persists regions. Implementations return sentinel.ErrNotFound for
// missing rows; validation happens in the service before writes so stored
// regions always satisfy Region.Validate.
type Store interface {
	Create(ctx context.Context, r *Region) error
	Update(ctx context.Context, r *Region) error
	// Delete removes the region only. Historical events keep their region
	// reference; they are never cascaded away.
	Delete(ctx context.Context, guardianID id.GuardianID, regionID id.RegionID) error
	FindByID(ctx context.Context, regionID id.RegionID) (*Region, error)
	// ListByGuardian returns the guardian's regions, optionally filtered to
	// active ones. The per-sample evaluation path always passes activeOnly.
	ListByGuardian(ctx context.Context, guardianID id.GuardianID, activeOnly bool) ([]*Region, error)
}
