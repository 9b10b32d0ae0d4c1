// Package service implements guardian-facing region CRUD with validation.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"roadwatch/internal/region"
	id "roadwatch/pkg/domain"
	dErrors "roadwatch/pkg/domain-errors"
	"roadwatch/pkg/platform/sentinel"
)

// Service validates region writes and enforces guardian ownership. It keeps
// orchestration out of handlers and the store dumb.
type Service struct {
	store  region.Store
	logger *slog.Logger
}

func NewService(store region.Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Create validates and persists a new region owned by guardianID.
func (s *Service) Create(ctx context.Context, guardianID id.GuardianID, r *region.Region) (*region.Region, error) {
	now := time.Now()
	r.ID = id.NewRegionID()
	r.GuardianID = guardianID
	r.CreatedAt = now
	r.UpdatedAt = now
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to create region", err)
	}
	return r, nil
}

// Update replaces a region's settings. The region must exist and belong to
// the guardian.
func (s *Service) Update(ctx context.Context, guardianID id.GuardianID, r *region.Region) (*region.Region, error) {
	if r.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "region id required")
	}
	r.GuardianID = guardianID
	if err := r.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.store.FindByID(ctx, r.ID)
	if err != nil {
		return nil, translateStore(err, "region")
	}
	if existing.GuardianID != guardianID {
		return nil, dErrors.New(dErrors.CodeForbidden, "region belongs to another guardian")
	}
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = time.Now()
	if err := s.store.Update(ctx, r); err != nil {
		return nil, translateStore(err, "region")
	}
	return r, nil
}

// Delete removes a region. Historical events are retained; only future
// evaluation stops.
func (s *Service) Delete(ctx context.Context, guardianID id.GuardianID, regionID id.RegionID) error {
	if err := s.store.Delete(ctx, guardianID, regionID); err != nil {
		return translateStore(err, "region")
	}
	s.logger.InfoContext(ctx, "region deleted",
		"guardian_id", guardianID.String(),
		"region_id", regionID.String(),
	)
	return nil
}

// Get returns one region, enforcing guardian scope.
func (s *Service) Get(ctx context.Context, guardianID id.GuardianID, regionID id.RegionID) (*region.Region, error) {
	r, err := s.store.FindByID(ctx, regionID)
	if err != nil {
		return nil, translateStore(err, "region")
	}
	if r.GuardianID != guardianID {
		return nil, dErrors.New(dErrors.CodeNotFound, "region not found")
	}
	return r, nil
}

// List returns the guardian's regions, including inactive ones; the
// dashboard shows both.
func (s *Service) List(ctx context.Context, guardianID id.GuardianID) ([]*region.Region, error) {
	regions, err := s.store.ListByGuardian(ctx, guardianID, false)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list regions", err)
	}
	return regions, nil
}

func translateStore(err error, what string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, what+" conflict")
	default:
		return dErrors.Wrap(dErrors.CodeInternal, "storage failure", err)
	}
}
