package region

import (
	"context"
	"sync"
	"time"

	id "roadwatch/pkg/domain"
	"roadwatch/pkg/platform/sentinel"
)

// InMemoryStore keeps regions in a map; used in tests and dev mode.
type InMemoryStore struct {
	mu      sync.RWMutex
	regions map[id.RegionID]*Region
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{regions: make(map[id.RegionID]*Region)}
}

func (s *InMemoryStore) Create(_ context.Context, r *Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.regions[r.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *r
	s.regions[r.ID] = &cp
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, r *Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.regions[r.ID]
	if !ok || existing.GuardianID != r.GuardianID {
		return sentinel.ErrNotFound
	}
	cp := *r
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now()
	s.regions[r.ID] = &cp
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, guardianID id.GuardianID, regionID id.RegionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.regions[regionID]
	if !ok || existing.GuardianID != guardianID {
		return sentinel.ErrNotFound
	}
	delete(s.regions, regionID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, regionID id.RegionID) (*Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.regions[regionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *InMemoryStore) ListByGuardian(_ context.Context, guardianID id.GuardianID, activeOnly bool) ([]*Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Region
	for _, r := range s.regions {
		if r.GuardianID != guardianID {
			continue
		}
		if activeOnly && !r.Active {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}
