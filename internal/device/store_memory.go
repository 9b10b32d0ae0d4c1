package device

import (
	"context"
	"sort"
	"sync"
	"time"

	id "roadwatch/pkg/domain"
	"roadwatch/pkg/platform/sentinel"
)

// InMemoryStore keeps devices in a map; used in tests and dev mode.
type InMemoryStore struct {
	mu      sync.RWMutex
	devices map[id.DeviceID]*Device
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{devices: make(map[id.DeviceID]*Device)}
}

func (s *InMemoryStore) Create(_ context.Context, d *Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.devices[d.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *d
	s.devices[d.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, deviceID id.DeviceID) (*Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[deviceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *InMemoryStore) ListByGuardian(_ context.Context, guardianID id.GuardianID) ([]*Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Device
	for _, d := range s.devices {
		if d.GuardianID != guardianID {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) TouchLastSeen(_ context.Context, deviceID id.DeviceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[deviceID]
	if !ok {
		return sentinel.ErrNotFound
	}
	now := time.Now()
	d.LastSeenAt = &now
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, deviceID id.DeviceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[deviceID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.devices, deviceID)
	return nil
}
