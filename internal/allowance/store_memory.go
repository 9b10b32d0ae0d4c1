package allowance

import (
	"context"
	"sync"
	"time"

	id "roadwatch/pkg/domain"
	"roadwatch/pkg/platform/sentinel"
)

// InMemoryStore keeps allowance settings in a map; used in tests and dev mode.
type InMemoryStore struct {
	mu       sync.RWMutex
	settings map[id.SubjectID]*Settings
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{settings: make(map[id.SubjectID]*Settings)}
}

func (s *InMemoryStore) Upsert(_ context.Context, settings *Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *settings
	if existing, ok := s.settings[settings.SubjectID]; ok {
		cp.CreatedAt = existing.CreatedAt
		cp.LastPaidAt = existing.LastPaidAt
	} else {
		cp.CreatedAt = time.Now()
	}
	cp.UpdatedAt = time.Now()
	s.settings[settings.SubjectID] = &cp
	return nil
}

func (s *InMemoryStore) FindBySubject(_ context.Context, subjectID id.SubjectID) (*Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	settings, ok := s.settings[subjectID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *settings
	return &cp, nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]*Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Settings, 0, len(s.settings))
	for _, settings := range s.settings {
		cp := *settings
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) MarkPaid(_ context.Context, subjectID id.SubjectID, paidAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, ok := s.settings[subjectID]
	if !ok {
		return sentinel.ErrNotFound
	}
	settings.LastPaidAt = &paidAt
	return nil
}
