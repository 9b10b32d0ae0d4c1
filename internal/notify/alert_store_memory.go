package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	id "roadwatch/pkg/domain"
	"roadwatch/pkg/platform/sentinel"
)

// InMemoryAlertStore keeps alerts per guardian; tests and dev mode.
type InMemoryAlertStore struct {
	mu     sync.RWMutex
	alerts map[id.GuardianID][]*Alert
}

func NewInMemoryAlertStore() *InMemoryAlertStore {
	return &InMemoryAlertStore{alerts: make(map[id.GuardianID][]*Alert)}
}

func (s *InMemoryAlertStore) CreateAlert(_ context.Context, subjectID id.SubjectID, guardianID id.GuardianID, message string, severity Severity) (id.AlertID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	alert := &Alert{
		ID:         id.NewAlertID(),
		SubjectID:  subjectID,
		GuardianID: guardianID,
		Message:    message,
		Severity:   severity,
		CreatedAt:  time.Now(),
	}
	s.alerts[guardianID] = append(s.alerts[guardianID], alert)
	return alert.ID, nil
}

func (s *InMemoryAlertStore) ListByGuardian(_ context.Context, guardianID id.GuardianID, unackedOnly bool) ([]*Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Alert
	for _, a := range s.alerts[guardianID] {
		if unackedOnly && a.Acknowledged {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryAlertStore) Acknowledge(_ context.Context, guardianID id.GuardianID, alertID id.AlertID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.alerts[guardianID] {
		if a.ID == alertID {
			a.Acknowledged = true
			return nil
		}
	}
	return sentinel.ErrNotFound
}
