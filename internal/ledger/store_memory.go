package ledger

import (
	"context"
	"sync"

	id "roadwatch/pkg/domain"
)

const defaultPageSize = 100

// InMemoryStore keeps entries in append order per subject.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.SubjectID][]*Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.SubjectID][]*Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.entries[e.SubjectID] = append(s.entries[e.SubjectID], &cp)
	return nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subjectID id.SubjectID, limit int) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = defaultPageSize
	}
	entries := s.entries[subjectID]
	out := make([]*Entry, 0, len(entries))
	// Newest first.
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *entries[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) BalanceCents(_ context.Context, subjectID id.SubjectID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, e := range s.entries[subjectID] {
		total += e.Signed()
	}
	return total, nil
}
