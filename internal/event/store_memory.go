package event

import (
	"context"
	"sync"
	"time"

	id "roadwatch/pkg/domain"
	"roadwatch/pkg/platform/sentinel"
)

const defaultPageSize = 100

// InMemoryStore keeps events in append order per subject.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.SubjectID][]*Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.SubjectID][]*Event)}
}

func (s *InMemoryStore) Append(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = id.NewEventID()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	cp := *e
	s.events[e.SubjectID] = append(s.events[e.SubjectID], &cp)
	return nil
}

func (s *InMemoryStore) LatestPerRegion(_ context.Context, subjectID id.SubjectID, regionIDs []id.RegionID) (map[id.RegionID]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[id.RegionID]bool, len(regionIDs))
	for _, rid := range regionIDs {
		wanted[rid] = true
	}
	out := make(map[id.RegionID]*Event)
	// Append order doubles as creation order; the last match wins.
	for _, e := range s.events[subjectID] {
		if wanted[e.RegionID] {
			cp := *e
			out[e.RegionID] = &cp
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subjectID id.SubjectID, regionID id.RegionID, limit int) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = defaultPageSize
	}
	// Append order is creation order; walk backwards for newest first.
	var out []*Event
	all := s.events[subjectID]
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		e := all[i]
		if !regionID.IsNil() && e.RegionID != regionID {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) AttachSideEffects(_ context.Context, eventID id.EventID, ledgerEntryID id.LedgerEntryID, notificationID id.NotificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, events := range s.events {
		for _, e := range events {
			if e.ID == eventID {
				if !ledgerEntryID.IsNil() {
					e.LedgerEntryID = ledgerEntryID
				}
				if !notificationID.IsNil() {
					e.NotificationID = notificationID
				}
				return nil
			}
		}
	}
	return sentinel.ErrNotFound
}
