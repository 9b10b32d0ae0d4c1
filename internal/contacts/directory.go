// Package contacts resolves subject and guardian contact info for
// notifications. Account management lives in a separate system; this package
// only carries what the notifier needs.
package contacts

import (
	"context"
	"sync"

	"roadwatch/internal/fence"
	id "roadwatch/pkg/domain"
	"roadwatch/pkg/email"
	"roadwatch/pkg/platform/sentinel"
)

// StaticDirectory is an in-process directory populated at startup or by
// tests. Subject names fall back to a guess from the email address.
type StaticDirectory struct {
	mu      sync.RWMutex
	entries map[id.SubjectID]fence.Contacts
}

func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{entries: make(map[id.SubjectID]fence.Contacts)}
}

func (d *StaticDirectory) Put(subjectID id.SubjectID, c fence.Contacts) {
	if c.SubjectName == "" && c.SubjectEmail != "" {
		c.SubjectName = email.DisplayName(c.SubjectEmail)
	}
	d.mu.Lock()
	d.entries[subjectID] = c
	d.mu.Unlock()
}

func (d *StaticDirectory) Lookup(_ context.Context, subjectID id.SubjectID, _ id.GuardianID) (fence.Contacts, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.entries[subjectID]
	if !ok {
		return fence.Contacts{}, sentinel.ErrNotFound
	}
	return c, nil
}

// NoopDirectory resolves nothing. Evaluation still runs; notifications go
// out without contact details.
type NoopDirectory struct{}

func (NoopDirectory) Lookup(context.Context, id.SubjectID, id.GuardianID) (fence.Contacts, error) {
	return fence.Contacts{}, nil
}
