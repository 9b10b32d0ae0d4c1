// Package event is the append-only record of subject-region transitions.
// The latest event per (subject, region) is the sole source of truth for
// "is the subject currently inside" — there is no persisted current-state
// field to drift out of sync.
package event

import (
	"time"

	id "roadwatch/pkg/domain"
)

// Action is what happened at a region boundary.
type Action string

const (
	// ActionEnter and ActionExit alternate per (subject, region).
	ActionEnter Action = "enter"
	ActionExit  Action = "exit"
	// ActionViolation may repeat while the subject stays in a region under
	// violating conditions; it does not participate in the alternation.
	ActionViolation Action = "violation"
)

// Event is immutable once appended. LedgerEntryID and NotificationID are
// backfilled after side effects post, for traceability only; the next
// evaluation cycle never reads them.
type Event struct {
	ID         id.EventID
	SubjectID  id.SubjectID
	GuardianID id.GuardianID
	RegionID   id.RegionID
	TripID     id.TripID // optional correlation
	Action     Action
	Lat        float64
	Lon        float64
	Address    string // optional human-readable position

	LedgerEntryID  id.LedgerEntryID
	NotificationID id.NotificationID

	CreatedAt time.Time
}
