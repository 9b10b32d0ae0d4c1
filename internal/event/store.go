package event

import (
	"context"

	id "roadwatch/pkg/domain"
)

// Store is the append-only event log. No update or delete of the action,
// position, or timestamps — ever. AttachSideEffects only backfills the
// side-effect references on an existing row.
type Store interface {
	// Append assigns the event an ID and creation time and persists it.
	Append(ctx context.Context, e *Event) error

	// LatestPerRegion returns the most recent event for each of the given
	// regions in one batched query; regions with no history are absent
	// from the map.
	LatestPerRegion(ctx context.Context, subjectID id.SubjectID, regionIDs []id.RegionID) (map[id.RegionID]*Event, error)

	// ListBySubject returns the subject's events newest first, optionally
	// filtered to one region. limit <= 0 means a default page.
	ListBySubject(ctx context.Context, subjectID id.SubjectID, regionID id.RegionID, limit int) ([]*Event, error)

	// AttachSideEffects links a posted ledger entry and/or notification to
	// the event. Best-effort; failure is logged and ignored by callers.
	AttachSideEffects(ctx context.Context, eventID id.EventID, ledgerEntryID id.LedgerEntryID, notificationID id.NotificationID) error
}
