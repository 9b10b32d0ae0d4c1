package event

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	id "roadwatch/pkg/domain"
	txcontext "roadwatch/pkg/platform/tx"
)

// PostgresStore persists events in the subject_region_events table.
// The table has no update path except the side-effect reference columns.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, e *Event) error {
	e.ID = id.NewEventID()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO subject_region_events
			(id, subject_id, guardian_id, region_id, trip_id, action, lat, lon, address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var tripID any
	if !e.TripID.IsNil() {
		tripID = e.TripID.String()
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		e.ID.String(), e.SubjectID.String(), e.GuardianID.String(), e.RegionID.String(),
		tripID, string(e.Action), e.Lat, e.Lon, nullString(e.Address), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// LatestPerRegion uses DISTINCT ON to resolve the most recent event per
// region in a single round trip, deliberately avoiding an N+1 loop.
func (s *PostgresStore) LatestPerRegion(ctx context.Context, subjectID id.SubjectID, regionIDs []id.RegionID) (map[id.RegionID]*Event, error) {
	if len(regionIDs) == 0 {
		return map[id.RegionID]*Event{}, nil
	}
	ids := make([]string, 0, len(regionIDs))
	for _, rid := range regionIDs {
		ids = append(ids, rid.String())
	}
	query := `
		SELECT DISTINCT ON (region_id)
			id, subject_id, guardian_id, region_id, trip_id, action, lat, lon, address,
			ledger_entry_id, notification_id, created_at
		FROM subject_region_events
		WHERE subject_id = $1 AND region_id = ANY($2)
		ORDER BY region_id, created_at DESC, id DESC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, subjectID.String(), pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("latest events: %w", err)
	}
	defer rows.Close()

	out := make(map[id.RegionID]*Event)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out[e.RegionID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("latest events: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID id.SubjectID, regionID id.RegionID, limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	query := `
		SELECT id, subject_id, guardian_id, region_id, trip_id, action, lat, lon, address,
			ledger_entry_id, notification_id, created_at
		FROM subject_region_events
		WHERE subject_id = $1
	`
	args := []any{subjectID.String()}
	if !regionID.IsNil() {
		query += ` AND region_id = $2`
		args = append(args, regionID.String())
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AttachSideEffects(ctx context.Context, eventID id.EventID, ledgerEntryID id.LedgerEntryID, notificationID id.NotificationID) error {
	query := `
		UPDATE subject_region_events SET
			ledger_entry_id = COALESCE($2, ledger_entry_id),
			notification_id = COALESCE($3, notification_id)
		WHERE id = $1
	`
	var ledger, notif any
	if !ledgerEntryID.IsNil() {
		ledger = ledgerEntryID.String()
	}
	if !notificationID.IsNil() {
		notif = notificationID.String()
	}
	_, err := s.execer(ctx).ExecContext(ctx, query, eventID.String(), ledger, notif)
	if err != nil {
		return fmt.Errorf("attach side effects: %w", err)
	}
	return nil
}

func scanEvent(rows *sql.Rows) (*Event, error) {
	var (
		e                                      Event
		eventID, subjectID, guardianID, region string
		tripID, address, ledgerID, notifID     sql.NullString
		action                                 string
	)
	err := rows.Scan(&eventID, &subjectID, &guardianID, &region, &tripID, &action,
		&e.Lat, &e.Lon, &address, &ledgerID, &notifID, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	parsed, err := parseEventIDs(eventID, subjectID, guardianID, region)
	if err != nil {
		return nil, err
	}
	e.ID, e.SubjectID, e.GuardianID, e.RegionID = parsed.event, parsed.subject, parsed.guardian, parsed.region
	e.Action = Action(action)
	e.Address = address.String
	if tripID.Valid {
		if tid, err := id.ParseTripID(tripID.String); err == nil {
			e.TripID = tid
		}
	}
	if ledgerID.Valid {
		if u, err := id.ParseLedgerEntryID(ledgerID.String); err == nil {
			e.LedgerEntryID = u
		}
	}
	if notifID.Valid {
		if u, err := id.ParseNotificationID(notifID.String); err == nil {
			e.NotificationID = u
		}
	}
	return &e, nil
}

type eventIDs struct {
	event    id.EventID
	subject  id.SubjectID
	guardian id.GuardianID
	region   id.RegionID
}

func parseEventIDs(eventID, subjectID, guardianID, regionID string) (eventIDs, error) {
	var out eventIDs
	eid, err := id.ParseEventID(eventID)
	if err != nil {
		return out, err
	}
	sid, err := id.ParseSubjectID(subjectID)
	if err != nil {
		return out, err
	}
	gid, err := id.ParseGuardianID(guardianID)
	if err != nil {
		return out, err
	}
	rid, err := id.ParseRegionID(regionID)
	if err != nil {
		return out, err
	}
	out = eventIDs{event: eid, subject: sid, guardian: gid, region: rid}
	return out, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
