package region

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	id "roadwatch/pkg/domain"
	"roadwatch/pkg/platform/sentinel"
	txcontext "roadwatch/pkg/platform/tx"
)

// PostgresStore persists regions in the regions table. Allowed weekdays are
// stored as an int[] column and scanned through pq.Array.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const regionColumns = `id, guardian_id, name, lat, lon, radius_meters, category,
	allowed_days, start_minute, end_minute, bonus_cents, penalty_cents,
	notify_on_entry, notify_on_exit, active, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, r *Region) error {
	query := `
		INSERT INTO regions (` + regionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	days, start, end := windowColumns(r.Window)
	_, err := s.execer(ctx).ExecContext(ctx, query,
		r.ID.String(), r.GuardianID.String(), r.Name, r.Lat, r.Lon, r.RadiusMeters,
		string(r.Category), days, start, end, r.BonusCents, r.PenaltyCents,
		r.NotifyOnEntry, r.NotifyOnExit, r.Active, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert region: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, r *Region) error {
	query := `
		UPDATE regions SET
			name = $3, lat = $4, lon = $5, radius_meters = $6, category = $7,
			allowed_days = $8, start_minute = $9, end_minute = $10,
			bonus_cents = $11, penalty_cents = $12,
			notify_on_entry = $13, notify_on_exit = $14, active = $15,
			updated_at = $16
		WHERE id = $1 AND guardian_id = $2
	`
	days, start, end := windowColumns(r.Window)
	res, err := s.execer(ctx).ExecContext(ctx, query,
		r.ID.String(), r.GuardianID.String(), r.Name, r.Lat, r.Lon, r.RadiusMeters,
		string(r.Category), days, start, end, r.BonusCents, r.PenaltyCents,
		r.NotifyOnEntry, r.NotifyOnExit, r.Active, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("update region: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, guardianID id.GuardianID, regionID id.RegionID) error {
	// Events are intentionally untouched; history survives region deletion.
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM regions WHERE id = $1 AND guardian_id = $2`,
		regionID.String(), guardianID.String(),
	)
	if err != nil {
		return fmt.Errorf("delete region: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) FindByID(ctx context.Context, regionID id.RegionID) (*Region, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+regionColumns+` FROM regions WHERE id = $1`, regionID.String())
	r, err := scanRegion(row)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find region: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListByGuardian(ctx context.Context, guardianID id.GuardianID, activeOnly bool) ([]*Region, error) {
	query := `SELECT ` + regionColumns + ` FROM regions WHERE guardian_id = $1`
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY created_at`
	rows, err := s.execer(ctx).QueryContext(ctx, query, guardianID.String())
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	defer rows.Close()

	var out []*Region
	for rows.Next() {
		r, err := scanRegion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	return out, nil
}

func windowColumns(w *TimeWindow) (any, *int, *int) {
	if w == nil {
		return pq.Array([]int64{}), nil, nil
	}
	days := make([]int64, 0, len(w.AllowedDays))
	for _, d := range w.AllowedDays {
		days = append(days, int64(d))
	}
	return pq.Array(days), w.StartMinute, w.EndMinute
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegion(row rowScanner) (*Region, error) {
	var (
		r          Region
		regionID   string
		guardianID string
		category   string
		days       []int64
		start, end sql.NullInt64
	)
	err := row.Scan(&regionID, &guardianID, &r.Name, &r.Lat, &r.Lon, &r.RadiusMeters,
		&category, pq.Array(&days), &start, &end, &r.BonusCents, &r.PenaltyCents,
		&r.NotifyOnEntry, &r.NotifyOnExit, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rid, err := id.ParseRegionID(regionID)
	if err != nil {
		return nil, err
	}
	gid, err := id.ParseGuardianID(guardianID)
	if err != nil {
		return nil, err
	}
	r.ID = rid
	r.GuardianID = gid
	r.Category = Category(category)

	if len(days) > 0 || start.Valid {
		w := &TimeWindow{}
		for _, d := range days {
			w.AllowedDays = append(w.AllowedDays, time.Weekday(d))
		}
		if start.Valid && end.Valid {
			sm, em := int(start.Int64), int(end.Int64)
			w.StartMinute, w.EndMinute = &sm, &em
		}
		r.Window = w
	}
	return &r, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
