package device

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	id "roadwatch/pkg/domain"
	"roadwatch/pkg/platform/sentinel"
	txcontext "roadwatch/pkg/platform/tx"
)

// PostgresStore persists devices in the devices table.
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

const deviceColumns = `id, guardian_id, subject_id, name, api_key_hash, last_seen_at, created_at`

func (s *PostgresStore) Create(ctx context.Context, d *Device) error {
	query := `
		INSERT INTO devices (` + deviceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		d.ID.String(), d.GuardianID.String(), d.SubjectID.String(),
		d.Name, d.APIKeyHash, d.LastSeenAt, d.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert device: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, deviceID id.DeviceID) (*Device, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE id = $1`, deviceID.String())
	d, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find device: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) ListByGuardian(ctx context.Context, guardianID id.GuardianID) ([]*Device, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE guardian_id = $1 ORDER BY created_at`,
		guardianID.String())
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var out []*Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) TouchLastSeen(ctx context.Context, deviceID id.DeviceID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE devices SET last_seen_at = now() WHERE id = $1`, deviceID.String())
	if err != nil {
		return fmt.Errorf("touch device: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, deviceID id.DeviceID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM devices WHERE id = $1`, deviceID.String())
	if err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*Device, error) {
	var (
		d          Device
		deviceID   string
		guardianID string
		subjectID  string
		lastSeen   sql.NullTime
	)
	err := row.Scan(&deviceID, &guardianID, &subjectID, &d.Name, &d.APIKeyHash,
		&lastSeen, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	did, err := id.ParseDeviceID(deviceID)
	if err != nil {
		return nil, err
	}
	gid, err := id.ParseGuardianID(guardianID)
	if err != nil {
		return nil, err
	}
	sid, err := id.ParseSubjectID(subjectID)
	if err != nil {
		return nil, err
	}
	d.ID = did
	d.GuardianID = gid
	d.SubjectID = sid
	if lastSeen.Valid {
		t := lastSeen.Time
		d.LastSeenAt = &t
	}
	return &d, nil
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
