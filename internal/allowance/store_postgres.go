package allowance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	id "roadwatch/pkg/domain"
	"roadwatch/pkg/platform/sentinel"
	txcontext "roadwatch/pkg/platform/tx"
)

// PostgresStore persists allowance settings keyed by subject.
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

const allowanceColumns = `subject_id, guardian_id, weekly_cents, payout_day, last_paid_at, created_at, updated_at`

func (s *PostgresStore) Upsert(ctx context.Context, settings *Settings) error {
	query := `
		INSERT INTO allowance_settings (` + allowanceColumns + `)
		VALUES ($1, $2, $3, $4, NULL, now(), now())
		ON CONFLICT (subject_id) DO UPDATE SET
			guardian_id = EXCLUDED.guardian_id,
			weekly_cents = EXCLUDED.weekly_cents,
			payout_day = EXCLUDED.payout_day,
			updated_at = now()
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		settings.SubjectID.String(), settings.GuardianID.String(),
		settings.WeeklyCents, int(settings.PayoutDay),
	)
	if err != nil {
		return fmt.Errorf("upsert allowance settings: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindBySubject(ctx context.Context, subjectID id.SubjectID) (*Settings, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+allowanceColumns+` FROM allowance_settings WHERE subject_id = $1`,
		subjectID.String())
	settings, err := scanSettings(row)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find allowance settings: %w", err)
	}
	return settings, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*Settings, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+allowanceColumns+` FROM allowance_settings ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list allowance settings: %w", err)
	}
	defer rows.Close()

	var out []*Settings
	for rows.Next() {
		settings, err := scanSettings(rows)
		if err != nil {
			return nil, fmt.Errorf("scan allowance settings: %w", err)
		}
		out = append(out, settings)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list allowance settings: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkPaid(ctx context.Context, subjectID id.SubjectID, paidAt time.Time) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE allowance_settings SET last_paid_at = $2, updated_at = now() WHERE subject_id = $1`,
		subjectID.String(), paidAt)
	if err != nil {
		return fmt.Errorf("mark allowance paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSettings(row rowScanner) (*Settings, error) {
	var (
		settings   Settings
		subjectID  string
		guardianID string
		payoutDay  int
		lastPaid   sql.NullTime
	)
	err := row.Scan(&subjectID, &guardianID, &settings.WeeklyCents, &payoutDay,
		&lastPaid, &settings.CreatedAt, &settings.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sid, err := id.ParseSubjectID(subjectID)
	if err != nil {
		return nil, err
	}
	gid, err := id.ParseGuardianID(guardianID)
	if err != nil {
		return nil, err
	}
	settings.SubjectID = sid
	settings.GuardianID = gid
	settings.PayoutDay = time.Weekday(payoutDay)
	if lastPaid.Valid {
		t := lastPaid.Time
		settings.LastPaidAt = &t
	}
	return &settings, nil
}
