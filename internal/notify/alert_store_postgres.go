package notify

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	id "roadwatch/pkg/domain"
	"roadwatch/pkg/platform/sentinel"
	txcontext "roadwatch/pkg/platform/tx"
)

// PostgresAlertStore persists alerts in the alerts table.
type PostgresAlertStore struct {
	db *sql.DB
}

func NewPostgresAlertStore(db *sql.DB) *PostgresAlertStore {
	return &PostgresAlertStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresAlertStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresAlertStore) CreateAlert(ctx context.Context, subjectID id.SubjectID, guardianID id.GuardianID, message string, severity Severity) (id.AlertID, error) {
	alertID := id.NewAlertID()
	query := `
		INSERT INTO alerts (id, subject_id, guardian_id, message, severity, acknowledged, created_at)
		VALUES ($1, $2, $3, $4, $5, false, $6)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		alertID.String(), subjectID.String(), guardianID.String(), message, string(severity), time.Now(),
	)
	if err != nil {
		return id.AlertID{}, fmt.Errorf("insert alert: %w", err)
	}
	return alertID, nil
}

func (s *PostgresAlertStore) ListByGuardian(ctx context.Context, guardianID id.GuardianID, unackedOnly bool) ([]*Alert, error) {
	query := `
		SELECT id, subject_id, guardian_id, message, severity, acknowledged, created_at
		FROM alerts
		WHERE guardian_id = $1
	`
	if unackedOnly {
		query += ` AND NOT acknowledged`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.execer(ctx).QueryContext(ctx, query, guardianID.String())
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var out []*Alert
	for rows.Next() {
		var (
			a                       Alert
			alertID, subject, owner string
			severity                string
		)
		if err := rows.Scan(&alertID, &subject, &owner, &a.Message, &severity, &a.Acknowledged, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		aid, err := id.ParseAlertID(alertID)
		if err != nil {
			return nil, err
		}
		sid, err := id.ParseSubjectID(subject)
		if err != nil {
			return nil, err
		}
		gid, err := id.ParseGuardianID(owner)
		if err != nil {
			return nil, err
		}
		a.ID, a.SubjectID, a.GuardianID, a.Severity = aid, sid, gid, Severity(severity)
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return out, nil
}

func (s *PostgresAlertStore) Acknowledge(ctx context.Context, guardianID id.GuardianID, alertID id.AlertID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE alerts SET acknowledged = true WHERE id = $1 AND guardian_id = $2`,
		alertID.String(), guardianID.String(),
	)
	if err != nil {
		return fmt.Errorf("acknowledge alert: %w", err)
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
