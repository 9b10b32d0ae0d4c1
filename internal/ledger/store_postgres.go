package ledger

import (
	"context"
	"database/sql"
	"fmt"

	id "roadwatch/pkg/domain"
	txcontext "roadwatch/pkg/platform/tx"
)

// PostgresStore persists entries in the ledger_entries table.
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

func (s *PostgresStore) Append(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO ledger_entries (id, subject_id, guardian_id, direction, amount_cents, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		e.ID.String(), e.SubjectID.String(), e.GuardianID.String(),
		string(e.Direction), e.AmountCents, e.Description, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID id.SubjectID, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	query := fmt.Sprintf(`
		SELECT id, subject_id, guardian_id, direction, amount_cents, description, created_at
		FROM ledger_entries
		WHERE subject_id = $1
		ORDER BY created_at DESC
		LIMIT %d
	`, limit)
	rows, err := s.execer(ctx).QueryContext(ctx, query, subjectID.String())
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var (
			e                             Entry
			entryID, subject, guardian, d string
		)
		if err := rows.Scan(&entryID, &subject, &guardian, &d, &e.AmountCents, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		eid, err := id.ParseLedgerEntryID(entryID)
		if err != nil {
			return nil, err
		}
		sid, err := id.ParseSubjectID(subject)
		if err != nil {
			return nil, err
		}
		gid, err := id.ParseGuardianID(guardian)
		if err != nil {
			return nil, err
		}
		e.ID, e.SubjectID, e.GuardianID, e.Direction = eid, sid, gid, Direction(d)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) BalanceCents(ctx context.Context, subjectID id.SubjectID) (int64, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN direction = 'debit' THEN -amount_cents ELSE amount_cents END), 0)
		FROM ledger_entries
		WHERE subject_id = $1
	`
	var balance int64
	if err := s.execer(ctx).QueryRowContext(ctx, query, subjectID.String()).Scan(&balance); err != nil {
		return 0, fmt.Errorf("sum ledger entries: %w", err)
	}
	return balance, nil
}
