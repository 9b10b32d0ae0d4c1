package ledger

import (
	"context"
	"log/slog"
	"time"

	id "roadwatch/pkg/domain"
	dErrors "roadwatch/pkg/domain-errors"
)

// Gateway is the write-append sink the transition engine and allowance
// payout post through.
type Gateway interface {
	PostCredit(ctx context.Context, subjectID id.SubjectID, guardianID id.GuardianID, amountCents int64, description string) (id.LedgerEntryID, error)
	PostDebit(ctx context.Context, subjectID id.SubjectID, guardianID id.GuardianID, amountCents int64, description string) (id.LedgerEntryID, error)
}

// Service implements Gateway over a Store and serves the dashboard's
// balance and statement reads.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) PostCredit(ctx context.Context, subjectID id.SubjectID, guardianID id.GuardianID, amountCents int64, description string) (id.LedgerEntryID, error) {
	return s.post(ctx, subjectID, guardianID, DirectionCredit, amountCents, description)
}

func (s *Service) PostDebit(ctx context.Context, subjectID id.SubjectID, guardianID id.GuardianID, amountCents int64, description string) (id.LedgerEntryID, error) {
	return s.post(ctx, subjectID, guardianID, DirectionDebit, amountCents, description)
}

func (s *Service) post(ctx context.Context, subjectID id.SubjectID, guardianID id.GuardianID, direction Direction, amountCents int64, description string) (id.LedgerEntryID, error) {
	entry := &Entry{
		ID:          id.NewLedgerEntryID(),
		SubjectID:   subjectID,
		GuardianID:  guardianID,
		Direction:   direction,
		AmountCents: amountCents,
		Description: description,
		CreatedAt:   time.Now(),
	}
	if err := entry.Validate(); err != nil {
		return id.LedgerEntryID{}, err
	}
	if err := s.store.Append(ctx, entry); err != nil {
		return id.LedgerEntryID{}, dErrors.Wrap(dErrors.CodeInternal, "failed to post ledger entry", err)
	}
	s.logger.InfoContext(ctx, "ledger entry posted",
		"entry_id", entry.ID.String(),
		"subject_id", subjectID.String(),
		"direction", string(direction),
		"amount_cents", amountCents,
	)
	return entry.ID, nil
}

// Balance returns the subject's running balance in cents.
func (s *Service) Balance(ctx context.Context, subjectID id.SubjectID) (int64, error) {
	balance, err := s.store.BalanceCents(ctx, subjectID)
	if err != nil {
		return 0, dErrors.Wrap(dErrors.CodeInternal, "failed to compute balance", err)
	}
	return balance, nil
}

// Statement returns the subject's most recent entries.
func (s *Service) Statement(ctx context.Context, subjectID id.SubjectID, limit int) ([]*Entry, error) {
	entries, err := s.store.ListBySubject(ctx, subjectID, limit)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list ledger entries", err)
	}
	return entries, nil
}
