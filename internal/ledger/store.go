package ledger

import (
	"context"

	id "roadwatch/pkg/domain"
)

// Store is the append-only persistence behind the gateway. No update, no
// delete.
type Store interface {
	Append(ctx context.Context, e *Entry) error
	ListBySubject(ctx context.Context, subjectID id.SubjectID, limit int) ([]*Entry, error)
	// BalanceCents sums all entries for the subject.
	BalanceCents(ctx context.Context, subjectID id.SubjectID) (int64, error)
}
