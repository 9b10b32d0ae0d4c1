package allowance

import (
	"context"
	"time"

	id "roadwatch/pkg/domain"
)

// Store defines the persistence interface for allowance settings. One row
// per subject; Upsert creates or replaces it.
type Store interface {
	Upsert(ctx context.Context, s *Settings) error
	FindBySubject(ctx context.Context, subjectID id.SubjectID) (*Settings, error)
	ListAll(ctx context.Context) ([]*Settings, error)
	MarkPaid(ctx context.Context, subjectID id.SubjectID, paidAt time.Time) error
}
