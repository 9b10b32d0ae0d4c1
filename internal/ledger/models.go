// Package ledger is the append-only record of allowance credits and
// debits. Balance is always derived by summing entries; there is no
// mutable balance row to drift.
package ledger

import (
	"time"

	id "roadwatch/pkg/domain"
	dErrors "roadwatch/pkg/domain-errors"
)

// Direction of a ledger entry.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Entry is immutable once posted. Corrections are posted as opposing
// entries, never edits.
type Entry struct {
	ID          id.LedgerEntryID
	SubjectID   id.SubjectID
	GuardianID  id.GuardianID
	Direction   Direction
	AmountCents int64 // always positive; Direction carries the sign
	Description string
	CreatedAt   time.Time
}

// Validate enforces posting invariants.
func (e *Entry) Validate() error {
	if e.SubjectID.IsNil() || e.GuardianID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "ledger entry requires subject and guardian")
	}
	if e.AmountCents <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "ledger amount must be positive")
	}
	if e.Direction != DirectionCredit && e.Direction != DirectionDebit {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid ledger direction")
	}
	return nil
}

// Signed returns the entry amount with its direction applied.
func (e *Entry) Signed() int64 {
	if e.Direction == DirectionDebit {
		return -e.AmountCents
	}
	return e.AmountCents
}
