// Package allowance manages recurring weekly allowance settings and payouts.
package allowance

import (
	"time"

	id "roadwatch/pkg/domain"
	dErrors "roadwatch/pkg/domain-errors"
)

// Settings holds one subject's recurring allowance. A zero WeeklyCents means
// the allowance is paused without losing the configuration.
type Settings struct {
	SubjectID   id.SubjectID
	GuardianID  id.GuardianID
	WeeklyCents int64
	PayoutDay   time.Weekday
	LastPaidAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s *Settings) Validate() error {
	if s.SubjectID.IsNil() || s.GuardianID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "subject and guardian ids required")
	}
	if s.WeeklyCents < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "weekly amount must not be negative")
	}
	if s.PayoutDay < time.Sunday || s.PayoutDay > time.Saturday {
		return dErrors.New(dErrors.CodeInvalidInput, "payout day must be a weekday 0-6")
	}
	return nil
}

// Due reports whether a payout should run at now: the configured weekday has
// arrived and no payout happened in the last six days.
func (s *Settings) Due(now time.Time) bool {
	if s.WeeklyCents == 0 {
		return false
	}
	if now.Weekday() != s.PayoutDay {
		return false
	}
	if s.LastPaidAt == nil {
		return true
	}
	return now.Sub(*s.LastPaidAt) > 6*24*time.Hour
}
