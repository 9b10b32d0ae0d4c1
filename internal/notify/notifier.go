// Package notify delivers best-effort notifications to guardians and
// subjects and records guardian-visible alerts. Delivery failure is never
// allowed to affect region evaluation; callers log and move on.
package notify

import (
	"context"
	"time"

	id "roadwatch/pkg/domain"
)

// Kind labels what a notification is about.
type Kind string

const (
	KindRegionEntry Kind = "region_entry"
	KindRegionExit  Kind = "region_exit"
	KindViolation   Kind = "violation"
	KindAllowance   Kind = "allowance_payout"
)

// Notification addresses whichever contacts are known; empty emails are
// skipped by implementations.
type Notification struct {
	ID            id.NotificationID
	SubjectEmail  string
	GuardianEmail string
	SubjectName   string
	Kind          Kind
	Details       string
	CreatedAt     time.Time
}

// Notifier is the delivery gateway. Implementations must be best-effort:
// a returned error means "not delivered", never "stop processing".
type Notifier interface {
	Notify(ctx context.Context, n *Notification) error
}

// Severity of a guardian-visible alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is a persistent guardian-visible record, unlike a notification
// which is fire-and-forget delivery.
type Alert struct {
	ID           id.AlertID
	SubjectID    id.SubjectID
	GuardianID   id.GuardianID
	Message      string
	Severity     Severity
	Acknowledged bool
	CreatedAt    time.Time
}

// AlertSink records alerts. The transition engine treats this as
// best-effort like the notifier.
type AlertSink interface {
	CreateAlert(ctx context.Context, subjectID id.SubjectID, guardianID id.GuardianID, message string, severity Severity) (id.AlertID, error)
}

// AlertStore adds the dashboard reads on top of the sink.
type AlertStore interface {
	AlertSink
	ListByGuardian(ctx context.Context, guardianID id.GuardianID, unackedOnly bool) ([]*Alert, error)
	Acknowledge(ctx context.Context, guardianID id.GuardianID, alertID id.AlertID) error
}
