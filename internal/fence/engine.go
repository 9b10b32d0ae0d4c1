// Package fence is the transition engine: it turns raw location samples
// into region-membership deltas and drives side effects (ledger postings,
// alerts, notifications) exactly once per delta.
//
// Membership state is derived from the latest event per (subject, region);
// there is no persisted current-state row to drift from the truth.
package fence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"roadwatch/internal/event"
	"roadwatch/internal/fence/metrics"
	"roadwatch/internal/geo"
	"roadwatch/internal/ledger"
	"roadwatch/internal/notify"
	"roadwatch/internal/region"
	"roadwatch/internal/stream"
	id "roadwatch/pkg/domain"
	dErrors "roadwatch/pkg/domain-errors"
)

// Sample is one parsed telemetry reading handed over by ingestion.
// Coordinates are validated upstream.
type Sample struct {
	SubjectID  id.SubjectID
	GuardianID id.GuardianID
	Lat        float64
	Lon        float64
	Address    string // optional
	TripID     id.TripID
}

// Contacts is what the notifier needs to reach the people involved.
type Contacts struct {
	SubjectName   string
	SubjectEmail  string
	GuardianEmail string
}

// ContactDirectory resolves contact info for notifications. Account
// management is an external collaborator; a lookup failure only degrades
// notifications, never evaluation.
type ContactDirectory interface {
	Lookup(ctx context.Context, subjectID id.SubjectID, guardianID id.GuardianID) (Contacts, error)
}

// Engine evaluates samples against the guardian's active regions.
type Engine struct {
	regions  region.Store
	events   event.Store
	ledger   ledger.Gateway
	notifier notify.Notifier
	alerts   notify.AlertSink
	contacts ContactDirectory
	stream   stream.Publisher
	locker   SubjectLocker
	cooldown CooldownGate
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithClock injects the time source; tests pin it to exercise curfew windows.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMetrics attaches engine metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithStream attaches the transition stream publisher.
func WithStream(p stream.Publisher) Option {
	return func(e *Engine) { e.stream = p }
}

// NewEngine wires the engine to its collaborators. locker and cooldown are
// mandatory; pass NewKeyedMutex and AlwaysCharge{} for single-instance
// deployments.
func NewEngine(
	regions region.Store,
	events event.Store,
	ledgerGw ledger.Gateway,
	notifier notify.Notifier,
	alerts notify.AlertSink,
	contacts ContactDirectory,
	locker SubjectLocker,
	cooldown CooldownGate,
	logger *slog.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		regions:  regions,
		events:   events,
		ledger:   ledgerGw,
		notifier: notifier,
		alerts:   alerts,
		contacts: contacts,
		locker:   locker,
		cooldown: cooldown,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessSample evaluates one sample. A region or event load failure drops
// the whole sample and surfaces as CodeUnavailable; side-effect failures
// are logged and never abort evaluation. The caller owns retry policy.
func (e *Engine) ProcessSample(ctx context.Context, s Sample) error {
	start := e.now()

	unlock, err := e.locker.Lock(ctx, s.SubjectID)
	if err != nil {
		e.metrics.IncSample("error")
		return err
	}
	defer unlock()

	regions, err := e.regions.ListByGuardian(ctx, s.GuardianID, true)
	if err != nil {
		e.metrics.IncSample("error")
		return dErrors.Wrap(dErrors.CodeUnavailable, "region load failed", err)
	}
	if len(regions) == 0 {
		// Most samples arrive for guardians with nothing configured.
		e.metrics.IncSample("noop")
		return nil
	}

	regionIDs := make([]id.RegionID, 0, len(regions))
	for _, r := range regions {
		regionIDs = append(regionIDs, r.ID)
	}
	latest, err := e.events.LatestPerRegion(ctx, s.SubjectID, regionIDs)
	if err != nil {
		e.metrics.IncSample("error")
		return dErrors.Wrap(dErrors.CodeUnavailable, "event load failed", err)
	}

	for _, r := range regions {
		e.evaluateRegion(ctx, s, r, latest[r.ID])
	}

	e.metrics.IncSample("processed")
	e.metrics.ObserveRegionCount(len(regions))
	e.metrics.ObserveEvaluate(e.now().Sub(start))
	return nil
}

// evaluateRegion applies the transition table for one region. Regions are
// independent; a failure here never affects the others.
func (e *Engine) evaluateRegion(ctx context.Context, s Sample, r *region.Region, last *event.Event) {
	if r.RadiusMeters <= 0 {
		// Should have been rejected at write time; skip rather than abort.
		e.logger.WarnContext(ctx, "skipping malformed region",
			"region_id", r.ID.String(),
			"radius", r.RadiusMeters,
		)
		return
	}

	inside := geo.Inside(s.Lat, s.Lon, r.Lat, r.Lon, r.RadiusMeters)
	// Violations are recorded while the subject is inside, so only an exit
	// ends membership; anything else means the subject never left.
	wasInside := last != nil && last.Action != event.ActionExit

	switch {
	case inside && !wasInside:
		e.handleEntered(ctx, s, r)
	case !inside && wasInside:
		e.handleExited(ctx, s, r)
	case inside && wasInside:
		e.handleStillInside(ctx, s, r)
	}
	// still outside: nothing to do
}

func (e *Engine) handleEntered(ctx context.Context, s Sample, r *region.Region) {
	ev, ok := e.appendEvent(ctx, s, r, event.ActionEnter)
	if !ok {
		return
	}

	switch {
	case r.Category == region.CategorySafe && r.BonusCents > 0:
		entryID, err := e.ledger.PostCredit(ctx, s.SubjectID, s.GuardianID, r.BonusCents,
			fmt.Sprintf("Bonus for entering %s", r.Name))
		if err != nil {
			e.sideEffectFailed(ctx, "ledger", err, r)
		} else {
			e.attachLedger(ctx, ev.ID, entryID)
		}
	case r.Category == region.CategoryRestricted:
		e.raiseViolation(ctx, s, r, ev, true)
	case r.Category == region.CategoryCurfew && !r.Window.Allows(e.now()):
		e.raiseViolation(ctx, s, r, ev, true)
	}

	if r.NotifyOnEntry {
		e.sendNotification(ctx, s, r, notify.KindRegionEntry,
			fmt.Sprintf("%s entered %s", e.subjectName(ctx, s), r.Name))
	}
}

func (e *Engine) handleExited(ctx context.Context, s Sample, r *region.Region) {
	// Exits carry no financial effect in any category.
	if _, ok := e.appendEvent(ctx, s, r, event.ActionExit); !ok {
		return
	}
	if r.NotifyOnExit {
		e.sendNotification(ctx, s, r, notify.KindRegionExit,
			fmt.Sprintf("%s left %s", e.subjectName(ctx, s), r.Name))
	}
}

func (e *Engine) handleStillInside(ctx context.Context, s Sample, r *region.Region) {
	violating := r.Category == region.CategoryRestricted ||
		(r.Category == region.CategoryCurfew && !r.Window.Allows(e.now()))
	if !violating {
		return
	}

	// The violation event is always recorded; only the repeated charge and
	// alert are subject to the cool-down.
	ev, ok := e.appendEvent(ctx, s, r, event.ActionViolation)
	if !ok {
		return
	}

	charge, err := e.cooldown.Begin(ctx, s.SubjectID, r.ID)
	if err != nil {
		// Losing a cool-down marker must not suppress enforcement.
		e.logger.WarnContext(ctx, "cooldown gate failed, charging",
			"error", err,
			"region_id", r.ID.String(),
		)
		charge = true
	}
	if charge {
		e.raiseViolation(ctx, s, r, ev, false)
	}
}

// raiseViolation posts the restricted/curfew side-effect set: an alert,
// an optional penalty, and a notification to both guardian and subject
// when contact info is available.
func (e *Engine) raiseViolation(ctx context.Context, s Sample, r *region.Region, ev *event.Event, entry bool) {
	verb := "is inside"
	if entry {
		verb = "entered"
		// Entering starts the cool-down window so the immediately following
		// still-inside samples do not double-charge.
		if _, err := e.cooldown.Begin(ctx, s.SubjectID, r.ID); err != nil {
			e.logger.WarnContext(ctx, "cooldown gate failed on entry", "error", err)
		}
	}
	message := fmt.Sprintf("%s %s restricted region %s", e.subjectName(ctx, s), verb, r.Name)

	if _, err := e.alerts.CreateAlert(ctx, s.SubjectID, s.GuardianID, message, notify.SeverityWarning); err != nil {
		e.sideEffectFailed(ctx, "alert", err, r)
	}

	if r.PenaltyCents > 0 {
		entryID, err := e.ledger.PostDebit(ctx, s.SubjectID, s.GuardianID, r.PenaltyCents,
			fmt.Sprintf("Penalty for %s", r.Name))
		if err != nil {
			e.sideEffectFailed(ctx, "ledger", err, r)
		} else {
			e.attachLedger(ctx, ev.ID, entryID)
		}
	}

	e.sendNotification(ctx, s, r, notify.KindViolation, message)
}

// appendEvent writes the transition event. The event is the durable record
// of membership state: if this write fails the region is skipped entirely,
// because posting side effects with no event would double-fire on the next
// sample.
func (e *Engine) appendEvent(ctx context.Context, s Sample, r *region.Region, action event.Action) (*event.Event, bool) {
	ev := &event.Event{
		SubjectID:  s.SubjectID,
		GuardianID: s.GuardianID,
		RegionID:   r.ID,
		TripID:     s.TripID,
		Action:     action,
		Lat:        s.Lat,
		Lon:        s.Lon,
		Address:    s.Address,
	}
	if err := e.events.Append(ctx, ev); err != nil {
		e.logger.ErrorContext(ctx, "event append failed",
			"error", err,
			"region_id", r.ID.String(),
			"action", string(action),
		)
		e.metrics.IncSideEffectError("event")
		return nil, false
	}
	e.metrics.IncTransition(string(action), string(r.Category))

	if e.stream != nil {
		if err := e.stream.PublishTransition(ctx, ev, string(r.Category)); err != nil {
			e.sideEffectFailed(ctx, "stream", err, r)
		}
	}
	return ev, true
}

func (e *Engine) sendNotification(ctx context.Context, s Sample, r *region.Region, kind notify.Kind, details string) {
	contacts := e.lookupContacts(ctx, s)
	n := &notify.Notification{
		SubjectEmail:  contacts.SubjectEmail,
		GuardianEmail: contacts.GuardianEmail,
		SubjectName:   contacts.SubjectName,
		Kind:          kind,
		Details:       details,
	}
	if err := e.notifier.Notify(ctx, n); err != nil {
		e.sideEffectFailed(ctx, "notification", err, r)
	}
}

func (e *Engine) attachLedger(ctx context.Context, eventID id.EventID, entryID id.LedgerEntryID) {
	// Traceability only; the next evaluation cycle never reads this.
	if err := e.events.AttachSideEffects(ctx, eventID, entryID, id.NotificationID{}); err != nil {
		e.logger.WarnContext(ctx, "could not link ledger entry to event",
			"error", err,
			"event_id", eventID.String(),
		)
	}
}

func (e *Engine) lookupContacts(ctx context.Context, s Sample) Contacts {
	if e.contacts == nil {
		return Contacts{}
	}
	contacts, err := e.contacts.Lookup(ctx, s.SubjectID, s.GuardianID)
	if err != nil && !errors.Is(err, context.Canceled) {
		e.logger.WarnContext(ctx, "contact lookup failed",
			"error", err,
			"subject_id", s.SubjectID.String(),
		)
	}
	return contacts
}

func (e *Engine) subjectName(ctx context.Context, s Sample) string {
	if name := e.lookupContacts(ctx, s).SubjectName; name != "" {
		return name
	}
	return "Driver"
}

func (e *Engine) sideEffectFailed(ctx context.Context, kind string, err error, r *region.Region) {
	e.logger.ErrorContext(ctx, "side effect failed",
		"kind", kind,
		"error", err,
		"region_id", r.ID.String(),
	)
	e.metrics.IncSideEffectError(kind)
}
