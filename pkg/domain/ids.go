// Package domain holds the typed identifiers shared across modules.
//
// IDs are uuid-backed named types rather than raw strings so that a
// SubjectID cannot silently be passed where a RegionID is expected.
// Construct from external input via the Parse helpers at trust boundaries;
// direct casting bypasses validation.
package domain

import (
	dErrors "roadwatch/pkg/domain-errors"

	"github.com/google/uuid"
)

// GuardianID identifies the account owner who configures regions and
// allowances for one or more subjects.
type GuardianID uuid.UUID

// SubjectID identifies a monitored driver.
type SubjectID uuid.UUID

// RegionID identifies a geofence region.
type RegionID uuid.UUID

// EventID identifies an immutable subject-region event.
type EventID uuid.UUID

// TripID correlates samples and events belonging to one trip.
type TripID uuid.UUID

// LedgerEntryID identifies a posted ledger entry.
type LedgerEntryID uuid.UUID

// NotificationID identifies a delivered (or attempted) notification.
type NotificationID uuid.UUID

// AlertID identifies a guardian-visible alert.
type AlertID uuid.UUID

// DeviceID identifies a registered reporting device.
type DeviceID uuid.UUID

func (id GuardianID) String() string     { return uuid.UUID(id).String() }
func (id SubjectID) String() string      { return uuid.UUID(id).String() }
func (id RegionID) String() string       { return uuid.UUID(id).String() }
func (id EventID) String() string        { return uuid.UUID(id).String() }
func (id TripID) String() string         { return uuid.UUID(id).String() }
func (id LedgerEntryID) String() string  { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }
func (id AlertID) String() string        { return uuid.UUID(id).String() }
func (id DeviceID) String() string       { return uuid.UUID(id).String() }

func (id GuardianID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id SubjectID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id RegionID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id TripID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id LedgerEntryID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AlertID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id DeviceID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

// NewGuardianID allocates a fresh guardian identifier.
func NewGuardianID() GuardianID { return GuardianID(uuid.New()) }

// NewSubjectID allocates a fresh subject identifier.
func NewSubjectID() SubjectID { return SubjectID(uuid.New()) }

// NewRegionID allocates a fresh region identifier.
func NewRegionID() RegionID { return RegionID(uuid.New()) }

// NewEventID allocates a fresh event identifier.
func NewEventID() EventID { return EventID(uuid.New()) }

// NewLedgerEntryID allocates a fresh ledger entry identifier.
func NewLedgerEntryID() LedgerEntryID { return LedgerEntryID(uuid.New()) }

// NewNotificationID allocates a fresh notification identifier.
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

// NewAlertID allocates a fresh alert identifier.
func NewAlertID() AlertID { return AlertID(uuid.New()) }

// NewDeviceID allocates a fresh device identifier.
func NewDeviceID() DeviceID { return DeviceID(uuid.New()) }

func parse(kind, s string) (uuid.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	return u, nil
}

// ParseGuardianID constructs a GuardianID from external input.
func ParseGuardianID(s string) (GuardianID, error) {
	u, err := parse("guardian", s)
	return GuardianID(u), err
}

// ParseSubjectID constructs a SubjectID from external input.
func ParseSubjectID(s string) (SubjectID, error) {
	u, err := parse("subject", s)
	return SubjectID(u), err
}

// ParseRegionID constructs a RegionID from external input.
func ParseRegionID(s string) (RegionID, error) {
	u, err := parse("region", s)
	return RegionID(u), err
}

// ParseTripID constructs a TripID from external input.
func ParseTripID(s string) (TripID, error) {
	u, err := parse("trip", s)
	return TripID(u), err
}

// ParseEventID constructs an EventID from external input.
func ParseEventID(s string) (EventID, error) {
	u, err := parse("event", s)
	return EventID(u), err
}

// ParseLedgerEntryID constructs a LedgerEntryID from external input.
func ParseLedgerEntryID(s string) (LedgerEntryID, error) {
	u, err := parse("ledger entry", s)
	return LedgerEntryID(u), err
}

// ParseNotificationID constructs a NotificationID from external input.
func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parse("notification", s)
	return NotificationID(u), err
}

// ParseAlertID constructs an AlertID from external input.
func ParseAlertID(s string) (AlertID, error) {
	u, err := parse("alert", s)
	return AlertID(u), err
}

// ParseDeviceID constructs a DeviceID from external input.
func ParseDeviceID(s string) (DeviceID, error) {
	u, err := parse("device", s)
	return DeviceID(u), err
}
