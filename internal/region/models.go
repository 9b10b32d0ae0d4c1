// Package region defines geofence regions: named circular areas owned by a
// guardian, with a category that drives side-effect policy and an optional
// time restriction.
package region

import (
	"time"

	id "roadwatch/pkg/domain"
	dErrors "roadwatch/pkg/domain-errors"
)

// Category selects the side-effect policy applied on transitions.
type Category string

const (
	// CategorySafe pays an optional bonus on entry.
	CategorySafe Category = "safe"
	// CategoryRestricted raises an alert and charges an optional penalty
	// on entry and while the subject remains inside.
	CategoryRestricted Category = "restricted"
	// CategoryCurfew behaves like restricted, but only while the current
	// time falls outside the region's allowed window.
	CategoryCurfew Category = "curfew"
)

var validCategories = map[Category]bool{
	CategorySafe:       true,
	CategoryRestricted: true,
	CategoryCurfew:     true,
}

// IsValid checks the category against the supported set.
func (c Category) IsValid() bool { return validCategories[c] }

func (c Category) String() string { return string(c) }

// ParseCategory constructs a Category from external input.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid region category")
	}
	return c, nil
}

// TimeWindow is an allowed set of weekdays plus an allowed start/end
// time-of-day, both optional independently. Minutes are minutes since
// midnight in the guardian's local time. StartMinute > EndMinute means the
// window wraps past midnight (e.g. 22:00-06:00).
type TimeWindow struct {
	AllowedDays []time.Weekday
	StartMinute *int // 0..1439
	EndMinute   *int // 0..1439
}

// Region is a named circular geofence. Radius must be positive; geometry is
// WGS84 degrees. An inactive region is excluded from all evaluation.
type Region struct {
	ID           id.RegionID
	GuardianID   id.GuardianID
	Name         string
	Lat          float64
	Lon          float64
	RadiusMeters float64
	Category     Category

	// Window applies to curfew regions and may also apply to restricted
	// ones. nil means always satisfied.
	Window *TimeWindow

	// BonusCents is credited on entry to a safe region when positive.
	BonusCents int64
	// PenaltyCents is debited on restricted entry or violation when positive.
	PenaltyCents int64

	NotifyOnEntry bool
	NotifyOnExit  bool

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate enforces the invariants the store relies on. Malformed regions
// are rejected at write time so evaluation never has to reason about them.
func (r *Region) Validate() error {
	if r.GuardianID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "region requires a guardian")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "region name must not be empty")
	}
	if r.RadiusMeters <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "region radius must be positive")
	}
	if r.Lat < -90 || r.Lat > 90 || r.Lon < -180 || r.Lon > 180 {
		return dErrors.New(dErrors.CodeInvalidInput, "region center out of range")
	}
	if !r.Category.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid region category")
	}
	if r.BonusCents < 0 || r.PenaltyCents < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "amounts must not be negative")
	}
	if r.Window != nil {
		if err := r.Window.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (w *TimeWindow) validate() error {
	if (w.StartMinute == nil) != (w.EndMinute == nil) {
		return dErrors.New(dErrors.CodeInvalidInput, "window start and end must be set together")
	}
	for _, m := range []*int{w.StartMinute, w.EndMinute} {
		if m != nil && (*m < 0 || *m > 1439) {
			return dErrors.New(dErrors.CodeInvalidInput, "window minutes must be within 0..1439")
		}
	}
	for _, d := range w.AllowedDays {
		if d < time.Sunday || d > time.Saturday {
			return dErrors.New(dErrors.CodeInvalidInput, "invalid weekday in window")
		}
	}
	return nil
}
