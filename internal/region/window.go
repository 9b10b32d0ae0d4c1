package region

import "time"

// Allows reports whether now falls inside the configured allowed window.
// The check is category-agnostic: callers decide what "outside the window"
// means (for curfew regions it is the violation condition).
//
// Rules:
//   - a nil or empty window is always satisfied;
//   - with a day restriction, now's weekday must be a member — a region
//     with days but no times is allowed all day on permitted days;
//   - with a time restriction, now's minutes-since-midnight must fall in
//     [start, end], or outside (end, start) when the window wraps midnight
//     (start > end, e.g. 22:00-06:00 allows 23:00 and 05:00 but not 12:00);
//   - a time restriction with no day restriction applies every day.
func (w *TimeWindow) Allows(now time.Time) bool {
	if w == nil {
		return true
	}
	if len(w.AllowedDays) > 0 {
		day := now.Weekday()
		permitted := false
		for _, d := range w.AllowedDays {
			if d == day {
				permitted = true
				break
			}
		}
		if !permitted {
			return false
		}
	}
	if w.StartMinute == nil || w.EndMinute == nil {
		return true
	}
	m := now.Hour()*60 + now.Minute()
	start, end := *w.StartMinute, *w.EndMinute
	if start <= end {
		return m >= start && m <= end
	}
	// Wraps midnight.
	return m >= start || m <= end
}
