package region

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func minutes(m int) *int { return &m }

// at builds a time on a specific weekday at hh:mm. 2025-06-01 is a Sunday.
func at(day time.Weekday, hh, mm int) time.Time {
	base := time.Date(2025, 6, 1, hh, mm, 0, 0, time.UTC)
	return base.AddDate(0, 0, int(day-time.Sunday))
}

func TestWindowAllows(t *testing.T) {
	t.Run("nil window is unrestricted", func(t *testing.T) {
		var w *TimeWindow
		assert.True(t, w.Allows(at(time.Tuesday, 3, 0)))
	})

	t.Run("empty window is unrestricted", func(t *testing.T) {
		w := &TimeWindow{}
		assert.True(t, w.Allows(at(time.Saturday, 23, 59)))
	})

	t.Run("same-day range 09:00-17:00", func(t *testing.T) {
		w := &TimeWindow{StartMinute: minutes(9 * 60), EndMinute: minutes(17 * 60)}
		assert.True(t, w.Allows(at(time.Monday, 12, 0)))
		assert.True(t, w.Allows(at(time.Monday, 9, 0)))
		assert.True(t, w.Allows(at(time.Monday, 17, 0)))
		assert.False(t, w.Allows(at(time.Monday, 8, 59)))
		assert.False(t, w.Allows(at(time.Monday, 17, 1)))
	})

	t.Run("wrapping range 22:00-06:00", func(t *testing.T) {
		w := &TimeWindow{StartMinute: minutes(22 * 60), EndMinute: minutes(6 * 60)}
		assert.True(t, w.Allows(at(time.Friday, 23, 0)))
		assert.True(t, w.Allows(at(time.Friday, 5, 0)))
		assert.True(t, w.Allows(at(time.Friday, 22, 0)))
		assert.True(t, w.Allows(at(time.Friday, 6, 0)))
		assert.False(t, w.Allows(at(time.Friday, 12, 0)))
		assert.False(t, w.Allows(at(time.Friday, 21, 59)))
	})

	t.Run("day restriction without times allows all day on permitted days", func(t *testing.T) {
		w := &TimeWindow{AllowedDays: []time.Weekday{time.Monday, time.Wednesday, time.Friday}}
		assert.True(t, w.Allows(at(time.Monday, 0, 0)))
		assert.True(t, w.Allows(at(time.Monday, 23, 59)))
		assert.False(t, w.Allows(at(time.Tuesday, 12, 0)))
		assert.False(t, w.Allows(at(time.Tuesday, 0, 0)))
	})

	t.Run("time restriction without days applies every day", func(t *testing.T) {
		w := &TimeWindow{StartMinute: minutes(9 * 60), EndMinute: minutes(17 * 60)}
		for d := time.Sunday; d <= time.Saturday; d++ {
			assert.True(t, w.Allows(at(d, 10, 0)), "weekday %v", d)
			assert.False(t, w.Allows(at(d, 20, 0)), "weekday %v", d)
		}
	})

	t.Run("day and time combined", func(t *testing.T) {
		w := &TimeWindow{
			AllowedDays: []time.Weekday{time.Saturday},
			StartMinute: minutes(10 * 60),
			EndMinute:   minutes(14 * 60),
		}
		assert.True(t, w.Allows(at(time.Saturday, 11, 30)))
		assert.False(t, w.Allows(at(time.Saturday, 15, 0)))
		assert.False(t, w.Allows(at(time.Sunday, 11, 30)))
	})
}
