package schedule

import (
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is minutes since midnight, 0..1439.
type TimeOfDay int

// ParseTimeOfDay parses a "HH:MM" clock value.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", value, err)
	}
	return TimeOfDay(parsed.Hour()*60 + parsed.Minute()), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Window is an inclusive operating window within a day.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t TimeOfDay) bool {
	return t >= w.Start && t <= w.End
}

// Weekly maps timestamps to an on/off operating state from a recurring
// weekly schedule: a set of active weekdays plus one or more windows that
// apply on each of those days.
type Weekly struct {
	days    [7]bool
	windows []Window
}

// NewWeekly builds a weekly schedule. Windows apply on every listed weekday.
func NewWeekly(weekdays []time.Weekday, windows []Window) (Weekly, error) {
	var s Weekly
	if len(weekdays) == 0 {
		return Weekly{}, fmt.Errorf("schedule has no active weekdays")
	}
	for _, d := range weekdays {
		if d < time.Sunday || d > time.Saturday {
			return Weekly{}, fmt.Errorf("invalid weekday %d", d)
		}
		s.days[d] = true
	}
	for _, w := range windows {
		if w.End < w.Start {
			return Weekly{}, fmt.Errorf("window %s-%s ends before it starts", w.Start, w.End)
		}
	}
	s.windows = append(s.windows, windows...)
	return s, nil
}

// IsActive reports whether the schedule is on at the given instant.
// Window bounds are inclusive, so a sample landing exactly on a window
// edge counts as active.
func (s Weekly) IsActive(t time.Time) bool {
	if !s.days[t.Weekday()] {
		return false
	}
	tod := TimeOfDay(t.Hour()*60 + t.Minute())
	for _, w := range s.windows {
		if w.Contains(tod) {
			return true
		}
	}
	return false
}

// Windows returns a copy of the configured windows.
func (s Weekly) Windows() []Window {
	out := make([]Window, len(s.windows))
	copy(out, s.windows)
	return out
}

// Weekdays returns the active weekdays in Sunday-first order.
func (s Weekly) Weekdays() []time.Weekday {
	var out []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.days[d] {
			out = append(out, d)
		}
	}
	return out
}
