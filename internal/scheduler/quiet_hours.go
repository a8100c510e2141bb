package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"crisis-alert-service/internal/domain"
)

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// inQuietHours reports whether t falls inside the configured window.
// With start <= end the window is same-day [start, end]; with start > end it
// wraps midnight and containment is t >= start OR t <= end.
func inQuietHours(qh domain.QuietHours, t time.Time) bool {
	if !qh.Enabled {
		return false
	}
	start, err := parseClock(qh.Start)
	if err != nil {
		return false
	}
	end, err := parseClock(qh.End)
	if err != nil {
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	if start <= end {
		return minute >= start && minute <= end
	}
	return minute >= start || minute <= end
}

// nextQuietHoursEnd computes the next occurrence of the window's end after t.
func nextQuietHoursEnd(qh domain.QuietHours, t time.Time) time.Time {
	end, err := parseClock(qh.End)
	if err != nil {
		return t
	}
	endToday := time.Date(t.Year(), t.Month(), t.Day(), end/60, end%60, 0, 0, t.Location())
	if endToday.After(t) {
		return endToday
	}
	return endToday.Add(24 * time.Hour)
}
