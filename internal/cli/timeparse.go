package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateBoundary decides which end of a bare calendar date a value means.
type dateBoundary int

const (
	startOfDay dateBoundary = iota
	endOfDay
)

var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseWhen turns user input into an instant in local time. It accepts
// relative offsets ("90m", "4h", "3d", "2w", "1h30m"), the words "today" and
// "tomorrow", full timestamps, and bare dates. Bare dates and the two words
// resolve to the given boundary of that day.
func parseWhen(s string, ref time.Time, boundary dateBoundary) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}

	switch strings.ToLower(s) {
	case "today":
		return dayBoundary(ref, boundary), nil
	case "tomorrow":
		return dayBoundary(ref.AddDate(0, 0, 1), boundary), nil
	}

	if d, ok := parseOffset(s); ok {
		return ref.Add(d), nil
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, s, ref.Location()); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation("2006-01-02", s, ref.Location()); err == nil {
		return dayBoundary(t, boundary), nil
	}

	return time.Time{}, fmt.Errorf("unrecognised time %q (use e.g. 4h, 3d, tomorrow, 2026-05-01 or 2026-05-01 17:00)", s)
}

// parseOffset parses "3d" and "2w" as days and weeks, and anything else
// time.ParseDuration accepts. Negative offsets are rejected.
func parseOffset(s string) (time.Duration, bool) {
	var unit time.Duration
	switch {
	case strings.HasSuffix(s, "d"):
		unit = 24 * time.Hour
	case strings.HasSuffix(s, "w"):
		unit = 7 * 24 * time.Hour
	}
	if unit > 0 {
		n, err := strconv.Atoi(s[:len(s)-1])
		if err != nil || n < 0 {
			return 0, false
		}
		return time.Duration(n) * unit, true
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, false
	}
	return d, true
}

func dayBoundary(t time.Time, boundary dateBoundary) time.Time {
	y, m, d := t.Date()
	if boundary == endOfDay {
		return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
	}
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// formatRelative renders the gap between t and ref as e.g. "in 3h" or "2d ago".
func formatRelative(t, ref time.Time) string {
	d := t.Sub(ref)
	suffix := ""
	prefix := "in "
	if d < 0 {
		d = -d
		prefix = ""
		suffix = " ago"
	}
	var s string
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		s = fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		s = fmt.Sprintf("%dh", int(d.Hours()))
	default:
		s = fmt.Sprintf("%dd", int(d.Hours()/24))
	}
	return prefix + s + suffix
}

// formatClock renders a duration as mm:ss, or h:mm:ss past an hour.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	sec := int(d%time.Minute) / int(time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d", m, sec)
}
