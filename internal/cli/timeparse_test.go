package cli

import (
	"strconv"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestParseWhen(t *testing.T) {
	ref := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		input    string
		boundary dateBoundary
		want     time.Time
	}{
		{"4h", endOfDay, ref.Add(4 * time.Hour)},
		{"90m", endOfDay, ref.Add(90 * time.Minute)},
		{"1h30m", startOfDay, ref.Add(90 * time.Minute)},
		{"3d", endOfDay, ref.Add(72 * time.Hour)},
		{"2w", startOfDay, ref.Add(14 * 24 * time.Hour)},
		{"today", endOfDay, time.Date(2026, 3, 2, 23, 59, 59, 0, time.UTC)},
		{"Tomorrow", startOfDay, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)},
		{"tomorrow", endOfDay, time.Date(2026, 3, 3, 23, 59, 59, 0, time.UTC)},
		{"2026-05-01", endOfDay, time.Date(2026, 5, 1, 23, 59, 59, 0, time.UTC)},
		{"2026-05-01", startOfDay, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"2026-05-01 17:00", endOfDay, time.Date(2026, 5, 1, 17, 0, 0, 0, time.UTC)},
		{"2026-05-01T17:00:30", startOfDay, time.Date(2026, 5, 1, 17, 0, 30, 0, time.UTC)},
		{"2026-05-01T17:00:00+02:00", endOfDay, time.Date(2026, 5, 1, 15, 0, 0, 0, time.UTC)},
		{"  3d  ", endOfDay, ref.Add(72 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseWhen(tt.input, ref, tt.boundary)
			if err != nil {
				t.Fatalf("parseWhen(%q) error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseWhen(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseWhen_Invalid(t *testing.T) {
	ref := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	for _, input := range []string{"", "soon", "-3d", "-1h", "3x", "2026-13-01", "d"} {
		if _, err := parseWhen(input, ref, endOfDay); err == nil {
			t.Errorf("parseWhen(%q) expected error", input)
		}
	}
}

func TestFormatRelative(t *testing.T) {
	ref := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		at   time.Time
		want string
	}{
		{ref.Add(20 * time.Second), "now"},
		{ref.Add(45 * time.Minute), "in 45m"},
		{ref.Add(3 * time.Hour), "in 3h"},
		{ref.Add(-5 * time.Hour), "5h ago"},
		{ref.Add(72 * time.Hour), "in 3d"},
		{ref.Add(-50 * time.Hour), "2d ago"},
	}
	for _, tt := range tests {
		if got := formatRelative(tt.at, ref); got != tt.want {
			t.Errorf("formatRelative(%v) = %q, want %q", tt.at.Sub(ref), got, tt.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{-time.Second, "00:00"},
		{25 * time.Minute, "25:00"},
		{4*time.Minute + 5*time.Second, "04:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{1500 * time.Millisecond, "00:02"},
	}
	for _, tt := range tests {
		if got := formatClock(tt.d); got != tt.want {
			t.Errorf("formatClock(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

// Offsets in days and hours land exactly that far after the reference.
func TestProperty_ParseWhenOffsets(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ref := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(rapid.Int64Range(0, 1<<40).Draw(t, "ref")))
		n := rapid.IntRange(0, 400).Draw(t, "n")
		unit := rapid.SampledFrom([]string{"d", "h", "m", "w"}).Draw(t, "unit")

		got, err := parseWhen(strconv.Itoa(n)+unit, ref, endOfDay)
		if err != nil {
			t.Fatalf("parseWhen: %v", err)
		}
		step := map[string]time.Duration{"d": 24 * time.Hour, "h": time.Hour, "m": time.Minute, "w": 7 * 24 * time.Hour}[unit]
		if want := ref.Add(time.Duration(n) * step); !got.Equal(want) {
			t.Fatalf("parseWhen(%d%s) = %v, want %v", n, unit, got, want)
		}
	})
}
