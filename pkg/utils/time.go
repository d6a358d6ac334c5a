package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidStamp indicates that a timestamp string could not be parsed
// in any of the accepted layouts.
var ErrInvalidStamp = errors.New("invalid timestamp format")

// Timestamp layouts used in the durable store files. StampLayout matches the
// layout older checkpoints were written with (local time, microsecond
// precision, no zone); parsing additionally accepts RFC 3339 and
// second-precision variants so hand-edited files still load.
const (
	StampLayout = "2006-01-02T15:04:05.999999"
	DayLayout   = "2006-01-02"
)

var stampLayouts = []string{
	StampLayout,
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

// FormatStamp renders a time in the store's timestamp layout.
func FormatStamp(t time.Time) string {
	return t.Format(StampLayout)
}

// ParseStamp parses a store timestamp, trying each accepted layout in order.
func ParseStamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidStamp
	}

	for _, layout := range stampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidStamp, s)
}

// FormatDay renders a date in the store's day layout.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseDay parses a store date string.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidStamp, err)
	}
	return t, nil
}

// SameCalendarMonth reports whether two times fall in the same calendar
// month of the same year. The monthly counter rollover compares calendar
// months only, not a rolling 30-day window.
func SameCalendarMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// FormatUptime converts a duration into a compact uptime string such as
// "3d 4h 12m 9s". Leading zero units are omitted; seconds always appear.
func FormatUptime(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 0 {
		seconds = 0
	}

	days := seconds / (24 * 3600)
	seconds %= 24 * 3600
	hours := seconds / 3600
	seconds %= 3600
	minutes := seconds / 60
	seconds %= 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
