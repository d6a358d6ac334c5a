package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStampRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 30, 45, 123456000, time.Local)

	parsed, err := ParseStamp(FormatStamp(now))
	require.NoError(t, err)
	assert.True(t, now.Equal(parsed))
}

func TestParseStamp(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "store layout", input: "2024-03-15T09:30:45.123456"},
		{name: "no fraction", input: "2024-03-15T09:30:45"},
		{name: "rfc3339", input: "2024-03-15T09:30:45Z"},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "not-a-time", wantErr: true},
		{name: "date only", input: "2024-03-15", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStamp(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStamp)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSameCalendarMonth(t *testing.T) {
	mar1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)
	mar31 := time.Date(2024, 3, 31, 23, 59, 59, 0, time.Local)
	apr1 := time.Date(2024, 4, 1, 0, 0, 0, 0, time.Local)
	mar2025 := time.Date(2025, 3, 15, 0, 0, 0, 0, time.Local)

	assert.True(t, SameCalendarMonth(mar1, mar31))
	assert.False(t, SameCalendarMonth(mar31, apr1))
	// Same month of a different year is still a rollover boundary.
	assert.False(t, SameCalendarMonth(mar1, mar2025))
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{name: "seconds only", d: 42 * time.Second, want: "42s"},
		{name: "minutes", d: 3*time.Minute + 5*time.Second, want: "3m 5s"},
		{name: "hours", d: 2*time.Hour + 30*time.Minute, want: "2h 30m 0s"},
		{name: "days", d: 49*time.Hour + 61*time.Second, want: "2d 1h 1m 1s"},
		{name: "zero", d: 0, want: "0s"},
		{name: "negative clamps", d: -time.Minute, want: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatUptime(tt.d))
		})
	}
}
