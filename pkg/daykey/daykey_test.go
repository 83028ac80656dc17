package daykey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToday(t *testing.T) {
	tests := []struct {
		name     string
		instant  time.Time
		expected string
	}{
		{
			name:     "UTC afternoon is same IST day",
			instant:  time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
			expected: "2024-01-10",
		},
		{
			name:     "18:29 UTC is still the same IST day",
			instant:  time.Date(2024, 1, 10, 18, 29, 59, 0, time.UTC),
			expected: "2024-01-10",
		},
		{
			name:     "18:30 UTC is IST midnight",
			instant:  time.Date(2024, 1, 10, 18, 30, 0, 0, time.UTC),
			expected: "2024-01-11",
		},
		{
			name:     "year boundary",
			instant:  time.Date(2023, 12, 31, 20, 0, 0, 0, time.UTC),
			expected: "2024-01-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Today(tt.instant))
		})
	}
}

func TestYesterday(t *testing.T) {
	tests := []struct {
		label    string
		expected string
	}{
		{"2024-01-10", "2024-01-09"},
		{"2024-03-01", "2024-02-29"},
		{"2023-03-01", "2023-02-28"},
		{"2024-01-01", "2023-12-31"},
		{"2024-05-01", "2024-04-30"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := Yesterday(tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestYesterdayRejectsMalformedLabels(t *testing.T) {
	for _, label := range []string{"", "2024-1-10", "2024/01/10", "2024-02-30", "yesterday"} {
		_, err := Yesterday(label)
		assert.ErrorIs(t, err, ErrInvalidLabel, label)
		assert.False(t, Valid(label), label)
	}
}

func TestNextMidnight(t *testing.T) {
	tests := []struct {
		name     string
		instant  time.Time
		expected time.Time
	}{
		{
			name:     "mid-day",
			instant:  time.Date(2024, 1, 10, 6, 0, 0, 0, time.UTC),
			expected: time.Date(2024, 1, 10, 18, 30, 0, 0, time.UTC),
		},
		{
			name:     "exactly on the boundary moves to the following one",
			instant:  time.Date(2024, 1, 10, 18, 30, 0, 0, time.UTC),
			expected: time.Date(2024, 1, 11, 18, 30, 0, 0, time.UTC),
		},
		{
			name:     "end of month",
			instant:  time.Date(2024, 1, 31, 19, 0, 0, 0, time.UTC),
			expected: time.Date(2024, 2, 1, 18, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextMidnight(tt.instant)
			assert.True(t, got.Equal(tt.expected), "got %s want %s", got.UTC(), tt.expected)
			assert.True(t, got.After(tt.instant))
			assert.Equal(t, Today(got), Today(got.Add(time.Second)))
			assert.NotEqual(t, Today(got), Today(got.Add(-time.Second)))
		})
	}
}
