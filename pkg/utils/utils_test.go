package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameInstant(t *testing.T) {
	utc := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	jakarta := time.FixedZone("WIB", 7*60*60)

	tests := []struct {
		name     string
		a        time.Time
		b        time.Time
		expected bool
	}{
		{
			name:     "identical",
			a:        utc,
			b:        utc,
			expected: true,
		},
		{
			name:     "same instant different location",
			a:        utc,
			b:        utc.In(jakarta),
			expected: true,
		},
		{
			name:     "sub-microsecond difference",
			a:        utc,
			b:        utc.Add(300 * time.Nanosecond),
			expected: true,
		},
		{
			name:     "different day",
			a:        utc,
			b:        utc.AddDate(0, 0, 1),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SameInstant(tt.a, tt.b))
		})
	}
}

func TestIsDateOverdue(t *testing.T) {
	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.False(t, IsDateOverdue(due, due))
	assert.False(t, IsDateOverdue(due, due.Add(-time.Hour)))
	assert.True(t, IsDateOverdue(due, due.Add(time.Second)))
}

func TestEarliestDate(t *testing.T) {
	a := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, b, EarliestDate(a, time.Time{}, b))
	assert.True(t, EarliestDate().IsZero())
	assert.True(t, EarliestDate(time.Time{}).IsZero())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-01", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), d)

	ts, err := ParseDate("2024-06-01T10:00:00Z", nil)
	require.NoError(t, err)
	assert.Equal(t, 10, ts.Hour())

	_, err = ParseDate("June 1st", nil)
	assert.Error(t, err)
}
