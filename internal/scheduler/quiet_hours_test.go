package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crisis-alert-service/internal/domain"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, time.March, 10, hour, minute, 0, 0, time.UTC)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"07:30", 450, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}
	for _, tc := range tests {
		got, err := parseClock(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "parseClock(%q)", tc.in)
			continue
		}
		require.NoError(t, err, "parseClock(%q)", tc.in)
		assert.Equal(t, tc.want, got, "parseClock(%q)", tc.in)
	}
}

func TestInQuietHoursMidnightWrap(t *testing.T) {
	qh := domain.QuietHours{Enabled: true, Start: "22:00", End: "07:00"}

	assert.True(t, inQuietHours(qh, at(23, 30)))
	assert.True(t, inQuietHours(qh, at(22, 0)), "start bound is inclusive")
	assert.True(t, inQuietHours(qh, at(7, 0)), "end bound is inclusive")
	assert.True(t, inQuietHours(qh, at(6, 59)))
	assert.True(t, inQuietHours(qh, at(0, 0)))
	assert.False(t, inQuietHours(qh, at(8, 0)))
	assert.False(t, inQuietHours(qh, at(21, 59)))
}

func TestInQuietHoursSameDay(t *testing.T) {
	qh := domain.QuietHours{Enabled: true, Start: "13:00", End: "15:00"}

	assert.True(t, inQuietHours(qh, at(13, 0)))
	assert.True(t, inQuietHours(qh, at(14, 30)))
	assert.True(t, inQuietHours(qh, at(15, 0)))
	assert.False(t, inQuietHours(qh, at(12, 59)))
	assert.False(t, inQuietHours(qh, at(15, 1)))
}

func TestInQuietHoursDisabledOrMalformed(t *testing.T) {
	assert.False(t, inQuietHours(domain.QuietHours{Enabled: false, Start: "22:00", End: "07:00"}, at(23, 0)))
	assert.False(t, inQuietHours(domain.QuietHours{Enabled: true, Start: "bogus", End: "07:00"}, at(23, 0)))
	assert.False(t, inQuietHours(domain.QuietHours{Enabled: true, Start: "22:00", End: "25:00"}, at(23, 0)))
}

func TestNextQuietHoursEnd(t *testing.T) {
	qh := domain.QuietHours{Enabled: true, Start: "22:00", End: "07:00"}

	got := nextQuietHoursEnd(qh, at(23, 0))
	assert.Equal(t, at(7, 0).Add(24*time.Hour), got, "after today's end, resume tomorrow")

	got = nextQuietHoursEnd(qh, at(3, 0))
	assert.Equal(t, at(7, 0), got, "before today's end, resume today")
}
