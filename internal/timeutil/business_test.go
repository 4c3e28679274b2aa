package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateUsesBusinessZone(t *testing.T) {
	got, err := ParseDate("2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, Business, got.Location())
	assert.Equal(t, 0, got.Hour())

	_, err = ParseDate("10/03/2026")
	assert.Error(t, err)
}

func TestDayBoundaries(t *testing.T) {
	// 20:30 UTC is already the next day in Dhaka.
	ts := time.Date(2026, 3, 10, 20, 30, 0, 0, time.UTC)

	start := StartOfDay(ts)
	assert.Equal(t, 11, start.Day())
	assert.Equal(t, 0, start.Hour())

	end := EndOfDay(ts)
	assert.Equal(t, 11, end.Day())
	assert.Equal(t, 23, end.Hour())
	assert.True(t, end.After(start))
}

func TestAddDays(t *testing.T) {
	ts := time.Date(2026, 1, 25, 10, 0, 0, 0, Business)
	due := AddDays(ts, 30)
	assert.Equal(t, "2026-02-24", Format(due, DateLayout))
	assert.Equal(t, 23, due.Hour())
}
