package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitArgs(t *testing.T) {
	assert.Equal(t, []string{"5$", "2025-08-15", "G25", "1"}, splitArgs("5$ 2025-08-15 G25 1"))
	assert.Equal(t, []string{"5$ Amazon card", "+60m", "G1", "2"}, splitArgs(`"5$ Amazon card" +60m G1 2`))
	assert.Empty(t, splitArgs("   "))
	assert.Empty(t, splitArgs(""))
}

func TestParseEndTimeRelative(t *testing.T) {
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)

	got, err := parseEndTime("+60m", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), got)

	got, err = parseEndTime("+2h", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(2*time.Hour), got)

	got, err = parseEndTime("+1d", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), got)

	got, err = parseEndTime("+3D", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(72*time.Hour), got)
}

func TestParseEndTimeAbsolute(t *testing.T) {
	now := time.Now()

	got, err := parseEndTime("2025-08-15", now)
	require.NoError(t, err)
	assert.Equal(t, 2025, got.Year())
	assert.Equal(t, time.August, got.Month())
	assert.Equal(t, 15, got.Day())

	// underscore stands in for the space between date and time
	got, err = parseEndTime("2025-08-15_18:30", now)
	require.NoError(t, err)
	assert.Equal(t, 18, got.Hour())
	assert.Equal(t, 30, got.Minute())
}

func TestParseEndTimeRejectsGarbage(t *testing.T) {
	_, err := parseEndTime("tomorrow", time.Now())
	assert.Error(t, err)

	_, err = parseEndTime("+5w", time.Now())
	assert.Error(t, err)
}

func TestClampWinners(t *testing.T) {
	assert.Equal(t, 1, clampWinners("0"))
	assert.Equal(t, 1, clampWinners("not-a-number"))
	assert.Equal(t, 1, clampWinners("-3"))
	assert.Equal(t, 25, clampWinners("25"))
	assert.Equal(t, 50, clampWinners("999"))
}
