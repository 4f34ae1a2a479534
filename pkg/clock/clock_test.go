package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSystemClockMonotonicity(t *testing.T) {
	c := NewSystemClock(nil)
	prev := c.NowUTC()
	for i := 0; i < 1000; i++ {
		next := c.NowUTC()
		require.False(t, next.Before(prev), "clock went backward: %v -> %v", prev, next)
		prev = next
	}
}

func TestSystemClockUnknownZoneFallsBackToUTC(t *testing.T) {
	c := NewSystemClock(nil)
	local := c.NowLocal("Not/A_Real_Zone")
	require.Equal(t, time.UTC, local.Location())
}

func TestSystemClockToChannelTimeNaiveInput(t *testing.T) {
	c := NewSystemClock(nil)
	_, err := c.ToChannelTime(time.Time{}, "America/New_York")
	require.ErrorIs(t, err, ErrNaiveInput)
}

func TestSystemClockToChannelTimeConverts(t *testing.T) {
	c := NewSystemClock(nil)
	t0 := time.Date(2025, 10, 24, 9, 30, 0, 0, time.UTC)
	local, err := c.ToChannelTime(t0, "America/New_York")
	require.NoError(t, err)
	require.Equal(t, 5, local.Hour()) // EDT = UTC-4 in October
}

func TestSecondsSinceClampsToZeroForFutureInstants(t *testing.T) {
	c := NewSystemClock(nil)
	future := c.NowUTC().Add(time.Hour)
	secs, err := c.SecondsSince(future)
	require.NoError(t, err)
	require.Equal(t, 0.0, secs)
}

func TestSecondsSinceNaiveInput(t *testing.T) {
	c := NewSystemClock(nil)
	_, err := c.SecondsSince(time.Time{})
	require.ErrorIs(t, err, ErrNaiveInput)
}

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fc := NewFakeClock(start)
	require.Equal(t, start, fc.NowUTC())
	fc.Advance(90 * time.Second)
	require.Equal(t, start.Add(90*time.Second), fc.NowUTC())

	secs, err := fc.SecondsSince(start)
	require.NoError(t, err)
	require.Equal(t, 90.0, secs)
}

func TestFakeClockDSTSpringForward(t *testing.T) {
	// 2025-03-09 America/New_York: local clocks jump 02:00 -> 03:00.
	fc := NewFakeClock(time.Date(2025, 3, 9, 6, 30, 0, 0, time.UTC)) // 01:30 EST
	local := fc.NowLocal("America/New_York")
	require.Equal(t, 1, local.Hour())
	fc.Advance(time.Hour)
	local = fc.NowLocal("America/New_York")
	require.Equal(t, 3, local.Hour()) // 02:xx does not exist, jumps to 03:xx
}
