package broadcastday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/onairstack/broadcastcore/pkg/clock"
	"github.com/onairstack/broadcastcore/pkg/model"
)

func hboChannel() model.Channel {
	return model.Channel{
		ChannelID:                "hbo-east",
		Timezone:                 "America/New_York",
		BroadcastDayStartMinutes: 360, // 06:00 local
		GridMinutes:              30,
	}
}

// TestRollover checks the 06:00 rollover: local 05:30 on 2025-10-24 (e.g.
// inside a movie scheduled 05:00-07:00) still belongs to broadcast day
// 2025-10-23, and the label becomes 2025-10-24 from 06:00 on.
func TestRollover(t *testing.T) {
	ch := hboChannel()
	loc, err := time.LoadLocation(ch.Timezone)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Now())

	at0530 := time.Date(2025, 10, 24, 5, 30, 0, 0, loc).UTC()
	label, err := Label(fc, ch, at0530)
	require.NoError(t, err)
	require.Equal(t, "2025-10-23", label)

	at0600 := time.Date(2025, 10, 24, 6, 0, 0, 0, loc).UTC()
	label, err = Label(fc, ch, at0600)
	require.NoError(t, err)
	require.Equal(t, "2025-10-24", label)

	at0630 := time.Date(2025, 10, 24, 6, 30, 0, 0, loc).UTC()
	label, err = Label(fc, ch, at0630)
	require.NoError(t, err)
	require.Equal(t, "2025-10-24", label)
}

// TestDSTSpringForwardWindowIs23Hours checks a spring-forward broadcast day
// window shrinks to 23 hours rather than 24.
func TestDSTSpringForwardWindowIs23Hours(t *testing.T) {
	ch := hboChannel()
	fc := clock.NewFakeClock(time.Now())

	start, end, err := Window(fc, ch, "2025-03-08")
	require.NoError(t, err)
	require.Equal(t, 23*time.Hour, end.Sub(start))
}

func TestDSTFallBackWindowIs25Hours(t *testing.T) {
	ch := hboChannel()
	fc := clock.NewFakeClock(time.Now())

	start, end, err := Window(fc, ch, "2025-11-01")
	require.NoError(t, err)
	require.Equal(t, 25*time.Hour, end.Sub(start))
}

func TestOrdinaryDayWindowIs24Hours(t *testing.T) {
	ch := hboChannel()
	fc := clock.NewFakeClock(time.Now())

	start, end, err := Window(fc, ch, "2025-06-15")
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour, end.Sub(start))
}

func TestWindowForInstantRoundTrips(t *testing.T) {
	ch := hboChannel()
	fc := clock.NewFakeClock(time.Now())
	loc, _ := time.LoadLocation(ch.Timezone)
	t0 := time.Date(2025, 6, 15, 14, 0, 0, 0, loc).UTC()

	label, start, end, err := WindowForInstant(fc, ch, t0)
	require.NoError(t, err)
	require.Equal(t, "2025-06-15", label)
	require.True(t, !t0.Before(start) && t0.Before(end))
}

func TestNextLabel(t *testing.T) {
	next, err := NextLabel("2025-10-24")
	require.NoError(t, err)
	require.Equal(t, "2025-10-25", next)
}

func TestValidateChannel(t *testing.T) {
	ch := hboChannel()
	require.NoError(t, ValidateChannel(ch))

	ch.BroadcastDayStartMinutes = 1440
	require.Error(t, ValidateChannel(ch))

	ch.BroadcastDayStartMinutes = -1
	require.Error(t, ValidateChannel(ch))
}
