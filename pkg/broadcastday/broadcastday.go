// Package broadcastday implements the broadcast-day model: deriving the
// broadcast-day label of an instant, and the [start, end) UTC
// window of a labeled broadcast day. This is pure calendar arithmetic; it
// owns no state and performs no I/O.
package broadcastday

import (
	"fmt"
	"time"

	"github.com/onairstack/broadcastcore/pkg/clock"
	"github.com/onairstack/broadcastcore/pkg/model"
)

const dayLabelLayout = "2006-01-02"

// Label returns the broadcast-day label of instant t on channel ch: L.Date
// if L.time_of_day >= M minutes, otherwise L.Date - 1 day, where
// L = ToChannelTime(t, ch.Timezone) and M = ch.BroadcastDayStartMinutes.
func Label(clk clock.Clock, ch model.Channel, t time.Time) (string, error) {
	local, err := clk.ToChannelTime(t, ch.Timezone)
	if err != nil {
		return "", err
	}
	secondsOfDay := local.Hour()*3600 + local.Minute()*60 + local.Second()
	threshold := ch.BroadcastDayStartMinutes * 60
	label := local
	if secondsOfDay < threshold {
		label = local.AddDate(0, 0, -1)
	}
	return label.Format(dayLabelLayout), nil
}

// Window returns the [start, end) UTC window for the broadcast day labeled
// dayLabel on channel ch: each endpoint is the channel-local clock at
// ch.BroadcastDayStartMinutes, on dayLabel and dayLabel+1 respectively,
// converted to UTC. On a DST transition the window is 23h or 25h rather
// than 24h; it still anchors to local M on both sides.
func Window(clk clock.Clock, ch model.Channel, dayLabel string) (startUTC, endUTC time.Time, err error) {
	loc := zoneOf(clk, ch.Timezone)
	day, err := time.ParseInLocation(dayLabelLayout, dayLabel, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("broadcastday: parse label %q: %w", dayLabel, err)
	}
	start := atMinutes(day, ch.BroadcastDayStartMinutes)
	end := atMinutes(day.AddDate(0, 0, 1), ch.BroadcastDayStartMinutes)
	return start.UTC(), end.UTC(), nil
}

// WindowForInstant is the combination of Label and Window: the broadcast-day
// label and [start, end) UTC window that contains instant t.
func WindowForInstant(clk clock.Clock, ch model.Channel, t time.Time) (label string, startUTC, endUTC time.Time, err error) {
	label, err = Label(clk, ch, t)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	startUTC, endUTC, err = Window(clk, ch, label)
	return label, startUTC, endUTC, err
}

// NextLabel returns the broadcast-day label immediately following dayLabel.
func NextLabel(dayLabel string) (string, error) {
	day, err := time.Parse(dayLabelLayout, dayLabel)
	if err != nil {
		return "", fmt.Errorf("broadcastday: parse label %q: %w", dayLabel, err)
	}
	return day.AddDate(0, 0, 1).Format(dayLabelLayout), nil
}

// ValidateChannel checks the Channel invariant:
// 0 <= broadcast_day_start_minutes < 1440.
func ValidateChannel(ch model.Channel) error {
	if ch.BroadcastDayStartMinutes < 0 || ch.BroadcastDayStartMinutes >= 1440 {
		return fmt.Errorf("broadcastday: channel %s: broadcast_day_start_minutes %d out of [0,1440)",
			ch.ChannelID, ch.BroadcastDayStartMinutes)
	}
	return nil
}

// zoneOf resolves tzName to a *time.Location using the same unknown-zone
// fallback (and once-per-name warning) as the rest of the core, by routing
// through the Clock rather than duplicating the resolution/cache logic.
func zoneOf(clk clock.Clock, tzName string) *time.Location {
	return clk.NowLocal(tzName).Location()
}

// atMinutes returns the instant at day's calendar date, minutes after local
// midnight, in day's own location.
func atMinutes(day time.Time, minutes int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, day.Location())
}
