package schedule

import (
	"context"
	"time"

	"github.com/onairstack/broadcastcore/pkg/broadcastday"
	"github.com/onairstack/broadcastcore/pkg/model"
)

// ActiveEvent answers "what is airing now?": the PlaylogEvent covering t,
// or berrors.ErrNotFound if the horizon does not reach t yet.
func (s *Service) ActiveEvent(ctx context.Context, channelID string, t time.Time) (model.PlaylogEvent, error) {
	return s.playlog.ActiveEvent(ctx, channelID, t)
}

// CarryoverInto answers which PlaylogEvent a channel should join mid-roll,
// for a viewer tuning in at rollover.
func (s *Service) CarryoverInto(ctx context.Context, channelID string, rollover time.Time) (model.PlaylogEvent, error) {
	return s.playlog.CarryoverInto(ctx, channelID, rollover)
}

// BroadcastDayFor returns the broadcast-day label that instant t belongs to
// on channel ch.
func (s *Service) BroadcastDayFor(ch model.Channel, t time.Time) (string, error) {
	return broadcastday.Label(s.clock, ch, t)
}

// BroadcastDayWindow returns the [start, end) UTC bounds of dayLabel on
// channel ch.
func (s *Service) BroadcastDayWindow(ch model.Channel, dayLabel string) (startUTC, endUTC time.Time, err error) {
	return broadcastday.Window(s.clock, ch, dayLabel)
}

// EventsInRange returns the PlaylogEvents overlapping [from, to) on
// channelID, ordered by start, for EPG-style reads.
func (s *Service) EventsInRange(ctx context.Context, channelID string, from, to time.Time) ([]model.PlaylogEvent, error) {
	return s.playlog.EventsInRange(ctx, channelID, from, to)
}

// Day returns the frozen ScheduleDay for (channelID, dayLabel), generating
// it on demand via GenerateDay if it does not yet exist — useful for EPG
// reads that run ahead of the horizon builder's own sweep.
func (s *Service) Day(ctx context.Context, ch model.Channel, dayLabel string) (model.ScheduleDay, error) {
	day, err := s.days.Get(ctx, ch.ChannelID, dayLabel)
	if err == nil {
		return day, nil
	}
	if genErr := s.GenerateDay(ctx, ch, dayLabel, false); genErr != nil {
		return model.ScheduleDay{}, genErr
	}
	return s.days.Get(ctx, ch.ChannelID, dayLabel)
}
