package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/onairstack/broadcastcore/pkg/model"
)

// InsertOnDemandFallback handles the case where a channel join or a
// runtime gap finds no active event: it inserts a
// single fallback event starting at from, ending at the earliest of the
// next known PlaylogEvent boundary or from+maxDuration (DESIGN.md decision
// 3: "to next known event boundary, capped at 60s" by default).
//
// ScheduleService remains the sole writer of PlaylogEvent; ChannelManager
// reaches this path through the
// service's own API, never by writing the store directly.
func (s *Service) InsertOnDemandFallback(ctx context.Context, ch model.Channel, from time.Time, maxDuration time.Duration) (model.PlaylogEvent, error) {
	end := from.Add(maxDuration)
	if upcoming, err := s.playlog.EventsInRange(ctx, ch.ChannelID, from, end); err == nil {
		for _, e := range upcoming {
			if e.StartUTC.After(from) && e.StartUTC.Before(end) {
				end = e.StartUTC
				break
			}
		}
	}

	ev := model.PlaylogEvent{
		ChannelID:       ch.ChannelID,
		StartUTC:        from,
		EndUTC:          end,
		DurationSeconds: int(end.Sub(from).Seconds()),
		EventType:       model.EventTypeFallback,
		FallbackCause:   "playlog_gap",
	}
	if err := s.playlog.InsertBatch(ctx, ch.ChannelID, []model.PlaylogEvent{ev}); err != nil {
		return model.PlaylogEvent{}, fmt.Errorf("schedule: insert on-demand fallback for %s: %w", ch.ChannelID, err)
	}
	return ev, nil
}
