package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/onairstack/broadcastcore/pkg/berrors"
	"github.com/onairstack/broadcastcore/pkg/broadcastday"
	"github.com/onairstack/broadcastcore/pkg/model"
	"github.com/onairstack/broadcastcore/pkg/planstore"
)

// GenerateDay resolves the source plan for (channel, dayLabel), anchors
// its BlockAssignments to the broadcast-day window, expands VirtualAssets,
// verifies the tiling invariants, and persists the result as a frozen
// ScheduleDay in a single atomic write.
//
// Regeneration of an already-frozen day is refused unless forceRegenerate
// is set (berrors.ErrFrozenDay).
func (s *Service) GenerateDay(ctx context.Context, ch model.Channel, dayLabel string, forceRegenerate bool) error {
	if existing, err := s.days.Get(ctx, ch.ChannelID, dayLabel); err == nil {
		if existing.Frozen && !forceRegenerate {
			return berrors.ErrFrozenDay
		}
	}

	dayStartUTC, dayEndUTC, err := broadcastday.Window(s.clock, ch, dayLabel)
	if err != nil {
		return fmt.Errorf("schedule: window for %s/%s: %w", ch.ChannelID, dayLabel, err)
	}

	localDay, err := localMidnight(ch, dayLabel)
	if err != nil {
		return err
	}

	plans, err := s.readPlans(ctx, ch.ChannelID)
	if err != nil {
		return fmt.Errorf("schedule: list plans for %s: %w", ch.ChannelID, err)
	}

	plan, err := planstore.Resolve(plans, localDay)
	var items []model.ScheduledItem
	sourcePlanID := ""
	switch {
	case err == nil:
		sourcePlanID = plan.PlanID
		items, err = expandPlan(plan, dayStartUTC, dayEndUTC)
		if err != nil {
			s.logger.Warn("plan coverage error, aborting day generation",
				"channel", ch.ChannelID, "day", dayLabel, "plan", plan.PlanID, "err", err)
			return err
		}
	case err == berrors.ErrNotFound:
		s.logger.Warn("no matching plan, filling with fallback", "channel", ch.ChannelID, "day", dayLabel)
		items = []model.ScheduledItem{{
			StartUTC:  dayStartUTC,
			EndUTC:    dayEndUTC,
			EventType: model.EventTypeFallback,
		}}
	default:
		return fmt.Errorf("schedule: resolve plan for %s/%s: %w", ch.ChannelID, dayLabel, err)
	}

	if err := verifyCoverage(items, dayStartUTC, dayEndUTC); err != nil {
		return err
	}

	day := model.ScheduleDay{
		ChannelID:    ch.ChannelID,
		BroadcastDay: dayLabel,
		SourcePlanID: sourcePlanID,
		GeneratedAt:  s.clock.NowUTC(),
		Frozen:       true,
		DayStartUTC:  dayStartUTC,
		DayEndUTC:    dayEndUTC,
		Items:        items,
	}
	if err := s.days.Upsert(ctx, day, forceRegenerate); err != nil {
		return fmt.Errorf("schedule: upsert day %s/%s: %w", ch.ChannelID, dayLabel, err)
	}
	return nil
}

// localMidnight parses dayLabel as channel-local midnight, for plan
// admission checks, which operate on the local calendar date.
func localMidnight(ch model.Channel, dayLabel string) (time.Time, error) {
	loc, err := time.LoadLocation(ch.Timezone)
	if err != nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02", dayLabel, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule: parse day label %q: %w", dayLabel, err)
	}
	return t, nil
}

// expandPlan anchors plan's BlockAssignments to [dayStartUTC, dayEndUTC),
// expands VirtualAssets, fills any authored gaps with explicit gap items,
// and handles the DST open question (DESIGN.md decision 1): a block whose
// slot would extend past a shortened (23h) window is truncated and marked;
// a window longer than the plan's 1440 authored minutes (25h fall-back day)
// gets its trailing, un-authored span filled with an explicit gap item.
func expandPlan(plan model.SchedulePlan, dayStartUTC, dayEndUTC time.Time) ([]model.ScheduledItem, error) {
	assignments := make([]model.BlockAssignment, len(plan.Assignments))
	copy(assignments, plan.Assignments)
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].StartScheduleMinutes < assignments[j].StartScheduleMinutes
	})

	var items []model.ScheduledItem
	cursor := dayStartUTC
	for _, a := range assignments {
		blockStart := dayStartUTC.Add(time.Duration(a.StartScheduleMinutes) * time.Minute)
		blockEnd := blockStart.Add(time.Duration(a.DurationMinutes) * time.Minute)

		if blockStart.Before(cursor) {
			return nil, fmt.Errorf("%w: channel %s: block at minute %d overlaps previous block",
				berrors.ErrPlanCoverage, plan.ChannelID, a.StartScheduleMinutes)
		}
		if blockStart.After(cursor) {
			// Authored gap: permitted, filled with an explicit gap item.
			items = append(items, model.ScheduledItem{
				StartUTC: cursor, EndUTC: blockStart, EventType: model.EventTypeGap,
			})
		}

		if blockStart.After(dayEndUTC) || blockStart.Equal(dayEndUTC) {
			// Entirely beyond a shortened day: drop the block.
			cursor = blockStart
			continue
		}

		truncated := false
		if blockEnd.After(dayEndUTC) {
			blockEnd = dayEndUTC
			truncated = true
		}

		expanded, err := expandContentRef(a.ContentRef, blockStart, blockEnd.Sub(blockStart), a.EventType, map[string]bool{})
		if err != nil {
			return nil, err
		}
		if truncated && len(expanded) > 0 {
			expanded[len(expanded)-1].Truncated = true
		}
		items = append(items, expanded...)
		cursor = blockEnd
	}

	if cursor.Before(dayEndUTC) {
		// Plan's authored 1440 minutes don't reach a 25h fall-back window's
		// true end: the extra hour is an explicit gap, not an error.
		items = append(items, model.ScheduledItem{
			StartUTC: cursor, EndUTC: dayEndUTC, EventType: model.EventTypeGap,
		})
	}
	return items, nil
}

// expandContentRef resolves a single ContentRef occupying [start, start+dur)
// into one or more ScheduledItems, recursively expanding VirtualAssets with
// a cycle guard: a VirtualAsset may not transitively include itself.
func expandContentRef(ref model.ContentRef, start time.Time, dur time.Duration, eventType model.EventType, visited map[string]bool) ([]model.ScheduledItem, error) {
	if ref.Kind != model.RefKindVirtual {
		return []model.ScheduledItem{{
			StartUTC: start, EndUTC: start.Add(dur), ContentRef: ref, EventType: eventType,
		}}, nil
	}

	va := ref.Virtual
	if va == nil {
		return nil, fmt.Errorf("%w: virtual content ref missing its VirtualAsset body", berrors.ErrPlanCoverage)
	}
	if visited[va.Name] {
		return nil, fmt.Errorf("%w: %s", berrors.ErrCycle, va.Name)
	}
	childVisited := make(map[string]bool, len(visited)+1)
	for k := range visited {
		childVisited[k] = true
	}
	childVisited[va.Name] = true

	var items []model.ScheduledItem
	cursor := start
	for _, vi := range va.Items {
		subDur := time.Duration(vi.DurationSeconds) * time.Second
		expanded, err := expandContentRef(vi.ContentRef, cursor, subDur, vi.EventType, childVisited)
		if err != nil {
			return nil, err
		}
		items = append(items, expanded...)
		cursor = cursor.Add(subDur)
	}
	return items, nil
}

// verifyCoverage checks the ScheduleDay invariant: items are
// non-overlapping and their union exactly covers [dayStartUTC, dayEndUTC).
func verifyCoverage(items []model.ScheduledItem, dayStartUTC, dayEndUTC time.Time) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: no items generated", berrors.ErrPlanCoverage)
	}
	if !items[0].StartUTC.Equal(dayStartUTC) {
		return fmt.Errorf("%w: first item starts at %s, not day start %s",
			berrors.ErrPlanCoverage, items[0].StartUTC, dayStartUTC)
	}
	for i := 1; i < len(items); i++ {
		if !items[i].StartUTC.Equal(items[i-1].EndUTC) {
			return fmt.Errorf("%w: item at %s does not follow previous item's end %s",
				berrors.ErrPlanCoverage, items[i].StartUTC, items[i-1].EndUTC)
		}
	}
	if !items[len(items)-1].EndUTC.Equal(dayEndUTC) {
		return fmt.Errorf("%w: last item ends at %s, not day end %s",
			berrors.ErrPlanCoverage, items[len(items)-1].EndUTC, dayEndUTC)
	}
	return nil
}
