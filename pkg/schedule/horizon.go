package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/onairstack/broadcastcore/pkg/berrors"
	"github.com/onairstack/broadcastcore/pkg/broadcastday"
	"github.com/onairstack/broadcastcore/pkg/model"
)

// EnsureDayHorizon is the ScheduleDay lookahead sweep: every broadcast day
// up to and including now+ScheduleDayLookahead must
// exist, frozen, before ExtendPlaylogHorizon is allowed to consume it.
func (s *Service) EnsureDayHorizon(ctx context.Context, ch model.Channel) error {
	now := s.clock.NowUTC()
	furthest := now.Add(s.cfg.ScheduleDayLookahead)

	label, err := broadcastday.Label(s.clock, ch, now)
	if err != nil {
		return fmt.Errorf("schedule: ensure day horizon for %s: %w", ch.ChannelID, err)
	}

	for {
		_, dayEndUTC, werr := broadcastday.Window(s.clock, ch, label)
		if werr != nil {
			return fmt.Errorf("schedule: ensure day horizon for %s: %w", ch.ChannelID, werr)
		}

		if _, getErr := s.days.Get(ctx, ch.ChannelID, label); errors.Is(getErr, berrors.ErrNotFound) {
			if genErr := s.GenerateDay(ctx, ch, label, false); genErr != nil {
				return fmt.Errorf("schedule: generate day %s/%s: %w", ch.ChannelID, label, genErr)
			}
		} else if getErr != nil {
			return fmt.Errorf("schedule: get day %s/%s: %w", ch.ChannelID, label, getErr)
		}

		if !dayEndUTC.Before(furthest) {
			return nil
		}
		label, err = broadcastday.NextLabel(label)
		if err != nil {
			return fmt.Errorf("schedule: ensure day horizon for %s: %w", ch.ChannelID, err)
		}
	}
}

// ExtendPlaylogHorizon resolves every ScheduledItem
// between the channel's current PlaylogEvent horizon and now+HorizonAhead
// into concrete PlaylogEvents, substituting ineligible asset refs with a
// fallback event, auditing the resulting batch's adjacency, and committing
// it in one write. Assumes EnsureDayHorizon has already made the needed
// ScheduleDays available; a missing day is generated on demand.
func (s *Service) ExtendPlaylogHorizon(ctx context.Context, ch model.Channel) error {
	target := s.clock.NowUTC().Add(s.cfg.HorizonAhead)

	cursor, err := s.playlog.LastEnd(ctx, ch.ChannelID)
	if err != nil {
		return fmt.Errorf("schedule: last playlog end for %s: %w", ch.ChannelID, err)
	}
	if cursor.IsZero() {
		cursor = s.clock.NowUTC()
	}

	var batch []model.PlaylogEvent
	for cursor.Before(target) {
		dayLabel, err := broadcastday.Label(s.clock, ch, cursor)
		if err != nil {
			return fmt.Errorf("schedule: extend horizon for %s: %w", ch.ChannelID, err)
		}

		day, err := s.days.Get(ctx, ch.ChannelID, dayLabel)
		if errors.Is(err, berrors.ErrNotFound) {
			if genErr := s.GenerateDay(ctx, ch, dayLabel, false); genErr != nil {
				return fmt.Errorf("schedule: generate day %s/%s: %w", ch.ChannelID, dayLabel, genErr)
			}
			day, err = s.days.Get(ctx, ch.ChannelID, dayLabel)
		}
		if err != nil {
			return fmt.Errorf("schedule: get day %s/%s: %w", ch.ChannelID, dayLabel, err)
		}

		advanced := false
		for _, item := range day.Items {
			if !item.EndUTC.After(cursor) {
				continue // already covered by a previous tick
			}
			start := item.StartUTC
			if start.Before(cursor) {
				start = cursor // this item straddles the previous horizon boundary
			}
			resolved, err := s.resolveScheduledItem(ctx, model.ScheduledItem{
				StartUTC:   start,
				EndUTC:     item.EndUTC,
				ContentRef: item.ContentRef,
				EventType:  item.EventType,
				Truncated:  item.Truncated,
			}, ch, dayLabel)
			if err != nil {
				return fmt.Errorf("schedule: resolve item at %s/%s: %w", ch.ChannelID, start, err)
			}
			batch = append(batch, resolved...)
			cursor = item.EndUTC
			advanced = true
		}
		if !advanced {
			// Day has no items past cursor (shouldn't happen for a well-formed
			// ScheduleDay); advance past it to avoid spinning forever.
			cursor = day.DayEndUTC
		}
	}

	if len(batch) == 0 {
		return nil
	}
	if err := auditAdjacency(batch); err != nil {
		return err
	}
	return s.playlog.InsertBatch(ctx, ch.ChannelID, batch)
}

// resolveScheduledItem turns item into one or more concrete PlaylogEvents,
// resolving series/rule content refs via rotation and substituting an
// ineligible-asset fallback when the resolved asset is not ready &&
// approved_for_broadcast. When the resolved asset is shorter than item's
// slot, it returns the program event sized to the asset's real duration
// followed by a fallback event padding the remainder of the slot; a longer
// asset is truncated to the slot by DurationSeconds alone, with no second
// event needed.
func (s *Service) resolveScheduledItem(ctx context.Context, item model.ScheduledItem, ch model.Channel, dayLabel string) ([]model.PlaylogEvent, error) {
	ev := model.PlaylogEvent{
		ChannelID:       ch.ChannelID,
		StartUTC:        item.StartUTC,
		EndUTC:          item.EndUTC,
		DurationSeconds: item.DurationSeconds(),
		EventType:       item.EventType,
		ScheduleDayRef:  dayLabel,
	}

	if !item.EventType.RequiresEligibleAsset() {
		return []model.PlaylogEvent{ev}, nil
	}

	assetID, err := s.resolveContentRef(ctx, ch.ChannelID, item.ContentRef)
	if err != nil {
		if errors.Is(err, berrors.ErrAssetIneligible) {
			return []model.PlaylogEvent{s.fallbackEvent(ev, err.Error())}, nil
		}
		return nil, err
	}

	asset, err := s.readAsset(ctx, assetID)
	if errors.Is(err, berrors.ErrNotFound) || (err == nil && !asset.Eligible()) {
		return []model.PlaylogEvent{s.fallbackEvent(ev, fmt.Sprintf("asset_ineligible:%s", assetID))}, nil
	}
	if err != nil {
		return nil, err
	}

	ev.AssetUUID = &assetID
	ev.PlayoutPath = asset.PlayoutPath

	if asset.DurationSeconds > 0 && asset.DurationSeconds < ev.DurationSeconds {
		assetEnd := ev.StartUTC.Add(time.Duration(asset.DurationSeconds) * time.Second)
		pad := model.PlaylogEvent{
			ChannelID:       ch.ChannelID,
			StartUTC:        assetEnd,
			EndUTC:          ev.EndUTC,
			DurationSeconds: int(ev.EndUTC.Sub(assetEnd).Seconds()),
			EventType:       model.EventTypeFallback,
			FallbackCause:   fmt.Sprintf("asset_shorter_than_slot:%s", assetID),
			ScheduleDayRef:  dayLabel,
		}
		ev.EndUTC = assetEnd
		ev.DurationSeconds = asset.DurationSeconds
		return []model.PlaylogEvent{ev, pad}, nil
	}

	return []model.PlaylogEvent{ev}, nil
}

// fallbackEvent converts ev in place into a fallback substitution for an
// ineligible asset.
func (s *Service) fallbackEvent(ev model.PlaylogEvent, cause string) model.PlaylogEvent {
	ev.EventType = model.EventTypeFallback
	ev.FallbackCause = cause
	ev.AssetUUID = nil
	ev.PlayoutPath = ""
	return ev
}

// resolveContentRef picks a concrete asset UUID for ref, consulting the
// rotation store for series/rule refs. VirtualAsset refs never reach here:
// expandContentRef has already flattened them by the time a ScheduleDay is
// generated.
func (s *Service) resolveContentRef(ctx context.Context, channelID string, ref model.ContentRef) (uuid.UUID, error) {
	switch ref.Kind {
	case model.RefKindAsset:
		return ref.AssetUUID, nil
	case model.RefKindSeries:
		candidates, err := s.readSeriesAssets(ctx, ref.SeriesName)
		if err != nil {
			return uuid.Nil, err
		}
		if len(candidates) == 0 {
			return uuid.Nil, fmt.Errorf("%w: series %q has no candidates", berrors.ErrAssetIneligible, ref.SeriesName)
		}
		return s.rotation.Next(channelID, "series:"+ref.SeriesName, candidates, ref.Policy), nil
	case model.RefKindRule:
		candidates, err := s.readRuleAssets(ctx, ref.RuleTag)
		if err != nil {
			return uuid.Nil, err
		}
		if len(candidates) == 0 {
			return uuid.Nil, fmt.Errorf("%w: rule %q has no candidates", berrors.ErrAssetIneligible, ref.RuleTag)
		}
		return s.rotation.Next(channelID, "rule:"+ref.RuleTag, candidates, ref.Policy), nil
	default:
		return uuid.Nil, fmt.Errorf("schedule: unexpected content ref kind %q at playlog resolution", ref.Kind)
	}
}

// HorizonBuilder runs EnsureDayHorizon and ExtendPlaylogHorizon for every
// known channel on a fixed tick, backing off on failure. It implements
// suture.Service so internal/supervisor can run it as a supervised daemon.
type HorizonBuilder struct {
	svc      *Service
	channels func() []model.Channel
}

// NewHorizonBuilder constructs a HorizonBuilder. channels is called on every
// tick so newly tuned-in channels are picked up without a restart.
func NewHorizonBuilder(svc *Service, channels func() []model.Channel) *HorizonBuilder {
	return &HorizonBuilder{svc: svc, channels: channels}
}

// Serve runs the horizon builder until ctx is cancelled.
func (h *HorizonBuilder) Serve(ctx context.Context) error {
	ticker := time.NewTicker(h.svc.cfg.TickInterval)
	defer ticker.Stop()

	backoff := time.Second
	const maxBackoff = time.Minute
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := h.tick(ctx); err != nil {
				h.svc.logger.Error("horizon builder tick failed", "err", err, "retry_in", backoff)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}
			backoff = time.Second
		}
	}
}

func (h *HorizonBuilder) tick(ctx context.Context) error {
	tickCtx, cancel := context.WithTimeout(ctx, h.svc.cfg.TickDeadline)
	defer cancel()

	for _, ch := range h.channels() {
		if err := h.svc.EnsureDayHorizon(tickCtx, ch); err != nil {
			return fmt.Errorf("channel %s: ensure day horizon: %w", ch.ChannelID, err)
		}
		if err := h.svc.ExtendPlaylogHorizon(tickCtx, ch); err != nil {
			return fmt.Errorf("channel %s: extend playlog horizon: %w", ch.ChannelID, err)
		}
	}
	if errors.Is(tickCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w", berrors.ErrHorizonTimeout)
	}
	return nil
}
