package channel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/onairstack/broadcastcore/pkg/berrors"
	"github.com/onairstack/broadcastcore/pkg/encoder"
	"github.com/onairstack/broadcastcore/pkg/model"
)

// runLaunch builds a playout plan for joinTime, launches a fresh encoder
// against it, and waits for readiness, reporting the outcome back onto the
// actor loop as a launchResultCmd. It runs off
// the actor goroutine so a slow launch never blocks tune_in/tune_out for
// this or any other channel.
func (m *Manager) runLaunch(ctx context.Context, gen int, joinTime time.Time, fallbackCause string) {
	plan, ev, err := m.buildPlan(ctx, joinTime)
	if err != nil {
		m.postCmd(launchResultCmd{generation: gen, err: err})
		return
	}

	enc := m.encoders(m.channel.ChannelID)
	if err := enc.Launch(ctx, plan); err != nil {
		m.postCmd(launchResultCmd{generation: gen, err: fmt.Errorf("%w: %v", berrors.ErrEncoderLaunch, err)})
		return
	}

	select {
	case <-enc.Ready():
		m.postCmd(launchResultCmd{generation: gen, enc: enc, ev: ev, fallbackCause: fallbackCause})
	case code, ok := <-enc.Exited():
		if !ok {
			code = -1
		}
		m.postCmd(launchResultCmd{generation: gen,
			err: fmt.Errorf("%w: exited with code %d before ready", berrors.ErrEncoderLaunch, code)})
	case <-ctx.Done():
		_ = enc.Stop(context.Background())
		m.postCmd(launchResultCmd{generation: gen, err: fmt.Errorf("%w: %v", berrors.ErrEncoderLaunch, ctx.Err())})
	}
}

// buildPlan resolves the active event at joinTime (extending the horizon
// on demand if needed), verifies asset
// eligibility, compute the join offset, and assemble a buffered playout
// plan through the channel's enricher chain.
func (m *Manager) buildPlan(ctx context.Context, joinTime time.Time) (encoder.PlayoutPlan, model.PlaylogEvent, error) {
	ev, err := m.schedule.ActiveEvent(ctx, m.channel.ChannelID, joinTime)
	if errors.Is(err, berrors.ErrNotFound) {
		if extErr := m.schedule.ExtendPlaylogHorizon(ctx, m.channel); extErr == nil {
			ev, err = m.schedule.ActiveEvent(ctx, m.channel.ChannelID, joinTime)
		}
	}
	if errors.Is(err, berrors.ErrNotFound) {
		ev, err = m.schedule.InsertOnDemandFallback(ctx, m.channel, joinTime, m.cfg.OnDemandFallbackCap)
	}
	if err != nil {
		return encoder.PlayoutPlan{}, model.PlaylogEvent{}, fmt.Errorf("channel %s: resolve active event: %w", m.channel.ChannelID, err)
	}

	ev = m.verifyAssetEligibility(ctx, ev)

	offset, err := m.clock.SecondsSince(ev.StartUTC)
	if err != nil {
		return encoder.PlayoutPlan{}, model.PlaylogEvent{}, fmt.Errorf("channel %s: join offset: %w", m.channel.ChannelID, err)
	}

	plan := encoder.PlayoutPlan{
		ChannelID: m.channel.ChannelID,
		Items: []encoder.PlanItem{{
			PlayoutPath:        ev.PlayoutPath,
			StartOffsetSeconds: int(offset),
			EndOffsetSeconds:   ev.DurationSeconds,
		}},
	}

	bufferUntil := joinTime.Add(m.cfg.PlanBufferAhead)
	if ev.EndUTC.Before(bufferUntil) {
		upcoming, uerr := m.schedule.EventsInRange(ctx, m.channel.ChannelID, ev.EndUTC, bufferUntil)
		if uerr != nil {
			m.logger.Warn("could not extend playout plan with upcoming events", "err", uerr)
		}
		for _, u := range upcoming {
			plan.Items = append(plan.Items, encoder.PlanItem{
				PlayoutPath: u.PlayoutPath, StartOffsetSeconds: 0, EndOffsetSeconds: u.DurationSeconds,
			})
		}
	}

	return m.applyEnrichers(plan), ev, nil
}

// verifyAssetEligibility re-checks that ev's asset is still ready &&
// approved_for_broadcast at launch time,
// substituting a fallback event if not.
func (m *Manager) verifyAssetEligibility(ctx context.Context, ev model.PlaylogEvent) model.PlaylogEvent {
	if !ev.EventType.RequiresEligibleAsset() || ev.AssetUUID == nil {
		return ev
	}
	asset, err := m.catalog.GetAsset(ctx, *ev.AssetUUID)
	if err == nil && asset.Eligible() {
		return ev
	}
	m.logger.Warn("active event's asset is no longer eligible, substituting fallback", "asset", *ev.AssetUUID)
	return model.PlaylogEvent{
		ChannelID:       ev.ChannelID,
		StartUTC:        ev.StartUTC,
		EndUTC:          ev.EndUTC,
		DurationSeconds: ev.DurationSeconds,
		EventType:       model.EventTypeFallback,
		FallbackCause:   fmt.Sprintf("asset_ineligible:%s", ev.AssetUUID),
		ScheduleDayRef:  ev.ScheduleDayRef,
	}
}

// applyEnrichers runs the channel's ordered enricher chain. A failing
// enricher is dropped; the plan as it stood before that
// enricher is kept and the failure is logged.
func (m *Manager) applyEnrichers(plan encoder.PlayoutPlan) encoder.PlayoutPlan {
	for _, e := range m.enrichers {
		next, err := e.Apply(plan)
		if err != nil {
			m.logger.Warn("playout enricher failed, continuing with prior plan", "enricher", e.Name, "err", err)
			continue
		}
		plan = next
	}
	return plan
}
