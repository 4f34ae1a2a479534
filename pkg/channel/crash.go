package channel

import (
	"context"
	"time"

	"github.com/onairstack/broadcastcore/pkg/model"
)

// beginCrashRecovery rebuilds the plan for the current time and relaunches
// after an encoder crash. A relaunch window resets
// after CrashRetryWindow of quiet; two failures inside one window escalate.
func (m *Manager) beginCrashRecovery(ctx context.Context) {
	now := m.clock.NowUTC()
	if m.crashWindowStart.IsZero() || now.Sub(m.crashWindowStart) > m.cfg.CrashRetryWindow {
		m.crashWindowStart = now
		m.relaunchFailures = 0
	}

	m.transition(StatePreparing)
	m.launchGeneration++
	gen := m.launchGeneration
	go m.runRelaunch(ctx, gen, now)
}

// runRelaunch is runLaunch's crash-recovery counterpart: same preparation
// path, but success is tagged "encoder_recovered" for the AsRunLog, and
// failure is reported as a relaunchFailedCmd rather than a plain error so
// the actor can count attempts within the retry window.
func (m *Manager) runRelaunch(ctx context.Context, gen int, at time.Time) {
	plan, ev, err := m.buildPlan(ctx, at)
	if err != nil {
		m.postCmd(relaunchFailedCmd{generation: gen})
		return
	}

	enc := m.encoders(m.channel.ChannelID)
	launchCtx, cancel := context.WithTimeout(ctx, m.cfg.LaunchTimeout)
	defer cancel()

	if err := enc.Launch(launchCtx, plan); err != nil {
		m.postCmd(relaunchFailedCmd{generation: gen})
		return
	}

	select {
	case <-enc.Ready():
		m.postCmd(launchResultCmd{generation: gen, enc: enc, ev: ev, fallbackCause: "encoder_recovered"})
	case <-enc.Exited():
		m.postCmd(relaunchFailedCmd{generation: gen})
	case <-launchCtx.Done():
		_ = enc.Stop(context.Background())
		m.postCmd(relaunchFailedCmd{generation: gen})
	}
}

func (m *Manager) handleRelaunchFailed(ctx context.Context, cmd relaunchFailedCmd) {
	if cmd.generation != m.launchGeneration {
		return
	}
	m.relaunchFailures++
	if m.relaunchFailures >= 2 {
		m.logger.Error("encoder relaunch failed twice within retry window, escalating")
		encoderEscalations.WithLabelValues(m.channel.ChannelID).Inc()
		m.transition(StateTearingDown)
		m.asrun.Record(context.Background(), model.AsRunRecord{
			ChannelID:      m.channel.ChannelID,
			ActualStartUTC: m.clock.NowUTC(),
			EventType:      model.EventTypeFallback,
			FallbackCause:  "encoder_unrecoverable",
		})
		m.relaunchFailures = 0
		m.transition(StateIdle)
		return
	}

	now := m.clock.NowUTC()
	gen := m.launchGeneration
	go m.runRelaunch(ctx, gen, now)
}
