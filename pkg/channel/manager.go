// Package channel implements ChannelManager: the per-channel runtime that
// tracks viewer demand, starts and stops encoders, and aligns join-time
// playback to the absolute schedule. Each Manager is a
// single-goroutine actor with one inbound command channel — this is what
// lets all of a channel's shared state go without a lock.
package channel

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/onairstack/broadcastcore/pkg/catalog"
	"github.com/onairstack/broadcastcore/pkg/clock"
	"github.com/onairstack/broadcastcore/pkg/encoder"
	"github.com/onairstack/broadcastcore/pkg/model"
)

// State is a ChannelManager lifecycle state.
type State string

const (
	StateIdle        State = "idle"
	StatePreparing   State = "preparing"
	StateStreaming   State = "streaming"
	StateTearingDown State = "tearing_down"
)

// ScheduleReader is the slice of ScheduleService that ChannelManager
// depends on, so tests can fake it without standing up the full service.
type ScheduleReader interface {
	ActiveEvent(ctx context.Context, channelID string, t time.Time) (model.PlaylogEvent, error)
	EventsInRange(ctx context.Context, channelID string, from, to time.Time) ([]model.PlaylogEvent, error)
	EnsureDayHorizon(ctx context.Context, ch model.Channel) error
	ExtendPlaylogHorizon(ctx context.Context, ch model.Channel) error
	InsertOnDemandFallback(ctx context.Context, ch model.Channel, from time.Time, maxDuration time.Duration) (model.PlaylogEvent, error)
}

// AsRunSink is the write-only boundary to AsRunLogger.
type AsRunSink interface {
	Record(ctx context.Context, rec model.AsRunRecord)
}

// Enricher is one ordered, pure playout-plan transform.
// Apply must not launch external processes or mutate assets.
type Enricher struct {
	Name  string
	Apply func(encoder.PlayoutPlan) (encoder.PlayoutPlan, error)
}

// Config holds Manager tuning knobs.
type Config struct {
	LaunchTimeout       time.Duration // default 10s
	PlanBufferAhead     time.Duration // default 10m
	OnDemandFallbackCap time.Duration // default 60s
	CrashRetryWindow    time.Duration // default 30s
}

// DefaultConfig matches the system's stated default timeouts.
func DefaultConfig() Config {
	return Config{
		LaunchTimeout:       10 * time.Second,
		PlanBufferAhead:     10 * time.Minute,
		OnDemandFallbackCap: 60 * time.Second,
		CrashRetryWindow:    30 * time.Second,
	}
}

// Manager is ChannelManager for one channel.
type Manager struct {
	channel   model.Channel
	clock     clock.Clock
	schedule  ScheduleReader
	catalog   catalog.Reader
	encoders  encoder.Factory
	asrun     AsRunSink
	enrichers []Enricher
	logger    *slog.Logger
	cfg       Config

	cmds chan any

	// actor-owned state: only the Serve goroutine touches these.
	state            State
	viewers          map[string]struct{}
	enc              encoder.Encoder
	activeEvent      model.PlaylogEvent
	launchGeneration int
	launchCancel     context.CancelFunc
	crashWindowStart time.Time
	relaunchFailures int

	stateSnapshot atomic.Value // State, for lock-free external reads
}

// New constructs a Manager for ch. enrichers run in the given order.
func New(ch model.Channel, clk clock.Clock, sched ScheduleReader, cat catalog.Reader,
	encoders encoder.Factory, asrun AsRunSink, enrichers []Enricher, logger *slog.Logger, cfg Config) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		channel:   ch,
		clock:     clk,
		schedule:  sched,
		catalog:   cat,
		encoders:  encoders,
		asrun:     asrun,
		enrichers: enrichers,
		logger:    logger.With("channel", ch.ChannelID),
		cfg:       cfg,
		cmds:      make(chan any, 16),
		state:     StateIdle,
		viewers:   make(map[string]struct{}),
	}
	m.stateSnapshot.Store(StateIdle)
	return m
}

// State returns the manager's current state without touching the actor
// loop: readers take no locks.
func (m *Manager) State() State {
	return m.stateSnapshot.Load().(State)
}

// ViewerCount returns the actor's current viewer count. Exposed for tests
// and operator introspection; prefer State() for hot-path decisions.
func (m *Manager) ViewerCount(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	select {
	case m.cmds <- viewerCountCmd{reply: reply}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case n := <-reply:
		return n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// TuneIn registers a new viewer. On the 0→1 transition it
// starts asynchronous encoder preparation; it does not block for readiness.
func (m *Manager) TuneIn(ctx context.Context, viewerID string) error {
	return m.send(ctx, tuneInCmd{viewerID: viewerID})
}

// TuneOut removes a viewer. On the n→0 transition it tears
// the encoder down, cancelling a pending launch if one is in flight.
func (m *Manager) TuneOut(ctx context.Context, viewerID string) error {
	return m.send(ctx, tuneOutCmd{viewerID: viewerID})
}

// Shutdown drains the actor and tears down any running encoder. Safe to
// call from Serve's caller when the supervisor stops the channel.
func (m *Manager) Shutdown(ctx context.Context) error {
	return m.send(ctx, shutdownCmd{})
}

func (m *Manager) send(ctx context.Context, cmd any) error {
	done := make(chan error, 1)
	wrapped := withReply(cmd, done)
	select {
	case m.cmds <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Serve runs the actor loop until ctx is cancelled. It implements
// suture.Service so internal/supervisor can run one Manager per channel as
// a supervised daemon.
func (m *Manager) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			m.teardownSync(context.Background())
			return ctx.Err()
		case raw := <-m.cmds:
			m.dispatch(ctx, raw)
		}
	}
}

func (m *Manager) dispatch(ctx context.Context, raw any) {
	switch cmd := raw.(type) {
	case replyWrapper:
		switch c := cmd.cmd.(type) {
		case tuneInCmd:
			cmd.reply <- m.handleTuneIn(ctx, c)
		case tuneOutCmd:
			cmd.reply <- m.handleTuneOut(ctx, c)
		case shutdownCmd:
			m.teardownSync(ctx)
			cmd.reply <- nil
		}
	case viewerCountCmd:
		cmd.reply <- len(m.viewers)
	case launchResultCmd:
		m.handleLaunchResult(ctx, cmd)
	case relaunchFailedCmd:
		m.handleRelaunchFailed(ctx, cmd)
	case encoderEventCmd:
		m.handleEncoderEvent(ctx, cmd)
	}
}

func (m *Manager) transition(s State) {
	if m.state == s {
		return
	}
	m.logger.Info("channel state transition", "from", m.state, "to", s)
	m.state = s
	m.stateSnapshot.Store(s)
}

// postCmd delivers a result computed off the actor goroutine (from
// runLaunch/runRelaunch/watchEncoder) back onto the actor's own loop.
func (m *Manager) postCmd(cmd any) {
	m.cmds <- cmd
}

func (m *Manager) handleTuneIn(ctx context.Context, c tuneInCmd) error {
	_, already := m.viewers[c.viewerID]
	m.viewers[c.viewerID] = struct{}{}
	if already || len(m.viewers) > 1 {
		// n -> n+1: attach to existing fanout, never rebuild the plan.
		return nil
	}

	m.transition(StatePreparing)
	m.launchGeneration++
	gen := m.launchGeneration
	launchCtx, cancel := context.WithTimeout(ctx, m.cfg.LaunchTimeout)
	m.launchCancel = cancel
	go m.runLaunch(launchCtx, gen, m.clock.NowUTC(), "")
	return nil
}

func (m *Manager) handleTuneOut(ctx context.Context, c tuneOutCmd) error {
	delete(m.viewers, c.viewerID)
	if len(m.viewers) > 0 {
		return nil
	}

	switch m.state {
	case StatePreparing:
		if m.launchCancel != nil {
			m.launchCancel()
			m.launchCancel = nil
		}
		m.launchGeneration++ // invalidate any in-flight launch result
		m.transition(StateIdle)
	case StateStreaming:
		m.transition(StateTearingDown)
		m.teardownSync(ctx)
	}
	return nil
}

// teardownSync stops the running encoder, if any, and returns to idle.
// Exited() is drained with a bound so a non-responsive fake/process cannot
// hang the actor forever.
func (m *Manager) teardownSync(ctx context.Context) {
	if m.enc == nil {
		m.transition(StateIdle)
		return
	}
	enc := m.enc
	m.enc = nil
	m.launchGeneration++ // any further events from this encoder are stale

	stopCtx, cancel := context.WithTimeout(ctx, m.cfg.LaunchTimeout)
	defer cancel()
	_ = enc.Stop(stopCtx)
	select {
	case <-enc.Exited():
	case <-stopCtx.Done():
		m.logger.Warn("encoder did not report exit before teardown deadline")
	}
	m.transition(StateIdle)
}

func (m *Manager) handleLaunchResult(_ context.Context, cmd launchResultCmd) {
	if cmd.generation != m.launchGeneration {
		return // stale: cancelled by a tune_out, or superseded by a later launch
	}
	if cmd.err != nil {
		m.logger.Warn("encoder preparation failed", "err", cmd.err)
		m.transition(StateIdle)
		return
	}
	m.enc = cmd.enc
	m.activeEvent = cmd.ev
	m.transition(StateStreaming)
	m.watchEncoder(cmd.enc, cmd.generation)

	cause := cmd.fallbackCause
	if cause == "" {
		cause = cmd.ev.FallbackCause
	}
	m.asrun.Record(context.Background(), asRunRecordFor(m.channel.ChannelID, m.clock.NowUTC(), cmd.ev, cause, enricherNames(m.enrichers)))
}

func asRunRecordFor(channelID string, actualStart time.Time, ev model.PlaylogEvent, fallbackCause string, enrichers []string) model.AsRunRecord {
	return model.AsRunRecord{
		ChannelID:             channelID,
		ActualStartUTC:        actualStart,
		AssetUUID:             ev.AssetUUID,
		SourcePlaylogEventRef: ev.StartUTC,
		EventType:             ev.EventType,
		FallbackCause:         fallbackCause,
		EnrichersApplied:      enrichers,
	}
}

func enricherNames(enrichers []Enricher) []string {
	names := make([]string, len(enrichers))
	for i, e := range enrichers {
		names[i] = e.Name
	}
	return names
}

// watchEncoder forwards an encoder's health/exit signals onto the actor
// loop for as long as gen remains the current launch generation.
func (m *Manager) watchEncoder(enc encoder.Encoder, gen int) {
	go func() {
		for {
			select {
			case h, ok := <-enc.Health():
				if !ok {
					return
				}
				m.postCmd(encoderEventCmd{generation: gen, health: &h})
			case code, ok := <-enc.Exited():
				if !ok {
					return
				}
				m.postCmd(encoderEventCmd{generation: gen, exitCode: &code})
				return
			}
		}
	}()
}

func (m *Manager) handleEncoderEvent(ctx context.Context, cmd encoderEventCmd) {
	if cmd.generation != m.launchGeneration {
		return // stale signal from a torn-down or superseded encoder
	}
	if cmd.health != nil {
		m.logger.Debug("encoder health", "healthy", cmd.health.Healthy, "detail", cmd.health.Detail)
		return
	}
	if cmd.exitCode != nil {
		m.handleUnexpectedExit(ctx, *cmd.exitCode)
	}
}

func (m *Manager) handleUnexpectedExit(ctx context.Context, code int) {
	m.enc = nil
	if m.state == StateTearingDown || len(m.viewers) == 0 {
		m.transition(StateIdle)
		return
	}

	m.logger.Warn("encoder exited unexpectedly while streaming", "code", code)
	m.beginCrashRecovery(ctx)
}
