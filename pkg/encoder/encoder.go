// Package encoder defines the core's boundary to the out-of-process
// transcoder. The encoder's wire format and the stream it
// emits to viewers are out of scope; the core only hands it a playout plan
// and observes ready/health/exited signals.
package encoder

import "context"

// PlanItem is one entry of a playout plan: play playout_path from
// start_offset_seconds to end_offset_seconds.
type PlanItem struct {
	PlayoutPath        string
	StartOffsetSeconds int
	EndOffsetSeconds   int
	TransitionHint     string
}

// PlayoutPlan is the ordered sequence handed to an encoder at launch.
type PlayoutPlan struct {
	ChannelID string
	Items     []PlanItem
}

// HealthEvent is one periodic health signal from a running encoder.
type HealthEvent struct {
	Healthy bool
	Detail  string
}

// Encoder is the out-of-process transcoder, treated as opaque. Launch
// starts it against plan; Ready/Health/Exited report its lifecycle signals.
// Implementations must not block Launch on more than the process spawn
// itself — readiness is reported asynchronously over Ready().
type Encoder interface {
	// Launch starts the encoder against plan. ctx bounds the launch attempt
	// only, not the encoder's subsequent lifetime.
	Launch(ctx context.Context, plan PlayoutPlan) error
	// Ready reports a single one-shot readiness signal.
	Ready() <-chan struct{}
	// Health reports periodic health signals for as long as the encoder runs.
	Health() <-chan HealthEvent
	// Exited reports the encoder's exit code exactly once, whether the exit
	// was requested (Stop) or not.
	Exited() <-chan int
	// Stop requests the encoder terminate. It may wait for the exit for a
	// bounded time; the exit code itself is reported via Exited().
	Stop(ctx context.Context) error
}

// Factory constructs a fresh Encoder for one channel's lifecycle. A new
// Encoder is created for every launch attempt; encoders are not reused
// across relaunches.
type Factory func(channelID string) Encoder
