package channel

import (
	"github.com/onairstack/broadcastcore/pkg/encoder"
	"github.com/onairstack/broadcastcore/pkg/model"
)

// tuneInCmd and tuneOutCmd are wrapped in a replyWrapper by send() so the
// actor loop can answer the caller once the command has been applied.
type tuneInCmd struct{ viewerID string }
type tuneOutCmd struct{ viewerID string }
type shutdownCmd struct{}

type replyWrapper struct {
	cmd   any
	reply chan error
}

func withReply(cmd any, reply chan error) any {
	return replyWrapper{cmd: cmd, reply: reply}
}

// viewerCountCmd is sent directly (unwrapped): it never fails.
type viewerCountCmd struct {
	reply chan int
}

// launchResultCmd carries the outcome of an asynchronous encoder
// preparation (runLaunch or runRelaunch) back onto the actor loop.
type launchResultCmd struct {
	generation    int
	enc           encoder.Encoder
	ev            model.PlaylogEvent
	fallbackCause string
	err           error
}

// relaunchFailedCmd marks one failed relaunch attempt during crash recovery.
type relaunchFailedCmd struct {
	generation int
}

// encoderEventCmd carries a forwarded health or exit signal from a running
// encoder, tagged with the launch generation it belongs to so stale signals
// from a torn-down encoder are ignored.
type encoderEventCmd struct {
	generation int
	health     *encoder.HealthEvent
	exitCode   *int
}
