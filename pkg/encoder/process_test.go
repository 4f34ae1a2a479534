package encoder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestProcessStopDoesNotRaceExitedConsumer exercises Stop concurrently with a
// goroutine reading Exited(), mirroring how Manager.watchEncoder consumes it.
// Stop must return on its own done signal rather than draining the single
// exit-code value the watcher goroutine is also waiting on.
func TestProcessStopDoesNotRaceExitedConsumer(t *testing.T) {
	pf := ProcessFactory{Path: "/bin/sh", Args: []string{"-c", "trap 'exit 0' TERM; sleep 5 & wait"}, StopGrace: 2 * time.Second}
	enc := pf.Factory()("ch1")
	p := enc.(*Process)

	require.NoError(t, p.Launch(context.Background(), PlayoutPlan{}))
	<-p.Ready()

	watcherCode := make(chan int, 1)
	go func() {
		watcherCode <- <-p.Exited()
	}()

	start := time.Now()
	err := p.Stop(context.Background())
	require.NoError(t, err)
	require.Less(t, time.Since(start), pf.StopGrace, "Stop should return as soon as the process exits, not wait out the grace period")

	select {
	case <-watcherCode:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher goroutine never received the exit code; Stop must have drained it")
	}
}

// TestProcessStopKillsAfterGrace confirms Stop falls back to Kill when the
// process ignores SIGTERM past the grace period.
func TestProcessStopKillsAfterGrace(t *testing.T) {
	pf := ProcessFactory{Path: "/bin/sh", Args: []string{"-c", "trap '' TERM; sleep 30"}, StopGrace: 200 * time.Millisecond}
	enc := pf.Factory()("ch1")
	p := enc.(*Process)

	require.NoError(t, p.Launch(context.Background(), PlayoutPlan{}))
	<-p.Ready()

	done := make(chan error, 1)
	go func() { done <- p.Stop(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Stop never returned after the process ignored SIGTERM")
	}

	select {
	case <-p.Exited():
	case <-time.After(2 * time.Second):
		t.Fatal("process never reported exit after Kill")
	}
}
