package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewTreeAppliesDefaultsForZeroConfig(t *testing.T) {
	tree := NewTree(testLogger(), TreeConfig{})

	require.Equal(t, DefaultTreeConfig().FailureThreshold, tree.config.FailureThreshold)
	require.Equal(t, DefaultTreeConfig().FailureDecay, tree.config.FailureDecay)
	require.Equal(t, DefaultTreeConfig().FailureBackoff, tree.config.FailureBackoff)
	require.Equal(t, DefaultTreeConfig().ShutdownTimeout, tree.config.ShutdownTimeout)
}

func TestTreeStartsEachLayersServices(t *testing.T) {
	tree := NewTree(testLogger(), TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	schedSvc := newMockService("sched")
	chanSvc := newMockService("chan")
	apiSvc := newMockService("api")

	tree.AddScheduleService(schedSvc)
	tree.AddChannelService(chanSvc)
	tree.AddAPIService(apiSvc)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	go tree.Serve(ctx)
	time.Sleep(150 * time.Millisecond)

	require.GreaterOrEqual(t, schedSvc.StartCount(), int32(1))
	require.GreaterOrEqual(t, chanSvc.StartCount(), int32(1))
	require.GreaterOrEqual(t, apiSvc.StartCount(), int32(1))
}

func TestTreeServeReturnsOnCancel(t *testing.T) {
	tree := NewTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})
	tree.AddAPIService(newMockService("api"))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- tree.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.True(t, err == nil || errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not shut down in time")
	}
}

func TestRemoveChannelServiceStopsIt(t *testing.T) {
	tree := NewTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})
	svc := newMockService("decommissioned")
	token := tree.AddChannelService(svc)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	go tree.Serve(ctx)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, tree.RemoveChannelService(token))
}
