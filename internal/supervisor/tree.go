// Package supervisor wires broadcastd's long-running services into a suture
// supervisor tree with three layers: schedule (the horizon builder and the
// as-run logger), channels (one actor per on-air channel), and api (the HTTP
// server). A crash confined to one channel's actor does not take down the
// schedule layer or the API's ability to keep serving EPG/health reads.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervisor restart-policy configuration, shared by every
// layer in the tree.
type TreeConfig struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

// DefaultTreeConfig returns suture's own documented defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree is the top-level supervisor for a broadcastd process.
type Tree struct {
	root     *suture.Supervisor
	schedule *suture.Supervisor
	channels *suture.Supervisor
	api      *suture.Supervisor
	config   TreeConfig
}

// NewTree builds a three-layer supervisor tree rooted at root.
func NewTree(logger *slog.Logger, config TreeConfig) *Tree {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = DefaultTreeConfig().FailureThreshold
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = DefaultTreeConfig().FailureDecay
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = DefaultTreeConfig().FailureBackoff
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = DefaultTreeConfig().ShutdownTimeout
	}

	handler := &sutureslog.Handler{Logger: logger}

	rootSpec := suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New("broadcastd", rootSpec)
	schedule := suture.New("schedule-layer", childSpec)
	channels := suture.New("channel-layer", childSpec)
	api := suture.New("api-layer", childSpec)

	root.Add(schedule)
	root.Add(channels)
	root.Add(api)

	return &Tree{root: root, schedule: schedule, channels: channels, api: api, config: config}
}

// AddScheduleService adds a service to the schedule layer: the horizon
// builder and the as-run logger.
func (t *Tree) AddScheduleService(svc suture.Service) suture.ServiceToken {
	return t.schedule.Add(svc)
}

// AddChannelService adds a per-channel actor to the channel layer.
func (t *Tree) AddChannelService(svc suture.Service) suture.ServiceToken {
	return t.channels.Add(svc)
}

// AddAPIService adds the HTTP server to the api layer.
func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// RemoveChannelService stops and removes a channel actor, used when a
// channel is decommissioned without restarting the whole process.
func (t *Tree) RemoveChannelService(token suture.ServiceToken) error {
	return t.channels.Remove(token)
}

// Serve starts the tree and blocks until ctx is cancelled or a child
// exhausts its restart budget.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// UnstoppedServiceReport surfaces services that failed to stop within
// ShutdownTimeout, for operators diagnosing a hung shutdown.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
