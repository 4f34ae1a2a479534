package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onairstack/broadcastcore/internal/supervisor"
	"github.com/onairstack/broadcastcore/internal/version"
	"github.com/onairstack/broadcastcore/pkg/asrun"
	"github.com/onairstack/broadcastcore/pkg/catalog"
	"github.com/onairstack/broadcastcore/pkg/channel"
	"github.com/onairstack/broadcastcore/pkg/clock"
	"github.com/onairstack/broadcastcore/pkg/encoder"
	"github.com/onairstack/broadcastcore/pkg/logging"
	"github.com/onairstack/broadcastcore/pkg/model"
	"github.com/onairstack/broadcastcore/pkg/planstore"
	"github.com/onairstack/broadcastcore/pkg/schedule"
)

// Runtime bundles the HTTP Server with the supervisor tree that runs the
// horizon builder, the as-run logger, and every channel actor, so main.go
// has a single object to Serve and shut down.
type Runtime struct {
	Server     *Server
	Supervisor *supervisor.Tree
}

// SetupServer builds the router, the scheduling/playout core, and the
// supervisor tree, given the process's resolved configuration.
func SetupServer(ctx context.Context, cfg *ServerConfig, encoders encoder.Factory) (*Runtime, error) {
	logger := slog.Default()

	channels, err := LoadChannels(cfg.ChannelsFile)
	if err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}

	clk := clock.NewSystemClock(logger)
	cat := catalog.NewMemory()
	plans := planstore.NewMemory()
	days := schedule.NewMemoryDayStore()
	playlog := schedule.NewMemoryPlaylogStore()
	rotation := schedule.NewMemoryRotationStore(time.Now().UnixNano())

	svc := schedule.New(clk, cat, cat, plans, days, playlog, rotation, logger, schedule.Config{
		HorizonAhead:         cfg.HorizonAhead(),
		ScheduleDayLookahead: cfg.ScheduleDayLookahead(),
		TickInterval:         cfg.TickInterval(),
		TickDeadline:         cfg.TickDeadline(),
	})

	defs := make(map[string]model.Channel, len(channels))
	for _, ch := range channels {
		defs[ch.ChannelID] = ch
	}

	asrunStore := asrun.NewMemoryStore()
	asrunLogger := asrun.NewLogger(asrunStore, logger, asrun.DefaultConfig())

	tree := supervisor.NewTree(logger, supervisor.DefaultTreeConfig())

	horizonBuilder := schedule.NewHorizonBuilder(svc, func() []model.Channel { return channels })
	tree.AddScheduleService(horizonBuilder)
	tree.AddScheduleService(asrunLogger)

	mgrCfg := channel.Config{
		LaunchTimeout:       cfg.LaunchTimeout(),
		PlanBufferAhead:     cfg.PlanBufferAhead(),
		OnDemandFallbackCap: cfg.OnDemandFallbackCap(),
		CrashRetryWindow:    cfg.CrashRetryWindow(),
	}
	mgrs := make(map[string]*channel.Manager, len(channels))
	for _, ch := range channels {
		mgr := channel.New(ch, clk, svc, cat, encoders, asrunLogger, nil, logger, mgrCfg)
		mgrs[ch.ChannelID] = mgr
		tree.AddChannelService(mgr)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.SlogMiddleWare(logger))
	r.Use(middleware.Recoverer)
	r.Use(NewPrometheusMiddleware())
	r.Use(addVersionAndCORSHeaders)
	if cfg.TimeoutS > 0 {
		r.Use(middleware.Timeout(time.Duration(cfg.TimeoutS) * time.Second))
	}
	r.Mount("/metrics", promhttp.Handler())

	server := &Server{
		Router:   r,
		Cfg:      cfg,
		logger:   logger,
		clock:    clk,
		schedule: svc,
		channels: mgrs,
		defs:     defs,
		asrun:    asrunStore,
	}
	server.Routes()

	tree.AddAPIService(httpServerService{server: server, cfg: cfg})

	logger.Info("broadcastd starting", "version", version.GetVersion(), "port", cfg.Port, "channels", len(channels))
	return &Runtime{Server: server, Supervisor: tree}, nil
}

// Serve runs the full supervisor tree (schedule layer, channel layer, API
// layer) until ctx is cancelled.
func (rt *Runtime) Serve(ctx context.Context) error {
	return rt.Supervisor.Serve(ctx)
}
