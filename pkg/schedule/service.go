// Package schedule is ScheduleService: the exclusive owner of ScheduleDay
// and PlaylogEvent mutation, and the answer to "what is airing now?"
package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/onairstack/broadcastcore/pkg/catalog"
	"github.com/onairstack/broadcastcore/pkg/clock"
	"github.com/onairstack/broadcastcore/pkg/model"
	"github.com/onairstack/broadcastcore/pkg/planstore"
)

// HorizonMinimum is the minimum PlaylogEvent horizon the service demands.
const HorizonMinimum = 3 * time.Hour

// Config holds Service tuning knobs.
type Config struct {
	// HorizonAhead is how far PlaylogEvent coverage must reach ahead of
	// now; must be >= HorizonMinimum.
	HorizonAhead time.Duration
	// ScheduleDayLookahead is how many broadcast days ahead ScheduleDays
	// must exist (default: now + 4 days).
	ScheduleDayLookahead time.Duration
	// TickInterval is the horizon builder's polling period.
	TickInterval time.Duration
	// TickDeadline bounds a single horizon-builder tick; exceeding it
	// returns berrors.ErrHorizonTimeout.
	TickDeadline time.Duration
}

// DefaultConfig returns the service's stated default tuning values.
func DefaultConfig() Config {
	return Config{
		HorizonAhead:         4 * time.Hour,
		ScheduleDayLookahead: 4 * 24 * time.Hour,
		TickInterval:         time.Minute,
		TickDeadline:         30 * time.Second,
	}
}

// Service is ScheduleService.
type Service struct {
	clock    clock.Clock
	catalog  catalog.Reader
	resolver catalog.ContentResolver
	plans    planstore.Reader
	days     DayStore
	playlog  PlaylogStore
	rotation RotationStore
	logger   *slog.Logger
	cfg      Config

	readBreaker *gobreaker.CircuitBreaker[any]
}

// New constructs a ScheduleService.
func New(
	clk clock.Clock,
	catalogReader catalog.Reader,
	resolver catalog.ContentResolver,
	plans planstore.Reader,
	days DayStore,
	playlog PlaylogStore,
	rotation RotationStore,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HorizonAhead < HorizonMinimum {
		cfg.HorizonAhead = HorizonMinimum
	}
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "schedule-external-reads",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from, "to", to)
		},
	})
	return &Service{
		clock:       clk,
		catalog:     catalogReader,
		resolver:    resolver,
		plans:       plans,
		days:        days,
		playlog:     playlog,
		rotation:    rotation,
		logger:      logger,
		cfg:         cfg,
		readBreaker: breaker,
	}
}

// readPlans lists plans for channelID through the circuit breaker, so
// repeated PlanStore failures trip the breaker instead of hammering a
// failing dependency on every horizon-builder retry.
func (s *Service) readPlans(ctx context.Context, channelID string) ([]model.SchedulePlan, error) {
	result, err := s.readBreaker.Execute(func() (any, error) {
		return s.plans.ListPlans(ctx, channelID)
	})
	if err != nil {
		return nil, err
	}
	return result.([]model.SchedulePlan), nil
}

// readAsset fetches an asset through the circuit breaker.
func (s *Service) readAsset(ctx context.Context, id uuid.UUID) (model.Asset, error) {
	result, err := s.readBreaker.Execute(func() (any, error) {
		return s.catalog.GetAsset(ctx, id)
	})
	if err != nil {
		return model.Asset{}, err
	}
	return result.(model.Asset), nil
}

// readSeriesAssets lists candidate assets for a named series through the
// circuit breaker.
func (s *Service) readSeriesAssets(ctx context.Context, seriesName string) ([]uuid.UUID, error) {
	result, err := s.readBreaker.Execute(func() (any, error) {
		return s.resolver.ListSeriesAssets(ctx, seriesName)
	})
	if err != nil {
		return nil, err
	}
	return result.([]uuid.UUID), nil
}

// readRuleAssets lists candidate assets for a rule tag through the circuit
// breaker.
func (s *Service) readRuleAssets(ctx context.Context, ruleTag string) ([]uuid.UUID, error) {
	result, err := s.readBreaker.Execute(func() (any, error) {
		return s.resolver.ListRuleAssets(ctx, ruleTag)
	})
	if err != nil {
		return nil, err
	}
	return result.([]uuid.UUID), nil
}
