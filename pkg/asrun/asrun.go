// Package asrun implements AsRunLogger: the durable, append-only,
// reporting-only record of what actually aired. Writes are
// asynchronous from ChannelManager's perspective and backpressure never
// propagates to the encoder — a full queue drops the incoming record
// and logs an operator warning rather than blocking playback.
package asrun

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/onairstack/broadcastcore/pkg/model"
)

// Store is the durable, write-only (append) sink AsRunLogger batches into.
// Read access for reporting is a separate, store-specific concern: as-run
// records are never used as a source of truth for scheduling.
type Store interface {
	InsertBatch(ctx context.Context, records []model.AsRunRecord) error
}

// Config tunes AsRunLogger's queue and batching behavior.
type Config struct {
	QueueCapacity int           // default 256
	BatchSize     int           // default 32
	FlushInterval time.Duration // default 2s
}

// DefaultConfig returns sane defaults for production use.
func DefaultConfig() Config {
	return Config{QueueCapacity: 256, BatchSize: 32, FlushInterval: 2 * time.Second}
}

// Logger is AsRunLogger: a bounded async queue in front of a batching
// consumer, modeled after the ingest pipeline's own buffer-and-flush
// appenders — simplified here to drop rather than retain-and-retry,
// since lossy logging is acceptable but playback must never wait on it.
type Logger struct {
	store  Store
	logger *slog.Logger
	cfg    Config

	queue   chan model.AsRunRecord
	dropped atomic.Int64
}

// NewLogger constructs an AsRunLogger writing batches to store.
func NewLogger(store Store, logger *slog.Logger, cfg Config) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultConfig().QueueCapacity
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultConfig().FlushInterval
	}
	return &Logger{
		store:  store,
		logger: logger,
		cfg:    cfg,
		queue:  make(chan model.AsRunRecord, cfg.QueueCapacity),
	}
}

// Record enqueues rec for durable writing. It never blocks: a full queue
// drops rec and logs an operator warning, swallowed in the hot path rather
// than propagated to the caller.
func (l *Logger) Record(_ context.Context, rec model.AsRunRecord) {
	select {
	case l.queue <- rec:
	default:
		l.dropped.Add(1)
		l.logger.Warn("as-run queue full, dropping record", "channel", rec.ChannelID, "event_type", rec.EventType)
	}
}

// DroppedCount reports how many records have been dropped for queue
// overflow since construction, for operator metrics.
func (l *Logger) DroppedCount() int64 { return l.dropped.Load() }

// Serve runs the batching consumer until ctx is cancelled, flushing
// whatever remains on the way out. It implements suture.Service so
// internal/supervisor can run it as a supervised daemon.
func (l *Logger) Serve(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]model.AsRunRecord, 0, l.cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := l.store.InsertBatch(flushCtx, batch); err != nil {
			l.logger.Warn("as-run batch write failed, records dropped", "count", len(batch), "err", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return ctx.Err()
		case rec := <-l.queue:
			batch = append(batch, rec)
			if len(batch) >= l.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
