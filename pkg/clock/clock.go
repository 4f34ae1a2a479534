// Package clock is MasterClock: the single, passive authority for wall-clock
// time used throughout the scheduling and playout core. It knows nothing
// about broadcast days, schedules, or channels — only time.
package clock

import (
	"log/slog"
	"sync"
	"time"

	"github.com/onairstack/broadcastcore/pkg/berrors"
)

// Clock is the interface every time-dependent component depends on instead
// of calling time.Now directly, so tests can drive time explicitly rather
// than racing the wall clock.
type Clock interface {
	// NowUTC returns the current instant, tz-aware UTC. Successive calls
	// from the same Clock value are monotone non-decreasing.
	NowUTC() time.Time
	// NowLocal returns NowUTC converted to the named IANA zone. An unknown
	// zone name falls back to UTC and is logged once per unique name.
	NowLocal(tzName string) time.Time
	// ToChannelTime converts a UTC instant to the named IANA zone. It
	// returns ErrNaiveInput if t is the zero time.Time (this package's
	// stand-in for "not tz-aware", since every non-zero time.Time in Go
	// already carries a location).
	ToChannelTime(t time.Time, tzName string) (time.Time, error)
	// SecondsSince returns max(0, NowUTC() - past). Future inputs clamp to
	// zero rather than going negative. Returns ErrNaiveInput for a zero
	// past value.
	SecondsSince(past time.Time) (float64, error)
}

// ErrNaiveInput is returned when a caller passes the zero time.Time where an
// absolute, tz-aware instant is required. It is berrors.ErrNaiveInput under
// this package's own name, so every Clock method returns the one sentinel
// recognized module-wide rather than a second, clock-local one.
var ErrNaiveInput = berrors.ErrNaiveInput

// SystemClock is the production Clock: it reads the host system clock and
// the host IANA timezone database, and clamps its own output to be
// monotone non-decreasing even if the host wall clock steps backward.
type SystemClock struct {
	logger *slog.Logger

	mu   sync.Mutex
	last time.Time

	zonesMu sync.RWMutex
	zones   map[string]*time.Location

	warnedMu sync.Mutex
	warned   map[string]struct{}
}

// NewSystemClock constructs a SystemClock. A nil logger uses slog.Default().
func NewSystemClock(logger *slog.Logger) *SystemClock {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemClock{
		logger: logger,
		zones:  make(map[string]*time.Location),
		warned: make(map[string]struct{}),
	}
}

func (c *SystemClock) NowUTC() time.Time {
	now := time.Now().UTC()
	c.mu.Lock()
	defer c.mu.Unlock()
	if now.Before(c.last) {
		now = c.last
	} else {
		c.last = now
	}
	return now
}

func (c *SystemClock) NowLocal(tzName string) time.Time {
	loc := c.resolveZone(tzName)
	return c.NowUTC().In(loc)
}

func (c *SystemClock) ToChannelTime(t time.Time, tzName string) (time.Time, error) {
	if t.IsZero() {
		return time.Time{}, ErrNaiveInput
	}
	loc := c.resolveZone(tzName)
	return t.In(loc), nil
}

func (c *SystemClock) SecondsSince(past time.Time) (float64, error) {
	if past.IsZero() {
		return 0, ErrNaiveInput
	}
	d := c.NowUTC().Sub(past)
	if d < 0 {
		return 0, nil
	}
	return d.Seconds(), nil
}

// resolveZone loads and caches the named location, falling back to UTC (and
// logging once per unique unknown name) if it cannot be resolved.
func (c *SystemClock) resolveZone(tzName string) *time.Location {
	c.zonesMu.RLock()
	loc, ok := c.zones[tzName]
	c.zonesMu.RUnlock()
	if ok {
		return loc
	}

	resolved, err := time.LoadLocation(tzName)
	if err != nil {
		c.warnUnknownZone(tzName, err)
		resolved = time.UTC
	}

	c.zonesMu.Lock()
	c.zones[tzName] = resolved
	c.zonesMu.Unlock()
	return resolved
}

func (c *SystemClock) warnUnknownZone(tzName string, err error) {
	c.warnedMu.Lock()
	defer c.warnedMu.Unlock()
	if _, done := c.warned[tzName]; done {
		return
	}
	c.warned[tzName] = struct{}{}
	c.logger.Warn("unknown timezone, falling back to UTC", "tz", tzName, "err", err)
}
