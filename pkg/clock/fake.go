package clock

import (
	"sync"
	"time"
)

// FakeClock is a Clock whose NowUTC is advanced explicitly by a test,
// instead of tracking the host clock. It still resolves real IANA zones so
// DST-boundary and broadcast-day tests exercise real conversion logic.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time

	zonesMu sync.RWMutex
	zones   map[string]*time.Location
}

// NewFakeClock constructs a FakeClock pinned at now (converted to UTC).
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{
		now:   now.UTC(),
		zones: make(map[string]*time.Location),
	}
}

// Set pins the clock to the given instant.
func (c *FakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now.UTC()
}

// Advance moves the clock forward by d (d may not be negative; callers that
// need to move backward should use Set).
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *FakeClock) NowUTC() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) NowLocal(tzName string) time.Time {
	return c.NowUTC().In(c.resolveZone(tzName))
}

func (c *FakeClock) ToChannelTime(t time.Time, tzName string) (time.Time, error) {
	if t.IsZero() {
		return time.Time{}, ErrNaiveInput
	}
	return t.In(c.resolveZone(tzName)), nil
}

func (c *FakeClock) SecondsSince(past time.Time) (float64, error) {
	if past.IsZero() {
		return 0, ErrNaiveInput
	}
	d := c.NowUTC().Sub(past)
	if d < 0 {
		return 0, nil
	}
	return d.Seconds(), nil
}

func (c *FakeClock) resolveZone(tzName string) *time.Location {
	c.zonesMu.RLock()
	loc, ok := c.zones[tzName]
	c.zonesMu.RUnlock()
	if ok {
		return loc
	}
	resolved, err := time.LoadLocation(tzName)
	if err != nil {
		resolved = time.UTC
	}
	c.zonesMu.Lock()
	c.zones[tzName] = resolved
	c.zonesMu.Unlock()
	return resolved
}
