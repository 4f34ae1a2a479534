package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/onairstack/broadcastcore/pkg/berrors"
	"github.com/onairstack/broadcastcore/pkg/model"
)

// DayStore is the core-owned read/write boundary for ScheduleDay. Upsert
// is idempotent under Frozen=false; it refuses to overwrite a frozen day
// unless forceRegenerate is set.
type DayStore interface {
	Get(ctx context.Context, channelID, dayLabel string) (model.ScheduleDay, error)
	Upsert(ctx context.Context, day model.ScheduleDay, forceRegenerate bool) error
}

// PlaylogStore is the core-owned read/write boundary for PlaylogEvent.
// Writers serialize per channel; readers take no locks.
type PlaylogStore interface {
	// LastEnd returns the max EndUTC of existing events for channelID, or
	// the zero time.Time if none exist.
	LastEnd(ctx context.Context, channelID string) (time.Time, error)
	// InsertBatch appends a batch atomically, serialized per channel.
	// Idempotent on the (ChannelID, StartUTC) key: inserting an event that
	// already exists with the same StartUTC is a no-op.
	InsertBatch(ctx context.Context, channelID string, events []model.PlaylogEvent) error
	// ActiveEvent returns the event with StartUTC <= t < EndUTC, or
	// berrors.ErrNotFound.
	ActiveEvent(ctx context.Context, channelID string, t time.Time) (model.PlaylogEvent, error)
	// CarryoverInto returns the unique event where
	// StartUTC < rollover <= EndUTC-1s, or berrors.ErrNotFound.
	CarryoverInto(ctx context.Context, channelID string, rollover time.Time) (model.PlaylogEvent, error)
	// EventsInRange returns events overlapping [from, to), ordered by
	// StartUTC, for EPG/as-run style reads and for tests.
	EventsInRange(ctx context.Context, channelID string, from, to time.Time) ([]model.PlaylogEvent, error)
}

// MemoryDayStore is an in-memory DayStore.
type MemoryDayStore struct {
	mu   sync.RWMutex
	days map[string]model.ScheduleDay // key: channelID+"|"+dayLabel
}

// NewMemoryDayStore constructs an empty in-memory DayStore.
func NewMemoryDayStore() *MemoryDayStore {
	return &MemoryDayStore{days: make(map[string]model.ScheduleDay)}
}

func dayKey(channelID, dayLabel string) string { return channelID + "|" + dayLabel }

func (s *MemoryDayStore) Get(_ context.Context, channelID, dayLabel string) (model.ScheduleDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.days[dayKey(channelID, dayLabel)]
	if !ok {
		return model.ScheduleDay{}, berrors.ErrNotFound
	}
	return d, nil
}

func (s *MemoryDayStore) Upsert(_ context.Context, day model.ScheduleDay, forceRegenerate bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := dayKey(day.ChannelID, day.BroadcastDay)
	if existing, ok := s.days[key]; ok && existing.Frozen && !forceRegenerate {
		return berrors.ErrFrozenDay
	}
	s.days[key] = day
	return nil
}

// MemoryPlaylogStore is an in-memory PlaylogStore with per-channel
// serialization of writes, approximating an advisory per-channel lock.
type MemoryPlaylogStore struct {
	mu       sync.RWMutex
	events   map[string][]model.PlaylogEvent // key: channelID, sorted by StartUTC
	writeLks sync.Map                        // channelID -> *sync.Mutex
}

// NewMemoryPlaylogStore constructs an empty in-memory PlaylogStore.
func NewMemoryPlaylogStore() *MemoryPlaylogStore {
	return &MemoryPlaylogStore{events: make(map[string][]model.PlaylogEvent)}
}

func (s *MemoryPlaylogStore) writeLock(channelID string) *sync.Mutex {
	lk, _ := s.writeLks.LoadOrStore(channelID, &sync.Mutex{})
	return lk.(*sync.Mutex)
}

func (s *MemoryPlaylogStore) LastEnd(_ context.Context, channelID string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.events[channelID]
	if len(events) == 0 {
		return time.Time{}, nil
	}
	return events[len(events)-1].EndUTC, nil
}

func (s *MemoryPlaylogStore) InsertBatch(_ context.Context, channelID string, batch []model.PlaylogEvent) error {
	lk := s.writeLock(channelID)
	lk.Lock()
	defer lk.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.events[channelID]
	seen := make(map[int64]struct{}, len(existing))
	for _, e := range existing {
		seen[e.StartUTC.UnixNano()] = struct{}{}
	}
	for _, e := range batch {
		if _, dup := seen[e.StartUTC.UnixNano()]; dup {
			continue // idempotent: (channel_id, start_utc) already present
		}
		existing = append(existing, e)
		seen[e.StartUTC.UnixNano()] = struct{}{}
	}
	sort.Slice(existing, func(i, j int) bool { return existing[i].StartUTC.Before(existing[j].StartUTC) })
	s.events[channelID] = existing
	return nil
}

func (s *MemoryPlaylogStore) ActiveEvent(_ context.Context, channelID string, t time.Time) (model.PlaylogEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events[channelID] {
		if !t.Before(e.StartUTC) && t.Before(e.EndUTC) {
			return e, nil
		}
	}
	return model.PlaylogEvent{}, berrors.ErrNotFound
}

func (s *MemoryPlaylogStore) CarryoverInto(_ context.Context, channelID string, rollover time.Time) (model.PlaylogEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events[channelID] {
		if e.StartUTC.Before(rollover) && !rollover.After(e.EndUTC.Add(-time.Second)) {
			return e, nil
		}
	}
	return model.PlaylogEvent{}, berrors.ErrNotFound
}

func (s *MemoryPlaylogStore) EventsInRange(_ context.Context, channelID string, from, to time.Time) ([]model.PlaylogEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.PlaylogEvent
	for _, e := range s.events[channelID] {
		if e.EndUTC.After(from) && e.StartUTC.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

// auditAdjacency verifies the PlaylogEvent invariants over a proposed
// batch: non-overlapping, gap-free, exact boundary sharing. Called by the
// horizon builder before every commit.
func auditAdjacency(events []model.PlaylogEvent) error {
	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]
		if !cur.StartUTC.Equal(prev.EndUTC) {
			return fmt.Errorf("%w: channel %s: event at %s does not start where previous ends (%s)",
				berrors.ErrPlanCoverage, cur.ChannelID, cur.StartUTC, prev.EndUTC)
		}
	}
	return nil
}
