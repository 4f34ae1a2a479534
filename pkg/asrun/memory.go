package asrun

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/onairstack/broadcastcore/pkg/model"
)

// MemoryStore is an in-process Store, used by tests and by single-process
// deployments that report the as-run log straight out of RAM rather than a
// database.
type MemoryStore struct {
	mu      sync.Mutex
	records []model.AsRunRecord
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// InsertBatch appends records, satisfying the Store interface.
func (s *MemoryStore) InsertBatch(_ context.Context, records []model.AsRunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

// RecordsForChannel returns every stored record for channelID whose
// ActualStartUTC falls in [from, to), ordered by ActualStartUTC. It backs
// the GET /channels/{channel_id}/asrun reporting endpoint.
func (s *MemoryStore) RecordsForChannel(channelID string, from, to time.Time) []model.AsRunRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.AsRunRecord
	for _, r := range s.records {
		if r.ChannelID != channelID {
			continue
		}
		if r.ActualStartUTC.Before(from) || !r.ActualStartUTC.Before(to) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActualStartUTC.Before(out[j].ActualStartUTC) })
	return out
}

// Len reports the total number of stored records, for tests.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
