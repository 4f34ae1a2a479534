package schedule

import (
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/onairstack/broadcastcore/pkg/model"
)

// RotationStore remembers per-channel series/rule rotation state across
// horizon-builder ticks. Persistence of this state is left pluggable;
// an in-memory implementation is the default (see DESIGN.md).
type RotationStore interface {
	// Next picks one candidate from candidates for (channelID, key) under
	// policy, advancing any sequential rotation state. candidates must be
	// non-empty.
	Next(channelID, key string, candidates []uuid.UUID, policy model.SelectionPolicy) uuid.UUID
}

// MemoryRotationStore is the default, process-lifetime RotationStore.
type MemoryRotationStore struct {
	mu      sync.Mutex
	nextIdx map[string]int
	rng     *rand.Rand
}

// NewMemoryRotationStore constructs a MemoryRotationStore. seed fixes the
// random sequence for deterministic tests; production callers should pass a
// seed derived from the process's own entropy source.
func NewMemoryRotationStore(seed int64) *MemoryRotationStore {
	return &MemoryRotationStore{
		nextIdx: make(map[string]int),
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func (m *MemoryRotationStore) Next(channelID, key string, candidates []uuid.UUID, policy model.SelectionPolicy) uuid.UUID {
	if policy == model.SelectionRandom {
		m.mu.Lock()
		defer m.mu.Unlock()
		return candidates[m.rng.Intn(len(candidates))]
	}

	// Sequential: round-robin through candidates in order, remembered per
	// (channelID, key).
	m.mu.Lock()
	defer m.mu.Unlock()
	rotKey := channelID + "|" + key
	idx := m.nextIdx[rotKey] % len(candidates)
	m.nextIdx[rotKey] = idx + 1
	return candidates[idx]
}
