// Package catalog defines the read-only boundary to the asset catalog.
// The core never writes assets; ingestion, enrichment, and promotion are
// an external collaborator's concern.
package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/onairstack/broadcastcore/pkg/berrors"
	"github.com/onairstack/broadcastcore/pkg/model"
)

// Reader is the read-only interface the core depends on instead of binding
// to a concrete catalog implementation.
type Reader interface {
	// GetAsset returns the asset, or berrors.ErrNotFound if uuid is unknown.
	GetAsset(ctx context.Context, id uuid.UUID) (model.Asset, error)
}

// Memory is an in-memory Reader, suitable for tests and for operating
// against a snapshot loaded at process start.
type Memory struct {
	assets map[uuid.UUID]model.Asset
	sr     *seriesAndRules
}

// NewMemory constructs an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{assets: make(map[uuid.UUID]model.Asset)}
}

// Put inserts or replaces an asset, keyed by its UUID.
func (m *Memory) Put(a model.Asset) {
	m.assets[a.UUID] = a
}

// Retire sets an asset's state to retired, simulating an out-of-band
// lifecycle transition performed by the ingest pipeline.
func (m *Memory) Retire(id uuid.UUID) {
	if a, ok := m.assets[id]; ok {
		a.State = model.AssetStateRetired
		m.assets[id] = a
	}
}

func (m *Memory) GetAsset(_ context.Context, id uuid.UUID) (model.Asset, error) {
	a, ok := m.assets[id]
	if !ok {
		return model.Asset{}, berrors.ErrNotFound
	}
	return a, nil
}

// ContentResolver is the read-only boundary to the ingest pipeline's content
// grouping: which assets belong to a named series, and which assets match a
// tag-based rule. Selection policy (random/sequential) and rotation-state
// persistence are the scheduler's concern (pkg/schedule), not the
// resolver's; this interface only ever returns a candidate list.
type ContentResolver interface {
	// ListSeriesAssets returns the ordered candidate asset UUIDs for a
	// named series content ref.
	ListSeriesAssets(ctx context.Context, seriesName string) ([]uuid.UUID, error)
	// ListRuleAssets returns the ordered candidate asset UUIDs matching a
	// tag-based rule content ref.
	ListRuleAssets(ctx context.Context, ruleTag string) ([]uuid.UUID, error)
}

// Put Memory's series/rule membership alongside its asset table so a single
// fake backs both Reader and ContentResolver in tests.
type seriesAndRules struct {
	series map[string][]uuid.UUID
	rules  map[string][]uuid.UUID
}

// PutSeries registers the ordered candidate list for a named series.
func (m *Memory) PutSeries(name string, ids []uuid.UUID) {
	if m.sr == nil {
		m.sr = &seriesAndRules{series: make(map[string][]uuid.UUID), rules: make(map[string][]uuid.UUID)}
	}
	m.sr.series[name] = ids
}

// PutRule registers the ordered candidate list for a tag-based rule.
func (m *Memory) PutRule(tag string, ids []uuid.UUID) {
	if m.sr == nil {
		m.sr = &seriesAndRules{series: make(map[string][]uuid.UUID), rules: make(map[string][]uuid.UUID)}
	}
	m.sr.rules[tag] = ids
}

func (m *Memory) ListSeriesAssets(_ context.Context, seriesName string) ([]uuid.UUID, error) {
	if m.sr == nil {
		return nil, nil
	}
	return m.sr.series[seriesName], nil
}

func (m *Memory) ListRuleAssets(_ context.Context, ruleTag string) ([]uuid.UUID, error) {
	if m.sr == nil {
		return nil, nil
	}
	return m.sr.rules[ruleTag], nil
}
