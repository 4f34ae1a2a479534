// Package model defines the shared data model of the scheduling and
// playout core. Types here are plain value types; ownership and mutation
// rules live in the packages that own them (pkg/schedule owns
// ScheduleDay/PlaylogEvent, pkg/asrun owns AsRunRecord).
package model

import (
	"time"

	"github.com/google/uuid"
)

// AssetState is the lifecycle state of a Asset as reported by the Catalog.
type AssetState string

const (
	AssetStateNew       AssetState = "new"
	AssetStateEnriching AssetState = "enriching"
	AssetStateReady     AssetState = "ready"
	AssetStateRetired   AssetState = "retired"
)

// Asset is a concrete playable media item, read-only to the core.
type Asset struct {
	UUID                 uuid.UUID
	DurationSeconds      int
	PlayoutPath          string
	State                AssetState
	ApprovedForBroadcast bool
}

// Eligible reports whether a is eligible for any PlaylogEvent.
func (a Asset) Eligible() bool {
	return a.State == AssetStateReady && a.ApprovedForBroadcast
}

// Channel is the per-channel broadcast-day configuration.
type Channel struct {
	ChannelID                string
	Timezone                 string // IANA zone name
	BroadcastDayStartMinutes int    // minutes after local midnight, default 360
	GridMinutes              int    // default 30
}

// RefKind discriminates the BlockAssignment.ContentRef union.
type RefKind string

const (
	RefKindAsset   RefKind = "asset"   // a concrete asset uuid
	RefKindSeries  RefKind = "series"  // rotation over a named series
	RefKindRule    RefKind = "rule"    // tag-based selection rule
	RefKindVirtual RefKind = "virtual" // an inline VirtualAsset sub-sequence
)

// SelectionPolicy governs tie-breaking for series/rule content refs.
type SelectionPolicy string

const (
	SelectionRandom     SelectionPolicy = "random"
	SelectionSequential SelectionPolicy = "sequential"
)

// ContentRef names what should air in a slot before resolution to a
// concrete asset. Exactly one of AssetUUID / SeriesName / RuleTag /
// Virtual is populated, selected by Kind.
type ContentRef struct {
	Kind RefKind

	AssetUUID uuid.UUID // RefKindAsset

	SeriesName string          // RefKindSeries
	Policy     SelectionPolicy // RefKindSeries / RefKindRule

	RuleTag string // RefKindRule

	Virtual *VirtualAsset // RefKindVirtual
}

// VirtualAsset is a reusable, named, inline sub-sequence of scheduled items
// that expands into its components at ScheduleDay generation time. A
// VirtualAsset may not transitively include itself.
type VirtualAsset struct {
	Name  string
	Items []VirtualItem
}

// VirtualItem is one entry of a VirtualAsset, in schedule-relative seconds
// from the start of the VirtualAsset's own slot.
type VirtualItem struct {
	DurationSeconds int
	ContentRef      ContentRef
	EventType       EventType
}

// TotalSeconds returns the sum duration of all items in v.
func (v VirtualAsset) TotalSeconds() int {
	total := 0
	for _, item := range v.Items {
		total += item.DurationSeconds
	}
	return total
}

// BlockAssignment is one entry of a SchedulePlan's ordered set of slots.
type BlockAssignment struct {
	StartScheduleMinutes int // minutes from broadcast-day start (0..1440)
	DurationMinutes      int
	ContentRef           ContentRef
	EventType            EventType // program, commercial, bumper, or interstitial
}

// SchedulePlan is an operator-authored, reusable programming template for a
// channel. Authoring happens outside this core; the core only
// consumes approved plans via PlanReader.
type SchedulePlan struct {
	PlanID      string
	ChannelID   string
	Priority    int
	IsActive    bool
	CronExpr    string // optional; 5-field cron, admits broadcast days
	StartDate   *time.Time
	EndDate     *time.Time
	UpdatedAt   time.Time
	Assignments []BlockAssignment
}

// EventType classifies a ScheduledItem / PlaylogEvent.
type EventType string

const (
	EventTypeProgram      EventType = "program"
	EventTypeCommercial   EventType = "commercial"
	EventTypeBumper       EventType = "bumper"
	EventTypeInterstitial EventType = "interstitial"
	EventTypeGap          EventType = "gap"
	EventTypeFallback     EventType = "fallback"
)

// RequiresEligibleAsset reports whether et requires a resolved, eligible
// asset.
func (et EventType) RequiresEligibleAsset() bool {
	switch et {
	case EventTypeProgram, EventTypeCommercial, EventTypeBumper, EventTypeInterstitial:
		return true
	default:
		return false
	}
}

// ScheduledItem is one resolved-but-not-necessarily-asset-concrete slot of a
// ScheduleDay.
type ScheduledItem struct {
	StartUTC   time.Time
	EndUTC     time.Time
	ContentRef ContentRef
	EventType  EventType
	// Truncated marks an item whose authored duration was cut short to fit
	// a shortened (DST spring-forward) broadcast-day window.
	Truncated bool
}

// DurationSeconds returns end-start in whole seconds.
func (i ScheduledItem) DurationSeconds() int {
	return int(i.EndUTC.Sub(i.StartUTC).Seconds())
}

// ScheduleDay is the immutable daily resolution of an operator's plan.
// Identity is (ChannelID, BroadcastDay).
type ScheduleDay struct {
	ChannelID     string
	BroadcastDay  string // local calendar date label, "2006-01-02"
	SourcePlanID  string // empty if filled entirely by fallback
	GeneratedAt   time.Time
	Frozen        bool
	DayStartUTC   time.Time
	DayEndUTC     time.Time
	Items         []ScheduledItem
}

// PlaylogEvent is a single, resolved, concrete unit of airing. Identity is
// (ChannelID, StartUTC).
type PlaylogEvent struct {
	ChannelID       string
	StartUTC        time.Time
	EndUTC          time.Time
	DurationSeconds int
	AssetUUID       *uuid.UUID // nil for gap/fallback-without-asset
	PlayoutPath     string
	EventType       EventType
	ScheduleDayRef  string // broadcast day label this event's slot came from
	FallbackCause   string // set only when EventType == EventTypeFallback
}

// AsRunRecord is the durable, reporting-only record of an actual airing.
type AsRunRecord struct {
	ChannelID             string
	ActualStartUTC        time.Time
	AssetUUID             *uuid.UUID
	SourcePlaylogEventRef time.Time // the referenced PlaylogEvent's StartUTC
	EventType             EventType
	FallbackCause         string
	EnrichersApplied      []string
}
