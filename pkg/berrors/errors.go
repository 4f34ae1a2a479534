// Package berrors defines the semantic error kinds shared across the
// scheduling and playout core. Recoverable kinds are handled locally by
// callers and logged; corruption-class kinds propagate and abort whatever
// operation hit them.
package berrors

import "errors"

var (
	// ErrNotFound is returned by read paths instead of a bare nil/zero value
	// when nothing matches. Never used for true faults.
	ErrNotFound = errors.New("not found")

	// ErrNaiveInput is raised when a timestamp that is supposed to be
	// tz-aware UTC is passed to MasterClock without an attached location.
	// Programmer error: it is surfaced, never recovered.
	ErrNaiveInput = errors.New("naive input: timestamp has no associated location")

	// ErrFrozenDay is returned when a write targets a frozen ScheduleDay
	// without ForceRegenerate set.
	ErrFrozenDay = errors.New("schedule day is frozen")

	// ErrPlanCoverage marks a tiling-invariant violation discovered during
	// ScheduleDay generation (overlap, gap the DST rule does not explain).
	// Generation aborts for that day; nothing partial is written.
	ErrPlanCoverage = errors.New("plan does not tile the broadcast day")

	// ErrAssetIneligible marks a referenced asset that is not
	// ready && approved_for_broadcast. Recovered locally by substituting a
	// fallback event.
	ErrAssetIneligible = errors.New("asset not eligible for broadcast")

	// ErrHorizonTimeout marks a horizon-builder tick that exceeded its
	// deadline. The tick aborts and a retry is scheduled with backoff.
	ErrHorizonTimeout = errors.New("horizon generation tick exceeded its deadline")

	// ErrEncoderLaunch marks an encoder that failed to report ready within
	// the launch timeout.
	ErrEncoderLaunch = errors.New("encoder failed to report ready")

	// ErrPlaylogGap marks the absence of any PlaylogEvent covering a
	// requested instant.
	ErrPlaylogGap = errors.New("no playlog event covers the requested instant")

	// ErrCycle marks a VirtualAsset expansion that would recurse into
	// itself.
	ErrCycle = errors.New("virtual asset expansion cycle detected")
)
