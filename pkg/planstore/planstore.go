// Package planstore defines the read-only boundary to operator-authored
// SchedulePlans and the plan-resolution predicate that selects among them.
package planstore

import (
	"context"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/onairstack/broadcastcore/pkg/berrors"
	"github.com/onairstack/broadcastcore/pkg/model"
)

// Reader is the read-only interface the core depends on instead of binding
// to a concrete plan store.
type Reader interface {
	// ListPlans returns every SchedulePlan configured for channelID,
	// active or not; callers apply admission/priority themselves.
	ListPlans(ctx context.Context, channelID string) ([]model.SchedulePlan, error)
}

// Memory is an in-memory Reader, suitable for tests and for operating
// against a snapshot loaded at process start.
type Memory struct {
	plans map[string][]model.SchedulePlan
}

// NewMemory constructs an empty in-memory plan store.
func NewMemory() *Memory {
	return &Memory{plans: make(map[string][]model.SchedulePlan)}
}

// Put appends or replaces a plan under its channel.
func (m *Memory) Put(p model.SchedulePlan) {
	plans := m.plans[p.ChannelID]
	for i, existing := range plans {
		if existing.PlanID == p.PlanID {
			plans[i] = p
			m.plans[p.ChannelID] = plans
			return
		}
	}
	m.plans[p.ChannelID] = append(plans, p)
}

func (m *Memory) ListPlans(_ context.Context, channelID string) ([]model.SchedulePlan, error) {
	out := make([]model.SchedulePlan, len(m.plans[channelID]))
	copy(out, m.plans[channelID])
	return out, nil
}

// cronParser is the standard 5-field parser (minute hour dom month dow)
// used for SchedulePlan.cron_expression.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// admits reports whether plan's temporal predicate (cron expression and/or
// date-range check) admits the local calendar date day. day must be
// midnight-normalized in the channel's timezone.
func admits(plan model.SchedulePlan, day time.Time) bool {
	if plan.StartDate != nil && day.Before(dateOnly(*plan.StartDate)) {
		return false
	}
	if plan.EndDate != nil && day.After(dateOnly(*plan.EndDate)) {
		return false
	}
	if plan.CronExpr == "" {
		return true
	}
	schedule, err := cronParser.Parse(plan.CronExpr)
	if err != nil {
		return false
	}
	// Next activation strictly after the instant just before midnight: if
	// it lands on `day`, the cron expression has at least one matching
	// minute within that broadcast day's calendar date.
	next := schedule.Next(day.Add(-time.Minute))
	return dateOnly(next).Equal(day)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Resolve selects the admitting plan with highest
// priority, breaking ties by most-recent UpdatedAt. It returns
// berrors.ErrNotFound if no active plan admits day.
func Resolve(plans []model.SchedulePlan, day time.Time) (model.SchedulePlan, error) {
	var candidates []model.SchedulePlan
	for _, p := range plans {
		if !p.IsActive {
			continue
		}
		if admits(p, day) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return model.SchedulePlan{}, berrors.ErrNotFound
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].UpdatedAt.After(candidates[j].UpdatedAt)
	})
	return candidates[0], nil
}
