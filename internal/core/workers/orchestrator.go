package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/analytics"
	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
)

type HabitSource interface {
	ListAll(ctx context.Context) ([]*domain.Habit, error)
	ListActiveSince(ctx context.Context, since time.Time) ([]*domain.Habit, error)
}

type GroupSource interface {
	ListAll(ctx context.Context) ([]*domain.Group, error)
}

type EventSource interface {
	ListByHabitID(ctx context.Context, habitID string, from, to time.Time) ([]*domain.CompletionEvent, error)
	ListByUserID(ctx context.Context, userID string, from, to time.Time) ([]*domain.CompletionEvent, error)
	ListByGroupID(ctx context.Context, groupID string, from, to time.Time) ([]*domain.CompletionEvent, error)
}

type AnalyticsSink interface {
	UpsertHabitAnalytics(ctx context.Context, snapshot *domain.HabitAnalytics) error
	AppendCorrelation(ctx context.Context, corr *domain.HabitCorrelation) error
	AppendGroupMetrics(ctx context.Context, metrics *domain.GroupMetrics) error
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Clock is injected so tests can pin the batch evaluation day.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

const (
	hourlyWindowDays = 7
	dailyWindowDays  = 30
	weeklyWindowDays = 90

	activityLookback = 24 * time.Hour
	retentionMonths  = 6
)

// Intervals controls how often each cadence fires when the orchestrator runs
// in the background. Zero values fall back to the production schedule.
type Intervals struct {
	Hourly  time.Duration
	Daily   time.Duration
	Weekly  time.Duration
	Monthly time.Duration
}

func (i Intervals) withDefaults() Intervals {
	if i.Hourly <= 0 {
		i.Hourly = time.Hour
	}
	if i.Daily <= 0 {
		i.Daily = 24 * time.Hour
	}
	if i.Weekly <= 0 {
		i.Weekly = 7 * 24 * time.Hour
	}
	if i.Monthly <= 0 {
		i.Monthly = 30 * 24 * time.Hour
	}
	return i
}

// Orchestrator drives the batch recomputes. Each cadence walks its entity
// set independently; one failing entity never aborts the rest of the run.
// Runs are idempotent: habit snapshots are upserted by (user, habit), so
// re-running a window converges on the same rows.
type Orchestrator struct {
	habits HabitSource
	groups GroupSource
	events EventSource
	sink   AnalyticsSink
	clock  Clock
}

func NewOrchestrator(habits HabitSource, groups GroupSource, events EventSource, sink AnalyticsSink) *Orchestrator {
	return &Orchestrator{
		habits: habits,
		groups: groups,
		events: events,
		sink:   sink,
		clock:  realClock{},
	}
}

// WithClock replaces the wall clock. Tests use it to pin the batch day.
func (o *Orchestrator) WithClock(c Clock) *Orchestrator {
	o.clock = c
	return o
}

// Start runs the four cadences on tickers until the context is cancelled.
func (o *Orchestrator) Start(ctx context.Context, intervals Intervals) {
	intervals = intervals.withDefaults()
	go func() {
		log.Println("Analytics Orchestrator started in background...")

		hourly := time.NewTicker(intervals.Hourly)
		daily := time.NewTicker(intervals.Daily)
		weekly := time.NewTicker(intervals.Weekly)
		monthly := time.NewTicker(intervals.Monthly)
		defer hourly.Stop()
		defer daily.Stop()
		defer weekly.Stop()
		defer monthly.Stop()

		for {
			select {
			case <-hourly.C:
				o.RunHourly(ctx)
			case <-daily.C:
				o.RunDaily(ctx)
			case <-weekly.C:
				o.RunWeekly(ctx)
			case <-monthly.C:
				o.RunMonthly(ctx)
			case <-ctx.Done():
				log.Println("Analytics Orchestrator shutting down...")
				return
			}
		}
	}()
}

// RunHourly refreshes short-window snapshots for habits with recent writes.
func (o *Orchestrator) RunHourly(ctx context.Context) {
	now := o.clock.Now()
	habits, err := o.habits.ListActiveSince(ctx, now.Add(-activityLookback))
	if err != nil {
		log.Printf("[ORCHESTRATOR] hourly: listing active habits: %v", err)
		return
	}
	o.recomputeHabits(ctx, habits, hourlyWindowDays, now, "hourly")
}

// RunDaily refreshes 30-day snapshots for every non-archived habit.
func (o *Orchestrator) RunDaily(ctx context.Context) {
	now := o.clock.Now()
	habits, err := o.habits.ListAll(ctx)
	if err != nil {
		log.Printf("[ORCHESTRATOR] daily: listing habits: %v", err)
		return
	}
	o.recomputeHabits(ctx, habits, dailyWindowDays, now, "daily")
}

// RunWeekly does the heavy pass: 90-day snapshots, cross-habit correlations
// per user, and a fresh metrics row per group.
func (o *Orchestrator) RunWeekly(ctx context.Context) {
	now := o.clock.Now()

	habits, err := o.habits.ListAll(ctx)
	if err != nil {
		log.Printf("[ORCHESTRATOR] weekly: listing habits: %v", err)
		return
	}
	o.recomputeHabits(ctx, habits, weeklyWindowDays, now, "weekly")
	o.recomputeCorrelations(ctx, habits, now)
	o.recomputeGroups(ctx, now)
}

// RunMonthly prunes appended history older than the retention horizon.
func (o *Orchestrator) RunMonthly(ctx context.Context) {
	now := o.clock.Now()
	cutoff := now.AddDate(0, -retentionMonths, 0)

	pruned, err := o.sink.PruneBefore(ctx, cutoff)
	if err != nil {
		log.Printf("[ORCHESTRATOR] monthly: pruning history: %v", err)
		return
	}
	log.Printf("[ORCHESTRATOR] monthly: pruned %d history rows older than %s", pruned, cutoff.Format(domain.DayFormat))
}

func (o *Orchestrator) recomputeHabits(ctx context.Context, habits []*domain.Habit, windowDays int, now time.Time, cadence string) {
	end := domain.Day(now)
	start := end.AddDate(0, 0, -(windowDays - 1))

	failures := 0
	for _, h := range habits {
		if err := o.safely(func() error { return o.recomputeHabit(ctx, h, start, end, now) }); err != nil {
			failures++
			log.Printf("[ORCHESTRATOR] %s: habit %s: %v", cadence, h.ID, err)
		}
	}
	log.Printf("[ORCHESTRATOR] %s: recomputed %d habits (%d failed)", cadence, len(habits)-failures, failures)
}

func (o *Orchestrator) recomputeHabit(ctx context.Context, habit *domain.Habit, start, end, now time.Time) error {
	events, err := o.events.ListByHabitID(ctx, habit.ID, start, end)
	if err != nil {
		return err
	}

	metrics, err := analytics.ComputeHabitMetrics(events, habit.ID, habit.UserID, start, end, end)
	if err != nil {
		return err
	}

	return o.sink.UpsertHabitAnalytics(ctx, metrics.Snapshot(now))
}

func (o *Orchestrator) recomputeCorrelations(ctx context.Context, habits []*domain.Habit, now time.Time) {
	end := domain.Day(now)
	start := end.AddDate(0, 0, -(weeklyWindowDays - 1))

	habitsByUser := make(map[string][]string)
	for _, h := range habits {
		habitsByUser[h.UserID] = append(habitsByUser[h.UserID], h.ID)
	}

	for userID, habitIDs := range habitsByUser {
		if len(habitIDs) < 2 {
			continue
		}
		err := o.safely(func() error {
			events, err := o.events.ListByUserID(ctx, userID, start, end)
			if err != nil {
				return err
			}
			for _, corr := range analytics.CorrelateHabits(events, habitIDs, userID, now) {
				if err := o.sink.AppendCorrelation(ctx, corr); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			log.Printf("[ORCHESTRATOR] weekly: correlations for user %s: %v", userID, err)
		}
	}
}

func (o *Orchestrator) recomputeGroups(ctx context.Context, now time.Time) {
	end := domain.Day(now)
	start := end.AddDate(0, 0, -(weeklyWindowDays - 1))

	groups, err := o.groups.ListAll(ctx)
	if err != nil {
		log.Printf("[ORCHESTRATOR] weekly: listing groups: %v", err)
		return
	}

	for _, g := range groups {
		group := g
		err := o.safely(func() error {
			events, err := o.events.ListByGroupID(ctx, group.ID, start, end)
			if err != nil {
				return err
			}
			dynamics, err := analytics.ComputeGroupDynamics(events, group, start, end, now)
			if err != nil {
				return err
			}
			return o.sink.AppendGroupMetrics(ctx, dynamics.Snapshot())
		})
		if err != nil {
			log.Printf("[ORCHESTRATOR] weekly: group %s: %v", group.ID, err)
		}
	}
}

// safely converts a panic in one entity's recompute into an error so the
// batch can move on to the next entity.
func (o *Orchestrator) safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered from panic: %v", r)
		}
	}()
	return fn()
}
