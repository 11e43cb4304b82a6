package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidRange      = errors.New("end date cannot be before start date")
	ErrAnalyticsNotFound = errors.New("analytics snapshot not found")
)

// ValidateRange rejects inverted date ranges before any computation runs.
func ValidateRange(start, end time.Time) error {
	if end.Before(start) {
		return ErrInvalidRange
	}
	return nil
}

// EventRepository is the read-only port onto the external event store.
// All range arguments are inclusive calendar-day bounds.
type EventRepository interface {
	// ListByHabitID retrieves every event for one habit within the range.
	ListByHabitID(ctx context.Context, habitID string, from, to time.Time) ([]*CompletionEvent, error)

	// ListByUserID retrieves every event for all of a user's habits within
	// the range. Used by the correlation engine, which needs day-aligned
	// series across habits.
	ListByUserID(ctx context.Context, userID string, from, to time.Time) ([]*CompletionEvent, error)

	// ListByGroupID retrieves every event for the group's shared habits
	// within the range, across all members.
	ListByGroupID(ctx context.Context, groupID string, from, to time.Time) ([]*CompletionEvent, error)
}

// HabitRepository enumerates recompute targets for the orchestrator and
// resolves ownership for the API surface.
type HabitRepository interface {
	GetByID(ctx context.Context, id string) (*Habit, error)

	ListByUserID(ctx context.Context, userID string) ([]*Habit, error)

	// ListAll returns every non-archived habit. Drives the daily and
	// weekly full recomputes.
	ListAll(ctx context.Context) ([]*Habit, error)

	// ListActiveSince returns habits with at least one event written after
	// the given instant. Drives the light hourly recompute.
	ListActiveSince(ctx context.Context, since time.Time) ([]*Habit, error)
}

// GroupRepository resolves group membership for the group dynamics engine.
type GroupRepository interface {
	GetByID(ctx context.Context, id string) (*Group, error)

	ListAll(ctx context.Context) ([]*Group, error)
}

// AnalyticsRepository is the snapshot sink. HabitAnalytics rows are upserted
// by (user, habit); correlation and group-metrics rows are append-only
// history. Every write replaces or adds a whole row: readers never observe a
// partially updated snapshot.
type AnalyticsRepository interface {
	UpsertHabitAnalytics(ctx context.Context, snapshot *HabitAnalytics) error

	GetHabitAnalytics(ctx context.Context, userID, habitID string) (*HabitAnalytics, error)

	AppendCorrelation(ctx context.Context, corr *HabitCorrelation) error

	ListCorrelationsByUserID(ctx context.Context, userID string) ([]*HabitCorrelation, error)

	AppendGroupMetrics(ctx context.Context, metrics *GroupMetrics) error

	// LatestGroupMetrics returns the row with the greatest calculated_at
	// for the group, or ErrAnalyticsNotFound when no history exists.
	LatestGroupMetrics(ctx context.Context, groupID string) (*GroupMetrics, error)

	// PruneBefore deletes appended history older than the cutoff and
	// reports how many rows went away. Upserted habit snapshots are kept.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
