package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
)

// In-memory implementations of the storage ports, used in tests and for
// running the engine without external services.

type InMemoryEventRepository struct {
	events []*domain.CompletionEvent
	groups map[string]*domain.Group

	mu sync.RWMutex
}

func NewInMemoryEventRepository() *InMemoryEventRepository {
	return &InMemoryEventRepository{groups: make(map[string]*domain.Group)}
}

// Seed loads events outside the repository interface. Test helper.
func (r *InMemoryEventRepository) Seed(events ...*domain.CompletionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

// SeedGroup registers a group so ListByGroupID can resolve its habits.
func (r *InMemoryEventRepository) SeedGroup(group *domain.Group) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[group.ID] = group
}

func withinDays(date, from, to time.Time) bool {
	d := domain.Day(date)
	return !d.Before(domain.Day(from)) && !d.After(domain.Day(to))
}

func (r *InMemoryEventRepository) ListByHabitID(ctx context.Context, habitID string, from, to time.Time) ([]*domain.CompletionEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var events []*domain.CompletionEvent
	for _, e := range r.events {
		if e.HabitID == habitID && withinDays(e.Date, from, to) {
			events = append(events, e)
		}
	}
	return events, nil
}

func (r *InMemoryEventRepository) ListByUserID(ctx context.Context, userID string, from, to time.Time) ([]*domain.CompletionEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var events []*domain.CompletionEvent
	for _, e := range r.events {
		if e.UserID == userID && withinDays(e.Date, from, to) {
			events = append(events, e)
		}
	}
	return events, nil
}

func (r *InMemoryEventRepository) ListByGroupID(ctx context.Context, groupID string, from, to time.Time) ([]*domain.CompletionEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	group, ok := r.groups[groupID]
	if !ok {
		return nil, nil
	}

	habitSet := make(map[string]bool, len(group.HabitIDs))
	for _, id := range group.HabitIDs {
		habitSet[id] = true
	}

	var events []*domain.CompletionEvent
	for _, e := range r.events {
		if habitSet[e.HabitID] && withinDays(e.Date, from, to) {
			events = append(events, e)
		}
	}
	return events, nil
}

type InMemoryHabitRepository struct {
	store map[string]*domain.Habit

	mu sync.RWMutex
}

func NewInMemoryHabitRepository(habits ...*domain.Habit) *InMemoryHabitRepository {
	store := make(map[string]*domain.Habit)
	for _, h := range habits {
		store[h.ID] = h
	}
	return &InMemoryHabitRepository{store: store}
}

func (r *InMemoryHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habit, ok := r.store[id]
	if !ok {
		return nil, domain.ErrHabitNotFound
	}
	return habit, nil
}

func (r *InMemoryHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var habits []*domain.Habit
	for _, h := range r.store {
		if h.UserID == userID && !h.IsArchived() {
			habits = append(habits, h)
		}
	}
	sort.Slice(habits, func(i, j int) bool { return habits[i].ID < habits[j].ID })
	return habits, nil
}

func (r *InMemoryHabitRepository) ListAll(ctx context.Context) ([]*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var habits []*domain.Habit
	for _, h := range r.store {
		if !h.IsArchived() {
			habits = append(habits, h)
		}
	}
	sort.Slice(habits, func(i, j int) bool { return habits[i].ID < habits[j].ID })
	return habits, nil
}

func (r *InMemoryHabitRepository) ListActiveSince(ctx context.Context, since time.Time) ([]*domain.Habit, error) {
	return r.ListAll(ctx)
}

type InMemoryGroupRepository struct {
	store map[string]*domain.Group

	mu sync.RWMutex
}

func NewInMemoryGroupRepository(groups ...*domain.Group) *InMemoryGroupRepository {
	store := make(map[string]*domain.Group)
	for _, g := range groups {
		store[g.ID] = g
	}
	return &InMemoryGroupRepository{store: store}
}

func (r *InMemoryGroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	group, ok := r.store[id]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	return group, nil
}

func (r *InMemoryGroupRepository) ListAll(ctx context.Context) ([]*domain.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var groups []*domain.Group
	for _, g := range r.store {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

type InMemoryAnalyticsRepository struct {
	snapshots    map[string]*domain.HabitAnalytics
	correlations []*domain.HabitCorrelation
	groupMetrics []*domain.GroupMetrics

	mu sync.RWMutex
}

func NewInMemoryAnalyticsRepository() *InMemoryAnalyticsRepository {
	return &InMemoryAnalyticsRepository{snapshots: make(map[string]*domain.HabitAnalytics)}
}

func (r *InMemoryAnalyticsRepository) UpsertHabitAnalytics(ctx context.Context, snapshot *domain.HabitAnalytics) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.snapshots[snapshot.UserID+"/"+snapshot.HabitID] = snapshot
	return nil
}

func (r *InMemoryAnalyticsRepository) GetHabitAnalytics(ctx context.Context, userID, habitID string) (*domain.HabitAnalytics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot, ok := r.snapshots[userID+"/"+habitID]
	if !ok {
		return nil, domain.ErrAnalyticsNotFound
	}
	return snapshot, nil
}

func (r *InMemoryAnalyticsRepository) AppendCorrelation(ctx context.Context, corr *domain.HabitCorrelation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.correlations = append(r.correlations, corr)
	return nil
}

func (r *InMemoryAnalyticsRepository) ListCorrelationsByUserID(ctx context.Context, userID string) ([]*domain.HabitCorrelation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var correlations []*domain.HabitCorrelation
	for _, c := range r.correlations {
		if c.UserID == userID {
			correlations = append(correlations, c)
		}
	}
	return correlations, nil
}

func (r *InMemoryAnalyticsRepository) AppendGroupMetrics(ctx context.Context, metrics *domain.GroupMetrics) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.groupMetrics = append(r.groupMetrics, metrics)
	return nil
}

func (r *InMemoryAnalyticsRepository) LatestGroupMetrics(ctx context.Context, groupID string) (*domain.GroupMetrics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *domain.GroupMetrics
	for _, m := range r.groupMetrics {
		if m.GroupID != groupID {
			continue
		}
		if latest == nil || m.CalculatedAt.After(latest.CalculatedAt) {
			latest = m
		}
	}
	if latest == nil {
		return nil, domain.ErrAnalyticsNotFound
	}
	return latest, nil
}

func (r *InMemoryAnalyticsRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pruned int64

	kept := r.correlations[:0]
	for _, c := range r.correlations {
		if c.CalculatedAt.Before(cutoff) {
			pruned++
			continue
		}
		kept = append(kept, c)
	}
	r.correlations = kept

	keptMetrics := r.groupMetrics[:0]
	for _, m := range r.groupMetrics {
		if m.CalculatedAt.Before(cutoff) {
			pruned++
			continue
		}
		keptMetrics = append(keptMetrics, m)
	}
	r.groupMetrics = keptMetrics

	return pruned, nil
}
