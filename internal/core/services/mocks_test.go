package services_test

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func event(habitID, userID string, date time.Time, completed bool) *domain.CompletionEvent {
	e := &domain.CompletionEvent{
		ID:        uuid.New().String(),
		HabitID:   habitID,
		UserID:    userID,
		Date:      date,
		Completed: completed,
		CreatedAt: date,
		UpdatedAt: date,
	}
	if completed {
		at := date.Add(8 * time.Hour)
		e.CompletedAt = &at
	}
	return e
}

type MockHabitRepo struct {
	store         map[string]*domain.Habit
	simulateError error
}

func NewMockHabitRepo(habits ...*domain.Habit) *MockHabitRepo {
	store := make(map[string]*domain.Habit)
	for _, h := range habits {
		store[h.ID] = h
	}
	return &MockHabitRepo{store: store}
}

func (m *MockHabitRepo) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	h, ok := m.store[id]
	if !ok {
		return nil, domain.ErrHabitNotFound
	}
	clone := *h
	return &clone, nil
}

func (m *MockHabitRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	var list []*domain.Habit
	for _, h := range m.store {
		if h.UserID == userID {
			clone := *h
			list = append(list, &clone)
		}
	}
	return list, nil
}

func (m *MockHabitRepo) ListAll(ctx context.Context) ([]*domain.Habit, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	var list []*domain.Habit
	for _, h := range m.store {
		if !h.IsArchived() {
			clone := *h
			list = append(list, &clone)
		}
	}
	return list, nil
}

func (m *MockHabitRepo) ListActiveSince(ctx context.Context, since time.Time) ([]*domain.Habit, error) {
	return m.ListAll(ctx)
}

type MockEventRepo struct {
	events        []*domain.CompletionEvent
	groups        map[string]*domain.Group
	simulateError error
}

func NewMockEventRepo(events ...*domain.CompletionEvent) *MockEventRepo {
	return &MockEventRepo{events: events, groups: make(map[string]*domain.Group)}
}

func inRange(date, from, to time.Time) bool {
	d := domain.Day(date)
	return !d.Before(domain.Day(from)) && !d.After(domain.Day(to))
}

func (m *MockEventRepo) ListByHabitID(ctx context.Context, habitID string, from, to time.Time) ([]*domain.CompletionEvent, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	var list []*domain.CompletionEvent
	for _, e := range m.events {
		if e.HabitID == habitID && inRange(e.Date, from, to) {
			list = append(list, e)
		}
	}
	return list, nil
}

func (m *MockEventRepo) ListByUserID(ctx context.Context, userID string, from, to time.Time) ([]*domain.CompletionEvent, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	var list []*domain.CompletionEvent
	for _, e := range m.events {
		if e.UserID == userID && inRange(e.Date, from, to) {
			list = append(list, e)
		}
	}
	return list, nil
}

func (m *MockEventRepo) ListByGroupID(ctx context.Context, groupID string, from, to time.Time) ([]*domain.CompletionEvent, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	group, ok := m.groups[groupID]
	if !ok {
		return nil, nil
	}
	habitSet := make(map[string]bool, len(group.HabitIDs))
	for _, id := range group.HabitIDs {
		habitSet[id] = true
	}
	var list []*domain.CompletionEvent
	for _, e := range m.events {
		if habitSet[e.HabitID] && inRange(e.Date, from, to) {
			list = append(list, e)
		}
	}
	return list, nil
}

type MockGroupRepo struct {
	store         map[string]*domain.Group
	simulateError error
}

func NewMockGroupRepo(groups ...*domain.Group) *MockGroupRepo {
	store := make(map[string]*domain.Group)
	for _, g := range groups {
		store[g.ID] = g
	}
	return &MockGroupRepo{store: store}
}

func (m *MockGroupRepo) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	g, ok := m.store[id]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	return g, nil
}

func (m *MockGroupRepo) ListAll(ctx context.Context) ([]*domain.Group, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	var list []*domain.Group
	for _, g := range m.store {
		list = append(list, g)
	}
	return list, nil
}

type MockAnalyticsRepo struct {
	habitSnapshots map[string]*domain.HabitAnalytics
	correlations   []*domain.HabitCorrelation
	groupMetrics   []*domain.GroupMetrics
	simulateError  error
}

func NewMockAnalyticsRepo() *MockAnalyticsRepo {
	return &MockAnalyticsRepo{habitSnapshots: make(map[string]*domain.HabitAnalytics)}
}

func snapshotKey(userID, habitID string) string {
	return userID + "/" + habitID
}

func (m *MockAnalyticsRepo) UpsertHabitAnalytics(ctx context.Context, snapshot *domain.HabitAnalytics) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	m.habitSnapshots[snapshotKey(snapshot.UserID, snapshot.HabitID)] = snapshot
	return nil
}

func (m *MockAnalyticsRepo) GetHabitAnalytics(ctx context.Context, userID, habitID string) (*domain.HabitAnalytics, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	s, ok := m.habitSnapshots[snapshotKey(userID, habitID)]
	if !ok {
		return nil, domain.ErrAnalyticsNotFound
	}
	return s, nil
}

func (m *MockAnalyticsRepo) AppendCorrelation(ctx context.Context, corr *domain.HabitCorrelation) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	m.correlations = append(m.correlations, corr)
	return nil
}

func (m *MockAnalyticsRepo) ListCorrelationsByUserID(ctx context.Context, userID string) ([]*domain.HabitCorrelation, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	var list []*domain.HabitCorrelation
	for _, c := range m.correlations {
		if c.UserID == userID {
			list = append(list, c)
		}
	}
	return list, nil
}

func (m *MockAnalyticsRepo) AppendGroupMetrics(ctx context.Context, metrics *domain.GroupMetrics) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	m.groupMetrics = append(m.groupMetrics, metrics)
	return nil
}

func (m *MockAnalyticsRepo) LatestGroupMetrics(ctx context.Context, groupID string) (*domain.GroupMetrics, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	var rows []*domain.GroupMetrics
	for _, g := range m.groupMetrics {
		if g.GroupID == groupID {
			rows = append(rows, g)
		}
	}
	if len(rows) == 0 {
		return nil, domain.ErrAnalyticsNotFound
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CalculatedAt.After(rows[j].CalculatedAt) })
	return rows[0], nil
}

func (m *MockAnalyticsRepo) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.simulateError != nil {
		return 0, m.simulateError
	}
	var pruned int64
	var keptCorr []*domain.HabitCorrelation
	for _, c := range m.correlations {
		if c.CalculatedAt.Before(cutoff) {
			pruned++
			continue
		}
		keptCorr = append(keptCorr, c)
	}
	m.correlations = keptCorr

	var keptGroup []*domain.GroupMetrics
	for _, g := range m.groupMetrics {
		if g.CalculatedAt.Before(cutoff) {
			pruned++
			continue
		}
		keptGroup = append(keptGroup, g)
	}
	m.groupMetrics = keptGroup
	return pruned, nil
}
