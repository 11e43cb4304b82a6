package services

import (
	"context"
	"time"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/analytics"
	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
)

const bestWindowCount = 3

// AnalyticsService serves the per-habit read surface. Metrics, timing and
// recommendations are computed fresh from the event history; correlations
// come from the persisted weekly snapshots.
type AnalyticsService struct {
	habitRepo     domain.HabitRepository
	eventRepo     domain.EventRepository
	analyticsRepo domain.AnalyticsRepository
}

func NewAnalyticsService(habitRepo domain.HabitRepository, eventRepo domain.EventRepository, analyticsRepo domain.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{
		habitRepo:     habitRepo,
		eventRepo:     eventRepo,
		analyticsRepo: analyticsRepo,
	}
}

// ownEvents keeps only the caller's own records. The event store returns
// every member's events for a shared group habit, and personal analytics
// must never ingest another member's days.
func ownEvents(events []*domain.CompletionEvent, userID string) []*domain.CompletionEvent {
	own := make([]*domain.CompletionEvent, 0, len(events))
	for _, e := range events {
		if e.UserID == userID {
			own = append(own, e)
		}
	}
	return own
}

// ownedHabit resolves a habit and hides its existence from non-owners.
func (s *AnalyticsService) ownedHabit(ctx context.Context, userID, habitID string) (*domain.Habit, error) {
	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrHabitNotFound
	}
	return habit, nil
}

type MetricsInput struct {
	UserID  string
	HabitID string
	Range   domain.DateRange
}

// GetHabitMetrics recomputes the full derived record for one habit over the
// requested range. The range end doubles as the evaluation day for streaks.
func (s *AnalyticsService) GetHabitMetrics(ctx context.Context, input MetricsInput) (*domain.HabitMetrics, error) {
	if err := domain.ValidateRange(input.Range.Start, input.Range.End); err != nil {
		return nil, err
	}

	if _, err := s.ownedHabit(ctx, input.UserID, input.HabitID); err != nil {
		return nil, err
	}

	events, err := s.eventRepo.ListByHabitID(ctx, input.HabitID, input.Range.Start, input.Range.End)
	if err != nil {
		return nil, err
	}

	return analytics.ComputeHabitMetrics(events, input.HabitID, input.UserID, input.Range.Start, input.Range.End, input.Range.End)
}

// GetHabitSnapshot returns the last persisted analytics row for a habit, as
// written by the batch recompute. Cheaper than a fresh computation.
func (s *AnalyticsService) GetHabitSnapshot(ctx context.Context, userID, habitID string) (*domain.HabitAnalytics, error) {
	if _, err := s.ownedHabit(ctx, userID, habitID); err != nil {
		return nil, err
	}
	return s.analyticsRepo.GetHabitAnalytics(ctx, userID, habitID)
}

// GetTimingInsights computes hourly and day-of-week success accounting plus
// the recommended execution windows for one habit.
func (s *AnalyticsService) GetTimingInsights(ctx context.Context, input MetricsInput) (*domain.TimingInsights, error) {
	if err := domain.ValidateRange(input.Range.Start, input.Range.End); err != nil {
		return nil, err
	}

	if _, err := s.ownedHabit(ctx, input.UserID, input.HabitID); err != nil {
		return nil, err
	}

	events, err := s.eventRepo.ListByHabitID(ctx, input.HabitID, input.Range.Start, input.Range.End)
	if err != nil {
		return nil, err
	}

	own := ownEvents(events, input.UserID)
	hourly := analytics.ComputeTimingStats(own)
	return &domain.TimingInsights{
		Hourly:        hourly,
		ByWeekday:     analytics.ComputeDayOfWeekStats(own),
		OptimalWindow: analytics.OptimalWindow(hourly),
		BestWindows:   analytics.BestTimeWindows(hourly, bestWindowCount),
	}, nil
}

type PredictionInput struct {
	UserID  string
	HabitID string
	Range   domain.DateRange
	Hour    int
	Weekday int
}

// PredictSuccess estimates the completion probability for one habit at a
// given hour and weekday, from the history inside the range.
func (s *AnalyticsService) PredictSuccess(ctx context.Context, input PredictionInput) (*domain.SuccessPrediction, error) {
	if err := domain.ValidateRange(input.Range.Start, input.Range.End); err != nil {
		return nil, err
	}

	if _, err := s.ownedHabit(ctx, input.UserID, input.HabitID); err != nil {
		return nil, err
	}

	events, err := s.eventRepo.ListByHabitID(ctx, input.HabitID, input.Range.Start, input.Range.End)
	if err != nil {
		return nil, err
	}

	own := ownEvents(events, input.UserID)
	hourly := analytics.ComputeTimingStats(own)
	byWeekday := analytics.ComputeDayOfWeekStats(own)
	prediction := analytics.PredictSuccess(hourly, byWeekday, input.Hour, time.Weekday(input.Weekday%7))
	return &prediction, nil
}

// GetRecommendations assembles the coaching plan for one habit: detected
// barriers, the ranked strategy list and the milestone ladder.
func (s *AnalyticsService) GetRecommendations(ctx context.Context, input MetricsInput) (*domain.RecommendationSet, error) {
	if err := domain.ValidateRange(input.Range.Start, input.Range.End); err != nil {
		return nil, err
	}

	if _, err := s.ownedHabit(ctx, input.UserID, input.HabitID); err != nil {
		return nil, err
	}

	events, err := s.eventRepo.ListByHabitID(ctx, input.HabitID, input.Range.Start, input.Range.End)
	if err != nil {
		return nil, err
	}

	metrics, err := analytics.ComputeHabitMetrics(events, input.HabitID, input.UserID, input.Range.Start, input.Range.End, input.Range.End)
	if err != nil {
		return nil, err
	}

	barriers := analytics.DetectBarriers(metrics, ownEvents(events, input.UserID))
	return &domain.RecommendationSet{
		Stage:      metrics.FormationStage,
		Strategies: analytics.Recommend(metrics, barriers),
		Barriers:   barriers,
		Milestones: analytics.Milestones(metrics),
	}, nil
}

// GetCorrelations returns the persisted cross-habit correlation history for
// a user, newest first as stored.
func (s *AnalyticsService) GetCorrelations(ctx context.Context, userID string) ([]*domain.HabitCorrelation, error) {
	return s.analyticsRepo.ListCorrelationsByUserID(ctx, userID)
}
