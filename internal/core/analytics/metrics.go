package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
)

// Formation-stage thresholds. The weakest satisfied criterion decides the
// stage, so a long-lived habit with a broken streak still drops back.
const (
	initiationMinDays    = 7
	initiationMinRate    = 0.3
	initiationMinStreak  = 3
	learningMinDays      = 21
	learningMinRate      = 0.6
	learningMinScore     = 0.6
	learningMinStreak    = 7
	stabilityMinDays     = domain.FormationDays
	stabilityMinRate     = 0.8
	stabilityMinScore    = 0.7
	stabilityMinStreak   = 21
	trendStableBand      = 0.1
	patternWeeklyMinConf = 0.7
	patternStreakMinConf = 0.6
	patternSeasonMinConf = 0.5
	patternRecoverConf   = 0.6
)

// ComputeHabitMetrics derives the full metrics record for one habit over an
// inclusive date range. Events outside the range or belonging to other
// habits or users are ignored. Zero matching events yields all-zero metrics in the
// INITIATION stage, never an error.
func ComputeHabitMetrics(events []*domain.CompletionEvent, habitID, userID string, start, end, today time.Time) (*domain.HabitMetrics, error) {
	if err := domain.ValidateRange(start, end); err != nil {
		return nil, err
	}

	start = domain.Day(start)
	end = domain.Day(end)
	own := filterHabitRange(events, habitID, userID, start, end)

	totalDays := inclusiveDays(start, end)
	completedDays := countCompletedDays(own)

	successRate := 0.0
	if totalDays > 0 {
		successRate = clamp01(float64(completedDays) / float64(totalDays))
	}

	consistency := consistencyScore(own, start, end)
	streaks := AnalyzeStreaks(own, habitID, today)
	hourly := AggregateHourly(own)

	strength := 0.4*successRate + 0.4*consistency +
		0.2*minFloat(1, float64(streaks.CurrentStreak)/float64(domain.FormationDays))

	daysSinceStart := daysSinceFirstEvent(own, end)

	direction, trendStrength := detectTrend(own, start, end)

	m := &domain.HabitMetrics{
		HabitID:          habitID,
		UserID:           userID,
		SuccessRate:      successRate,
		ConsistencyScore: consistency,
		Automaticity:     automaticity(hourly),
		ContextStability: contextStability(hourly),
		HabitStrength:    clamp01(strength),
		DaysSinceStart:   daysSinceStart,
		CurrentStreak:    streaks.CurrentStreak,
		MaxStreak:        streaks.MaxStreak,
		TrendDirection:   direction,
		TrendStrength:    trendStrength,
	}
	m.FormationStage = classifyStage(daysSinceStart, successRate, consistency, streaks.CurrentStreak)
	m.Patterns = detectPatterns(own, streaks, start, end)

	return m, nil
}

// classifyStage applies the weakest-link rule: the lowest unsatisfied
// criterion pins the stage. A LEARNING-stage consistency cutoff of 0.6 is
// the canonical rule here; see DESIGN.md for the source divergence.
func classifyStage(daysSinceStart int, successRate, consistency float64, streak int) domain.FormationStage {
	switch {
	case daysSinceStart < initiationMinDays || successRate < initiationMinRate || streak < initiationMinStreak:
		return domain.StageInitiation
	case daysSinceStart < learningMinDays || successRate < learningMinRate || consistency < learningMinScore || streak < learningMinStreak:
		return domain.StageLearning
	case daysSinceStart < stabilityMinDays || successRate < stabilityMinRate || consistency < stabilityMinScore || streak < stabilityMinStreak:
		return domain.StageStability
	default:
		return domain.StageMastery
	}
}

// consistencyScore inverts the variability of weekly completion rates. With
// fewer than two weekly buckets it falls back to the spread of gaps between
// completed days, normalized to a week.
func consistencyScore(own []*domain.CompletionEvent, start, end time.Time) float64 {
	weekly, err := AggregateWeekly(own, start, end)
	if err != nil {
		return 0
	}

	if len(weekly) >= 2 {
		rates := make([]float64, len(weekly))
		for i, w := range weekly {
			rates[i] = w.CompletionRate
		}
		m := mean(rates)
		if m == 0 {
			return 0
		}
		cv := stdDev(rates) / m
		return clamp01(1 - cv)
	}

	gaps := completionGaps(own)
	if gaps == nil {
		return 0
	}
	return clamp01(1 - stdDev(gaps)/7)
}

// automaticity is the concentration of completions in the single busiest
// hour: a proxy for execution without deliberation.
func automaticity(hourly [24]domain.HourlyBucket) float64 {
	total, busiest := 0, 0
	for _, b := range hourly {
		total += b.Count
		if b.Count > busiest {
			busiest = b.Count
		}
	}
	if total == 0 {
		return 0
	}
	return clamp01(float64(busiest) / float64(total))
}

// contextStability inverts the entropy of the hour-of-day distribution.
// No timestamped completions means no evidence either way, reported as 0.
func contextStability(hourly [24]domain.HourlyBucket) float64 {
	counts := make([]int, len(hourly))
	total := 0
	for i, b := range hourly {
		counts[i] = b.Count
		total += b.Count
	}
	if total == 0 {
		return 0
	}
	return clamp01(1 - normalizedEntropy(counts))
}

// detectTrend splits the range at its midpoint and compares half success
// rates; the OLS slope of the daily binary series gives the magnitude.
func detectTrend(own []*domain.CompletionEvent, start, end time.Time) (domain.TrendDirection, float64) {
	daily, err := AggregateDaily(own, start, end)
	if err != nil || len(daily) < 2 {
		return domain.TrendStable, 0
	}

	series := make([]float64, len(daily))
	for i, d := range daily {
		if d.CompletedAttempts > 0 {
			series[i] = 1
		}
	}

	mid := len(series) / 2
	firstRate := mean(series[:mid])
	secondRate := mean(series[mid:])

	direction := domain.TrendStable
	delta := secondRate - firstRate
	if delta >= trendStableBand {
		direction = domain.TrendImproving
	} else if delta <= -trendStableBand {
		direction = domain.TrendDeclining
	}

	slope := olsSlope(series)
	if slope < 0 {
		slope = -slope
	}

	return direction, slope
}

func detectPatterns(own []*domain.CompletionEvent, streaks domain.StreakSummary, start, end time.Time) []domain.HabitPattern {
	var patterns []domain.HabitPattern

	if p, ok := weeklyCyclePattern(own, start, end); ok {
		patterns = append(patterns, p)
	}
	if p, ok := streakBehaviorPattern(streaks); ok {
		patterns = append(patterns, p)
	}
	if p, ok := seasonalPattern(own, start, end); ok {
		patterns = append(patterns, p)
	}
	if p, ok := recoveryPattern(own); ok {
		patterns = append(patterns, p)
	}

	return patterns
}

func weeklyCyclePattern(own []*domain.CompletionEvent, start, end time.Time) (domain.HabitPattern, bool) {
	daily, err := AggregateDaily(own, start, end)
	if err != nil {
		return domain.HabitPattern{}, false
	}

	type acc struct {
		days      int
		completed int
	}
	byWeekday := make(map[time.Weekday]acc)
	anyCompleted := false
	for _, d := range daily {
		a := byWeekday[d.Date.Weekday()]
		a.days++
		if d.CompletedAttempts > 0 {
			a.completed++
			anyCompleted = true
		}
		byWeekday[d.Date.Weekday()] = a
	}
	if !anyCompleted || len(byWeekday) < 7 {
		return domain.HabitPattern{}, false
	}

	rates := make([]float64, 0, 7)
	for _, a := range byWeekday {
		rates = append(rates, float64(a.completed)/float64(a.days))
	}

	confidence := clamp01(1 - stdDev(rates))
	if confidence < patternWeeklyMinConf {
		return domain.HabitPattern{}, false
	}

	return domain.HabitPattern{
		Type:        domain.PatternWeeklyCycle,
		Confidence:  confidence,
		Description: "completion rhythm holds steady across the days of the week",
	}, true
}

func streakBehaviorPattern(streaks domain.StreakSummary) (domain.HabitPattern, bool) {
	if len(streaks.AllStreaks) == 0 {
		return domain.HabitPattern{}, false
	}

	total := 0
	for _, s := range streaks.AllStreaks {
		total += s.Length
	}
	avg := float64(total) / float64(len(streaks.AllStreaks))

	confidence := clamp01(avg / 7)
	if confidence < patternStreakMinConf {
		return domain.HabitPattern{}, false
	}

	return domain.HabitPattern{
		Type:        domain.PatternStreakBehavior,
		Confidence:  confidence,
		Description: fmt.Sprintf("completions cluster into runs averaging %.1f days", avg),
	}, true
}

func seasonalPattern(own []*domain.CompletionEvent, start, end time.Time) (domain.HabitPattern, bool) {
	if !seasonalRangeEligible(start, end) {
		return domain.HabitPattern{}, false
	}

	type acc struct {
		days      int
		completed int
	}
	daily, err := AggregateDaily(own, start, end)
	if err != nil {
		return domain.HabitPattern{}, false
	}

	byMonth := make(map[string]acc)
	for _, d := range daily {
		key := d.Date.Format("2006-01")
		a := byMonth[key]
		a.days++
		if d.CompletedAttempts > 0 {
			a.completed++
		}
		byMonth[key] = a
	}
	if len(byMonth) < 3 {
		return domain.HabitPattern{}, false
	}

	rates := make([]float64, 0, len(byMonth))
	for _, a := range byMonth {
		rates = append(rates, float64(a.completed)/float64(a.days))
	}

	confidence := clamp01(variance(rates))
	if confidence < patternSeasonMinConf {
		return domain.HabitPattern{}, false
	}

	return domain.HabitPattern{
		Type:        domain.PatternSeasonal,
		Confidence:  confidence,
		Description: "completion rate swings between months",
	}, true
}

func recoveryPattern(own []*domain.CompletionEvent) (domain.HabitPattern, bool) {
	gaps := completionGaps(own)

	var resumes []float64
	for _, g := range gaps {
		if g > 1 {
			resumes = append(resumes, g-1)
		}
	}
	if len(resumes) == 0 {
		return domain.HabitPattern{}, false
	}

	confidence := clamp01(1 - mean(resumes)/7)
	if confidence < patternRecoverConf {
		return domain.HabitPattern{}, false
	}

	return domain.HabitPattern{
		Type:        domain.PatternRecovery,
		Confidence:  confidence,
		Description: fmt.Sprintf("after a missed day the habit resumes within %.1f days on average", mean(resumes)),
	}, true
}

// completionGaps returns the day deltas between consecutive completed days,
// or nil with fewer than two completions.
func completionGaps(own []*domain.CompletionEvent) []float64 {
	var days []time.Time
	seen := make(map[string]bool)
	for _, e := range dedupeEvents(own) {
		if !e.Completed {
			continue
		}
		key := e.DayKey()
		if !seen[key] {
			seen[key] = true
			days = append(days, domain.Day(e.Date))
		}
	}
	if len(days) < 2 {
		return nil
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	gaps := make([]float64, 0, len(days)-1)
	for i := 1; i < len(days); i++ {
		gaps = append(gaps, days[i].Sub(days[i-1]).Hours()/24)
	}
	return gaps
}

// filterHabitRange keeps one habit's events inside the range, scoped to one
// user. Shared group habits carry events from every member, and a personal
// metrics record must never ingest another member's days.
func filterHabitRange(events []*domain.CompletionEvent, habitID, userID string, start, end time.Time) []*domain.CompletionEvent {
	var out []*domain.CompletionEvent
	for _, e := range events {
		if e.HabitID != habitID || e.UserID != userID {
			continue
		}
		day := domain.Day(e.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func countCompletedDays(own []*domain.CompletionEvent) int {
	seen := make(map[string]bool)
	for _, e := range dedupeEvents(own) {
		if e.Completed {
			seen[e.DayKey()] = true
		}
	}
	return len(seen)
}

func daysSinceFirstEvent(own []*domain.CompletionEvent, end time.Time) int {
	var first time.Time
	for _, e := range own {
		day := domain.Day(e.Date)
		if first.IsZero() || day.Before(first) {
			first = day
		}
	}
	if first.IsZero() {
		return 0
	}
	return int(end.Sub(first).Hours()/24) + 1
}

// seasonalRangeEligible requires at least 90 calendar days of history,
// counting both bounds.
func seasonalRangeEligible(start, end time.Time) bool {
	return inclusiveDays(start, end) >= 90
}

// inclusiveDays counts the calendar days in the closed range [start, end].
// Both bounds count, so one day spans a single date.
func inclusiveDays(start, end time.Time) int {
	return int(domain.Day(end).Sub(domain.Day(start)).Hours()/24) + 1
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
