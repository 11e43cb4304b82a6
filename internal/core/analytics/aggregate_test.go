package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/analytics"
	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func event(habitID, userID string, date time.Time, completed bool) *domain.CompletionEvent {
	e := &domain.CompletionEvent{
		ID:        habitID + "-" + date.Format(domain.DayFormat),
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

func eventAt(habitID, userID string, date time.Time, hour int, completed bool) *domain.CompletionEvent {
	e := event(habitID, userID, date, completed)
	at := date.Add(time.Duration(hour) * time.Hour)
	e.CompletedAt = &at
	return e
}

func TestAggregateDaily(t *testing.T) {
	start := day(2024, 1, 1)
	end := day(2024, 1, 5)

	t.Run("fills missing days with zeros", func(t *testing.T) {
		events := []*domain.CompletionEvent{
			event("h1", "u1", day(2024, 1, 1), true),
			event("h1", "u1", day(2024, 1, 3), false),
		}

		stats, err := analytics.AggregateDaily(events, start, end)
		require.NoError(t, err)
		require.Len(t, stats, 5)

		assert.Equal(t, 1, stats[0].CompletedAttempts)
		assert.Equal(t, 1.0, stats[0].CompletionRate)

		assert.Equal(t, 0, stats[1].TotalAttempts)
		assert.Equal(t, 0.0, stats[1].CompletionRate)

		assert.Equal(t, 1, stats[2].TotalAttempts)
		assert.Equal(t, 0, stats[2].CompletedAttempts)
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		_, err := analytics.AggregateDaily(nil, end, start)
		assert.ErrorIs(t, err, domain.ErrInvalidRange)
	})

	t.Run("empty input yields a dense zero range", func(t *testing.T) {
		stats, err := analytics.AggregateDaily(nil, start, end)
		require.NoError(t, err)
		require.Len(t, stats, 5)
		for _, s := range stats {
			assert.Zero(t, s.TotalAttempts)
			assert.Zero(t, s.CompletionRate)
		}
	})
}

func TestAggregateWeekly(t *testing.T) {
	// 2024-01-01 is a Monday.
	start := day(2024, 1, 1)
	end := day(2024, 1, 14)

	events := []*domain.CompletionEvent{
		event("h1", "u1", day(2024, 1, 1), true),
		event("h1", "u1", day(2024, 1, 2), true),
		event("h1", "u1", day(2024, 1, 7), false), // Sunday, still week one
		event("h1", "u1", day(2024, 1, 8), true),  // Monday, week two
	}

	buckets, err := analytics.AggregateWeekly(events, start, end)
	require.NoError(t, err)
	require.Len(t, buckets, 2)

	first := buckets[0]
	assert.Equal(t, day(2024, 1, 1), first.WeekStart)
	assert.Equal(t, 3, first.TotalAttempts)
	assert.Equal(t, 2, first.CompletedAttempts)
	assert.InDelta(t, 2.0/3.0, first.CompletionRate, 1e-9)
	assert.Equal(t, 1.0, first.DayOfWeekRates[time.Monday])
	assert.Equal(t, 0.0, first.DayOfWeekRates[time.Sunday])

	second := buckets[1]
	assert.Equal(t, day(2024, 1, 8), second.WeekStart)
	assert.Equal(t, 1.0, second.CompletionRate)
}

func TestAggregateHourly(t *testing.T) {
	events := []*domain.CompletionEvent{
		eventAt("h1", "u1", day(2024, 1, 1), 7, true),
		eventAt("h1", "u1", day(2024, 1, 2), 7, true),
		eventAt("h1", "u1", day(2024, 1, 3), 20, true),
		event("h1", "u1", day(2024, 1, 4), false), // miss, ignored
	}
	// An untimed completion contributes nothing either.
	untimed := event("h1", "u1", day(2024, 1, 5), true)
	untimed.CompletedAt = nil
	events = append(events, untimed)

	buckets := analytics.AggregateHourly(events)

	assert.Equal(t, 2, buckets[7].Count)
	assert.InDelta(t, 2.0/3.0, buckets[7].Rate, 1e-9)
	assert.Equal(t, 1, buckets[20].Count)
	assert.Equal(t, 0, buckets[3].Count)
	assert.Equal(t, 0.0, buckets[3].Rate)
}

func TestAnalyzeStreaks(t *testing.T) {
	t.Run("spec example: two three-day runs around one miss", func(t *testing.T) {
		var events []*domain.CompletionEvent
		for d := 1; d <= 3; d++ {
			events = append(events, event("h1", "u1", day(2024, 1, d), true))
		}
		events = append(events, event("h1", "u1", day(2024, 1, 4), false))
		for d := 5; d <= 7; d++ {
			events = append(events, event("h1", "u1", day(2024, 1, d), true))
		}

		s := analytics.AnalyzeStreaks(events, "h1", day(2024, 1, 7))

		assert.Equal(t, 3, s.CurrentStreak)
		assert.Equal(t, 3, s.MaxStreak)
		require.Len(t, s.AllStreaks, 2)
		assert.Equal(t, day(2024, 1, 1), s.AllStreaks[0].StartDate)
		assert.Equal(t, day(2024, 1, 3), s.AllStreaks[0].EndDate)
		assert.Equal(t, 3, s.AllStreaks[0].Length)
		assert.Equal(t, day(2024, 1, 5), s.AllStreaks[1].StartDate)
		assert.Equal(t, day(2024, 1, 7), s.AllStreaks[1].EndDate)
	})

	t.Run("one day of grace keeps the current streak", func(t *testing.T) {
		events := []*domain.CompletionEvent{
			event("h1", "u1", day(2024, 1, 5), true),
			event("h1", "u1", day(2024, 1, 6), true),
		}

		assert.Equal(t, 2, analytics.AnalyzeStreaks(events, "h1", day(2024, 1, 7)).CurrentStreak)
		assert.Equal(t, 0, analytics.AnalyzeStreaks(events, "h1", day(2024, 1, 8)).CurrentStreak)
	})

	t.Run("appending the next day extends the streak by one", func(t *testing.T) {
		events := []*domain.CompletionEvent{
			event("h1", "u1", day(2024, 1, 5), true),
			event("h1", "u1", day(2024, 1, 6), true),
		}
		before := analytics.AnalyzeStreaks(events, "h1", day(2024, 1, 7))

		events = append(events, event("h1", "u1", day(2024, 1, 7), true))
		after := analytics.AnalyzeStreaks(events, "h1", day(2024, 1, 7))

		assert.Equal(t, before.CurrentStreak+1, after.CurrentStreak)
	})

	t.Run("a two-day jump starts a fresh streak of one", func(t *testing.T) {
		events := []*domain.CompletionEvent{
			event("h1", "u1", day(2024, 1, 5), true),
			event("h1", "u1", day(2024, 1, 6), true),
			event("h1", "u1", day(2024, 1, 9), true),
		}

		s := analytics.AnalyzeStreaks(events, "h1", day(2024, 1, 9))
		assert.Equal(t, 1, s.CurrentStreak)
		assert.Equal(t, 2, s.MaxStreak)
		assert.Len(t, s.AllStreaks, 2)
	})

	t.Run("duplicate dates keep the most recently written record", func(t *testing.T) {
		older := event("h1", "u1", day(2024, 1, 5), true)
		older.UpdatedAt = day(2024, 1, 5)
		newer := event("h1", "u1", day(2024, 1, 5), false)
		newer.UpdatedAt = day(2024, 1, 6)

		s := analytics.AnalyzeStreaks([]*domain.CompletionEvent{older, newer}, "h1", day(2024, 1, 5))
		assert.Equal(t, 0, s.MaxStreak)
		assert.Empty(t, s.AllStreaks)
	})

	t.Run("two members sharing the habit count each day once", func(t *testing.T) {
		var events []*domain.CompletionEvent
		for d := 1; d <= 3; d++ {
			events = append(events,
				event("h1", "u1", day(2024, 1, d), true),
				event("h1", "u2", day(2024, 1, d), true),
			)
		}

		s := analytics.AnalyzeStreaks(events, "h1", day(2024, 1, 3))
		assert.Equal(t, 3, s.CurrentStreak)
		assert.Equal(t, 3, s.MaxStreak)
		require.Len(t, s.AllStreaks, 1)
		assert.Equal(t, 3, s.AllStreaks[0].Length)
	})

	t.Run("empty input yields all zeros", func(t *testing.T) {
		s := analytics.AnalyzeStreaks(nil, "h1", day(2024, 1, 1))
		assert.Zero(t, s.CurrentStreak)
		assert.Zero(t, s.MaxStreak)
		assert.Empty(t, s.AllStreaks)
	})
}
