package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/analytics"
	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
)

// timedEvent builds an attempt whose timestamp is at the given hour; failed
// attempts keep their timestamp, modeling a toggled-off day.
func timedEvent(habitID string, d time.Time, hour int, completed bool) *domain.CompletionEvent {
	e := event(habitID, "u1", d, completed)
	at := d.Add(time.Duration(hour) * time.Hour)
	e.CompletedAt = &at
	return e
}

func TestComputeTimingStats(t *testing.T) {
	events := []*domain.CompletionEvent{
		timedEvent("h1", day(2024, 1, 1), 7, true),
		timedEvent("h1", day(2024, 1, 2), 7, true),
		timedEvent("h1", day(2024, 1, 3), 7, false),
		timedEvent("h1", day(2024, 1, 4), 21, true),
	}

	stats := analytics.ComputeTimingStats(events)

	assert.Equal(t, 3, stats[7].TotalAttempts)
	assert.Equal(t, 2, stats[7].SuccessfulAttempts)
	assert.InDelta(t, 2.0/3.0, stats[7].SuccessRate, 1e-9)
	assert.Equal(t, 1, stats[21].TotalAttempts)
	assert.Equal(t, 0, stats[5].TotalAttempts)
	assert.Equal(t, 0.0, stats[5].SuccessRate)
}

func TestOptimalWindow(t *testing.T) {
	t.Run("expands the best qualifying hour by one on each side", func(t *testing.T) {
		var events []*domain.CompletionEvent
		for d := 1; d <= 4; d++ {
			events = append(events, timedEvent("h1", day(2024, 1, d), 6, true))
		}
		// Hour 14 has a better rate on paper but too few attempts.
		events = append(events, timedEvent("h1", day(2024, 1, 5), 14, true))

		w := analytics.OptimalWindow(analytics.ComputeTimingStats(events))
		assert.Equal(t, domain.TimeWindow{StartHour: 5, EndHour: 8}, w)
	})

	t.Run("defaults to the morning window with no qualifying hour", func(t *testing.T) {
		events := []*domain.CompletionEvent{
			timedEvent("h1", day(2024, 1, 1), 6, true),
		}

		w := analytics.OptimalWindow(analytics.ComputeTimingStats(events))
		assert.Equal(t, domain.TimeWindow{StartHour: 8, EndHour: 10}, w)
	})

	t.Run("clamps at the edges of the day", func(t *testing.T) {
		var events []*domain.CompletionEvent
		for d := 1; d <= 3; d++ {
			events = append(events, timedEvent("h1", day(2024, 1, d), 0, true))
		}

		w := analytics.OptimalWindow(analytics.ComputeTimingStats(events))
		assert.Equal(t, 0, w.StartHour)
		assert.Equal(t, 2, w.EndHour)
	})
}

func TestBestTimeWindows(t *testing.T) {
	var events []*domain.CompletionEvent
	for d := 1; d <= 4; d++ {
		events = append(events, timedEvent("h1", day(2024, 1, d), 6, true))
	}
	for d := 5; d <= 8; d++ {
		events = append(events, timedEvent("h1", day(2024, 1, d), 12, d != 8))
	}
	for d := 9; d <= 12; d++ {
		events = append(events, timedEvent("h1", day(2024, 1, d), 20, d%2 == 0))
	}

	windows := analytics.BestTimeWindows(analytics.ComputeTimingStats(events), 2)
	require.Len(t, windows, 2)

	assert.Equal(t, 6, windows[0].Window.StartHour)
	assert.Equal(t, 1.0, windows[0].SuccessRate)
	assert.Equal(t, 12, windows[1].Window.StartHour)
	assert.InDelta(t, 0.75, windows[1].SuccessRate, 1e-9)
}

func TestPredictSuccess(t *testing.T) {
	var events []*domain.CompletionEvent
	// Mondays at 07:00, always completed. 2024-01-01 is a Monday.
	for w := 0; w < 4; w++ {
		events = append(events, timedEvent("h1", day(2024, 1, 1+7*w), 7, true))
	}

	hourly := analytics.ComputeTimingStats(events)
	byWeekday := analytics.ComputeDayOfWeekStats(events)

	t.Run("blends hourly and day-of-week rates", func(t *testing.T) {
		p := analytics.PredictSuccess(hourly, byWeekday, 7, time.Monday)
		assert.InDelta(t, 1.0, p.Probability, 1e-9)
		assert.Equal(t, 8, p.SampleSize)
		assert.Equal(t, 0.6, p.Confidence)
	})

	t.Run("an unseen hour still carries day-of-week evidence", func(t *testing.T) {
		p := analytics.PredictSuccess(hourly, byWeekday, 15, time.Monday)
		assert.InDelta(t, 0.3, p.Probability, 1e-9)
	})

	t.Run("confidence bands grow with sample size", func(t *testing.T) {
		var big []*domain.CompletionEvent
		for d := 1; d <= 20; d++ {
			big = append(big, timedEvent("h1", day(2024, 1, d), 7, true))
		}
		h := analytics.ComputeTimingStats(big)
		wd := analytics.ComputeDayOfWeekStats(big)

		p := analytics.PredictSuccess(h, wd, 7, time.Monday)
		assert.GreaterOrEqual(t, p.Confidence, 0.75)
	})

	t.Run("out-of-range hour degrades to the floor confidence", func(t *testing.T) {
		p := analytics.PredictSuccess(hourly, byWeekday, 25, time.Monday)
		assert.Equal(t, 0.4, p.Confidence)
		assert.Equal(t, 0.0, p.Probability)
	})
}
