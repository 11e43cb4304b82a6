package analytics

import (
	"sort"
	"time"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
)

const (
	// minWindowAttempts is the evidence an hour needs before it can be
	// recommended as a window.
	minWindowAttempts = 3

	hourWeight      = 0.7
	dayOfWeekWeight = 0.3
)

// defaultWindow is the fallback when no hour has enough attempts: a morning
// slot that habit research favors for new routines.
var defaultWindow = domain.TimeWindow{StartHour: 8, EndHour: 10}

// ComputeTimingStats bins attempts by hour of day. Only events carrying a
// timestamp count: an untimed miss tells us nothing about timing. A toggled-
// off day keeps its refreshed timestamp, so it lands here as a failed
// attempt at that hour.
func ComputeTimingStats(events []*domain.CompletionEvent) [24]domain.TimingStats {
	var stats [24]domain.TimingStats
	for i := range stats {
		stats[i].Hour = i
	}

	for _, e := range dedupeEvents(events) {
		h := e.Hour()
		if h < 0 {
			continue
		}
		stats[h].TotalAttempts++
		if e.Completed {
			stats[h].SuccessfulAttempts++
		}
	}

	for i := range stats {
		if stats[i].TotalAttempts > 0 {
			stats[i].SuccessRate = float64(stats[i].SuccessfulAttempts) / float64(stats[i].TotalAttempts)
		}
	}

	return stats
}

// ComputeDayOfWeekStats bins attempts by weekday. Every event counts here:
// the date is always known even when the hour is not.
func ComputeDayOfWeekStats(events []*domain.CompletionEvent) map[time.Weekday]domain.TimingStats {
	out := make(map[time.Weekday]domain.TimingStats, 7)

	for _, e := range dedupeEvents(events) {
		wd := domain.Day(e.Date).Weekday()
		s := out[wd]
		s.TotalAttempts++
		if e.Completed {
			s.SuccessfulAttempts++
		}
		out[wd] = s
	}

	for wd, s := range out {
		if s.TotalAttempts > 0 {
			s.SuccessRate = float64(s.SuccessfulAttempts) / float64(s.TotalAttempts)
		}
		out[wd] = s
	}

	return out
}

// OptimalWindow picks the hour with the best success rate among hours with
// enough attempts and widens it by one hour on each side. With no qualifying
// hour it falls back to the default morning window.
func OptimalWindow(stats [24]domain.TimingStats) domain.TimeWindow {
	best := -1
	bestRate := -1.0
	for _, s := range stats {
		if s.TotalAttempts < minWindowAttempts {
			continue
		}
		if s.SuccessRate > bestRate {
			bestRate = s.SuccessRate
			best = s.Hour
		}
	}
	if best < 0 {
		return defaultWindow
	}

	start := best - 1
	if start < 0 {
		start = 0
	}
	end := best + 2
	if end > 24 {
		end = 24
	}
	return domain.TimeWindow{StartHour: start, EndHour: end}
}

// BestTimeWindows returns the top-n qualifying hours as one-hour windows,
// ranked by success rate (attempts break ties).
func BestTimeWindows(stats [24]domain.TimingStats, n int) []domain.ScoredWindow {
	var qualifying []domain.TimingStats
	for _, s := range stats {
		if s.TotalAttempts >= minWindowAttempts {
			qualifying = append(qualifying, s)
		}
	}

	sort.Slice(qualifying, func(i, j int) bool {
		if qualifying[i].SuccessRate != qualifying[j].SuccessRate {
			return qualifying[i].SuccessRate > qualifying[j].SuccessRate
		}
		return qualifying[i].TotalAttempts > qualifying[j].TotalAttempts
	})

	if n > len(qualifying) {
		n = len(qualifying)
	}

	windows := make([]domain.ScoredWindow, 0, n)
	for _, s := range qualifying[:n] {
		windows = append(windows, domain.ScoredWindow{
			Window:      domain.TimeWindow{StartHour: s.Hour, EndHour: s.Hour + 1},
			SuccessRate: s.SuccessRate,
			Attempts:    s.TotalAttempts,
		})
	}
	return windows
}

// PredictSuccess blends the hourly and day-of-week success rates for a slot.
// Confidence is banded purely by combined sample size.
func PredictSuccess(hourly [24]domain.TimingStats, byWeekday map[time.Weekday]domain.TimingStats, hour int, day time.Weekday) domain.SuccessPrediction {
	if hour < 0 || hour > 23 {
		return domain.SuccessPrediction{Confidence: 0.4}
	}

	hs := hourly[hour]
	ds := byWeekday[day]

	probability := hourWeight*hs.SuccessRate + dayOfWeekWeight*ds.SuccessRate
	samples := hs.TotalAttempts + ds.TotalAttempts

	return domain.SuccessPrediction{
		Probability: clamp01(probability),
		Confidence:  predictionConfidence(samples),
		SampleSize:  samples,
	}
}

func predictionConfidence(samples int) float64 {
	switch {
	case samples >= 30:
		return 0.95
	case samples >= 20:
		return 0.85
	case samples >= 10:
		return 0.75
	case samples >= 5:
		return 0.60
	default:
		return 0.40
	}
}
