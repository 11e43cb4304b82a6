package analytics

import (
	"sort"
	"time"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
)

// AggregateDaily folds events into one DailyStat per calendar day across the
// inclusive [start, end] range. Days with no events appear with zero counts.
func AggregateDaily(events []*domain.CompletionEvent, start, end time.Time) ([]domain.DailyStat, error) {
	if err := domain.ValidateRange(start, end); err != nil {
		return nil, err
	}

	start = domain.Day(start)
	end = domain.Day(end)

	type bucket struct {
		total     int
		completed int
	}
	byDay := make(map[string]bucket)
	for _, e := range dedupeEvents(events) {
		key := e.DayKey()
		b := byDay[key]
		b.total++
		if e.Completed {
			b.completed++
		}
		byDay[key] = b
	}

	var stats []domain.DailyStat
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		b := byDay[day.Format(domain.DayFormat)]

		rate := 0.0
		if b.total > 0 {
			rate = float64(b.completed) / float64(b.total)
		}

		stats = append(stats, domain.DailyStat{
			Date:              day,
			TotalAttempts:     b.total,
			CompletedAttempts: b.completed,
			CompletionRate:    rate,
		})
	}

	return stats, nil
}

// AggregateWeekly buckets events by the Monday of their ISO week. Each bucket
// carries totals plus a per-weekday completion-rate map.
func AggregateWeekly(events []*domain.CompletionEvent, start, end time.Time) ([]domain.WeeklyBucket, error) {
	if err := domain.ValidateRange(start, end); err != nil {
		return nil, err
	}

	start = domain.Day(start)
	end = domain.Day(end)

	type dayCount struct {
		total     int
		completed int
	}
	type weekAcc struct {
		total     int
		completed int
		byWeekday map[time.Weekday]dayCount
	}

	weeks := make(map[string]*weekAcc)
	for _, e := range dedupeEvents(events) {
		day := domain.Day(e.Date)
		if day.Before(start) || day.After(end) {
			continue
		}

		key := weekStart(day).Format(domain.DayFormat)
		acc, ok := weeks[key]
		if !ok {
			acc = &weekAcc{byWeekday: make(map[time.Weekday]dayCount)}
			weeks[key] = acc
		}

		acc.total++
		dc := acc.byWeekday[day.Weekday()]
		dc.total++
		if e.Completed {
			acc.completed++
			dc.completed++
		}
		acc.byWeekday[day.Weekday()] = dc
	}

	var buckets []domain.WeeklyBucket
	for key, acc := range weeks {
		ws, _ := time.Parse(domain.DayFormat, key)

		rate := 0.0
		if acc.total > 0 {
			rate = float64(acc.completed) / float64(acc.total)
		}

		dowRates := make(map[time.Weekday]float64, len(acc.byWeekday))
		for wd, dc := range acc.byWeekday {
			if dc.total > 0 {
				dowRates[wd] = float64(dc.completed) / float64(dc.total)
			} else {
				dowRates[wd] = 0
			}
		}

		buckets = append(buckets, domain.WeeklyBucket{
			WeekStart:         ws.UTC(),
			TotalAttempts:     acc.total,
			CompletedAttempts: acc.completed,
			CompletionRate:    rate,
			DayOfWeekRates:    dowRates,
		})
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].WeekStart.Before(buckets[j].WeekStart)
	})

	return buckets, nil
}

// AggregateHourly distributes timestamped completions over 24 hour-of-day
// buckets. Each bucket's Rate is its share of all timestamped completions;
// empty buckets carry rate 0.
func AggregateHourly(events []*domain.CompletionEvent) [24]domain.HourlyBucket {
	var buckets [24]domain.HourlyBucket
	for i := range buckets {
		buckets[i].Hour = i
	}

	total := 0
	for _, e := range dedupeEvents(events) {
		if !e.Completed {
			continue
		}
		h := e.Hour()
		if h < 0 {
			continue
		}
		buckets[h].Count++
		total++
	}

	if total > 0 {
		for i := range buckets {
			buckets[i].Rate = float64(buckets[i].Count) / float64(total)
		}
	}

	return buckets
}

// AnalyzeStreaks extracts all maximal runs of consecutive completed days for
// one habit. CurrentStreak is the latest streak's length only if that streak
// ended on today or yesterday (one day of grace); otherwise 0.
func AnalyzeStreaks(events []*domain.CompletionEvent, habitID string, today time.Time) domain.StreakSummary {
	today = domain.Day(today)

	// Distinct completed days only: several members of a group can log the
	// same shared habit on the same day, and one completed day must count
	// once in the contiguity walk.
	var days []time.Time
	seen := make(map[string]bool)
	for _, e := range dedupeEvents(events) {
		if e.HabitID != habitID || !e.Completed {
			continue
		}
		key := e.DayKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		days = append(days, domain.Day(e.Date))
	}

	if len(days) == 0 {
		return domain.StreakSummary{}
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	var streaks []domain.StreakPeriod
	streakStart := days[0]
	prev := days[0]

	for _, d := range days[1:] {
		if d.Sub(prev) == 24*time.Hour {
			prev = d
			continue
		}
		streaks = append(streaks, newStreak(streakStart, prev))
		streakStart = d
		prev = d
	}
	streaks = append(streaks, newStreak(streakStart, prev))

	maxStreak := 0
	for _, s := range streaks {
		if s.Length > maxStreak {
			maxStreak = s.Length
		}
	}

	current := 0
	last := streaks[len(streaks)-1]
	if !last.EndDate.Before(today.AddDate(0, 0, -1)) {
		current = last.Length
	}

	return domain.StreakSummary{
		CurrentStreak: current,
		MaxStreak:     maxStreak,
		AllStreaks:    streaks,
	}
}

func newStreak(start, end time.Time) domain.StreakPeriod {
	return domain.StreakPeriod{
		StartDate: start,
		EndDate:   end,
		Length:    int(end.Sub(start).Hours()/24) + 1,
	}
}

// dedupeEvents collapses duplicate (habit, user, date) rows, keeping the most
// recently written one. The event store enforces this uniqueness, but stale
// exports and test fixtures do not.
func dedupeEvents(events []*domain.CompletionEvent) []*domain.CompletionEvent {
	type key struct {
		habitID string
		userID  string
		day     string
	}

	latest := make(map[key]*domain.CompletionEvent, len(events))
	var order []key
	for _, e := range events {
		k := key{habitID: e.HabitID, userID: e.UserID, day: e.DayKey()}
		cur, seen := latest[k]
		if !seen {
			order = append(order, k)
			latest[k] = e
			continue
		}
		if !e.UpdatedAt.Before(cur.UpdatedAt) {
			latest[k] = e
		}
	}

	out := make([]*domain.CompletionEvent, 0, len(order))
	for _, k := range order {
		out = append(out, latest[k])
	}
	return out
}

// weekStart shifts a day to the Monday of its ISO week.
func weekStart(day time.Time) time.Time {
	wd := int(day.Weekday())
	if wd == 0 {
		wd = 7 // Sunday belongs to the week that started the previous Monday
	}
	return day.AddDate(0, 0, -(wd - 1))
}
