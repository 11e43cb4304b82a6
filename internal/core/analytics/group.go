package analytics

import (
	"sort"
	"time"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
)

const (
	// momentumDecay weights each day 1.1x heavier than the one before it,
	// so the most recent day dominates.
	momentumDecay = 1.1

	// cohesionBoost is the maximum bonus mean participation can add on top
	// of the low-variance base score.
	cohesionBoost = 0.2

	// groupStreakFloor is the minimum daily rate a day must clear to keep
	// a group streak alive, regardless of how low the window average is.
	groupStreakFloor = 0.5

	leaderScoreRatio     = 1.2
	performerScoreRatio  = 1.1
	activeAttemptsRatio  = 1.2
)

// ComputeGroupDynamics derives the full group record for one date range.
// Possible completions per day = |habits| x |members|; every score is a
// pure fold over the event snapshot. An empty group or empty range yields
// all-zero dynamics, never an error.
func ComputeGroupDynamics(events []*domain.CompletionEvent, group *domain.Group, start, end, calculatedAt time.Time) (*domain.GroupDynamics, error) {
	if err := domain.ValidateRange(start, end); err != nil {
		return nil, err
	}

	start = domain.Day(start)
	end = domain.Day(end)
	events = dedupeEvents(events)

	dailyRates := groupDailyRates(events, group, start, end)

	d := &domain.GroupDynamics{
		GroupID:      group.ID,
		Momentum:     momentum(dailyRates),
		GroupStreak:  groupStreak(dailyRates),
		Synergy:      synergy(events, group.MemberIDs, start, end),
		CalculatedAt: calculatedAt.UTC(),
	}

	participation := memberParticipationRates(events, group, start, end)
	d.Cohesion = cohesion(participation)
	d.KeyContributors = keyContributors(events, group.MemberIDs)
	d.Participation = participationMetrics(events, group.MemberIDs)

	return d, nil
}

// groupDailyRates computes completions / possible-completions per day across
// the dense range, oldest first.
func groupDailyRates(events []*domain.CompletionEvent, group *domain.Group, start, end time.Time) []float64 {
	possible := len(group.HabitIDs) * len(group.MemberIDs)
	days := int(end.Sub(start).Hours()/24) + 1
	if possible == 0 || days <= 0 {
		return nil
	}

	completedByDay := make(map[string]int)
	for _, e := range events {
		if e.Completed {
			completedByDay[e.DayKey()]++
		}
	}

	rates := make([]float64, 0, days)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		c := completedByDay[day.Format(domain.DayFormat)]
		rates = append(rates, clamp01(float64(c)/float64(possible)))
	}
	return rates
}

// momentum is the recency-weighted average of daily group rates: day i
// (0 = oldest) carries weight momentumDecay^i.
func momentum(dailyRates []float64) float64 {
	if len(dailyRates) == 0 {
		return 0
	}

	var weighted, totalWeight float64
	weight := 1.0
	for _, r := range dailyRates {
		weighted += r * weight
		totalWeight += weight
		weight *= momentumDecay
	}

	return clamp01(weighted / totalWeight)
}

// groupStreak walks backward from the end of the window counting days whose
// rate beats max(groupStreakFloor, window average).
func groupStreak(dailyRates []float64) int {
	if len(dailyRates) == 0 {
		return 0
	}

	threshold := mean(dailyRates)
	if threshold < groupStreakFloor {
		threshold = groupStreakFloor
	}

	streak := 0
	for i := len(dailyRates) - 1; i >= 0; i-- {
		if dailyRates[i] < threshold {
			break
		}
		streak++
	}
	return streak
}

// memberParticipationRates computes each member's completions over their
// possible completions (habits x days) in the window.
func memberParticipationRates(events []*domain.CompletionEvent, group *domain.Group, start, end time.Time) []float64 {
	days := int(end.Sub(start).Hours()/24) + 1
	possible := len(group.HabitIDs) * days
	if possible == 0 {
		return nil
	}

	completedByMember := make(map[string]int)
	for _, e := range events {
		if e.Completed {
			completedByMember[e.UserID]++
		}
	}

	rates := make([]float64, 0, len(group.MemberIDs))
	for _, id := range group.MemberIDs {
		rates = append(rates, clamp01(float64(completedByMember[id])/float64(possible)))
	}
	return rates
}

// cohesion inverts the spread of participation across members, measured
// relative to the mean so a single carrier in an idle group scores near
// zero, then adds a bonus proportional to mean participation so a uniformly
// idle group does not score as cohesive as a uniformly active one.
func cohesion(participation []float64) float64 {
	if len(participation) == 0 {
		return 0
	}

	m := mean(participation)
	if m == 0 {
		return 0
	}

	base := 1 - stdDev(participation)/m
	if base < 0 {
		base = 0
	}

	return clamp01(base + cohesionBoost*m)
}

// synergy averages the pairwise Pearson correlation of members' daily
// activity, remapped from [-1,1] to [0,1]. Pairs with fewer than three
// overlapping days contribute 0.
func synergy(events []*domain.CompletionEvent, memberIDs []string, start, end time.Time) float64 {
	if len(memberIDs) < 2 {
		return 0
	}

	days := int(end.Sub(start).Hours()/24) + 1
	if days < minOverlapPoints {
		return 0
	}

	activeByMember := make(map[string]map[string]bool, len(memberIDs))
	for _, id := range memberIDs {
		activeByMember[id] = make(map[string]bool)
	}
	for _, e := range events {
		if m, ok := activeByMember[e.UserID]; ok && e.Completed {
			m[e.DayKey()] = true
		}
	}

	seriesFor := func(id string) []float64 {
		series := make([]float64, 0, days)
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			if activeByMember[id][day.Format(domain.DayFormat)] {
				series = append(series, 1)
			} else {
				series = append(series, 0)
			}
		}
		return series
	}

	var total float64
	pairs := 0
	for i := 0; i < len(memberIDs); i++ {
		for j := i + 1; j < len(memberIDs); j++ {
			r := pearson(seriesFor(memberIDs[i]), seriesFor(memberIDs[j]))
			total += (r + 1) / 2
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return clamp01(total / float64(pairs))
}

// keyContributors scores each member against the group average: 60% relative
// completion rate, 40% relative volume.
func keyContributors(events []*domain.CompletionEvent, memberIDs []string) []domain.MemberContribution {
	type acc struct {
		attempts  int
		completed int
	}
	byMember := make(map[string]acc, len(memberIDs))
	for _, id := range memberIDs {
		byMember[id] = acc{}
	}
	for _, e := range events {
		a, ok := byMember[e.UserID]
		if !ok {
			continue
		}
		a.attempts++
		if e.Completed {
			a.completed++
		}
		byMember[e.UserID] = a
	}

	maxAttempts := 0
	var rateSum float64
	rated := 0
	for _, a := range byMember {
		if a.attempts > maxAttempts {
			maxAttempts = a.attempts
		}
		if a.attempts > 0 {
			rateSum += float64(a.completed) / float64(a.attempts)
			rated++
		}
	}

	avgRate := 0.0
	if rated > 0 {
		avgRate = rateSum / float64(rated)
	}

	contributions := make([]domain.MemberContribution, 0, len(memberIDs))
	var scoreSum, attemptsSum float64
	for _, id := range memberIDs {
		a := byMember[id]

		rate := 0.0
		if a.attempts > 0 {
			rate = float64(a.completed) / float64(a.attempts)
		}

		score := 0.0
		if avgRate > 0 {
			score += 0.6 * (rate / avgRate)
		}
		if maxAttempts > 0 {
			score += 0.4 * (float64(a.attempts) / float64(maxAttempts))
		}

		contributions = append(contributions, domain.MemberContribution{
			UserID:                id,
			TotalAttempts:         a.attempts,
			SuccessfulCompletions: a.completed,
			CompletionRate:        rate,
			ContributionScore:     score,
		})
		scoreSum += score
		attemptsSum += float64(a.attempts)
	}

	avgScore := scoreSum / float64(len(memberIDs))
	avgAttempts := attemptsSum / float64(len(memberIDs))
	for i := range contributions {
		contributions[i].Type = classifyContributor(contributions[i], avgScore, avgAttempts)
	}

	sort.Slice(contributions, func(i, j int) bool {
		return contributions[i].ContributionScore > contributions[j].ContributionScore
	})

	return contributions
}

func classifyContributor(c domain.MemberContribution, avgScore, avgAttempts float64) domain.ContributorType {
	switch {
	case avgScore > 0 && c.ContributionScore >= leaderScoreRatio*avgScore:
		return domain.ContributorLeader
	case avgScore > 0 && c.ContributionScore >= performerScoreRatio*avgScore:
		return domain.ContributorHighPerformer
	case avgAttempts > 0 && float64(c.TotalAttempts) >= activeAttemptsRatio*avgAttempts:
		return domain.ContributorActive
	case c.ContributionScore > avgScore:
		return domain.ContributorConsistent
	default:
		return domain.ContributorCasual
	}
}

func participationMetrics(events []*domain.CompletionEvent, memberIDs []string) domain.ParticipationMetrics {
	attemptsByMember := make(map[string]int)
	totalAttempts, totalCompleted := 0, 0
	for _, e := range events {
		attemptsByMember[e.UserID]++
		totalAttempts++
		if e.Completed {
			totalCompleted++
		}
	}

	active := 0
	for _, id := range memberIDs {
		if attemptsByMember[id] > 0 {
			active++
		}
	}

	m := domain.ParticipationMetrics{
		TotalMembers:  len(memberIDs),
		ActiveMembers: active,
	}
	if m.TotalMembers > 0 {
		m.ParticipationRate = float64(active) / float64(m.TotalMembers)
	}
	if totalAttempts > 0 {
		m.OverallCompletionRate = float64(totalCompleted) / float64(totalAttempts)
	}
	return m
}
