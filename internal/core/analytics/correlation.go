package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
)

const (
	// minOverlapPoints is the fewest day-aligned observations a pair needs
	// before a coefficient is trusted at all.
	minOverlapPoints = 3

	// correlationThreshold splits POSITIVE/NEGATIVE from NEUTRAL.
	correlationThreshold = 0.5

	// confidenceSaturation is the overlap size at which confidence hits 1.
	confidenceSaturation = 30

	// lagLeadMargin is how much a one-day-lagged coefficient must beat the
	// synchronous one before the pair is called causal rather than merely
	// correlated.
	lagLeadMargin = 0.1
)

// BuildDailySeries folds one habit's events into a day-keyed completion map.
// Every day the habit has a record appears; days with no record do not.
func BuildDailySeries(events []*domain.CompletionEvent, habitID string) map[string]bool {
	series := make(map[string]bool)
	for _, e := range dedupeEvents(events) {
		if e.HabitID != habitID {
			continue
		}
		series[e.DayKey()] = e.Completed
	}
	return series
}

// CorrelateHabits computes the Pearson correlation for every unordered pair
// of a user's habits over the intersection of dates where both series have
// data. Pairs with fewer than minOverlapPoints overlapping days get a zero
// coefficient and NEUTRAL type. Results are canonically ordered so
// correlation(A,B) and correlation(B,A) are the same row.
func CorrelateHabits(events []*domain.CompletionEvent, habitIDs []string, userID string, calculatedAt time.Time) []*domain.HabitCorrelation {
	series := make(map[string]map[string]bool, len(habitIDs))
	for _, id := range habitIDs {
		series[id] = BuildDailySeries(events, id)
	}

	ids := append([]string(nil), habitIDs...)
	sort.Strings(ids)

	var out []*domain.HabitCorrelation
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := domain.CanonicalPair(ids[i], ids[j])
			out = append(out, correlatePair(series[a], series[b], a, b, userID, calculatedAt))
		}
	}
	return out
}

func correlatePair(sa, sb map[string]bool, habitA, habitB, userID string, calculatedAt time.Time) *domain.HabitCorrelation {
	var overlap []string
	for day := range sa {
		if _, ok := sb[day]; ok {
			overlap = append(overlap, day)
		}
	}
	sort.Strings(overlap)

	coefficient := 0.0
	confidence := 0.0
	lagged := 0.0
	if len(overlap) >= minOverlapPoints {
		xs := make([]float64, len(overlap))
		ys := make([]float64, len(overlap))
		for i, day := range overlap {
			if sa[day] {
				xs[i] = 1
			}
			if sb[day] {
				ys[i] = 1
			}
		}
		coefficient = pearson(xs, ys)
		confidence = clamp01(float64(len(overlap)) / confidenceSaturation)
		lagged = strongestLag(sa, sb)
	}

	return &domain.HabitCorrelation{
		ID:           uuid.New().String(),
		UserID:       userID,
		HabitA:       habitA,
		HabitB:       habitB,
		Coefficient:  coefficient,
		Type:         classifyCorrelation(coefficient, lagged),
		Confidence:   confidence,
		CalculatedAt: calculatedAt.UTC(),
	}
}

// strongestLag correlates each habit's day with the other habit's following
// day and returns whichever direction carries the larger magnitude. A strong
// lagged signal suggests one habit drives the other rather than the two
// simply co-occurring.
func strongestLag(sa, sb map[string]bool) float64 {
	ab := laggedPearson(sa, sb)
	ba := laggedPearson(sb, sa)
	if math.Abs(ba) > math.Abs(ab) {
		return ba
	}
	return ab
}

// laggedPearson correlates lead's day d with follow's day d+1 over the days
// where both observations exist.
func laggedPearson(lead, follow map[string]bool) float64 {
	var xs, ys []float64
	for dayKey, lv := range lead {
		d, err := time.Parse(domain.DayFormat, dayKey)
		if err != nil {
			continue
		}
		fv, ok := follow[d.AddDate(0, 0, 1).Format(domain.DayFormat)]
		if !ok {
			continue
		}
		x, y := 0.0, 0.0
		if lv {
			x = 1
		}
		if fv {
			y = 1
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) < minOverlapPoints {
		return 0
	}
	return pearson(xs, ys)
}

// classifyCorrelation grades the pair. A lagged coefficient that clears the
// magnitude threshold and beats the synchronous one by lagLeadMargin marks
// the pair CAUSAL (or INVERSE_CAUSAL when negative); otherwise the
// synchronous coefficient decides POSITIVE/NEGATIVE/NEUTRAL.
func classifyCorrelation(coefficient, lagged float64) domain.CorrelationType {
	if math.Abs(lagged) >= correlationThreshold && math.Abs(lagged) > math.Abs(coefficient)+lagLeadMargin {
		if lagged > 0 {
			return domain.CorrelationCausal
		}
		return domain.CorrelationInverseCausal
	}

	switch {
	case coefficient >= correlationThreshold:
		return domain.CorrelationPositive
	case coefficient <= -correlationThreshold:
		return domain.CorrelationNegative
	default:
		return domain.CorrelationNeutral
	}
}
