package analytics

import (
	"fmt"
	"sort"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
)

const (
	maxStrategies = 5

	barrierSuccessRateFloor = 0.5
	barrierConsistencyFloor = 0.6
	barrierGapDays          = 3
)

// stageCatalog is the fixed coaching catalog: three strategies per formation
// stage, tagged with effectiveness and evidence strength.
var stageCatalog = map[domain.FormationStage][]domain.CoachingStrategy{
	domain.StageInitiation: {
		{
			ID:            "init-tiny-start",
			Name:          "Start tiny",
			Description:   "Shrink the habit to a two-minute version so showing up is the whole goal.",
			Stage:         domain.StageInitiation,
			Effectiveness: 0.85,
			Evidence:      domain.EvidenceStrong,
			Actions:       []string{"Define the two-minute version", "Do only that version for one week"},
		},
		{
			ID:            "init-anchor",
			Name:          "Anchor to an existing routine",
			Description:   "Attach the new habit immediately after something you already do daily.",
			Stage:         domain.StageInitiation,
			Effectiveness: 0.8,
			Evidence:      domain.EvidenceStrong,
			Actions:       []string{"Pick a stable anchor routine", "Write an after-X-I-will-Y plan"},
		},
		{
			ID:            "init-environment",
			Name:          "Prepare the environment",
			Description:   "Remove friction the night before: lay out equipment, set reminders.",
			Stage:         domain.StageInitiation,
			Effectiveness: 0.7,
			Evidence:      domain.EvidenceModerate,
			Actions:       []string{"Stage everything needed in advance", "Put one visible cue where you will see it"},
		},
	},
	domain.StageLearning: {
		{
			ID:            "learn-fixed-slot",
			Name:          "Fix the time slot",
			Description:   "Repeat the habit at the same time daily; consistency of context builds automaticity.",
			Stage:         domain.StageLearning,
			Effectiveness: 0.8,
			Evidence:      domain.EvidenceStrong,
			Actions:       []string{"Block the same slot every day", "Track which slot actually sticks"},
		},
		{
			ID:            "learn-never-twice",
			Name:          "Never miss twice",
			Description:   "A single miss is noise; two in a row is the start of a new (bad) habit.",
			Stage:         domain.StageLearning,
			Effectiveness: 0.75,
			Evidence:      domain.EvidenceModerate,
			Actions:       []string{"Plan a minimal recovery version for bad days"},
		},
		{
			ID:            "learn-track-visibly",
			Name:          "Track visibly",
			Description:   "Keep the streak somewhere you see daily; the chain itself becomes the reward.",
			Stage:         domain.StageLearning,
			Effectiveness: 0.65,
			Evidence:      domain.EvidenceModerate,
			Actions:       []string{"Review the week every Sunday"},
		},
	},
	domain.StageStability: {
		{
			ID:            "stab-raise-bar",
			Name:          "Raise the bar gradually",
			Description:   "The habit shows up reliably; grow its size by small increments.",
			Stage:         domain.StageStability,
			Effectiveness: 0.75,
			Evidence:      domain.EvidenceModerate,
			Actions:       []string{"Increase the target by ~10% per week", "Roll back on two consecutive misses"},
		},
		{
			ID:            "stab-stress-test",
			Name:          "Stress-test the routine",
			Description:   "Practice the habit under disruption, like travel or late nights, before life forces it.",
			Stage:         domain.StageStability,
			Effectiveness: 0.7,
			Evidence:      domain.EvidenceEmerging,
			Actions:       []string{"Plan the travel version of the habit"},
		},
		{
			ID:            "stab-social",
			Name:          "Add social stakes",
			Description:   "Share progress with a partner or group; gentle accountability hardens a stable habit.",
			Stage:         domain.StageStability,
			Effectiveness: 0.65,
			Evidence:      domain.EvidenceModerate,
			Actions:       []string{"Pick an accountability partner", "Agree on a weekly check-in"},
		},
	},
	domain.StageMastery: {
		{
			ID:            "mast-teach",
			Name:          "Teach it forward",
			Description:   "Coaching someone else through the habit deepens your own mastery.",
			Stage:         domain.StageMastery,
			Effectiveness: 0.7,
			Evidence:      domain.EvidenceEmerging,
			Actions:       []string{"Mentor one person starting the same habit"},
		},
		{
			ID:            "mast-stack",
			Name:          "Stack the next habit",
			Description:   "Use the mastered habit as the anchor for the next behavior you want.",
			Stage:         domain.StageMastery,
			Effectiveness: 0.75,
			Evidence:      domain.EvidenceStrong,
			Actions:       []string{"Choose one adjacent habit", "Anchor it directly after this one"},
		},
		{
			ID:            "mast-guard",
			Name:          "Guard against silent decay",
			Description:   "Mastered habits fail quietly; keep a light periodic review in place.",
			Stage:         domain.StageMastery,
			Effectiveness: 0.6,
			Evidence:      domain.EvidenceModerate,
			Actions:       []string{"Monthly five-minute habit review"},
		},
	},
}

// barrierCatalog maps each detected barrier to a targeted intervention.
var barrierCatalog = map[domain.BarrierType]domain.CoachingStrategy{
	domain.BarrierLowSuccessRate: {
		ID:            "barrier-shrink",
		Name:          "Shrink the commitment",
		Description:   "The current bar is too high; cut the habit in half until the success rate recovers.",
		Effectiveness: 0.8,
		Evidence:      domain.EvidenceStrong,
		Actions:       []string{"Halve the daily target", "Revisit after two weeks above 70%"},
	},
	domain.BarrierInconsistentTiming: {
		ID:            "barrier-schedule",
		Name:          "Pin down the schedule",
		Description:   "Completions scatter across the week; pick one slot and defend it.",
		Effectiveness: 0.75,
		Evidence:      domain.EvidenceModerate,
		Actions:       []string{"Choose a single daily slot", "Set one reminder for that slot only"},
	},
	domain.BarrierExecutionGaps: {
		ID:            "barrier-restart",
		Name:          "Plan the restart",
		Description:   "Long gaps follow misses; decide in advance exactly how the first day back looks.",
		Effectiveness: 0.7,
		Evidence:      domain.EvidenceModerate,
		Actions:       []string{"Write an if-I-miss-then plan", "Make the restart version trivially small"},
	},
}

// DetectBarriers inspects a habit's metrics and event history for formation
// obstacles. Severity is proportional to the size of each deficiency.
func DetectBarriers(m *domain.HabitMetrics, events []*domain.CompletionEvent) []domain.FormationBarrier {
	var barriers []domain.FormationBarrier

	if m.SuccessRate < barrierSuccessRateFloor {
		barriers = append(barriers, domain.FormationBarrier{
			Type:        domain.BarrierLowSuccessRate,
			Severity:    clamp01((barrierSuccessRateFloor - m.SuccessRate) / barrierSuccessRateFloor),
			Description: fmt.Sprintf("success rate is %.0f%%, below the %.0f%% formation floor", m.SuccessRate*100, barrierSuccessRateFloor*100),
		})
	}

	if m.ConsistencyScore < barrierConsistencyFloor {
		barriers = append(barriers, domain.FormationBarrier{
			Type:        domain.BarrierInconsistentTiming,
			Severity:    clamp01((barrierConsistencyFloor - m.ConsistencyScore) / barrierConsistencyFloor),
			Description: fmt.Sprintf("consistency is %.0f%%, below the %.0f%% floor", m.ConsistencyScore*100, barrierConsistencyFloor*100),
		})
	}

	if gap, ok := longestGap(events); ok && gap > barrierGapDays {
		barriers = append(barriers, domain.FormationBarrier{
			Type:        domain.BarrierExecutionGaps,
			Severity:    clamp01(float64(gap-barrierGapDays) / 7),
			Description: fmt.Sprintf("the longest break between completions was %d days", gap),
		})
	}

	return barriers
}

func longestGap(events []*domain.CompletionEvent) (int, bool) {
	gaps := completionGaps(events)
	if gaps == nil {
		return 0, false
	}
	longest := 0.0
	for _, g := range gaps {
		if g > longest {
			longest = g
		}
	}
	return int(longest), true
}

// Recommend assembles the coaching plan for one habit: the stage catalog
// plus any barrier-triggered interventions, ranked by effectiveness then
// evidence, truncated to the top five.
func Recommend(m *domain.HabitMetrics, barriers []domain.FormationBarrier) []domain.CoachingStrategy {
	strategies := append([]domain.CoachingStrategy(nil), stageCatalog[m.FormationStage]...)

	for _, b := range barriers {
		if s, ok := barrierCatalog[b.Type]; ok {
			s.Stage = m.FormationStage
			strategies = append(strategies, s)
		}
	}

	sort.SliceStable(strategies, func(i, j int) bool {
		if strategies[i].Effectiveness != strategies[j].Effectiveness {
			return strategies[i].Effectiveness > strategies[j].Effectiveness
		}
		return strategies[i].Evidence > strategies[j].Evidence
	})

	if len(strategies) > maxStrategies {
		strategies = strategies[:maxStrategies]
	}
	return strategies
}

// Milestones reports the stage-appropriate achievement markers for a habit,
// flagged achieved or not from the current metrics.
func Milestones(m *domain.HabitMetrics) []domain.Milestone {
	return []domain.Milestone{
		{
			Name:        "First completion",
			Description: "Complete the habit once.",
			Stage:       domain.StageInitiation,
			Achieved:    m.MaxStreak >= 1,
		},
		{
			Name:        "Three-day streak",
			Description: "Complete the habit three days in a row.",
			Stage:       domain.StageInitiation,
			Achieved:    m.MaxStreak >= 3,
		},
		{
			Name:        "One-week streak",
			Description: "Hold a seven-day streak.",
			Stage:       domain.StageLearning,
			Achieved:    m.MaxStreak >= 7,
		},
		{
			Name:        "Consistent rhythm",
			Description: "Reach a 70% consistency score.",
			Stage:       domain.StageLearning,
			Achieved:    m.ConsistencyScore >= 0.7,
		},
		{
			Name:        "Three-week streak",
			Description: "Hold a 21-day streak.",
			Stage:       domain.StageStability,
			Achieved:    m.MaxStreak >= 21,
		},
		{
			Name:        "Reliable execution",
			Description: "Reach an 80% success rate.",
			Stage:       domain.StageStability,
			Achieved:    m.SuccessRate >= 0.8,
		},
		{
			Name:        "Mastery",
			Description: "Sustain the habit through the 66-day formation horizon.",
			Stage:       domain.StageMastery,
			Achieved:    m.FormationStage == domain.StageMastery,
		},
	}
}
