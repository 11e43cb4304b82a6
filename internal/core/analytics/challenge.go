package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
)

// Fixed forward projections per archetype. Score targets are capped at 1.
const (
	streakExtensionDays  = 7
	synergyIncrement     = 0.15
	momentumIncrement    = 0.20
	cohesionIncrement    = 0.15
	defaultChallengeDays = 14

	// Group health bands for global difficulty scaling.
	thrivingThreshold   = 0.8
	strugglingThreshold = 0.4
	hardenMultiplier    = 1.2
	easeMultiplier      = 0.8

	// Struggling groups get extra runway.
	strugglingDurationBoost = 0.3
)

// GenerateChallenges synthesizes up to four adaptive challenges from the
// group's current dynamics: streak extension, synergy boost, momentum
// builder, and group unity. Difficulty grows with the relative improvement
// required; priority grows with how deficient the targeted metric is.
// Highest priority first.
func GenerateChallenges(d *domain.GroupDynamics, createdAt time.Time) []*domain.TeamChallenge {
	streakBaseline := float64(d.GroupStreak)

	challenges := []*domain.TeamChallenge{
		newChallenge(challengeSpec{
			groupID:     d.GroupID,
			kind:        domain.ChallengeStreakExtension,
			title:       "Extend the streak",
			description: fmt.Sprintf("Push the shared streak from %d to %d days.", d.GroupStreak, d.GroupStreak+streakExtensionDays),
			baseline:    streakBaseline,
			target:      streakBaseline + streakExtensionDays,
			priority:    1 - clamp01(streakBaseline/float64(domain.FormationDays)),
			rewards:     []string{"streak badge", "bonus points"},
			createdAt:   createdAt,
		}),
		newChallenge(challengeSpec{
			groupID:     d.GroupID,
			kind:        domain.ChallengeSynergyBoost,
			title:       "Move together",
			description: fmt.Sprintf("Lift group synergy to %.0f%% by completing habits on the same days.", minFloat(1, d.Synergy+synergyIncrement)*100),
			baseline:    d.Synergy,
			target:      minFloat(1, d.Synergy+synergyIncrement),
			priority:    1 - d.Synergy,
			rewards:     []string{"synergy badge"},
			createdAt:   createdAt,
		}),
		newChallenge(challengeSpec{
			groupID:     d.GroupID,
			kind:        domain.ChallengeMomentumBuilder,
			title:       "Build momentum",
			description: fmt.Sprintf("Raise the group's daily completion momentum to %.0f%%.", minFloat(1, d.Momentum+momentumIncrement)*100),
			baseline:    d.Momentum,
			target:      minFloat(1, d.Momentum+momentumIncrement),
			priority:    1 - d.Momentum,
			rewards:     []string{"momentum badge", "weekly shoutout"},
			createdAt:   createdAt,
		}),
		newChallenge(challengeSpec{
			groupID:     d.GroupID,
			kind:        domain.ChallengeGroupUnity,
			title:       "Leave no one behind",
			description: fmt.Sprintf("Bring every member into the rhythm and lift cohesion to %.0f%%.", minFloat(1, d.Cohesion+cohesionIncrement)*100),
			baseline:    d.Cohesion,
			target:      minFloat(1, d.Cohesion+cohesionIncrement),
			priority:    1 - d.Cohesion,
			rewards:     []string{"unity badge"},
			createdAt:   createdAt,
		}),
	}

	sort.SliceStable(challenges, func(i, j int) bool {
		return challenges[i].Priority > challenges[j].Priority
	})

	return challenges
}

type challengeSpec struct {
	groupID     string
	kind        domain.ChallengeType
	title       string
	description string
	baseline    float64
	target      float64
	priority    float64
	rewards     []string
	createdAt   time.Time
}

func newChallenge(spec challengeSpec) *domain.TeamChallenge {
	return &domain.TeamChallenge{
		ID:              uuid.New().String(),
		GroupID:         spec.groupID,
		Type:            spec.kind,
		Title:           spec.title,
		Description:     spec.description,
		Target:          spec.target,
		BaselineValue:   spec.baseline,
		DurationDays:    defaultChallengeDays,
		DifficultyLevel: difficultyFor(spec.baseline, spec.target),
		Priority:        clamp01(spec.priority),
		Rewards:         spec.rewards,
		Status:          domain.ChallengePending,
		CreatedAt:       spec.createdAt.UTC(),
	}
}

// difficultyFor maps the required relative improvement onto a 1..5 scale.
// A baseline near zero is floored so the ratio stays finite.
func difficultyFor(baseline, target float64) float64 {
	floor := math.Max(baseline, 0.1)
	improvement := (target - baseline) / floor
	return clampDifficulty(1 + improvement*2)
}

func clampDifficulty(level float64) float64 {
	if level < 1 {
		return 1
	}
	if level > 5 {
		return 5
	}
	return level
}

// AdjustChallengeDifficulty applies a global multiplier derived from overall
// group health (mean of momentum, cohesion, synergy) to every challenge's
// numeric target and difficulty. Struggling groups additionally get 30% more
// duration. Returns the challenges it was given, mutated in place.
func AdjustChallengeDifficulty(challenges []*domain.TeamChallenge, d *domain.GroupDynamics) []*domain.TeamChallenge {
	health := mean([]float64{d.Momentum, d.Cohesion, d.Synergy})

	multiplier := 1.0
	switch {
	case health > thrivingThreshold:
		multiplier = hardenMultiplier
	case health < strugglingThreshold:
		multiplier = easeMultiplier
	}

	for _, c := range challenges {
		if multiplier != 1.0 {
			scaled := c.BaselineValue + (c.Target-c.BaselineValue)*multiplier
			if c.Type != domain.ChallengeStreakExtension {
				scaled = minFloat(1, scaled)
			}
			c.Target = scaled
			c.DifficultyLevel = clampDifficulty(c.DifficultyLevel * multiplier)
		}
		if health < strugglingThreshold {
			c.DurationDays = int(math.Ceil(float64(c.DurationDays) * (1 + strugglingDurationBoost)))
		}
	}

	return challenges
}

// TrackChallengeProgress compares the current metric value against the
// target and advances the lifecycle: PENDING moves to ACTIVE once tracking
// starts, ACTIVE moves to COMPLETED at 100% progress. Past the deadline an
// unfinished ACTIVE challenge FAILS; one that never left PENDING EXPIRES.
func TrackChallengeProgress(c *domain.TeamChallenge, currentValue float64, now time.Time) domain.ChallengeProgress {
	percent := 1.0
	if c.Target > 0 {
		percent = currentValue / c.Target
	}

	status := c.Status
	expired := now.After(c.Deadline())

	switch {
	case percent >= 1:
		status = domain.ChallengeCompleted
	case expired && status == domain.ChallengeActive:
		status = domain.ChallengeFailed
	case expired:
		status = domain.ChallengeExpired
	case status == domain.ChallengePending:
		status = domain.ChallengeActive
	}

	if percent > 1 {
		percent = 1
	}
	if percent < 0 {
		percent = 0
	}

	return domain.ChallengeProgress{
		ChallengeID:  c.ID,
		CurrentValue: currentValue,
		TargetValue:  c.Target,
		Percent:      percent,
		Status:       status,
	}
}
