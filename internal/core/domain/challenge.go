package domain

import "time"

type ChallengeType string

const (
	ChallengeStreakExtension ChallengeType = "STREAK_EXTENSION"
	ChallengeSynergyBoost    ChallengeType = "SYNERGY_BOOST"
	ChallengeMomentumBuilder ChallengeType = "MOMENTUM_BUILDER"
	ChallengeGroupUnity      ChallengeType = "GROUP_UNITY"
)

type ChallengeStatus string

const (
	ChallengePending   ChallengeStatus = "PENDING"
	ChallengeActive    ChallengeStatus = "ACTIVE"
	ChallengeCompleted ChallengeStatus = "COMPLETED"
	ChallengeFailed    ChallengeStatus = "FAILED"
	ChallengeExpired   ChallengeStatus = "EXPIRED"
)

// TeamChallenge is a generated group goal. Challenges are transient unless a
// caller chooses to store them; the engine regenerates them from the latest
// group dynamics on demand.
//
// Target is denominated in the challenged metric's own unit: days for
// STREAK_EXTENSION, a [0,1] score for the rest.
type TeamChallenge struct {
	ID      string        `json:"id"`
	GroupID string        `json:"group_id"`
	Type    ChallengeType `json:"type"`

	Title       string `json:"title"`
	Description string `json:"description"`

	Target          float64 `json:"target"`
	BaselineValue   float64 `json:"baseline_value"`
	DurationDays    int     `json:"duration_days"`
	DifficultyLevel float64 `json:"difficulty_level"`
	Priority        float64 `json:"priority"`

	Rewards []string        `json:"rewards"`
	Status  ChallengeStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
}

// Deadline is the moment the challenge window closes.
func (c *TeamChallenge) Deadline() time.Time {
	return c.CreatedAt.AddDate(0, 0, c.DurationDays)
}

// ChallengeProgress reports how far along a challenge is against its target.
type ChallengeProgress struct {
	ChallengeID  string          `json:"challenge_id"`
	CurrentValue float64         `json:"current_value"`
	TargetValue  float64         `json:"target_value"`
	Percent      float64         `json:"percent"`
	Status       ChallengeStatus `json:"status"`
}
