package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrGroupNotFound = errors.New("group not found")

// Group is the membership view this engine needs: who is in the group and
// which habits count toward its shared metrics. Group administration is
// owned by the tracking service.
type Group struct {
	ID        string   `json:"id" db:"id"`
	Name      string   `json:"name" db:"name"`
	MemberIDs []string `json:"member_ids"`
	HabitIDs  []string `json:"habit_ids"`
}

// GroupMetrics is one appended history row per recompute. The latest row
// (max calculated_at) is the group's current state.
type GroupMetrics struct {
	ID      string `json:"id" db:"id"`
	GroupID string `json:"group_id" db:"group_id"`

	GroupStreak      int     `json:"group_streak" db:"group_streak"`
	MomentumScore    float64 `json:"momentum_score" db:"momentum_score"`
	SynergisticScore float64 `json:"synergistic_score" db:"synergistic_score"`
	CohesionScore    float64 `json:"cohesion_score" db:"cohesion_score"`

	CalculatedAt time.Time `json:"calculated_at" db:"calculated_at"`
}

type ContributorType string

const (
	ContributorLeader        ContributorType = "LEADER"
	ContributorHighPerformer ContributorType = "HIGH_PERFORMER"
	ContributorActive        ContributorType = "ACTIVE_PARTICIPANT"
	ContributorConsistent    ContributorType = "CONSISTENT_CONTRIBUTOR"
	ContributorCasual        ContributorType = "CASUAL_PARTICIPANT"
)

// MemberContribution ranks one member's share of the group's output.
type MemberContribution struct {
	UserID                string          `json:"user_id"`
	TotalAttempts         int             `json:"total_attempts"`
	SuccessfulCompletions int             `json:"successful_completions"`
	CompletionRate        float64         `json:"completion_rate"`
	ContributionScore     float64         `json:"contribution_score"`
	Type                  ContributorType `json:"type"`
}

type ParticipationMetrics struct {
	TotalMembers          int     `json:"total_members"`
	ActiveMembers         int     `json:"active_members"`
	ParticipationRate     float64 `json:"participation_rate"`
	OverallCompletionRate float64 `json:"overall_completion_rate"`
}

// GroupDynamics is the full derived record for one group over one range.
type GroupDynamics struct {
	GroupID string `json:"group_id"`

	Momentum    float64 `json:"momentum"`
	Cohesion    float64 `json:"cohesion"`
	Synergy     float64 `json:"synergy"`
	GroupStreak int     `json:"group_streak"`

	KeyContributors []MemberContribution `json:"key_contributors"`
	Participation   ParticipationMetrics `json:"participation"`

	CalculatedAt time.Time `json:"calculated_at"`
}

// Snapshot projects the persisted history row out of a dynamics record.
func (d *GroupDynamics) Snapshot() *GroupMetrics {
	return &GroupMetrics{
		ID:               uuid.New().String(),
		GroupID:          d.GroupID,
		GroupStreak:      d.GroupStreak,
		MomentumScore:    d.Momentum,
		SynergisticScore: d.Synergy,
		CohesionScore:    d.Cohesion,
		CalculatedAt:     d.CalculatedAt,
	}
}
