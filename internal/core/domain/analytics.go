package domain

import (
	"time"

	"github.com/google/uuid"
)

// FormationStage classifies how habitual a behavior has become. Stages are
// recomputed fresh on every run; regression to an earlier stage is expected
// when recent behavior worsens.
type FormationStage string

const (
	StageInitiation FormationStage = "INITIATION"
	StageLearning   FormationStage = "LEARNING"
	StageStability  FormationStage = "STABILITY"
	StageMastery    FormationStage = "MASTERY"
)

// Habit-formation research puts full automaticity at roughly 66 days; the
// strength score and the MASTERY threshold both anchor on it.
const FormationDays = 66

type TrendDirection string

const (
	TrendImproving TrendDirection = "IMPROVING"
	TrendDeclining TrendDirection = "DECLINING"
	TrendStable    TrendDirection = "STABLE"
)

type PatternType string

const (
	PatternWeeklyCycle    PatternType = "WEEKLY_CYCLE"
	PatternStreakBehavior PatternType = "STREAK_BEHAVIOR"
	PatternSeasonal       PatternType = "SEASONAL"
	PatternRecovery       PatternType = "RECOVERY"
)

// HabitPattern is a recognized behavioral pattern, reported only when its
// confidence clears the detector's own threshold.
type HabitPattern struct {
	Type        PatternType `json:"type"`
	Confidence  float64     `json:"confidence"`
	Description string      `json:"description"`
}

// HabitMetrics is the full derived record for one habit over one date range.
// It is ephemeral: computed on demand, never persisted as-is.
type HabitMetrics struct {
	HabitID string `json:"habit_id"`
	UserID  string `json:"user_id"`

	SuccessRate      float64 `json:"success_rate"`
	ConsistencyScore float64 `json:"consistency_score"`
	Automaticity     float64 `json:"automaticity"`
	ContextStability float64 `json:"context_stability"`
	HabitStrength    float64 `json:"habit_strength"`

	FormationStage FormationStage `json:"formation_stage"`
	DaysSinceStart int            `json:"days_since_start"`

	CurrentStreak int `json:"current_streak"`
	MaxStreak     int `json:"max_streak"`

	TrendDirection TrendDirection `json:"trend_direction"`
	TrendStrength  float64        `json:"trend_strength"`

	Patterns []HabitPattern `json:"patterns,omitempty"`
}

// HabitAnalytics is the persisted snapshot, one row per user+habit. Rows are
// replaced wholesale on every recompute, never partially mutated.
type HabitAnalytics struct {
	ID      string `json:"id" db:"id"`
	UserID  string `json:"user_id" db:"user_id"`
	HabitID string `json:"habit_id" db:"habit_id"`

	SuccessRate      float64        `json:"success_rate" db:"success_rate"`
	ConsistencyScore float64        `json:"consistency_score" db:"consistency_score"`
	HabitStrength    float64        `json:"habit_strength" db:"habit_strength"`
	FormationStage   FormationStage `json:"formation_stage" db:"formation_stage"`

	LastAnalyzed time.Time `json:"last_analyzed" db:"last_analyzed"`
}

// Snapshot projects the persisted subset out of a full metrics record.
func (m *HabitMetrics) Snapshot(analyzedAt time.Time) *HabitAnalytics {
	return &HabitAnalytics{
		ID:               uuid.New().String(),
		UserID:           m.UserID,
		HabitID:          m.HabitID,
		SuccessRate:      m.SuccessRate,
		ConsistencyScore: m.ConsistencyScore,
		HabitStrength:    m.HabitStrength,
		FormationStage:   m.FormationStage,
		LastAnalyzed:     analyzedAt.UTC(),
	}
}
