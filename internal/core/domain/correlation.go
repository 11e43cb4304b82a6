package domain

import "time"

type CorrelationType string

const (
	CorrelationPositive      CorrelationType = "POSITIVE"
	CorrelationNegative      CorrelationType = "NEGATIVE"
	CorrelationNeutral       CorrelationType = "NEUTRAL"
	CorrelationCausal        CorrelationType = "CAUSAL"
	CorrelationInverseCausal CorrelationType = "INVERSE_CAUSAL"
)

// HabitCorrelation is one persisted row per unordered habit pair per user.
// HabitA < HabitB always holds (see CanonicalPair) so a pair can never be
// stored twice under both orderings.
type HabitCorrelation struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`
	HabitA string `json:"habit_a" db:"habit_a"`
	HabitB string `json:"habit_b" db:"habit_b"`

	Coefficient float64         `json:"coefficient" db:"coefficient"`
	Type        CorrelationType `json:"type" db:"correlation_type"`
	Confidence  float64         `json:"confidence" db:"confidence"`

	CalculatedAt time.Time `json:"calculated_at" db:"calculated_at"`
}

// CanonicalPair orders two habit ids lexicographically.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
