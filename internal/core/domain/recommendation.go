package domain

type BarrierType string

const (
	BarrierLowSuccessRate     BarrierType = "LOW_SUCCESS_RATE"
	BarrierInconsistentTiming BarrierType = "INCONSISTENT_TIMING"
	BarrierExecutionGaps      BarrierType = "EXECUTION_GAPS"
)

// FormationBarrier is a detected obstacle to habit formation. Severity grows
// with the size of the deficiency, clamped to [0,1].
type FormationBarrier struct {
	Type        BarrierType `json:"type"`
	Severity    float64     `json:"severity"`
	Description string      `json:"description"`
}

// EvidenceLevel ranks how well a coaching strategy is backed by research.
// Ordered so a plain numeric comparison sorts strongest evidence first.
type EvidenceLevel int

const (
	EvidenceEmerging EvidenceLevel = iota + 1
	EvidenceModerate
	EvidenceStrong
)

func (e EvidenceLevel) String() string {
	switch e {
	case EvidenceStrong:
		return "STRONG"
	case EvidenceModerate:
		return "MODERATE"
	case EvidenceEmerging:
		return "EMERGING"
	default:
		return "UNKNOWN"
	}
}

// CoachingStrategy is one catalog entry: a named intervention tagged with the
// formation stage it serves and the evidence behind it.
type CoachingStrategy struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Stage         FormationStage `json:"stage"`
	Effectiveness float64        `json:"effectiveness"`
	Evidence      EvidenceLevel  `json:"evidence"`
	Actions       []string       `json:"actions"`
}

// Milestone is a stage-appropriate achievement marker.
type Milestone struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Stage       FormationStage `json:"stage"`
	Achieved    bool           `json:"achieved"`
}

// RecommendationSet is everything the coaching surface returns for one habit.
type RecommendationSet struct {
	Stage      FormationStage     `json:"stage"`
	Strategies []CoachingStrategy `json:"strategies"`
	Barriers   []FormationBarrier `json:"barriers,omitempty"`
	Milestones []Milestone        `json:"milestones"`
}
