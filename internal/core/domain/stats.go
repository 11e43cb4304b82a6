package domain

import "time"

// DateRange is an inclusive calendar-day range.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DailyStat is one calendar day of aggregated activity. Ranges are always
// dense: days with no events appear with zero counts.
type DailyStat struct {
	Date              time.Time `json:"date"`
	TotalAttempts     int       `json:"total_attempts"`
	CompletedAttempts int       `json:"completed_attempts"`
	CompletionRate    float64   `json:"completion_rate"`
}

// WeeklyBucket aggregates one ISO week, keyed by its Monday.
type WeeklyBucket struct {
	WeekStart         time.Time                `json:"week_start"`
	TotalAttempts     int                      `json:"total_attempts"`
	CompletedAttempts int                      `json:"completed_attempts"`
	CompletionRate    float64                  `json:"completion_rate"`
	DayOfWeekRates    map[time.Weekday]float64 `json:"day_of_week_rates"`
}

// HourlyBucket counts completions whose timestamp falls in one hour of day.
// Rate is the bucket's share of all timestamped completions.
type HourlyBucket struct {
	Hour  int     `json:"hour"`
	Count int     `json:"count"`
	Rate  float64 `json:"rate"`
}

// StreakPeriod is a maximal run of consecutive completed days.
type StreakPeriod struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Length    int       `json:"length"`
}

// StreakSummary is the full streak picture for one habit. CurrentStreak is
// nonzero only when the latest streak ended today or yesterday.
type StreakSummary struct {
	CurrentStreak int            `json:"current_streak"`
	MaxStreak     int            `json:"max_streak"`
	AllStreaks    []StreakPeriod `json:"all_streaks"`
}

// TimingStats is success accounting for one hour of day.
type TimingStats struct {
	Hour               int     `json:"hour"`
	TotalAttempts      int     `json:"total_attempts"`
	SuccessfulAttempts int     `json:"successful_attempts"`
	SuccessRate        float64 `json:"success_rate"`
}

// TimeWindow is an hour range [StartHour, EndHour) in the user's day.
type TimeWindow struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

// ScoredWindow pairs a candidate window with the success rate backing it.
type ScoredWindow struct {
	Window      TimeWindow `json:"window"`
	SuccessRate float64    `json:"success_rate"`
	Attempts    int        `json:"attempts"`
}

// SuccessPrediction blends hourly and day-of-week evidence for a single
// (time, weekday) slot. Confidence is banded by sample size.
type SuccessPrediction struct {
	Probability float64 `json:"probability"`
	Confidence  float64 `json:"confidence"`
	SampleSize  int     `json:"sample_size"`
}

// TimingInsights is the full timing picture served for one habit.
type TimingInsights struct {
	Hourly        [24]TimingStats              `json:"hourly"`
	ByWeekday     map[time.Weekday]TimingStats `json:"by_weekday"`
	OptimalWindow TimeWindow                   `json:"optimal_window"`
	BestWindows   []ScoredWindow               `json:"best_windows"`
}
