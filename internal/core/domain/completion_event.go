package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidEvent = errors.New("invalid completion event data")
)

// CompletionEvent is one record of whether a habit was performed on a given
// day by a given user. The event store guarantees at most one row per
// (habit, user, date); toggling a day flips Completed and refreshes
// CompletedAt. This engine only reads events, it never writes them.
type CompletionEvent struct {
	ID      string `json:"id" db:"id"`
	HabitID string `json:"habit_id" db:"habit_id"`
	UserID  string `json:"user_id" db:"user_id"`

	Date        time.Time  `json:"date" db:"completion_date"`
	Completed   bool       `json:"completed" db:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	Notes       string     `json:"notes" db:"notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (e *CompletionEvent) Validate() error {
	if strings.TrimSpace(e.HabitID) == "" {
		return errors.New("habit_id is required")
	}
	if strings.TrimSpace(e.UserID) == "" {
		return errors.New("user_id is required")
	}
	if e.Date.IsZero() {
		return errors.New("date is required")
	}
	return nil
}

// DayKey returns the calendar-day identity of the event in UTC.
func (e *CompletionEvent) DayKey() string {
	return e.Date.UTC().Format(DayFormat)
}

// Hour returns the hour of day the completion happened, or -1 when the
// event carries no timestamp.
func (e *CompletionEvent) Hour() int {
	if e.CompletedAt == nil {
		return -1
	}
	return e.CompletedAt.UTC().Hour()
}

const DayFormat = "2006-01-02"

// Day truncates a time to UTC midnight. All day arithmetic in the engines
// goes through this so daylight-saving offsets never shift a bucket.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
