package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrHabitTitleEmpty    = errors.New("habit title cannot be empty")
	ErrHabitTitleTooLong  = errors.New("habit title is too long (max 100 chars)")
	ErrHabitInvalidUserID = errors.New("invalid user id")
	ErrHabitNotFound      = errors.New("habit not found")
)

const MaxTitleLen = 100

// Habit is the identity the analytics are keyed on. Habit definitions are
// owned by the tracking service; this engine needs only enough of them to
// enumerate recompute targets and verify ownership.
type Habit struct {
	ID         string     `json:"id" db:"id"`
	UserID     string     `json:"user_id" db:"user_id"`
	GroupID    *string    `json:"group_id,omitempty" db:"group_id"`
	Title      string     `json:"title" db:"title"`
	StartDate  time.Time  `json:"start_date" db:"start_date"`
	ArchivedAt *time.Time `json:"archived_at,omitempty" db:"archived_at"`
}

func NewHabit(userID, title string) (*Habit, error) {
	if userID == "" {
		return nil, ErrHabitInvalidUserID
	}

	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return nil, ErrHabitTitleEmpty
	}
	if len(trimmed) > MaxTitleLen {
		return nil, ErrHabitTitleTooLong
	}

	return &Habit{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     trimmed,
		StartDate: time.Now().UTC(),
	}, nil
}

func (h *Habit) IsArchived() bool {
	return h.ArchivedAt != nil
}
