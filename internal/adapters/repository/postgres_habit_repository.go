package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
)

// PostgresHabitRepository resolves habit identities for ownership checks and
// enumerates recompute targets for the orchestrator.
type PostgresHabitRepository struct {
	db *sqlx.DB
}

func NewPostgresHabitRepository(db *sqlx.DB) *PostgresHabitRepository {
	return &PostgresHabitRepository{db: db}
}

func (r *PostgresHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	var h domain.Habit

	query := `SELECT id, user_id, group_id, title, start_date, archived_at FROM habits WHERE id = $1`

	err := r.db.GetContext(ctx, &h, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHabitNotFound
		}
		return nil, fmt.Errorf("habit lookup failed: %w", err)
	}
	return &h, nil
}

func (r *PostgresHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	habits := []*domain.Habit{}

	query := `
		SELECT id, user_id, group_id, title, start_date, archived_at
		FROM habits
		WHERE user_id = $1 AND archived_at IS NULL
		ORDER BY start_date ASC`

	err := r.db.SelectContext(ctx, &habits, query, userID)
	if err != nil {
		return nil, fmt.Errorf("habit list query failed: %w", err)
	}
	return habits, nil
}

func (r *PostgresHabitRepository) ListAll(ctx context.Context) ([]*domain.Habit, error) {
	habits := []*domain.Habit{}

	query := `
		SELECT id, user_id, group_id, title, start_date, archived_at
		FROM habits
		WHERE archived_at IS NULL
		ORDER BY start_date ASC`

	err := r.db.SelectContext(ctx, &habits, query)
	if err != nil {
		return nil, fmt.Errorf("habit list query failed: %w", err)
	}
	return habits, nil
}

func (r *PostgresHabitRepository) ListActiveSince(ctx context.Context, since time.Time) ([]*domain.Habit, error) {
	habits := []*domain.Habit{}

	query := `
		SELECT DISTINCT h.id, h.user_id, h.group_id, h.title, h.start_date, h.archived_at
		FROM habits h
		JOIN completion_events e ON e.habit_id = h.id
		WHERE h.archived_at IS NULL
		  AND e.updated_at > $1`

	err := r.db.SelectContext(ctx, &habits, query, since)
	if err != nil {
		return nil, fmt.Errorf("active habit query failed: %w", err)
	}
	return habits, nil
}
