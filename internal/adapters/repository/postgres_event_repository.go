package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresEventRepository reads the completion event store. The tracking
// service owns the table; this engine never writes to it.
type PostgresEventRepository struct {
	db *sqlx.DB
}

func NewPostgresEventRepository(db *sqlx.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

func (r *PostgresEventRepository) ListByHabitID(ctx context.Context, habitID string, from, to time.Time) ([]*domain.CompletionEvent, error) {
	events := []*domain.CompletionEvent{}

	query := `
		SELECT * FROM completion_events
		WHERE habit_id = $1
		  AND completion_date >= $2
		  AND completion_date <= $3
		ORDER BY completion_date ASC`

	err := r.db.SelectContext(ctx, &events, query, habitID, domain.Day(from), domain.Day(to))
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *PostgresEventRepository) ListByUserID(ctx context.Context, userID string, from, to time.Time) ([]*domain.CompletionEvent, error) {
	events := []*domain.CompletionEvent{}

	query := `
		SELECT * FROM completion_events
		WHERE user_id = $1
		  AND completion_date >= $2
		  AND completion_date <= $3
		ORDER BY completion_date ASC`

	err := r.db.SelectContext(ctx, &events, query, userID, domain.Day(from), domain.Day(to))
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *PostgresEventRepository) ListByGroupID(ctx context.Context, groupID string, from, to time.Time) ([]*domain.CompletionEvent, error) {
	events := []*domain.CompletionEvent{}

	query := `
		SELECT e.* FROM completion_events e
		JOIN habits h ON h.id = e.habit_id
		WHERE h.group_id = $1
		  AND e.completion_date >= $2
		  AND e.completion_date <= $3
		ORDER BY e.completion_date ASC`

	err := r.db.SelectContext(ctx, &events, query, groupID, domain.Day(from), domain.Day(to))
	if err != nil {
		return nil, err
	}
	return events, nil
}
