package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
)

// PostgresAnalyticsRepository is the snapshot sink. Habit snapshots are
// upserted by (user_id, habit_id); correlation and group metrics rows are
// append-only history pruned on the retention schedule.
type PostgresAnalyticsRepository struct {
	db *sqlx.DB
}

func NewPostgresAnalyticsRepository(db *sqlx.DB) *PostgresAnalyticsRepository {
	return &PostgresAnalyticsRepository{db: db}
}

func (r *PostgresAnalyticsRepository) UpsertHabitAnalytics(ctx context.Context, snapshot *domain.HabitAnalytics) error {
	query := `
		INSERT INTO habit_analytics (
			id, user_id, habit_id,
			success_rate, consistency_score, habit_strength, formation_stage,
			last_analyzed
		) VALUES (
			:id, :user_id, :habit_id,
			:success_rate, :consistency_score, :habit_strength, :formation_stage,
			:last_analyzed
		)
		ON CONFLICT (user_id, habit_id) DO UPDATE SET
			success_rate = EXCLUDED.success_rate,
			consistency_score = EXCLUDED.consistency_score,
			habit_strength = EXCLUDED.habit_strength,
			formation_stage = EXCLUDED.formation_stage,
			last_analyzed = EXCLUDED.last_analyzed`

	_, err := r.db.NamedExecContext(ctx, query, snapshot)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return errors.New("referenced habit or user does not exist")
		}
		return fmt.Errorf("habit analytics upsert failed: %w", err)
	}
	return nil
}

func (r *PostgresAnalyticsRepository) GetHabitAnalytics(ctx context.Context, userID, habitID string) (*domain.HabitAnalytics, error) {
	var snapshot domain.HabitAnalytics

	query := `SELECT * FROM habit_analytics WHERE user_id = $1 AND habit_id = $2`

	err := r.db.GetContext(ctx, &snapshot, query, userID, habitID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAnalyticsNotFound
		}
		return nil, fmt.Errorf("habit analytics lookup failed: %w", err)
	}
	return &snapshot, nil
}

func (r *PostgresAnalyticsRepository) AppendCorrelation(ctx context.Context, corr *domain.HabitCorrelation) error {
	query := `
		INSERT INTO habit_correlations (
			id, user_id, habit_a, habit_b,
			coefficient, correlation_type, confidence, calculated_at
		) VALUES (
			:id, :user_id, :habit_a, :habit_b,
			:coefficient, :correlation_type, :confidence, :calculated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, corr)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("correlation row already exists: %w", err)
		}
		return fmt.Errorf("correlation insert failed: %w", err)
	}
	return nil
}

func (r *PostgresAnalyticsRepository) ListCorrelationsByUserID(ctx context.Context, userID string) ([]*domain.HabitCorrelation, error) {
	correlations := []*domain.HabitCorrelation{}

	query := `
		SELECT * FROM habit_correlations
		WHERE user_id = $1
		ORDER BY calculated_at DESC, habit_a ASC, habit_b ASC`

	err := r.db.SelectContext(ctx, &correlations, query, userID)
	if err != nil {
		return nil, fmt.Errorf("correlation list query failed: %w", err)
	}
	return correlations, nil
}

func (r *PostgresAnalyticsRepository) AppendGroupMetrics(ctx context.Context, metrics *domain.GroupMetrics) error {
	query := `
		INSERT INTO group_metrics (
			id, group_id,
			group_streak, momentum_score, synergistic_score, cohesion_score,
			calculated_at
		) VALUES (
			:id, :group_id,
			:group_streak, :momentum_score, :synergistic_score, :cohesion_score,
			:calculated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, metrics)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return errors.New("referenced group does not exist")
		}
		return fmt.Errorf("group metrics insert failed: %w", err)
	}
	return nil
}

func (r *PostgresAnalyticsRepository) LatestGroupMetrics(ctx context.Context, groupID string) (*domain.GroupMetrics, error) {
	var metrics domain.GroupMetrics

	query := `
		SELECT * FROM group_metrics
		WHERE group_id = $1
		ORDER BY calculated_at DESC
		LIMIT 1`

	err := r.db.GetContext(ctx, &metrics, query, groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAnalyticsNotFound
		}
		return nil, fmt.Errorf("group metrics lookup failed: %w", err)
	}
	return &metrics, nil
}

func (r *PostgresAnalyticsRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var pruned int64

	res, err := r.db.ExecContext(ctx, `DELETE FROM habit_correlations WHERE calculated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("correlation prune failed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		pruned += n
	}

	res, err = r.db.ExecContext(ctx, `DELETE FROM group_metrics WHERE calculated_at < $1`, cutoff)
	if err != nil {
		return pruned, fmt.Errorf("group metrics prune failed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		pruned += n
	}

	return pruned, nil
}
