package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
)

// PostgresGroupRepository assembles the membership view: the group row plus
// its member ids and the habits counted toward its shared metrics.
type PostgresGroupRepository struct {
	db *sqlx.DB
}

func NewPostgresGroupRepository(db *sqlx.DB) *PostgresGroupRepository {
	return &PostgresGroupRepository{db: db}
}

func (r *PostgresGroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	var g domain.Group

	err := r.db.GetContext(ctx, &g, `SELECT id, name FROM groups WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, fmt.Errorf("group lookup failed: %w", err)
	}

	if err := r.loadMembership(ctx, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *PostgresGroupRepository) ListAll(ctx context.Context) ([]*domain.Group, error) {
	groups := []*domain.Group{}

	err := r.db.SelectContext(ctx, &groups, `SELECT id, name FROM groups ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("group list query failed: %w", err)
	}

	for _, g := range groups {
		if err := r.loadMembership(ctx, g); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func (r *PostgresGroupRepository) loadMembership(ctx context.Context, g *domain.Group) error {
	memberQuery := `SELECT user_id FROM group_members WHERE group_id = $1 ORDER BY user_id`
	if err := r.db.SelectContext(ctx, &g.MemberIDs, memberQuery, g.ID); err != nil {
		return fmt.Errorf("group member query failed: %w", err)
	}

	habitQuery := `SELECT id FROM habits WHERE group_id = $1 AND archived_at IS NULL ORDER BY id`
	if err := r.db.SelectContext(ctx, &g.HabitIDs, habitQuery, g.ID); err != nil {
		return fmt.Errorf("group habit query failed: %w", err)
	}
	return nil
}
