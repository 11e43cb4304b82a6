package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
)

var _ domain.AnalyticsRepository = (*CachedAnalyticsRepository)(nil)

const analyticsCacheTTL = 30 * time.Minute

// CachedAnalyticsRepository wraps the Postgres sink with a Redis read cache.
// Snapshots change only on batch recomputes, so a short TTL plus write
// invalidation keeps readers off the database between runs.
type CachedAnalyticsRepository struct {
	next  domain.AnalyticsRepository
	cache *redis.Client
}

func NewCachedAnalyticsRepository(next domain.AnalyticsRepository, cache *redis.Client) *CachedAnalyticsRepository {
	return &CachedAnalyticsRepository{
		next:  next,
		cache: cache,
	}
}

func habitAnalyticsKey(userID, habitID string) string {
	return fmt.Sprintf("analytics:habit:%s:%s", userID, habitID)
}

func correlationsKey(userID string) string {
	return fmt.Sprintf("analytics:correlations:%s", userID)
}

func groupMetricsKey(groupID string) string {
	return fmt.Sprintf("analytics:group:%s", groupID)
}

func (r *CachedAnalyticsRepository) invalidate(ctx context.Context, key string) {
	if err := r.cache.Del(ctx, key).Err(); err != nil {
		log.Printf("[CACHE] Failed to invalidate %s: %v", key, err)
	}
}

func (r *CachedAnalyticsRepository) fill(ctx context.Context, key string, value interface{}) {
	if data, err := json.Marshal(value); err == nil {
		if setErr := r.cache.Set(ctx, key, data, analyticsCacheTTL).Err(); setErr != nil {
			log.Printf("[CACHE] Redis set error: %v", setErr)
		}
	}
}

func (r *CachedAnalyticsRepository) GetHabitAnalytics(ctx context.Context, userID, habitID string) (*domain.HabitAnalytics, error) {
	key := habitAnalyticsKey(userID, habitID)

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		var snapshot domain.HabitAnalytics
		if err := json.Unmarshal([]byte(val), &snapshot); err == nil {
			return &snapshot, nil
		}
		log.Printf("[CACHE] Corrupted data at %s, cleaning up key", key)
		r.cache.Del(ctx, key)
	} else if err != redis.Nil {
		log.Printf("[CACHE] Redis read error: %v", err)
	}

	snapshot, err := r.next.GetHabitAnalytics(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	r.fill(ctx, key, snapshot)
	return snapshot, nil
}

func (r *CachedAnalyticsRepository) ListCorrelationsByUserID(ctx context.Context, userID string) ([]*domain.HabitCorrelation, error) {
	key := correlationsKey(userID)

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		var correlations []*domain.HabitCorrelation
		if err := json.Unmarshal([]byte(val), &correlations); err == nil {
			return correlations, nil
		}
		log.Printf("[CACHE] Corrupted data at %s, cleaning up key", key)
		r.cache.Del(ctx, key)
	} else if err != redis.Nil {
		log.Printf("[CACHE] Redis read error: %v", err)
	}

	correlations, err := r.next.ListCorrelationsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	r.fill(ctx, key, correlations)
	return correlations, nil
}

func (r *CachedAnalyticsRepository) LatestGroupMetrics(ctx context.Context, groupID string) (*domain.GroupMetrics, error) {
	key := groupMetricsKey(groupID)

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		var metrics domain.GroupMetrics
		if err := json.Unmarshal([]byte(val), &metrics); err == nil {
			return &metrics, nil
		}
		log.Printf("[CACHE] Corrupted data at %s, cleaning up key", key)
		r.cache.Del(ctx, key)
	} else if err != redis.Nil {
		log.Printf("[CACHE] Redis read error: %v", err)
	}

	metrics, err := r.next.LatestGroupMetrics(ctx, groupID)
	if err != nil {
		return nil, err
	}

	r.fill(ctx, key, metrics)
	return metrics, nil
}

func (r *CachedAnalyticsRepository) UpsertHabitAnalytics(ctx context.Context, snapshot *domain.HabitAnalytics) error {
	if err := r.next.UpsertHabitAnalytics(ctx, snapshot); err != nil {
		return err
	}
	r.invalidate(ctx, habitAnalyticsKey(snapshot.UserID, snapshot.HabitID))
	return nil
}

func (r *CachedAnalyticsRepository) AppendCorrelation(ctx context.Context, corr *domain.HabitCorrelation) error {
	if err := r.next.AppendCorrelation(ctx, corr); err != nil {
		return err
	}
	r.invalidate(ctx, correlationsKey(corr.UserID))
	return nil
}

func (r *CachedAnalyticsRepository) AppendGroupMetrics(ctx context.Context, metrics *domain.GroupMetrics) error {
	if err := r.next.AppendGroupMetrics(ctx, metrics); err != nil {
		return err
	}
	r.invalidate(ctx, groupMetricsKey(metrics.GroupID))
	return nil
}

func (r *CachedAnalyticsRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	// Pruned rows age out of the cache on their own TTL.
	return r.next.PruneBefore(ctx, cutoff)
}
