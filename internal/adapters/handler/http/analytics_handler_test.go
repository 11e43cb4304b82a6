package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/comitanigiacomo/kanso-insights-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-insights-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-insights-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/services"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func completedEvent(habitID, userID string, date time.Time) *domain.CompletionEvent {
	at := date.Add(8 * time.Hour)
	return &domain.CompletionEvent{
		ID:          habitID + "/" + date.Format(domain.DayFormat),
		HabitID:     habitID,
		UserID:      userID,
		Date:        date,
		Completed:   true,
		CompletedAt: &at,
		CreatedAt:   date,
		UpdatedAt:   date,
	}
}

type analyticsFixture struct {
	router        *gin.Engine
	events        *repository.InMemoryEventRepository
	analyticsRepo *repository.InMemoryAnalyticsRepository
}

func setupAnalyticsRouter() analyticsFixture {
	gin.SetMode(gin.TestMode)

	habitRepo := repository.NewInMemoryHabitRepository(
		&domain.Habit{ID: "habit-1", UserID: "user-1", Title: "Meditate", StartDate: day(2024, 1, 1)},
		&domain.Habit{ID: "habit-2", UserID: "user-2", Title: "Run", StartDate: day(2024, 1, 1)},
	)
	eventRepo := repository.NewInMemoryEventRepository()
	analyticsRepo := repository.NewInMemoryAnalyticsRepository()

	svc := services.NewAnalyticsService(habitRepo, eventRepo, analyticsRepo)
	handler := adapterHTTP.NewAnalyticsHandler(svc)

	r := gin.New()

	r.Use(func(c *gin.Context) {
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			c.Set(middleware.ContextUserIDKey, userID)
		}
		c.Next()
	})

	api := r.Group("/api/v1")
	handler.RegisterRoutes(api)

	return analyticsFixture{router: r, events: eventRepo, analyticsRepo: analyticsRepo}
}

func TestGetHabitMetricsEndpoint(t *testing.T) {
	t.Run("Success: Returns 200 with computed metrics", func(t *testing.T) {
		f := setupAnalyticsRouter()
		for i := 0; i < 10; i++ {
			f.events.Seed(completedEvent("habit-1", "user-1", day(2024, 1, 1+i)))
		}

		req, _ := http.NewRequest("GET", "/api/v1/analytics/habits/habit-1?start_date=2024-01-01&end_date=2024-01-10", nil)
		req.Header.Set("X-User-ID", "user-1")
		w := httptest.NewRecorder()

		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var metrics domain.HabitMetrics
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &metrics))
		assert.Equal(t, "habit-1", metrics.HabitID)
		assert.Equal(t, 10, metrics.CurrentStreak)
		assert.InDelta(t, 1.0, metrics.SuccessRate, 1e-9)
	})

	t.Run("Fail: 404 for someone else's habit", func(t *testing.T) {
		f := setupAnalyticsRouter()

		req, _ := http.NewRequest("GET", "/api/v1/analytics/habits/habit-2?start_date=2024-01-01&end_date=2024-01-10", nil)
		req.Header.Set("X-User-ID", "user-1")
		w := httptest.NewRecorder()

		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Fail: 400 on malformed dates", func(t *testing.T) {
		f := setupAnalyticsRouter()

		req, _ := http.NewRequest("GET", "/api/v1/analytics/habits/habit-1?start_date=01-01-2024", nil)
		req.Header.Set("X-User-ID", "user-1")
		w := httptest.NewRecorder()

		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid start_date format")
	})

	t.Run("Fail: 400 on inverted range", func(t *testing.T) {
		f := setupAnalyticsRouter()

		req, _ := http.NewRequest("GET", "/api/v1/analytics/habits/habit-1?start_date=2024-02-01&end_date=2024-01-01", nil)
		req.Header.Set("X-User-ID", "user-1")
		w := httptest.NewRecorder()

		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetHabitSnapshotEndpoint(t *testing.T) {
	t.Run("Success: Returns the persisted snapshot", func(t *testing.T) {
		f := setupAnalyticsRouter()
		require.NoError(t, f.analyticsRepo.UpsertHabitAnalytics(nil, &domain.HabitAnalytics{
			ID:             "snap-1",
			UserID:         "user-1",
			HabitID:        "habit-1",
			FormationStage: domain.StageStability,
			LastAnalyzed:   day(2024, 6, 1),
		}))

		req, _ := http.NewRequest("GET", "/api/v1/analytics/habits/habit-1/snapshot", nil)
		req.Header.Set("X-User-ID", "user-1")
		w := httptest.NewRecorder()

		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "STABILITY")
	})

	t.Run("Fail: 404 when no snapshot exists yet", func(t *testing.T) {
		f := setupAnalyticsRouter()

		req, _ := http.NewRequest("GET", "/api/v1/analytics/habits/habit-1/snapshot", nil)
		req.Header.Set("X-User-ID", "user-1")
		w := httptest.NewRecorder()

		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetTimingInsightsEndpoint(t *testing.T) {
	t.Run("Success: Returns windows built from the history", func(t *testing.T) {
		f := setupAnalyticsRouter()
		for i := 0; i < 7; i++ {
			f.events.Seed(completedEvent("habit-1", "user-1", day(2024, 1, 1+i)))
		}

		req, _ := http.NewRequest("GET", "/api/v1/analytics/habits/habit-1/timing?start_date=2024-01-01&end_date=2024-01-07", nil)
		req.Header.Set("X-User-ID", "user-1")
		w := httptest.NewRecorder()

		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var insights domain.TimingInsights
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &insights))
		assert.Equal(t, 7, insights.Hourly[8].TotalAttempts)
		assert.NotEmpty(t, insights.BestWindows)
	})
}

func TestPredictSuccessEndpoint(t *testing.T) {
	t.Run("Success: Returns a prediction for a seen slot", func(t *testing.T) {
		f := setupAnalyticsRouter()
		for i := 0; i < 14; i++ {
			f.events.Seed(completedEvent("habit-1", "user-1", day(2024, 1, 1+i)))
		}

		req, _ := http.NewRequest("GET", "/api/v1/analytics/habits/habit-1/prediction?start_date=2024-01-01&end_date=2024-01-14&hour=8&weekday=1", nil)
		req.Header.Set("X-User-ID", "user-1")
		w := httptest.NewRecorder()

		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var prediction domain.SuccessPrediction
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prediction))
		assert.InDelta(t, 1.0, prediction.Probability, 1e-9)
	})

	t.Run("Fail: 400 on an out-of-range hour", func(t *testing.T) {
		f := setupAnalyticsRouter()

		req, _ := http.NewRequest("GET", "/api/v1/analytics/habits/habit-1/prediction?hour=24", nil)
		req.Header.Set("X-User-ID", "user-1")
		w := httptest.NewRecorder()

		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetRecommendationsEndpoint(t *testing.T) {
	t.Run("Success: Returns the coaching plan", func(t *testing.T) {
		f := setupAnalyticsRouter()
		f.events.Seed(
			completedEvent("habit-1", "user-1", day(2024, 1, 1)),
			completedEvent("habit-1", "user-1", day(2024, 1, 22)),
		)

		req, _ := http.NewRequest("GET", "/api/v1/analytics/habits/habit-1/recommendations?start_date=2024-01-01&end_date=2024-01-28", nil)
		req.Header.Set("X-User-ID", "user-1")
		w := httptest.NewRecorder()

		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var set domain.RecommendationSet
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &set))
		assert.NotEmpty(t, set.Strategies)
		assert.NotEmpty(t, set.Barriers)
		assert.Len(t, set.Milestones, 7)
	})
}

func TestGetCorrelationsEndpoint(t *testing.T) {
	t.Run("Success: Returns only the caller's correlations", func(t *testing.T) {
		f := setupAnalyticsRouter()
		require.NoError(t, f.analyticsRepo.AppendCorrelation(nil, &domain.HabitCorrelation{
			ID: "c1", UserID: "user-1", HabitA: "habit-1", HabitB: "habit-9",
			Coefficient: 0.8, Type: domain.CorrelationPositive,
		}))
		require.NoError(t, f.analyticsRepo.AppendCorrelation(nil, &domain.HabitCorrelation{
			ID: "c2", UserID: "user-2",
		}))

		req, _ := http.NewRequest("GET", "/api/v1/analytics/correlations", nil)
		req.Header.Set("X-User-ID", "user-1")
		w := httptest.NewRecorder()

		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var list []*domain.HabitCorrelation
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, "c1", list[0].ID)
	})
}
