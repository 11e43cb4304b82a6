package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/services"
)

const (
	defaultRangeDays = 30
	maxRangeDays     = 366
)

type AnalyticsHandler struct {
	svc *services.AnalyticsService
}

func NewAnalyticsHandler(svc *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

func (h *AnalyticsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/analytics/habits/:habitID", h.GetHabitMetrics)
	r.GET("/analytics/habits/:habitID/snapshot", h.GetHabitSnapshot)
	r.GET("/analytics/habits/:habitID/timing", h.GetTimingInsights)
	r.GET("/analytics/habits/:habitID/prediction", h.PredictSuccess)
	r.GET("/analytics/habits/:habitID/recommendations", h.GetRecommendations)
	r.GET("/analytics/correlations", h.GetCorrelations)
}

// parseRange reads start_date/end_date query params (YYYY-MM-DD). The end
// defaults to today and the start to a 30-day lookback.
func parseRange(c *gin.Context) (domain.DateRange, bool) {
	endStr := c.Query("end_date")
	startStr := c.Query("start_date")

	var start, end time.Time
	var err error

	if endStr == "" {
		end = domain.Day(time.Now().UTC())
	} else {
		end, err = time.Parse(domain.DayFormat, endStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date format, expected YYYY-MM-DD"})
			return domain.DateRange{}, false
		}
	}

	if startStr == "" {
		start = end.AddDate(0, 0, -(defaultRangeDays - 1))
	} else {
		start, err = time.Parse(domain.DayFormat, startStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date format, expected YYYY-MM-DD"})
			return domain.DateRange{}, false
		}
	}

	if start.After(end) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date cannot be after end_date"})
		return domain.DateRange{}, false
	}

	if end.Sub(start).Hours()/24 > maxRangeDays {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date range too large, max 1 year allowed"})
		return domain.DateRange{}, false
	}

	return domain.DateRange{Start: start, End: end}, true
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrHabitNotFound),
		errors.Is(err, domain.ErrGroupNotFound),
		errors.Is(err, domain.ErrAnalyticsNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (h *AnalyticsHandler) GetHabitMetrics(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)
	dateRange, ok := parseRange(c)
	if !ok {
		return
	}

	metrics, err := h.svc.GetHabitMetrics(c.Request.Context(), services.MetricsInput{
		UserID:  userID,
		HabitID: c.Param("habitID"),
		Range:   dateRange,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, metrics)
}

func (h *AnalyticsHandler) GetHabitSnapshot(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)

	snapshot, err := h.svc.GetHabitSnapshot(c.Request.Context(), userID, c.Param("habitID"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (h *AnalyticsHandler) GetTimingInsights(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)
	dateRange, ok := parseRange(c)
	if !ok {
		return
	}

	insights, err := h.svc.GetTimingInsights(c.Request.Context(), services.MetricsInput{
		UserID:  userID,
		HabitID: c.Param("habitID"),
		Range:   dateRange,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, insights)
}

func (h *AnalyticsHandler) PredictSuccess(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)
	dateRange, ok := parseRange(c)
	if !ok {
		return
	}

	hour, err := strconv.Atoi(c.DefaultQuery("hour", "-1"))
	if err != nil || hour < 0 || hour > 23 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hour must be an integer between 0 and 23"})
		return
	}

	weekday, err := strconv.Atoi(c.DefaultQuery("weekday", strconv.Itoa(int(time.Now().UTC().Weekday()))))
	if err != nil || weekday < 0 || weekday > 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weekday must be an integer between 0 (Sunday) and 6"})
		return
	}

	prediction, err := h.svc.PredictSuccess(c.Request.Context(), services.PredictionInput{
		UserID:  userID,
		HabitID: c.Param("habitID"),
		Range:   dateRange,
		Hour:    hour,
		Weekday: weekday,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, prediction)
}

func (h *AnalyticsHandler) GetRecommendations(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)
	dateRange, ok := parseRange(c)
	if !ok {
		return
	}

	set, err := h.svc.GetRecommendations(c.Request.Context(), services.MetricsInput{
		UserID:  userID,
		HabitID: c.Param("habitID"),
		Range:   dateRange,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, set)
}

func (h *AnalyticsHandler) GetCorrelations(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)

	correlations, err := h.svc.GetCorrelations(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, correlations)
}
