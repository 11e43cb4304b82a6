package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/services"
)

type GroupHandler struct {
	svc *services.GroupService
}

func NewGroupHandler(svc *services.GroupService) *GroupHandler {
	return &GroupHandler{svc: svc}
}

func (h *GroupHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/groups/:groupID/dynamics", h.GetDynamics)
	r.GET("/groups/:groupID/metrics/latest", h.GetLatestMetrics)
	r.GET("/groups/:groupID/challenges", h.GetChallenges)
}

func (h *GroupHandler) GetDynamics(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)
	dateRange, ok := parseRange(c)
	if !ok {
		return
	}

	dynamics, err := h.svc.GetDynamics(c.Request.Context(), services.GroupInput{
		UserID:  userID,
		GroupID: c.Param("groupID"),
		Range:   dateRange,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dynamics)
}

func (h *GroupHandler) GetLatestMetrics(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)

	metrics, err := h.svc.GetLatestMetrics(c.Request.Context(), userID, c.Param("groupID"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, metrics)
}

func (h *GroupHandler) GetChallenges(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)
	dateRange, ok := parseRange(c)
	if !ok {
		return
	}

	challenges, err := h.svc.GetChallenges(c.Request.Context(), services.GroupInput{
		UserID:  userID,
		GroupID: c.Param("groupID"),
		Range:   dateRange,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, challenges)
}
