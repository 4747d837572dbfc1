package handlers

import (
	"net/http"

	"github.com/hiimzein/connect4/internal/services"
	"github.com/hiimzein/connect4/internal/utils"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

// NewAnalyticsHandler accepts a nil service when no database is configured.
func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// GET /api/stats
func (ah *AnalyticsHandler) GetStatistics(c *gin.Context) {
	if ah.analyticsService == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "STATS_UNAVAILABLE", "Statistics are not enabled")
		return
	}
	stats, err := ah.analyticsService.GetStatistics(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "STATS_ERROR", "Failed to fetch statistics")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, stats)
}
