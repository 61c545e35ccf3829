package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zhanat-dev/observation-api/internal/service"
	"github.com/zhanat-dev/observation-api/pkg/response"
)

// StatsHandler exposes derived observation statistics.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs a new StatsHandler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Overview godoc
// @Summary Observation statistics overview
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats/observations [get]
func (h *StatsHandler) Overview(c *gin.Context) {
	overview, err := h.stats.Overview(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}
