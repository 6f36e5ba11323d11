package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAnalyticsSummary is the handler for GET /api/analytics/summary (admin)
func (h *Handlers) GetAnalyticsSummary(c *gin.Context) {
	summary, err := h.Analytics.Summary(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": summary})
}

// GetDailySales is the handler for GET /api/analytics/daily-sales?startDate=YYYY-MM-DD&endDate=YYYY-MM-DD (admin)
func (h *Handlers) GetDailySales(c *gin.Context) {
	days, err := h.Analytics.DailySales(c.Request.Context(), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": days})
}
