package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetStats handles the admin dashboard summary for one business date.
func (h *Handler) GetStats(c *gin.Context) {
	date, ok := h.parseDate(c, "date")
	if !ok {
		return
	}

	stats, err := h.store.StatsForDate(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}

	// Utilization counts booked hours against the whole venue window. With
	// no devices registered the day has no capacity to utilize.
	utilization := 0.0
	if stats.DeviceCount > 0 {
		capacity := h.venue.Window().Duration() * int(stats.DeviceCount)
		if capacity > 0 {
			utilization = float64(stats.BookedHours) / float64(capacity)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"date":         stats.Date,
		"by_status":    stats.ByStatus,
		"booked_hours": stats.BookedHours,
		"event_count":  stats.EventCount,
		"device_count": stats.DeviceCount,
		"utilization":  utilization,
	})
}
