package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/model"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/schedule"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/timeslot"
)

// GetSchedule handles GET /api/schedule?from=&to=. Defaults to the next two
// weeks starting at the current business date.
func (h *Handler) GetSchedule(c *gin.Context) {
	now := h.now()
	from := c.DefaultQuery("from", timeslot.BusinessDate(now))
	to := c.DefaultQuery("to", now.AddDate(0, 0, 14).Format(timeslot.DateLayout))
	for _, d := range []string{from, to} {
		if _, err := time.Parse(timeslot.DateLayout, d); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD"})
			return
		}
	}

	events, err := h.store.EventsBetween(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

type createEventRequest struct {
	Date      string `json:"date" binding:"required"`
	StartHour *int   `json:"start_hour" binding:"required"`
	EndHour   *int   `json:"end_hour" binding:"required"`
	Title     string `json:"title"`
	Locked    bool   `json:"locked"`
}

// CreateScheduleEvent handles POST /api/admin/schedule/events. Manually entered
// events take display-space hours directly (a late-night block is 24-29).
func (h *Handler) CreateScheduleEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := time.Parse(timeslot.DateLayout, req.Date); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD"})
		return
	}
	if *req.StartHour < 0 || *req.EndHour > 30 || *req.EndHour <= *req.StartHour {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "hours must satisfy 0 <= start < end <= 30 in display space"})
		return
	}

	event := model.ScheduleEvent{
		Date:       req.Date,
		StartHour:  *req.StartHour,
		EndHour:    *req.EndHour,
		Category:   model.EventManual,
		Title:      req.Title,
		Provenance: model.ProvenanceManual,
		Locked:     req.Locked,
	}
	if err := h.store.CreateScheduleEvent(c.Request.Context(), &event); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// DeleteScheduleEvent handles DELETE /api/admin/schedule/events/:id. Locked events
// are refused; deletion is always explicit, never automatic.
func (h *Handler) DeleteScheduleEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid event ID"})
		return
	}
	if err := h.store.DeleteScheduleEvent(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GenerateSchedule handles POST /api/admin/schedule/generate, running one
// recurrence rule on demand and reporting created and skipped dates.
func (h *Handler) GenerateSchedule(c *gin.Context) {
	var rule schedule.Rule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.runner.ApplyRule(c.Request.Context(), rule)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ReplaceRuleSchedule handles POST /api/admin/schedule/rules/:name/replace.
// Used after editing a rule's hours or weekdays: its unlocked blocks are
// regenerated under the new definition, locked and manual entries survive.
func (h *Handler) ReplaceRuleSchedule(c *gin.Context) {
	var rule schedule.Rule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rule.Name = c.Param("name")

	result, err := h.runner.ReplaceRule(c.Request.Context(), rule)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
