package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/events"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/model"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/schedule"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/timeslot"
)

type createReservationRequest struct {
	DeviceID  int64          `json:"device_id" binding:"required"`
	Date      string         `json:"date" binding:"required"`
	StartHour *int           `json:"start_hour" binding:"required"`
	EndHour   *int           `json:"end_hour" binding:"required"`
	SlotType  model.SlotType `json:"slot_type"`
	UserName  string         `json:"user_name" binding:"required"`
	Contact   string         `json:"contact"`
	Note      string         `json:"note"`
}

// CreateReservation handles POST /api/reservations.
func (h *Handler) CreateReservation(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := time.Parse(timeslot.DateLayout, req.Date); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD"})
		return
	}
	if _, err := timeslot.NormalizeRange(*req.StartHour, *req.EndHour); err != nil {
		respondError(c, err)
		return
	}
	if req.SlotType == "" {
		req.SlotType = model.SlotDaytime
	}

	ctx := c.Request.Context()
	device, err := h.store.DeviceByID(ctx, req.DeviceID)
	if err != nil {
		respondError(c, err)
		return
	}
	if device.Status == model.DeviceMaintenance || device.Status == model.DeviceDisabled {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "device is not bookable"})
		return
	}

	reservation := model.Reservation{
		DeviceID:  req.DeviceID,
		Date:      req.Date,
		StartHour: *req.StartHour,
		EndHour:   *req.EndHour,
		SlotType:  req.SlotType,
		UserName:  req.UserName,
		Contact:   req.Contact,
		Note:      req.Note,
	}
	// The store re-checks overlap inside the insert transaction, so a race
	// with a concurrent booking still surfaces as a conflict here.
	if err := h.store.CreateReservation(ctx, &reservation); err != nil {
		respondError(c, err)
		return
	}

	h.cache.Invalidate(ctx, reservation.DeviceID)
	c.JSON(http.StatusCreated, reservation)
}

// ListReservations handles GET /api/reservations?date=.
func (h *Handler) ListReservations(c *gin.Context) {
	date, ok := h.parseDate(c, "date")
	if !ok {
		return
	}
	rs, err := h.store.ReservationsForDate(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rs)
}

// ApproveReservation handles POST /api/admin/reservations/:id/approve.
// Approval derives the implied business-hours block, persists it, notifies
// device subscribers and emits an analytics event.
func (h *Handler) ApproveReservation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid reservation ID"})
		return
	}

	ctx := c.Request.Context()
	reservation, err := h.store.TransitionReservation(ctx, id, model.ReservationApproved)
	if err != nil {
		respondError(c, err)
		return
	}

	var created *model.ScheduleEvent
	event, err := schedule.FromApprovedReservation(reservation)
	if err != nil {
		respondError(c, err)
		return
	}
	if event != nil {
		// SaveScheduleEvents is idempotent on (date, provenance), so a
		// repeated approval after a partial failure cannot duplicate.
		if _, err := h.store.SaveScheduleEvents(ctx, []model.ScheduleEvent{*event}); err != nil {
			respondError(c, err)
			return
		}
		created = event
	}

	h.cache.Invalidate(ctx, reservation.DeviceID)
	h.dispatcher.Dispatch(reservation.ID)
	h.publishReservationEvent(c, events.TypeReservationApproved, reservation)

	c.JSON(http.StatusOK, gin.H{
		"reservation":    reservation,
		"schedule_event": created,
	})
}

type transitionRequest struct {
	Status model.ReservationStatus `json:"status" binding:"required"`
}

// TransitionReservation handles POST /api/admin/reservations/:id/transition for
// the non-approval transitions (check-in, complete, cancel, no-show).
func (h *Handler) TransitionReservation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid reservation ID"})
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status == model.ReservationApproved {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "use the approve endpoint"})
		return
	}

	ctx := c.Request.Context()
	reservation, err := h.store.TransitionReservation(ctx, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	h.cache.Invalidate(ctx, reservation.DeviceID)
	if req.Status == model.ReservationCancelled {
		h.dispatcher.Dispatch(reservation.ID)
		h.publishReservationEvent(c, events.TypeReservationCancelled, reservation)
	}
	c.JSON(http.StatusOK, reservation)
}

func (h *Handler) publishReservationEvent(c *gin.Context, eventType string, r model.Reservation) {
	if !h.publisher.Enabled() {
		return
	}
	// Best-effort; the publisher logs its own failures.
	_ = h.publisher.Publish(c.Request.Context(), events.ReservationEvent{
		Type:          eventType,
		ReservationID: r.ID,
		DeviceID:      r.DeviceID,
		Date:          r.Date,
		StartHour:     r.StartHour,
		EndHour:       r.EndHour,
		SlotType:      string(r.SlotType),
		Status:        string(r.Status),
		OccurredAt:    time.Now().UTC(),
	})
}
