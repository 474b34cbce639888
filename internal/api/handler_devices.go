package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/availability"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/model"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/timeslot"
)

// deviceStatusResponse is the flattened structure for device listings.
type deviceStatusResponse struct {
	model.Device
	ComputedStatus      model.DeviceStatus `json:"computed_status"`
	ActiveReservationID int64              `json:"active_reservation_id,omitempty"`
}

// snapshotFor computes (or serves from cache) a device's current status.
func (h *Handler) snapshotFor(c *gin.Context, device model.Device) (availability.Snapshot, error) {
	ctx := c.Request.Context()
	if snap, found := h.cache.Get(ctx, device.ID); found {
		return snap, nil
	}

	now := h.now()
	date := timeslot.BusinessDate(now)
	reservations, err := h.store.ReservationsForDeviceDate(ctx, device.ID, date, model.OccupyingStatuses)
	if err != nil {
		return availability.Snapshot{}, err
	}

	snap := availability.ComputeStatus(device, reservations, timeslot.At(now))
	if snap.Anomaly {
		log.Printf("availability anomaly for device %d on %s", device.ID, date)
	}
	h.cache.Set(ctx, device.ID, snap)
	return snap, nil
}

// GetDevices handles GET /api/devices. Cache misses are served from a single
// whole-floor reservation fetch rather than one query per device.
func (h *Handler) GetDevices(c *gin.Context) {
	ctx := c.Request.Context()
	devices, err := h.store.ListDevices(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	now := h.now()
	date := timeslot.BusinessDate(now)
	var byDevice map[int64][]model.Reservation

	response := make([]deviceStatusResponse, 0, len(devices))
	for _, device := range devices {
		snap, found := h.cache.Get(ctx, device.ID)
		if !found {
			if byDevice == nil {
				all, err := h.store.ReservationsForDate(ctx, date)
				if err != nil {
					respondError(c, err)
					return
				}
				byDevice = make(map[int64][]model.Reservation, len(devices))
				for _, r := range all {
					if r.Status.Occupies() {
						byDevice[r.DeviceID] = append(byDevice[r.DeviceID], r)
					}
				}
			}
			snap = availability.ComputeStatus(device, byDevice[device.ID], timeslot.At(now))
			if snap.Anomaly {
				log.Printf("availability anomaly for device %d on %s", device.ID, date)
			}
			h.cache.Set(ctx, device.ID, snap)
		}
		response = append(response, deviceStatusResponse{
			Device:              device,
			ComputedStatus:      snap.Status,
			ActiveReservationID: snap.ActiveReservationID,
		})
	}
	c.JSON(http.StatusOK, response)
}

// GetDeviceStatus handles GET /api/devices/:id/status.
func (h *Handler) GetDeviceStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid device ID"})
		return
	}

	device, err := h.store.DeviceByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	snap, err := h.snapshotFor(c, device)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deviceStatusResponse{
		Device:              device,
		ComputedStatus:      snap.Status,
		ActiveReservationID: snap.ActiveReservationID,
	})
}

// GetDeviceSlots handles GET /api/devices/:id/slots?date=.
func (h *Handler) GetDeviceSlots(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid device ID"})
		return
	}
	date, ok := h.parseDate(c, "date")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	device, err := h.store.DeviceByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	// Devices pulled for maintenance or disabled have no bookable slots.
	if device.Status == model.DeviceMaintenance || device.Status == model.DeviceDisabled {
		c.JSON(http.StatusOK, gin.H{
			"device_id": device.ID,
			"date":      date,
			"status":    device.Status,
			"free":      []timeslot.TimeRange{},
		})
		return
	}

	reservations, err := h.store.ReservationsForDeviceDate(ctx, device.ID, date, model.OccupyingStatuses)
	if err != nil {
		respondError(c, err)
		return
	}

	free := availability.FreeRanges(h.venue.Window(), reservations)
	c.JSON(http.StatusOK, gin.H{
		"device_id": device.ID,
		"date":      date,
		"status":    device.Status,
		"free":      free,
	})
}

type createDeviceRequest struct {
	TypeID int64  `json:"type_id" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Note   string `json:"note"`
}

// CreateDevice handles POST /api/admin/devices.
func (h *Handler) CreateDevice(c *gin.Context) {
	var req createDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	device := model.Device{TypeID: req.TypeID, Name: req.Name, Note: req.Note}
	if err := h.store.CreateDevice(c.Request.Context(), &device); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, device)
}

type updateDeviceRequest struct {
	Status model.DeviceStatus `json:"status" binding:"required"`
	Note   string             `json:"note"`
}

// UpdateDevice handles PATCH /api/admin/devices/:id. It flips the
// administrative flags (maintenance, disabled, available); the rental state
// stays computed.
func (h *Handler) UpdateDevice(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid device ID"})
		return
	}

	var req updateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Status {
	case model.DeviceAvailable, model.DeviceMaintenance, model.DeviceDisabled:
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "status must be available, maintenance or disabled"})
		return
	}

	device, err := h.store.UpdateDeviceStatus(c.Request.Context(), id, req.Status, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), id)
	c.JSON(http.StatusOK, device)
}
