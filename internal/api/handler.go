package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hohihiho/gameplaza-booking-v2-sub014/config"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/auth"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/events"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/recurring"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/schedule"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/statuscache"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/store"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/timeslot"
)

// Dispatcher queues notification work; satisfied by notification.WorkerPool.
type Dispatcher interface {
	Dispatch(reservationID int64)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store       store.Store
	cache       statuscache.Cache
	auth        *auth.Provider
	venue       config.VenueConfig
	dispatcher  Dispatcher
	publisher   *events.Publisher
	runner      *recurring.Runner
	vapidPublic string
	now         func() time.Time
}

// NewHandler creates the API handler set.
func NewHandler(s store.Store, cache statuscache.Cache, authp *auth.Provider, venue config.VenueConfig, d Dispatcher, pub *events.Publisher, runner *recurring.Runner, vapidPublicKey string) *Handler {
	loc := venue.Location()
	return &Handler{
		store:       s,
		cache:       cache,
		auth:        authp,
		venue:       venue,
		dispatcher:  d,
		publisher:   pub,
		runner:      runner,
		vapidPublic: vapidPublicKey,
		now:         func() time.Time { return time.Now().In(loc) },
	}
}

// respondError maps the error taxonomy onto HTTP status codes so clients can
// branch without string matching.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrInvalidTransition):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrLocked):
		c.AbortWithStatusJSON(http.StatusLocked, gin.H{"error": err.Error()})
	case errors.Is(err, timeslot.ErrHourOutOfRange),
		errors.Is(err, timeslot.ErrEmptyRange),
		errors.Is(err, schedule.ErrInvalidRule):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// parseDate validates a YYYY-MM-DD query value, defaulting to the current
// business date (late-night hours still count as the previous day).
func (h *Handler) parseDate(c *gin.Context, param string) (string, bool) {
	raw := c.Query(param)
	if raw == "" {
		return timeslot.BusinessDate(h.now()), true
	}
	if _, err := time.Parse(timeslot.DateLayout, raw); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD"})
		return "", false
	}
	return raw, true
}
