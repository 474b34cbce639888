package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/hohihiho/gameplaza-booking-v2-sub014/config"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg config.ServerConfig) *gin.Engine {
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Response cache for the schedule only. Device status goes through the
	// statuscache instead, which handlers invalidate on writes.
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	caching := mw.Cache(cache.New(ttl, 2*ttl), ttl)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/devices", h.GetDevices)
		api.GET("/devices/:id/status", h.GetDeviceStatus)
		api.GET("/devices/:id/slots", h.GetDeviceSlots)

		api.POST("/reservations", h.CreateReservation)
		api.GET("/reservations", h.ListReservations)

		api.GET("/schedule", caching, h.GetSchedule)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)

		api.POST("/auth/login", h.Login)
	}

	admin := api.Group("/admin")
	admin.Use(mw.RequireAdmin(h.auth))
	{
		admin.POST("/devices", h.CreateDevice)
		admin.PATCH("/devices/:id", h.UpdateDevice)

		admin.POST("/reservations/:id/approve", h.ApproveReservation)
		admin.POST("/reservations/:id/transition", h.TransitionReservation)

		admin.POST("/schedule/events", h.CreateScheduleEvent)
		admin.DELETE("/schedule/events/:id", h.DeleteScheduleEvent)
		admin.POST("/schedule/generate", h.GenerateSchedule)
		admin.POST("/schedule/rules/:name/replace", h.ReplaceRuleSchedule)

		admin.GET("/stats", h.GetStats)
	}

	return r
}
