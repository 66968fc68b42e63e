package routes

import (
	"net/http"
	"time"

	"github.com/roomiesofficial522-svg/Tkitmaster/internal/auth"
	"github.com/roomiesofficial522-svg/Tkitmaster/internal/notifications"
	"github.com/roomiesofficial522-svg/Tkitmaster/internal/seats"
	"github.com/roomiesofficial522-svg/Tkitmaster/internal/shared/config"
	"github.com/roomiesofficial522-svg/Tkitmaster/internal/shared/database"
	"github.com/roomiesofficial522-svg/Tkitmaster/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config      *config.Config
	db          *database.DB
	rateLimiter *ratelimit.RateLimiter
	notifier    *notifications.Service
}

// NewRouter creates a new router instance. rateLimiter and notifier may be nil.
func NewRouter(cfg *config.Config, db *database.DB, rateLimiter *ratelimit.RateLimiter, notifier *notifications.Service) *Router {
	return &Router{
		config:      cfg,
		db:          db,
		rateLimiter: rateLimiter,
		notifier:    notifier,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	api := engine.Group("/api")
	{
		r.setupAuthRoutes(api)
		r.setupSeatRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "tkitmaster",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "tkitmaster",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
}

// setupAuthRoutes configures authentication routes
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authRepo := auth.NewRepository(r.db.GetPostgreSQL(), r.db.GetRedis())

	var sender auth.OTPSender
	if r.notifier != nil {
		sender = r.notifier
	}

	authService := auth.NewService(authRepo, r.config, sender)
	authController := auth.NewController(authService)

	auth.SetupAuthRoutes(rg, authController, r.rateLimiter)
}

// setupSeatRoutes configures the reservation engine routes
func (r *Router) setupSeatRoutes(rg *gin.RouterGroup) {
	seatRepo := seats.NewRepository(r.db.GetPostgreSQL(), r.db.GetRedis())

	var notifier seats.Notifier
	if r.notifier != nil {
		notifier = r.notifier
	}

	seatService := seats.NewService(seatRepo, r.config.Reservation, notifier)
	seatController := seats.NewController(seatService)

	seats.SetupSeatRoutes(rg, seatController, r.config, r.rateLimiter)
}
